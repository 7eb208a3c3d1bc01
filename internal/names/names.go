// Package names implements the prefix, sanitization, and document-version
// rules shared by every per-tenant database and document in eddo-core.
package names

import (
	"regexp"
	"strings"
)

// Env selects which database prefix is active.
type Env int

const (
	// EnvProduction selects DATABASE_PREFIX.
	EnvProduction Env = iota
	// EnvTest selects DATABASE_TEST_PREFIX.
	EnvTest
)

var invalidDBChar = regexp.MustCompile(`[^a-z0-9_$()+/-]`)

// Prefix returns the database prefix for the given environment and the two
// configured prefix values (production, test).
func Prefix(env Env, prodPrefix, testPrefix string) string {
	if env == EnvTest {
		return testPrefix
	}
	return prodPrefix
}

// SanitizeUsername converts an arbitrary username into a CouchDB-safe,
// deterministic token: lowercase, invalid characters replaced with "_", a
// "u_" prefix added if the result would not start with a letter, and the
// result truncated to 50 characters.
func SanitizeUsername(s string) string {
	lower := strings.ToLower(s)
	sanitized := invalidDBChar.ReplaceAllString(lower, "_")
	if sanitized == "" || sanitized[0] < 'a' || sanitized[0] > 'z' {
		sanitized = "u_" + sanitized
	}
	if len(sanitized) > 50 {
		sanitized = sanitized[:50]
	}
	return sanitized
}

// GetUserDatabaseName returns the per-user todo database name.
func GetUserDatabaseName(prefix, username string) string {
	return prefix + "_user_" + SanitizeUsername(username)
}

// GetUserRegistryDatabaseName returns the shared tenant-registry database name.
func GetUserRegistryDatabaseName(prefix string) string {
	return prefix + "_user_registry"
}

// GetAuditDatabaseName returns the per-user audit-log database name.
func GetAuditDatabaseName(prefix, username string) string {
	return prefix + "_audit_" + SanitizeUsername(username)
}

// GetChatDatabaseName returns the per-user chat-session database name.
func GetChatDatabaseName(prefix, username string) string {
	return prefix + "_chat_" + SanitizeUsername(username)
}

// IsUserDatabase reports whether dbName is a per-user todo database under
// either prefix. The shared registry database matches the same "_user_"
// prefix shape but is excluded here.
func IsUserDatabase(dbName, prodPrefix, testPrefix string) bool {
	if IsUserRegistryDatabase(dbName, prodPrefix, testPrefix) {
		return false
	}
	return hasKindPrefix(dbName, prodPrefix, "_user_") || hasKindPrefix(dbName, testPrefix, "_user_")
}

// IsUserRegistryDatabase reports whether dbName is the tenant-registry
// database under either prefix.
func IsUserRegistryDatabase(dbName, prodPrefix, testPrefix string) bool {
	return dbName == GetUserRegistryDatabaseName(prodPrefix) || dbName == GetUserRegistryDatabaseName(testPrefix)
}

// IsAuditDatabase reports whether dbName is a per-user audit database under
// either prefix.
func IsAuditDatabase(dbName, prodPrefix, testPrefix string) bool {
	return hasKindPrefix(dbName, prodPrefix, "_audit_") || hasKindPrefix(dbName, testPrefix, "_audit_")
}

// IsChatDatabase reports whether dbName is a per-user chat database under
// either prefix.
func IsChatDatabase(dbName, prodPrefix, testPrefix string) bool {
	return hasKindPrefix(dbName, prodPrefix, "_chat_") || hasKindPrefix(dbName, testPrefix, "_chat_")
}

func hasKindPrefix(dbName, prefix, kind string) bool {
	full := prefix + kind
	return strings.HasPrefix(dbName, full) && len(dbName) > len(full)
}

// ExtractUsernameFromDatabaseName returns the sanitized username portion of
// a per-user database name, or "" if dbName does not match any known kind
// under either prefix.
func ExtractUsernameFromDatabaseName(dbName, prodPrefix, testPrefix string) string {
	if IsUserRegistryDatabase(dbName, prodPrefix, testPrefix) {
		return ""
	}
	for _, prefix := range []string{prodPrefix, testPrefix} {
		for _, kind := range []string{"_user_", "_audit_", "_chat_"} {
			full := prefix + kind
			if strings.HasPrefix(dbName, full) && len(dbName) > len(full) {
				return dbName[len(full):]
			}
		}
	}
	return ""
}
