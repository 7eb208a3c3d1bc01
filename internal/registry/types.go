package registry

import "time"

// Status is the lifecycle state of a registry entry.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusPending   Status = "pending"
)

// Permission is a capability granted to a user.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

// Preferences holds the per-user email-sync knobs the scheduler reads.
type Preferences struct {
	EmailSync         bool              `json:"emailSync"`
	EmailConfig       *EmailConfig      `json:"emailConfig,omitempty"`
	EmailFolder       string            `json:"emailFolder,omitempty"`
	EmailSyncInterval int               `json:"emailSyncInterval,omitempty"` // minutes
	EmailSyncTags     []string          `json:"emailSyncTags,omitempty"`
	EmailLastSync     *time.Time        `json:"emailLastSync,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// EmailConfig is the connection config a user supplies for IMAP sync.
type EmailConfig struct {
	Provider     string `json:"provider"` // "gmail" or "imap"
	Host         string `json:"host,omitempty"`
	Port         int    `json:"port,omitempty"`
	ImapUser     string `json:"imapUser,omitempty"`
	ImapPassword string `json:"imapPassword,omitempty"`
	OAuthEmail   string `json:"oauthEmail,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Entry is one tenant registry document.
type Entry struct {
	ID           string       `json:"_id"`
	Rev          string       `json:"_rev,omitempty"`
	Username     string       `json:"username"`
	TelegramID   *int64       `json:"telegram_id,omitempty"`
	Email        string       `json:"email,omitempty"`
	DatabaseName string       `json:"database_name"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Permissions  []Permission `json:"permissions"`
	Status       Status       `json:"status"`
	Preferences  Preferences  `json:"preferences"`
	Version      string       `json:"version"`
}

// Patch describes a partial update to an Entry; nil fields are left
// unchanged, matching the read-modify-write semantics of Update.
type Patch struct {
	Email       *string
	TelegramID  *int64
	Status      *Status
	Permissions []Permission
	Preferences *Preferences
}
