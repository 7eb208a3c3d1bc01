package email

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}

// GenerateExternalID deterministically derives the cross-source dedup key
// for a fetched email: two items with equal (folder, messageId) always
// produce equal ids.
func GenerateExternalID(item Item) string {
	return fmt.Sprintf("email:%s/%s", shortHash(item.Folder), shortHash(item.MessageID))
}

// GitHubExternalID builds the external id for a GitHub issue-sync source,
// per §6's "External-id format": github:<owner>/<repo>/issues/<n>. This
// adapter is a thin, ingestion-side-agnostic helper — the sync path that
// calls it lives outside this package's IMAP-specific scope, mirroring how
// generateExternalId is itself a pure function independent of its caller.
func GitHubExternalID(owner, repo string, issueNumber int) string {
	return fmt.Sprintf("github:%s/%s/issues/%d", owner, repo, issueNumber)
}

// RSSExternalID builds the external id for an RSS-sync source using the
// feed item's GUID, hashed the same way email message ids are, for a
// consistent dedup key shape across ingestion sources.
func RSSExternalID(feedURL, guid string) string {
	return fmt.Sprintf("rss:%s/%s", shortHash(feedURL), shortHash(guid))
}
