// Package chat implements the per-user chat session store (§4.F): session
// and entry documents, branch reconstruction by parent-pointer walk, and
// running stats maintained as entries are appended.
package chat

import "time"

// Stats accumulates running totals over a session's message entries.
type Stats struct {
	MessageCount          int     `json:"messageCount"`
	UserMessageCount      int     `json:"userMessageCount"`
	AssistantMessageCount int     `json:"assistantMessageCount"`
	ToolCallCount         int     `json:"toolCallCount"`
	InputTokens           int     `json:"inputTokens"`
	OutputTokens          int     `json:"outputTokens"`
	TotalCost             float64 `json:"totalCost"`
}

// Session is a chat conversation document.
type Session struct {
	ID              string    `json:"_id"`
	Rev             string    `json:"_rev,omitempty"`
	Username        string    `json:"username"`
	Name            string    `json:"name,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Repository      string    `json:"repository,omitempty"`
	ContainerState  string    `json:"containerState,omitempty"`
	WorktreeState   string    `json:"worktreeState,omitempty"`
	Stats           Stats     `json:"stats"`
	ParentSessionID *string   `json:"parentSessionId,omitempty"`
}

// EntryType enumerates the kinds of entries a session accumulates; only
// "message" drives stats, other kinds (tool-call records, system notices)
// pass through untouched.
type EntryType string

const (
	EntryTypeMessage EntryType = "message"
)

// MessageRole distinguishes user from assistant message entries for stats
// purposes.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Usage reports token/cost accounting supplied with an assistant message.
type Usage struct {
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	TotalCost    float64 `json:"totalCost"`
}

// ToolCallItem marks one tool invocation inside a message's structured
// content, counted toward ToolCallCount.
type ToolCallItem struct {
	Name string `json:"name"`
}

// MessagePayload is the typed body of a "message" entry.
type MessagePayload struct {
	Role      MessageRole    `json:"role"`
	Content   string         `json:"content,omitempty"`
	ToolCalls []ToolCallItem `json:"toolCalls,omitempty"`
	Usage     *Usage         `json:"usage,omitempty"`
}

// Entry is one append-only item within a session; ParentID forms the
// branch graph.
type Entry struct {
	ID        string          `json:"_id"`
	Rev       string          `json:"_rev,omitempty"`
	SessionID string          `json:"sessionId"`
	Timestamp time.Time       `json:"timestamp"`
	ParentID  *string         `json:"parentId"`
	Type      EntryType       `json:"type"`
	Message   *MessagePayload `json:"message,omitempty"`
}

// delta computes the Stats increment contributed by inserting entry,
// per the §4.F stats-delta rules. Non-message entries contribute nothing.
func delta(entry Entry) Stats {
	if entry.Type != EntryTypeMessage || entry.Message == nil {
		return Stats{}
	}
	m := entry.Message

	d := Stats{MessageCount: 1}
	switch m.Role {
	case RoleUser:
		d.UserMessageCount = 1
	case RoleAssistant:
		d.AssistantMessageCount = 1
		d.ToolCallCount = len(m.ToolCalls)
		if m.Usage != nil {
			d.InputTokens = m.Usage.InputTokens
			d.OutputTokens = m.Usage.OutputTokens
			d.TotalCost = m.Usage.TotalCost
		}
	}
	return d
}

func addStats(s Stats, d Stats) Stats {
	return Stats{
		MessageCount:          s.MessageCount + d.MessageCount,
		UserMessageCount:      s.UserMessageCount + d.UserMessageCount,
		AssistantMessageCount: s.AssistantMessageCount + d.AssistantMessageCount,
		ToolCallCount:         s.ToolCallCount + d.ToolCallCount,
		InputTokens:           s.InputTokens + d.InputTokens,
		OutputTokens:          s.OutputTokens + d.OutputTokens,
		TotalCost:             s.TotalCost + d.TotalCost,
	}
}
