package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeltaUserMessage(t *testing.T) {
	entry := Entry{Type: EntryTypeMessage, Message: &MessagePayload{Role: RoleUser, Content: "hi"}}
	d := delta(entry)
	assert.Equal(t, Stats{MessageCount: 1, UserMessageCount: 1}, d)
}

func TestDeltaAssistantMessageWithUsageAndToolCalls(t *testing.T) {
	entry := Entry{
		Type: EntryTypeMessage,
		Message: &MessagePayload{
			Role:      RoleAssistant,
			ToolCalls: []ToolCallItem{{Name: "createTodo"}, {Name: "listTodos"}},
			Usage:     &Usage{InputTokens: 100, OutputTokens: 50, TotalCost: 0.002},
		},
	}
	d := delta(entry)
	assert.Equal(t, Stats{
		MessageCount:          1,
		AssistantMessageCount: 1,
		ToolCallCount:         2,
		InputTokens:           100,
		OutputTokens:          50,
		TotalCost:             0.002,
	}, d)
}

func TestDeltaNonMessageEntryIsZero(t *testing.T) {
	entry := Entry{Type: "tool_call_record"}
	assert.Equal(t, Stats{}, delta(entry))
}

func TestAddStatsAccumulates(t *testing.T) {
	a := Stats{MessageCount: 2, InputTokens: 10}
	b := Stats{MessageCount: 1, OutputTokens: 5}
	assert.Equal(t, Stats{MessageCount: 3, InputTokens: 10, OutputTokens: 5}, addStats(a, b))
}

func TestHex4Length(t *testing.T) {
	id := hex4()
	assert.Len(t, id, 4)
}
