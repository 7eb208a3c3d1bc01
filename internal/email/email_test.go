package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeQuotedPrintableUTF8RoundTrip(t *testing.T) {
	assert.Equal(t, "café", decodeQuotedPrintable("caf=C3=A9"))
	assert.Equal(t, "→", decodeQuotedPrintable("=E2=86=92"))
}

func TestDecodeQuotedPrintableRemovesSoftLineBreaks(t *testing.T) {
	assert.Equal(t, "hello world", decodeQuotedPrintable("hello=\r\n world"))
	assert.Equal(t, "hello world", decodeQuotedPrintable("hello=\n world"))
}

func TestGenerateExternalIDIsDeterministic(t *testing.T) {
	a := Item{Folder: "eddo", MessageID: "<abc@mail.example.com>"}
	b := Item{Folder: "eddo", MessageID: "<abc@mail.example.com>"}
	c := Item{Folder: "eddo", MessageID: "<xyz@mail.example.com>"}

	assert.Equal(t, GenerateExternalID(a), GenerateExternalID(b))
	assert.NotEqual(t, GenerateExternalID(a), GenerateExternalID(c))
	assert.Regexp(t, `^email:[0-9a-f]{8}/[0-9a-f]{8}$`, GenerateExternalID(a))
}

func TestGitHubExternalIDFormat(t *testing.T) {
	assert.Equal(t, "github:acme/widgets/issues/42", GitHubExternalID("acme", "widgets", 42))
}

func TestDecodeBodyFallsBackToPlainTextOnShortHTML(t *testing.T) {
	got := decodeBody("a reasonably long plain text body that exceeds the threshold easily", "<p>hi</p>")
	assert.Equal(t, "a reasonably long plain text body that exceeds the threshold easily", got)
}

func TestExtractMIMEPartFindsPlainText(t *testing.T) {
	raw := "Content-Type: text/plain\r\n\r\nhello there\r\n--boundary"
	assert.Equal(t, "hello there", extractMIMEPart(raw, "text/plain"))
}

func TestExtractMIMEPartMissingReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", extractMIMEPart("no markers here", "text/html"))
}

func TestMapEmailToTodoBuildsAlpha3Shape(t *testing.T) {
	item := Item{
		Subject:   "Invoice due",
		Body:      "pay up",
		MessageID: "<1@mail.example.com>",
		Folder:    "eddo",
	}
	td := MapEmailToTodo(item, []string{"source:email", "gtd:next"})

	assert.Equal(t, "email", td.Context)
	assert.Equal(t, []string{"source:email", "gtd:next"}, td.Tags)
	assert.NotNil(t, td.ExternalID)
	assert.Equal(t, GenerateExternalID(item), *td.ExternalID)
	assert.Nil(t, td.Link)
}

func TestMapEmailToTodoSetsGmailLink(t *testing.T) {
	item := Item{GmailMessageID: "abc123"}
	td := MapEmailToTodo(item, nil)
	assert.NotNil(t, td.Link)
	assert.Contains(t, *td.Link, "abc123")
}
