package email

import (
	"fmt"
	"time"

	"github.com/walterra/eddo-core/internal/todo"
)

const maxDescriptionLength = 50000

// MapEmailToTodo builds an alpha3 todo from a fetched item: context is
// always "email", due is the message's received date, and externalId ties
// the todo back to this message for dedup on subsequent sync ticks.
func MapEmailToTodo(item Item, tags []string) todo.Todo {
	desc := item.Body
	if len(desc) > maxDescriptionLength {
		desc = desc[:maxDescriptionLength]
	}

	externalID := GenerateExternalID(item)
	t := todo.Todo{
		ID:          time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Title:       item.Subject,
		Description: desc,
		Context:     "email",
		Due:         item.ReceivedDate,
		Tags:        tags,
		Active:      map[string]*time.Time{},
		ExternalID:  &externalID,
		Metadata:    map[string]interface{}{},
	}

	if item.GmailMessageID != "" {
		link := gmailDeepLink(item.GmailMessageID)
		t.Link = &link
	}
	return t
}

func gmailDeepLink(gmailMessageID string) string {
	return fmt.Sprintf("https://mail.google.com/mail/u/0/#all/%s", gmailMessageID)
}
