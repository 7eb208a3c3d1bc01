package todo

import "time"

// Todo is the alpha3 document shape; every todo read through this package
// is returned in this shape regardless of the version it was stored in.
type Todo struct {
	ID          string              `json:"_id"`
	Rev         string              `json:"_rev,omitempty"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Context     string              `json:"context,omitempty"`
	Due         time.Time           `json:"due"`
	Tags        []string            `json:"tags,omitempty"`
	Completed   *time.Time          `json:"completed"`
	Active      map[string]*time.Time `json:"active"`
	Repeat      *int                `json:"repeat"`
	Link        *string             `json:"link"`
	ExternalID  *string             `json:"externalId"`
	Metadata    map[string]interface{} `json:"metadata"`
	Version     string              `json:"version"`
}

const (
	versionAlpha3 = "alpha3"
	tagCalendar   = "gtd:calendar"
)

// IsOpen reports whether the todo is not yet completed.
func (t Todo) IsOpen() bool { return t.Completed == nil }

// HasActiveSession reports whether any active entry has a null end value.
func (t Todo) HasActiveSession() bool {
	for _, end := range t.Active {
		if end == nil {
			return true
		}
	}
	return false
}

// HasTag reports whether tag is present.
func (t Todo) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}
