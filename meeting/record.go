package meeting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DateLayout is the layout of an HTML date input value.
const DateLayout = "2006-01-02"

// Form field names, in payload order.
const (
	FieldTitle        = "title"
	FieldDate         = "date"
	FieldParticipants = "participants"
	FieldTopics       = "topics"
	FieldDecisions    = "decisions"
	FieldActions      = "actions"
	FieldNotes        = "notes"
)

// Record is one meeting as entered in the form. Field order is the key order
// of the encoded payload.
type Record struct {
	Title        string `json:"title"`
	Date         string `json:"date"`
	Participants string `json:"participants"`
	Topics       string `json:"topics"`
	Decisions    string `json:"decisions"`
	Actions      string `json:"actions"`
	Notes        string `json:"notes"`
}

// FromForm builds a record from submitted form values. Every field except the
// date is trimmed.
func FromForm(values url.Values) Record {
	return Record{
		Title:        strings.TrimSpace(values.Get(FieldTitle)),
		Date:         values.Get(FieldDate),
		Participants: strings.TrimSpace(values.Get(FieldParticipants)),
		Topics:       strings.TrimSpace(values.Get(FieldTopics)),
		Decisions:    strings.TrimSpace(values.Get(FieldDecisions)),
		Actions:      strings.TrimSpace(values.Get(FieldActions)),
		Notes:        strings.TrimSpace(values.Get(FieldNotes)),
	}
}

// Default is the empty form, dated today.
func Default(now time.Time) Record {
	return Record{Date: now.Format(DateLayout)}
}

// Payload returns the JSON encoding of the record as the workflow expects it
// in the meeting_payload input.
func (r Record) Payload() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return "", fmt.Errorf("[meeting Payload] encode record: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
