package catalog

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Entry is one catalog record. The verbatim JSON object is retained so the
// manifest can embed it unchanged, including keys this type does not model.
type Entry struct {
	Name   string
	Mark   string
	Source string
	Title  string
	Artist string
	Year   string

	raw json.RawMessage
}

type entryFields struct {
	Name   string          `json:"name"`
	Mark   string          `json:"mark"`
	Source string          `json:"source"`
	Title  string          `json:"title"`
	Artist string          `json:"artist"`
	Year   json.RawMessage `json:"year"`
}

// UnmarshalJSON decodes the known fields and keeps the raw object.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var fields entryFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*e = Entry{
		Name:   strings.TrimSpace(fields.Name),
		Mark:   strings.TrimSpace(fields.Mark),
		Source: strings.TrimSpace(fields.Source),
		Title:  fields.Title,
		Artist: fields.Artist,
		Year:   scalarString(fields.Year),
		raw:    append(json.RawMessage(nil), data...),
	}
	return nil
}

// MarshalJSON emits the original object when available.
func (e Entry) MarshalJSON() ([]byte, error) {
	if len(e.raw) > 0 {
		return e.raw, nil
	}
	out := map[string]string{
		"name":   e.Name,
		"mark":   e.Mark,
		"source": e.Source,
		"title":  e.Title,
		"artist": e.Artist,
	}
	if e.Year != "" {
		out["year"] = e.Year
	}
	return json.Marshal(out)
}

// Raw returns the verbatim catalog object.
func (e Entry) Raw() json.RawMessage {
	return e.raw
}

// scalarString renders a JSON string or number as text; other values yield "".
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
