package document

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Document is a text document taking part in similarity ranking (immutable value object).
// Title and content may be empty; ID is opaque and compared only for equality.
type Document struct {
	id      string
	title   string
	content string
}

// New creates a Document.
func New(id, title, content string) Document {
	return Document{id: id, title: title, content: content}
}

// FromTicket creates a Document keyed by a numeric ticket ID.
func FromTicket(ticketID int, title, content string) Document {
	return Document{id: strconv.Itoa(ticketID), title: title, content: content}
}

// Coerce builds a Document from loosely typed fields (JSON payloads, search rows).
// ID may be a string or any JSON number; title and content must be strings or nil.
func Coerce(id, title, content any) (Document, error) {
	sid, err := coerceID(id)
	if err != nil {
		return Document{}, err
	}
	st, err := coerceText("title", title)
	if err != nil {
		return Document{}, err
	}
	sc, err := coerceText("content", content)
	if err != nil {
		return Document{}, err
	}
	return Document{id: sid, title: st, content: sc}, nil
}

func coerceID(v any) (string, error) {
	switch id := v.(type) {
	case string:
		if strings.TrimSpace(id) == "" {
			return "", fmt.Errorf("document id is required")
		}
		return id, nil
	case int:
		return strconv.Itoa(id), nil
	case int64:
		return strconv.FormatInt(id, 10), nil
	case float64:
		if id != math.Trunc(id) || math.IsInf(id, 0) {
			return "", fmt.Errorf("document id %v is not an integer", id)
		}
		if math.Abs(id) >= 1<<63 {
			return "", fmt.Errorf("document id %v is out of range", id)
		}
		return strconv.FormatInt(int64(id), 10), nil
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return strconv.FormatInt(n, 10), nil
		}
		f, err := id.Float64()
		if err != nil {
			return "", fmt.Errorf("document id %q is not a number", id.String())
		}
		return coerceID(f)
	case nil:
		return "", fmt.Errorf("document id is required")
	default:
		return "", fmt.Errorf("unsupported document id type %T", v)
	}
}

func coerceText(field string, v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	default:
		return "", fmt.Errorf("document %s must be a string, got %T", field, v)
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Content returns the document body.
func (d *Document) Content() string { return d.content }

// Text returns title and content joined by a space, the form used for free-text comparison.
func (d *Document) Text() string {
	return strings.TrimSpace(d.title + " " + d.content)
}

// WithText returns a copy with title and content replaced.
func (d Document) WithText(title, content string) Document {
	d.title = title
	d.content = content
	return d
}
