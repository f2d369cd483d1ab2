package glpi

import (
	"html"
	"regexp"
	"strings"

	"github.com/kailas-cloud/simdex/internal/domain/document"
)

// ticketDTO is the subset of a GLPI Ticket item the engine needs.
type ticketDTO struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

func (t *ticketDTO) toDocument() document.Document {
	return document.FromTicket(t.ID, cleanText(t.Name), cleanText(t.Content))
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// cleanText turns GLPI's HTML-escaped rich text into plain text.
// Content is stored escaped, so it is unescaped before and after stripping tags.
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(s)
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
