package similarity

import "regexp"

var (
	emailPattern  = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	ipPattern     = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	numberPattern = regexp.MustCompile(`\b\d{5,}\b`)
	urlPattern    = regexp.MustCompile(`(?i)https?://\S+`)
)

// Anonymize masks e-mail addresses, IPv4 addresses, long numbers and URLs
// so personal data never reaches a response.
func Anonymize(text string) string {
	if text == "" {
		return ""
	}
	text = emailPattern.ReplaceAllString(text, "[EMAIL]")
	text = ipPattern.ReplaceAllString(text, "[IP]")
	text = numberPattern.ReplaceAllString(text, "[NUM]")
	return urlPattern.ReplaceAllString(text, "[URL]")
}
