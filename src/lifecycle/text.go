package lifecycle

import (
	"strings"

	"github.com/catalogue-registry/registry/src/catalogue"
)

// prettifyText collapses whitespace and puts exactly one space after every special character, none before it.
// "a ,b  ,  c" becomes "a, b, c".
func prettifyText(text, specialCharacters string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}

	var sb strings.Builder
	for _, r := range text {
		if strings.ContainsRune(specialCharacters, r) {
			out := strings.TrimRight(sb.String(), " ")
			sb.Reset()
			sb.WriteString(out)
			sb.WriteRune(r)
			sb.WriteRune(' ')
			continue
		}
		if r == ' ' && strings.HasSuffix(sb.String(), " ") {
			continue
		}
		sb.WriteRune(r)
	}
	return strings.TrimSpace(sb.String())
}

// Normalizes free text fields before they are stored
func prettify(p catalogue.Payload) {
	switch v := p.(type) {
	case *catalogue.Service:
		v.Tagline = prettifyText(v.Tagline, ",")
		v.Version = strings.TrimSpace(v.Version)
	case *catalogue.TrainingResource:
		v.Title = strings.TrimSpace(v.Title)
	}
}
