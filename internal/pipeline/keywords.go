package pipeline

import "strings"

// maxKeywords bounds the search query length.
const maxKeywords = 5

// deriveKeywords picks search terms from narration text: the first
// meaningful whitespace-delimited tokens, punctuation stripped. Short filler
// words (3 chars or fewer) are skipped.
func deriveKeywords(text string) string {
	var keywords []string
	for _, token := range strings.Fields(text) {
		cleaned := stripPunctuation(token)
		if len(cleaned) <= 3 {
			continue
		}
		keywords = append(keywords, cleaned)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return strings.Join(keywords, " ")
}

func stripPunctuation(token string) string {
	var b strings.Builder
	for _, r := range token {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
