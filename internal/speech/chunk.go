package speech

import (
	"strings"
	"unicode"
)

// splitChunks breaks text into sentence-boundary chunks of approximately
// size characters. If size is 0 or the text is short, it returns the text
// as-is in a single slice.
func splitChunks(text string, size int) []string {
	if size <= 0 || len(text) <= size {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	for _, s := range splitSentences(text) {
		if current.Len() > 0 && current.Len()+len(s) > size {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(s)
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	out := chunks[:0]
	for _, c := range chunks {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// splitSentences splits text at sentence boundaries (. ! ?) keeping the
// punctuation and trailing whitespace attached to the preceding sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if isSentenceEnd(runes[i]) {
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
				current.WriteRune(runes[i])
			}
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
