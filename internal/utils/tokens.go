package utils

import "strings"

// CountTokens estimates the number of tokens in text using the
// 1 token ~= 4 characters heuristic. Non-empty text counts at least 1.
func CountTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	if n < 4 {
		return 1
	}
	return n / 4
}

// TruncateToTokenLimit cuts text to roughly limit tokens, backing off to the
// last whitespace so words are not split.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text
	}
	cut := string(runes[:charLimit])
	if i := strings.LastIndexAny(cut, " \n\t"); i > charLimit/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " \n\t")
}
