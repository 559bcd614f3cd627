package chunker

import "unicode/utf8"

// TokenUnit is the number of runes counted as one token.
const TokenUnit = 4

// EstimateTokens gives a rough token count using the ~4 chars/token heuristic.
// It is monotonic in content length.
func EstimateTokens(text string) int {
	return tokensFor(utf8.RuneCountInString(text))
}

func tokensFor(runes int) int {
	return (runes + TokenUnit - 1) / TokenUnit
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
