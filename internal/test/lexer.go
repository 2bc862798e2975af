package test

import (
	"math/rand"
	"strings"
)

const validTokens = "def|extern|var|in|foo|bar_2|_tmp|x|(|)|[|]|{|}|,|;|+|-|*|/|^|<|>|<=|>=|==|=|0|42|9223372036854775807|3.14|0.5|1e10|2.5E-3|# a comment\n|\n|\t"

// GetRandomTokens returns size random lexemes joined by spaces. The result
// always lexes without errors.
func GetRandomTokens(size int) string {
	return GetRandomTokensWithSep(size, " ")
}

func GetRandomTokensWithSep(size int, sep string) string {
	valid := strings.Split(validTokens, "|")

	var toks []string
	for len(toks) < size {
		toks = append(toks, valid[rand.Intn(len(valid))])
	}

	return strings.Join(toks, sep)
}
