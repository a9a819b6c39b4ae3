package usecase

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases text, drops every rune that is not a letter, digit or
// whitespace, collapses whitespace runs to one space and trims the result.
// Input is NFC-composed first so decomposed letters such as "å" survive as "å".
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	composed := norm.NFC.String(strings.ToLower(text))

	var b strings.Builder
	b.Grow(len(composed))
	for _, r := range composed {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
