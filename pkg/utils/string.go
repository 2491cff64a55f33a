package utils

import (
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StringHelper provides string utility functions.
// It is not safe for concurrent use.
type StringHelper struct {
	upper cases.Caser
	lower cases.Caser
}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{
		upper: cases.Upper(language.Und),
		lower: cases.Lower(language.Und),
	}
}

// Capitalize upper-cases the first rune and lower-cases the rest,
// so "mr-mime" becomes "Mr-mime" rather than "Mr-Mime".
func (s *StringHelper) Capitalize(str string) string {
	if str == "" {
		return str
	}

	r, size := utf8.DecodeRuneInString(str)

	return s.upper.String(string(r)) + s.lower.String(str[size:])
}

// CapitalizeAll applies Capitalize to every element, preserving order.
// The result is never nil.
func (s *StringHelper) CapitalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, s.Capitalize(v))
	}

	return out
}
