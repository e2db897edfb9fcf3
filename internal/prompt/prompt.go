// Package prompt turns a user's code and language into the literal text
// sent to the inference API.
package prompt

import (
	"fmt"
	"strings"
)

// Template is a prompt format with {lang} and {code} placeholders.
type Template string

const (
	Fix     Template = "Fix this {lang} code: {code}"
	Suggest Template = "Provide suggestions for improving this {lang} code: {code}"
)

// Kind names one of the assistant flows. Each kind has exactly one
// template.
type Kind string

const (
	KindFix     Kind = "fix"
	KindSuggest Kind = "suggest"
)

// Template returns the prompt template for k.
func (k Kind) Template() (Template, error) {
	switch k {
	case KindFix:
		return Fix, nil
	case KindSuggest:
		return Suggest, nil
	default:
		return "", fmt.Errorf("prompt: unknown kind %q", string(k))
	}
}

// Build substitutes lang and code into t verbatim. Substitution is a single
// pass over the template, so placeholder text inside code is left as is.
//
// Build does not validate lang; callers check it against the language
// registry first.
func Build(t Template, lang, code string) string {
	r := strings.NewReplacer("{lang}", lang, "{code}", code)
	return r.Replace(string(t))
}
