// Package language holds the fixed set of programming languages the
// assistant accepts. The list is ordered for display in the language
// select control; IsValid is the only check handlers need before a
// prompt is built.
package language

import "slices"

// Placeholder is the "nothing selected" entry shown first in the select
// control. It is never a valid language.
const Placeholder = "Select Programming Language"

var tags = []string{
	"c", "cpp", "csharp", "css", "dart", "django", "go", "html",
	"java", "javascript", "matlab", "mongodb", "objectivec", "perl",
	"php", "powershell", "python", "r", "regex", "ruby", "rust",
	"sass", "scala", "sql", "swift", "yaml",
}

// Tags returns the recognised language tags in display order.
// The returned slice is a copy.
func Tags() []string {
	return slices.Clone(tags)
}

// Choices returns the placeholder followed by every tag, the list a
// select control renders.
func Choices() []string {
	out := make([]string, 0, len(tags)+1)
	out = append(out, Placeholder)
	return append(out, tags...)
}

// IsValid reports whether tag is a recognised language. The empty
// string and the placeholder are invalid.
func IsValid(tag string) bool {
	if tag == "" || tag == Placeholder {
		return false
	}
	return slices.Contains(tags, tag)
}
