package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{"python", true},
		{"rust", true},
		{"sql", true},
		{"yaml", true},
		{"", false},
		{Placeholder, false},
		{"Python", false},
		{"cobol", false},
		{" python", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.tag))
		})
	}
}

func TestChoices_PlaceholderFirst(t *testing.T) {
	choices := Choices()

	assert.Equal(t, Placeholder, choices[0])
	assert.Equal(t, Tags(), choices[1:])
}

func TestTags_EveryTagIsValid(t *testing.T) {
	for _, tag := range Tags() {
		assert.True(t, IsValid(tag), "tag %q should be valid", tag)
	}
}

func TestTags_ReturnsCopy(t *testing.T) {
	got := Tags()
	got[0] = "mutated"

	assert.Equal(t, "c", Tags()[0])
	assert.False(t, IsValid("mutated"))
}
