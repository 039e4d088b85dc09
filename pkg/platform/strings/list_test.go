package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "only separators", input: " , ,", expected: []string{}},
		{name: "single broker", input: "localhost:9092", expected: []string{"localhost:9092"}},
		{name: "trims and keeps order", input: " b:9092 , a:9092", expected: []string{"b:9092", "a:9092"}},
		{name: "drops repeats", input: "https://a.example,https://b.example, https://a.example", expected: []string{"https://a.example", "https://b.example"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input))
		})
	}
}

func TestDedupeAndTrimNil(t *testing.T) {
	assert.Nil(t, DedupeAndTrim(nil))
}
