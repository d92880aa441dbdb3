package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"json code block", "```json\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"generic code block", "```\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"code block with language", "```javascript\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"plain JSON", `{"key": "value"}`, `{"key": "value"}`},
		{"array", `  [1, 2]  `, `[1, 2]`},
		{"preamble before object", "As requested, here is the JSON:\n{\"company\": \"Acme\"}", `{"company": "Acme"}`},
		{"preamble and trailing text", "Sure!\n{\"a\": {\"b\": 1}}\nLet me know.", `{"a": {"b": 1}}`},
		{"no JSON", "I cannot help with that", "I cannot help with that"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}
