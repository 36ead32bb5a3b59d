package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractReasoning(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantContent   string
		wantReasoning string
	}{
		{
			name:          "reasoning block in the middle",
			input:         "abc<think>reasoning</think>def",
			wantContent:   "abcdef",
			wantReasoning: "reasoning",
		},
		{
			name:          "text before the block is kept",
			input:         "Answer: <think>check units</think>42 km",
			wantContent:   "Answer: 42 km",
			wantReasoning: "check units",
		},
		{
			name:          "no marker leaves content unchanged",
			input:         "plain answer",
			wantContent:   "plain answer",
			wantReasoning: "",
		},
		{
			name:          "missing opening tag still extracts",
			input:         "thinking out loud</think>answer",
			wantContent:   "answer",
			wantReasoning: "thinking out loud",
		},
		{
			name:          "only the first block is extracted",
			input:         "<think>one</think>mid<think>two</think>end",
			wantContent:   "mid<think>two</think>end",
			wantReasoning: "one",
		},
		{
			name:          "surrounding whitespace is trimmed",
			input:         "<think>\n  deep thought \n</think>\n\nfinal",
			wantContent:   "final",
			wantReasoning: "deep thought",
		},
		{
			name:          "empty reasoning block",
			input:         "<think></think>answer",
			wantContent:   "answer",
			wantReasoning: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, reasoning := ExtractReasoning(tt.input)
			assert.Equal(t, tt.wantContent, content)
			assert.Equal(t, tt.wantReasoning, reasoning)
		})
	}
}
