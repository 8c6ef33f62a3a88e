package respond

import "testing"

func TestFormatReply(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text untouched",
			input:    "Drink plenty of water and rest.",
			expected: "Drink plenty of water and rest.",
		},
		{
			name:     "bold stripped",
			input:    "This is **important** advice.",
			expected: "This is important advice.",
		},
		{
			name:     "italic stripped",
			input:    "Take it *with food* please.",
			expected: "Take it with food please.",
		},
		{
			name:     "heading stripped",
			input:    "## Summary\nYour results look fine.",
			expected: "Summary\nYour results look fine.",
		},
		{
			name:     "link keeps text",
			input:    "See [this study](https://pubmed.ncbi.nlm.nih.gov/12345) for details.",
			expected: "See this study for details.",
		},
		{
			name:     "inline code stripped",
			input:    "Your reading was `120/80`.",
			expected: "Your reading was 120/80.",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "\n\n  Rest well.  \n",
			expected: "Rest well.",
		},
		{
			name:     "multiplication sign survives",
			input:    "Take 2 x 200mg tablets.",
			expected: "Take 2 x 200mg tablets.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatReply(tt.input); got != tt.expected {
				t.Errorf("FormatReply() = %q, want %q", got, tt.expected)
			}
		})
	}
}
