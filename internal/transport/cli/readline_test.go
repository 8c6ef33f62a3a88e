package cli

import "testing"

func TestParseDocCommand(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		text    string
		docID   string
	}{
		{
			name:  "plain message",
			line:  "I have a headache",
			text:  "I have a headache",
			docID: "",
		},
		{
			name:  "doc with question",
			line:  "/doc abc-123 is my hemoglobin ok?",
			text:  "is my hemoglobin ok?",
			docID: "abc-123",
		},
		{
			name:  "doc without question gets default",
			line:  "/doc abc-123",
			text:  "What does this document say?",
			docID: "abc-123",
		},
		{
			name:  "doc mentioned mid-sentence is plain text",
			line:  "what does /doc mean?",
			text:  "what does /doc mean?",
			docID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, docID := parseDocCommand(tt.line)
			if text != tt.text || docID != tt.docID {
				t.Errorf("parseDocCommand(%q) = (%q, %q), want (%q, %q)", tt.line, text, docID, tt.text, tt.docID)
			}
		})
	}
}
