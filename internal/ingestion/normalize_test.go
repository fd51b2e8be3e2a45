package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "crlf and trailing space",
			input: "Jane Doe   \r\nEngineer\r\n",
			want:  "Jane Doe\nEngineer",
		},
		{
			name:  "form feed between pages",
			input: "page one\fpage two",
			want:  "page one\npage two",
		},
		{
			name:  "whitespace runs collapse",
			input: "  Go,\t\tSQL,   Kubernetes  ",
			want:  "Go, SQL, Kubernetes",
		},
		{
			name:  "blank line runs collapse",
			input: "Summary\n\n\n\n\nExperience",
			want:  "Summary\n\nExperience",
		},
		{
			name:  "control characters stripped",
			input: "Jane\x00 Doe\x07",
			want:  "Jane Doe",
		},
		{
			name:  "shouted heading",
			input: "WORK EXPERIENCE\nAcme Corp",
			want:  "## Work Experience\nAcme Corp",
		},
		{
			name:  "short acronym is not a heading",
			input: "AWS\nGCP",
			want:  "AWS\nGCP",
		},
		{
			name:  "long shouted sentence is not a heading",
			input: "I LED A TEAM OF TWELVE ENGINEERS ACROSS THREE TIME ZONES",
			want:  "I LED A TEAM OF TWELVE ENGINEERS ACROSS THREE TIME ZONES",
		},
		{
			name:  "markdown heading kept",
			input: "## SKILLS",
			want:  "## SKILLS",
		},
		{
			name:  "glyph bullets",
			input: "• Shipped v2\n●   Cut costs 30%\n•",
			want:  "- Shipped v2\n- Cut costs 30%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "normalization must be idempotent")
		})
	}
}

func TestNormalize_IdempotentOnMessyInput(t *testing.T) {
	inputs := []string{
		"\r\n\r\nEDUCATION & TRAINING\r\n\r\n\r\n• B.Sc. Computer Science\f\fSKILLS\n\t Go   Rust",
		"\ufeffJANE DOE\n\n\n\n- already a bullet\n   # heading with spaces",
		"\x1b[0mcolored\x1b[0m",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}
