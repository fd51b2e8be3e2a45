package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr string
	}{
		{
			name: "valid",
			req:  NewRequest(TierStandard, "be brief", "hello"),
		},
		{
			name:    "no messages",
			req:     Request{},
			wantErr: "no messages",
		},
		{
			name:    "missing role",
			req:     Request{Messages: []Message{{Content: "hi"}}},
			wantErr: "missing a role",
		},
		{
			name:    "unknown role",
			req:     Request{Messages: []Message{{Role: "tool", Content: "hi"}}},
			wantErr: `unknown role "tool"`,
		},
		{
			name:    "missing content",
			req:     Request{Messages: []Message{{Role: RoleUser, Content: "  "}}},
			wantErr: "missing content",
		},
		{
			name:    "temperature out of range",
			req:     Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}, Temperature: 3},
			wantErr: "temperature",
		},
		{
			name:    "negative max tokens",
			req:     Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}, MaxTokens: -1},
			wantErr: "max tokens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var reqErr *RequestError
			assert.ErrorAs(t, err, &reqErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewRequest_OmitsBlankSystem(t *testing.T) {
	req := NewRequest(TierLite, "", "hello")

	require.Len(t, req.Messages, 1)
	assert.Equal(t, RoleUser, req.Messages[0].Role)
	assert.Equal(t, TierLite, req.Tier)
}

func TestRequestResolve(t *testing.T) {
	cfg := DefaultGroqConfig()

	got := NewRequest(TierLite, "", "hi").resolve(cfg)
	assert.Equal(t, "llama-3.1-8b-instant", got.Model)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	assert.Equal(t, DefaultTemperature, got.Temperature)

	explicit := Request{Model: "custom", MaxTokens: 10, Temperature: 0.2}.resolve(cfg)
	assert.Equal(t, "custom", explicit.Model)
	assert.Equal(t, 10, explicit.MaxTokens)
	assert.Equal(t, float32(0.2), explicit.Temperature)
}

func TestSplitSystem(t *testing.T) {
	system, turns := splitSystem([]Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "q"},
		{Role: RoleSystem, Content: "b"},
		{Role: RoleAssistant, Content: "r"},
	})

	assert.Equal(t, "a\n\nb", system)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "q"}, {Role: RoleAssistant, Content: "r"}}, turns)
}
