package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInviteCode(t *testing.T) {
	tests := []struct {
		input    string
		want     string
		accepted bool
	}{
		{"https://discord.gg/abc123", "abc123", true},
		{"discord.gg/abc123", "abc123", true},
		{"https://discord.com/invite/my-server", "my-server", true},
		{"https://discordapp.com/invite/xYz", "xYz", true},
		{"  discord.gg/abc123  ", "abc123", true},
		{"abc123", "abc123", true},
		{"", "", false},
		{"not an invite!", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseInviteCode(tt.input)
			assert.Equal(t, tt.accepted, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
