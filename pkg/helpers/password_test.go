package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := HashPassword("orchid-lantern-42")
	require.NoError(t, err)
	assert.NotEqual(t, "orchid-lantern-42", hash)
	assert.True(t, CompareHashAndPassword(hash, "orchid-lantern-42"))
	assert.False(t, CompareHashAndPassword(hash, "orchid-lantern-43"))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		attrs    []string
		wantErr  error
	}{
		{"acceptable", "orchid-lantern-42", nil, nil},
		{"too short", "ab1x", nil, ErrPasswordTooShort},
		{"entirely numeric", "4819203857", nil, ErrPasswordNumeric},
		{"common password", "Password123", nil, ErrPasswordCommon},
		{"contains email local part", "maya2024pass", []string{"maya@example.com"}, ErrPasswordSimilar},
		{"contains first name", "xxReinholdxx", []string{"reinhold"}, ErrPasswordSimilar},
		{"password inside attribute", "annalise", []string{"annalise-or@example.com"}, ErrPasswordSimilar},
		{"short attributes ignored", "brightriver77", []string{"bri", "al"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password, tt.attrs...)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
