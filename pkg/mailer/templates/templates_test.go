package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderConfirmEmail(t *testing.T) {
	html, err := RenderHTML(ConfirmEmail, map[string]any{
		"SiteName":    "Liberty Blog",
		"FirstName":   "Maya",
		"ConfirmLink": "http://localhost/confirm-email/uid/tok",
		"ExpiresIn":   "24h0m0s",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Maya")
	assert.Contains(t, html, "http://localhost/confirm-email/uid/tok")
	assert.Contains(t, html, "Liberty Blog")
}

func TestRenderResetPassword(t *testing.T) {
	html, err := RenderHTML(ResetPassword, map[string]any{
		"SiteName":  "Liberty Blog",
		"FirstName": "Maya",
		"Email":     "maya@example.com",
		"ResetLink": "http://localhost/reset-password?token=tok",
		"ExpiresIn": "30m0s",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "maya@example.com")
	assert.Contains(t, html, "http://localhost/reset-password?token=tok")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := RenderHTML("no_such_template", nil)
	assert.Error(t, err)
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "Confirm Your Email Address", Subject(ConfirmEmail))
	assert.Equal(t, "Password Reset for Liberty Blog", Subject(ResetPassword))
	assert.Equal(t, "Notification", Subject("mystery"))
}
