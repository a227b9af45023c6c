package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmpl "html/template"
)

//go:embed *.tmpl
var FS embed.FS

// Template names understood by the email worker.
const (
	ConfirmEmail  = "confirm_email"
	ResetPassword = "reset_password"
)

var subjects = map[string]string{
	ConfirmEmail:  "Confirm Your Email Address",
	ResetPassword: "Password Reset for Liberty Blog",
}

// Subject returns the subject line for a known template name.
func Subject(name string) string {
	if s, ok := subjects[name]; ok {
		return s
	}
	return "Notification"
}

// RenderHTML renders the named template with data.
func RenderHTML(name string, data map[string]any) (string, error) {
	t, err := htmpl.ParseFS(FS, name+".tmpl")
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}
