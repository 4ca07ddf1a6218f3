package mail

import (
	"bytes"
	"text/template"
)

var (
	verifyTemplate = template.Must(template.New("verify").Parse(`Hello {{.Name}},

Please click the link below to verify your email address.

{{.URL}}

The link expires in {{.ExpiresIn}}.

If you did not create an account, no further action is required.
`))

	resetTemplate = template.Must(template.New("reset").Parse(`Hello {{.Name}},

You are receiving this email because we received a password reset request for your account.

{{.URL}}

This password reset link will expire in {{.ExpiresIn}}.

If you did not request a password reset, no further action is required.
`))
)

type linkData struct {
	Name      string
	URL       string
	ExpiresIn string
}

// VerificationMessage builds the "verify your email" notification.
func VerificationMessage(to, name, url, expiresIn string) (Message, error) {
	body, err := render(verifyTemplate, linkData{Name: name, URL: url, ExpiresIn: expiresIn})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Verify Email Address", Body: body}, nil
}

// ResetPasswordMessage builds the password reset notification.
func ResetPasswordMessage(to, name, url, expiresIn string) (Message, error) {
	body, err := render(resetTemplate, linkData{Name: name, URL: url, ExpiresIn: expiresIn})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Reset Password Notification", Body: body}, nil
}

func render(t *template.Template, data linkData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
