package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

type templateData struct {
	Nickname string
	Link     string
	Token    string
}

type emailTemplate struct {
	subject string
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

var verificationTemplate = emailTemplate{
	subject: "Verify your email address",
	text: texttemplate.Must(texttemplate.New("verification.txt").Parse(`Hi {{.Nickname}},

Please confirm your email address by opening the link below:

{{.Link}}

If you did not create an account, you can ignore this email.
`)),
	html: htmltemplate.Must(htmltemplate.New("verification.html").Parse(`<p>Hi {{.Nickname}},</p>
<p>Please confirm your email address:</p>
<p><a href="{{.Link}}">Verify email</a></p>
<p>If you did not create an account, you can ignore this email.</p>
`)),
}

var passwordResetTemplate = emailTemplate{
	subject: "Reset your password",
	text: texttemplate.Must(texttemplate.New("reset.txt").Parse(`Hi {{.Nickname}},

Someone asked to reset the password for your account. Open the link below to choose a new one:

{{.Link}}

The link expires soon. If you did not ask for a reset, ignore this email; your password stays the same.
`)),
	html: htmltemplate.Must(htmltemplate.New("reset.html").Parse(`<p>Hi {{.Nickname}},</p>
<p>Someone asked to reset the password for your account.</p>
<p><a href="{{.Link}}">Choose a new password</a></p>
<p>If you did not ask for a reset, ignore this email; your password stays the same.</p>
`)),
}

func render(t emailTemplate, to string, data templateData) (Message, error) {
	var text, html bytes.Buffer

	if err := t.text.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("failed to render %s: %w", t.text.Name(), err)
	}
	if err := t.html.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("failed to render %s: %w", t.html.Name(), err)
	}

	return Message{
		To:      to,
		Subject: t.subject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
