package mailer

import (
	"bytes"
	"fmt"
	htmpl "html/template"
	texttpl "text/template"
)

// Template names understood by the email worker.
const (
	TemplateVerifyEmail = "verify_email"
)

const verifySubject = "Verify your email address"

const verifyText = `Hi {{.Username}},

Please verify your email by clicking the link below:

{{.Link}}

The link expires in {{.ExpiresIn}}. If you did not create an account, you can
ignore this message.
`

const verifyHTML = `<html>
<body style="font-family: sans-serif;">
  <p>Hi {{.Username}},</p>
  <p>Please verify your email by clicking the link below:</p>
  <p><a href="{{.Link}}">{{.Link}}</a></p>
  <p>The link expires in {{.ExpiresIn}}. If you did not create an account,
  you can ignore this message.</p>
</body>
</html>
`

var (
	verifyTextTpl = texttpl.Must(texttpl.New(TemplateVerifyEmail + ".text").Parse(verifyText))
	verifyHTMLTpl = htmpl.Must(htmpl.New(TemplateVerifyEmail + ".html").Parse(verifyHTML))
)

// Render renders subject, text, and html bodies for the named template.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	switch name {
	case TemplateVerifyEmail:
		var tb, hb bytes.Buffer
		if err = verifyTextTpl.Execute(&tb, data); err != nil {
			return "", "", "", fmt.Errorf("render %s text: %w", name, err)
		}
		if err = verifyHTMLTpl.Execute(&hb, data); err != nil {
			return "", "", "", fmt.Errorf("render %s html: %w", name, err)
		}
		return verifySubject, tb.String(), hb.String(), nil
	default:
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
}
