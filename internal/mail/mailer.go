// Package mail delivers transactional email. Delivery is best-effort:
// callers decide whether a failed send is fatal.
package mail

import (
	"context"
	"fmt"
)

type Body struct {
	HTML string
	Text string
}

type Mailer interface {
	SendMail(ctx context.Context, recipients []string, subject string, body Body) error
}

// VerificationBody builds the verification mail for a link embedding the
// token.
func VerificationBody(link string) Body {
	return Body{
		HTML: fmt.Sprintf(`<p>Click <a href="%s">here</a> to verify your email</p>`, link),
		Text: fmt.Sprintf("Click this link to verify your email %s", link),
	}
}
