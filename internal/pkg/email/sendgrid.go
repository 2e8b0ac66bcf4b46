package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/samenactief/backend/internal/pkg/notification"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGridSender delivers notifications through the SendGrid v3 mail API
type SendGridSender struct {
	key  string
	from *sgmail.Email
	api  func(ctx context.Context, req rest.Request) (*rest.Response, error)
}

// NewSendGridSender creates a SendGridSender
func NewSendGridSender(key, fromName, fromEmail string) *SendGridSender {
	return &SendGridSender{
		key:  key,
		from: sgmail.NewEmail(fromName, fromEmail),
		api:  sendgrid.MakeRequestWithContext,
	}
}

// Name implements notification.Sender
func (s *SendGridSender) Name() string { return "sendgrid" }

func (s *SendGridSender) prepare(msg notification.Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.TextBody),
		sgmail.NewContent("text/html", msg.HTMLBody),
	)
	m.SetCustomArg("messageId", msg.ID)
	m.AddCategories(string(msg.Kind))
	return m
}

// Send implements notification.Sender
func (s *SendGridSender) Send(ctx context.Context, msg notification.Message) error {
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := s.api(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid responded %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
