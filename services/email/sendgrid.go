package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/ecolage/core"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

// custom args attached to every personalization; they come back in sendgrid event webhooks
const (
	argSchool   = "school"
	argTemplate = "template"
)

type sendgridService struct {
	key        string
	from       *sgmail.Email
	school     string
	subjPrefix string
	logger     core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	from := conf.DefaultFromEmail()
	return &sendgridService{
		key:        conf.Email.SendgridApiKey,
		from:       sgmail.NewEmail(from.Name, from.Address),
		school:     conf.School.Name,
		subjPrefix: "[" + conf.School.Name + "] ",
		logger:     logger,
	}
}

func (svc sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if err := msg.Render(); err != nil {
				svc.logger.Error(fmt.Sprintf("rendering %s email: %v", svc.kind(*msg), err), err, svc.logContext(*msg))
				return
			}
			if !msg.HasRecipients() {
				svc.logger.Warn(fmt.Sprintf("%s email has no recipient, skipped", svc.kind(*msg)), svc.logContext(*msg))
				return
			}
			if msg.HasContent() || msg.HasAttachments() {
				svc.send(*msg)
			}
		}()
	}
}

// subject prefixes msg.Subject with the school name, unless the template already did.
func (svc sendgridService) subject(msg core.EmailMessage) string {
	if strings.HasPrefix(msg.Subject, svc.subjPrefix) {
		return msg.Subject
	}
	return svc.subjPrefix + msg.Subject
}

// kind names the message in logs: its template (e.g. payment_receipt), or "plain".
func (svc sendgridService) kind(msg core.EmailMessage) string {
	if msg.TemplateName != "" {
		return msg.TemplateName
	}
	return "plain"
}

func (svc sendgridService) logContext(msg core.EmailMessage) map[string]interface{} {
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, addr.Address)
	}
	return map[string]interface{}{
		"template": svc.kind(msg),
		"subject":  svc.subject(msg),
		"to":       strings.Join(to, ", "),
	}
}

func (svc sendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subject(msg)
	p.SetCustomArg(argSchool, svc.school)
	p.SetCustomArg(argTemplate, svc.kind(msg))

	for _, to := range msg.To {
		p.AddTos(svc.getSGEmail(to))
	}
	for _, cc := range msg.Cc {
		p.AddCCs(svc.getSGEmail(cc))
	}
	for _, bcc := range msg.Bcc {
		p.AddBCCs(svc.getSGEmail(bcc))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddCategories(svc.kind(msg))

	if msg.TextContent != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	}
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}

	for _, a := range msg.Attachments {
		m.AddAttachment(svc.getSGAttachment(a))
	}

	return m
}

func (svc sendgridService) getSGEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

func (svc sendgridService) getSGAttachment(at core.Attachment) *sgmail.Attachment {
	return &sgmail.Attachment{
		Content:     at.Content.String(),
		Type:        at.ContentType,
		Filename:    at.Filename,
		Disposition: "attachment",
	}
}

func (svc sendgridService) send(msg core.EmailMessage) {
	req := sendgrid.GetRequest(svc.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("sending %s email: %v", svc.kind(msg), err), err, svc.logContext(msg))
	} else if res.StatusCode >= http.StatusBadRequest {
		svc.logger.Error(
			fmt.Sprintf("sending %s email - status: %d - body: %s", svc.kind(msg), res.StatusCode, res.Body),
			svc.logContext(msg),
		)
	}
}
