package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"text/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesSender is the part of the SES client the email service uses
type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Notifications are written in markdown. The markdown is the text part and
// its rendering is the HTML part.
var emailTemplates = template.Must(template.New("email").Parse(`
{{define "completion"}}Hi {{.To}},

**{{.Person}}** has completed all {{.Lessons}} lessons of the New Converts course.

Consider scheduling a follow-up and recording any commitment forms that are still outstanding.

[Open lesson progress]({{.Link}})
{{end}}

{{define "welcome"}}Hi {{.To}},

An administrator created a Church Admin account for you.

Sign in with **{{.Email}}** and the temporary password ` + "`{{.Password}}`" + `, then change it from your profile.

[Sign in]({{.Link}})
{{end}}

{{define "footer"}}
---
This is an automated message from Church Admin.
{{end}}
`))

// EmailService sends staff notifications through Amazon SES.
// A service built without a sender address is disabled and drops every message.
type EmailService struct {
	client     sesSender
	from       string
	appBaseURL string
	debug      bool
}

// NewEmailService creates a new email service
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{appBaseURL: appBaseURL, debug: debug}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)
	return newEmailServiceWithClient(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, debug), nil
}

func newEmailServiceWithClient(client sesSender, fromEmail, fromName, appBaseURL string, debug bool) *EmailService {
	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromEmail)
	}
	s := &EmailService{client: client, appBaseURL: strings.TrimRight(appBaseURL, "/"), debug: debug}
	if fromEmail != "" {
		s.from = from
	}
	return s
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s != nil && s.client != nil && s.from != ""
}

// SendCourseCompletionEmail tells the assigning staff member that a person
// completed every lesson of the current curriculum.
func (s *EmailService) SendCourseCompletionEmail(ctx context.Context, toEmail, toName, personName string, lessonCount int) error {
	return s.send(ctx, toEmail, personName+" completed the New Converts course", "completion", map[string]any{
		"To":      toName,
		"Person":  personName,
		"Lessons": lessonCount,
		"Link":    s.appBaseURL + "/lessons/progress",
	})
}

// SendStaffWelcomeEmail sends a new staff member their temporary password
func (s *EmailService) SendStaffWelcomeEmail(ctx context.Context, toEmail, toName, tempPassword string) error {
	return s.send(ctx, toEmail, "Your Church Admin account", "welcome", map[string]any{
		"To":       toName,
		"Email":    toEmail,
		"Password": tempPassword,
		"Link":     s.appBaseURL + "/login",
	})
}

func (s *EmailService) send(ctx context.Context, toEmail, subject, tmpl string, data map[string]any) error {
	if !s.IsEnabled() {
		log.Printf("Skipping email send (service disabled): %q to %s", subject, toEmail)
		return nil
	}

	var text bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&text, tmpl, data); err != nil {
		return fmt.Errorf("failed to render %s email: %w", tmpl, err)
	}
	var htmlBody bytes.Buffer
	if err := markdown.Convert(text.Bytes(), &htmlBody); err != nil {
		return fmt.Errorf("failed to render %s email: %w", tmpl, err)
	}
	if err := emailTemplates.ExecuteTemplate(&text, "footer", nil); err != nil {
		return fmt.Errorf("failed to render email footer: %w", err)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{toEmail}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: utf8Content(subject),
				Body: &types.Body{
					Html: utf8Content(htmlBody.String()),
					Text: utf8Content(text.String()),
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] SES message ID: %s", *result.MessageId)
	}
	log.Printf("Email sent: to=%s, subject=%q", toEmail, subject)
	return nil
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}
