package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailServiceRendersMarkdownBodies(t *testing.T) {
	ses := &fakeSES{}
	email := newEmailServiceWithClient(ses, "noreply@church.org", "Church Admin", "https://church.example/", false)
	require.True(t, email.IsEnabled())

	require.NoError(t, email.SendStaffWelcomeEmail(context.Background(), "usher@church.org", "Usher Uri", "Cedar-Lantern-4821"))

	sent := ses.messages()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "Church Admin <noreply@church.org>", *msg.FromEmailAddress)
	assert.Equal(t, "Your Church Admin account", *msg.Content.Simple.Subject.Data)

	text := *msg.Content.Simple.Body.Text.Data
	assert.Contains(t, text, "Hi Usher Uri,")
	assert.Contains(t, text, "`Cedar-Lantern-4821`")
	assert.Contains(t, text, "This is an automated message from Church Admin.")

	html := *msg.Content.Simple.Body.Html.Data
	assert.Contains(t, html, "<strong>usher@church.org</strong>")
	assert.Contains(t, html, "<code>Cedar-Lantern-4821</code>")
	assert.Contains(t, html, `<a href="https://church.example/login">Sign in</a>`)
	assert.NotContains(t, html, "automated message", "footer is text only")
}

func TestEmailServiceEscapesNamesInHTML(t *testing.T) {
	ses := &fakeSES{}
	email := newEmailServiceWithClient(ses, "noreply@church.org", "", "https://church.example", false)

	require.NoError(t, email.SendCourseCompletionEmail(context.Background(), "t@church.org", "Tim", "<script>alert(1)</script>", 12))

	sent := ses.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "noreply@church.org", *sent[0].FromEmailAddress)
	assert.NotContains(t, *sent[0].Content.Simple.Body.Html.Data, "<script>")
	assert.Contains(t, *sent[0].Content.Simple.Body.Text.Data, "all 12 lessons")
}

func TestDisabledEmailServiceSendsNothing(t *testing.T) {
	email, err := NewEmailService(context.Background(), "", "", "", "http://localhost:8080", false)
	require.NoError(t, err)
	assert.False(t, email.IsEnabled())
	assert.NoError(t, email.SendStaffWelcomeEmail(context.Background(), "a@b.org", "A", "pw"))

	var nilService *EmailService
	assert.False(t, nilService.IsEnabled())
}
