package services

import (
	"errors"
	"testing"

	"luvlang_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct{ to, subject, body string }

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func TestEmailService_RendersEveryKind(t *testing.T) {
	es := NewEmailService(&fakeMailer{}, "https://app.test")
	for _, kind := range []EmailKind{EmailMatchNotification, EmailMessageNotification, EmailDailyDigest, EmailWelcome, EmailReEngagement} {
		t.Run(string(kind), func(t *testing.T) {
			subject, body, err := es.Render(EmailRequest{Kind: kind, Data: EmailData{RecipientName: "Ada", OtherName: "Bo"}})
			require.NoError(t, err)
			assert.NotEmpty(t, subject)
			assert.Contains(t, body, "Ada")
			assert.Contains(t, body, "https://app.test")
		})
	}
}

func TestEmailService_EscapesUserContent(t *testing.T) {
	es := NewEmailService(&fakeMailer{}, "https://app.test")
	_, body, err := es.Render(EmailRequest{Kind: EmailMessageNotification, Data: EmailData{
		OtherName:      "Bo",
		MessagePreview: "<script>alert(1)</script>",
	}})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, "Hi there")
}

func TestEmailService_Send(t *testing.T) {
	mailer := &fakeMailer{}
	es := NewEmailService(mailer, "https://app.test")

	digest := []models.MatchWithProfile{{FullName: "Cy", Age: "29", Score: 88}}
	require.NoError(t, es.SendDailyDigest(models.Profile{EmailID: "ada@example.com", FullName: "Ada"}, digest))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ada@example.com", mailer.sent[0].to)
	assert.Equal(t, "Your daily matches are here", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "Cy, 29 (88% compatible)")

	assert.Error(t, es.Send(EmailRequest{Kind: EmailWelcome}))
	assert.ErrorIs(t, es.Send(EmailRequest{To: "a@b.c", Kind: "newsletter"}), ErrUnknownEmailKind)

	mailer.err = errors.New("smtp down")
	assert.Error(t, es.SendWelcome(models.Profile{EmailID: "ada@example.com"}))
}
