package services

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/Dosada05/handicap-system/config"
	"github.com/Dosada05/handicap-system/models"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type outbox struct {
	emails []*mail.SGMailV3
	sms    []*twilioApi.CreateMessageParams
	err    error
}

func (o *outbox) notifier(sandbox bool) *notifier {
	return &notifier{
		sendEmail: func(m *mail.SGMailV3) error { o.emails = append(o.emails, m); return o.err },
		sendSMS:   func(p *twilioApi.CreateMessageParams) error { o.sms = append(o.sms, p); return o.err },
		from:      mail.NewEmail("Handicap Verification", "noreply@example.com"),
		fromPhone: "+15550001111",
		sandbox:   sandbox,
		publicURL: "https://golf.example.com",
		logger:    quietLogger(),
	}
}

func notice() AttestationNotice {
	return AttestationNotice{
		Recipient:     &models.Player{ID: 9, FirstName: "Ana", LastName: "Ruiz", Email: "ana@example.com", Phone: ptr("+15552223333")},
		Counterpart:   "Sam Lee",
		CourseName:    "Cypress Links",
		PlayedAt:      finished,
		AttestationID: 3,
		RoundID:       77,
	}
}

func TestAttestationRequestedSendsEmailAndSMS(t *testing.T) {
	box := &outbox{}
	box.notifier(false).AttestationRequested(context.Background(), notice())

	require.Len(t, box.emails, 1)
	msg := box.emails[0]
	assert.Equal(t, "Sam Lee asked you to attest a round", msg.Subject)
	require.Len(t, msg.Personalizations, 1)
	require.Len(t, msg.Personalizations[0].To, 1)
	assert.Equal(t, "ana@example.com", msg.Personalizations[0].To[0].Address)
	assert.Contains(t, msg.Content[0].Value, "https://golf.example.com/attestations/pending")
	assert.Nil(t, msg.MailSettings)

	require.Len(t, box.sms, 1)
	require.NotNil(t, box.sms[0].To)
	assert.Equal(t, "+15552223333", *box.sms[0].To)
	assert.Equal(t, "+15550001111", *box.sms[0].From)
	assert.Contains(t, *box.sms[0].Body, "Cypress Links")
}

func TestSandboxModeIsSet(t *testing.T) {
	box := &outbox{}
	box.notifier(true).AttestationReminder(context.Background(), notice())

	require.Len(t, box.emails, 1)
	ms := box.emails[0].MailSettings
	require.NotNil(t, ms)
	require.NotNil(t, ms.SandboxMode)
	require.NotNil(t, ms.SandboxMode.Enable)
	assert.True(t, *ms.SandboxMode.Enable)
}

func TestAttestationRespondedWording(t *testing.T) {
	box := &outbox{}
	n := notice()
	n.Approved = true
	n.Status = models.VerificationVerified
	box.notifier(false).AttestationResponded(context.Background(), n)

	require.Len(t, box.emails, 1)
	assert.Equal(t, "Sam Lee approved your round", box.emails[0].Subject)
	assert.Contains(t, *box.sms[0].Body, "now verified")
}

func TestDeliverySkipsMissingChannels(t *testing.T) {
	box := &outbox{}
	n := notice()
	n.Recipient.Phone = nil

	box.notifier(false).AttestationRequested(context.Background(), n)
	assert.Len(t, box.emails, 1)
	assert.Empty(t, box.sms)

	n.Recipient = nil
	box.notifier(false).AttestationRequested(context.Background(), n)
	assert.Len(t, box.emails, 1)
}

func TestDeliveryFailuresAreSwallowed(t *testing.T) {
	box := &outbox{err: errors.New("upstream down")}
	assert.NotPanics(t, func() {
		box.notifier(false).AttestationRequested(context.Background(), notice())
	})
	assert.Len(t, box.emails, 1)
	assert.Len(t, box.sms, 1)
}

func TestUnconfiguredNotifierIsSilent(t *testing.T) {
	n := NewNotifier(config.SendGridConfig{FromEmail: "noreply@example.com"}, config.TwilioConfig{}, "https://golf.example.com", quietLogger())
	assert.NotPanics(t, func() {
		n.AttestationRequested(context.Background(), notice())
	})
}
