package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/handicap-system/config"
	"github.com/Dosada05/handicap-system/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// AttestationNotice is what a player is told about an attestation.
type AttestationNotice struct {
	Recipient     *models.Player
	Counterpart   string
	CourseName    string
	PlayedAt      time.Time
	AttestationID int
	RoundID       int
	Approved      bool
	Status        models.VerificationStatus
}

// Notifier delivers attestation messages. Delivery failures are logged and
// never surface to the caller.
type Notifier interface {
	AttestationRequested(ctx context.Context, n AttestationNotice)
	AttestationReminder(ctx context.Context, n AttestationNotice)
	AttestationResponded(ctx context.Context, n AttestationNotice)
}

type notifier struct {
	sendEmail func(*mail.SGMailV3) error
	sendSMS   func(*twilioApi.CreateMessageParams) error
	from      *mail.Email
	fromPhone string
	sandbox   bool
	publicURL string
	logger    *logrus.Logger
}

func NewNotifier(sg config.SendGridConfig, tw config.TwilioConfig, publicURL string, logger *logrus.Logger) Notifier {
	n := &notifier{
		from:      mail.NewEmail("Handicap Verification", sg.FromEmail),
		fromPhone: tw.FromPhone,
		sandbox:   sg.Sandbox,
		publicURL: publicURL,
		logger:    logger,
	}
	if sg.APIKey != "" {
		client := sendgrid.NewSendClient(sg.APIKey)
		n.sendEmail = func(msg *mail.SGMailV3) error {
			resp, err := client.Send(msg)
			if err != nil {
				return err
			}
			if resp.StatusCode >= 400 {
				return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, resp.Body)
			}
			return nil
		}
	} else {
		logger.Warn("SENDGRID_API_KEY not set, attestation emails disabled")
	}
	if tw.AccountSID != "" && tw.AuthToken != "" && tw.FromPhone != "" {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: tw.AccountSID,
			Password: tw.AuthToken,
		})
		n.sendSMS = func(params *twilioApi.CreateMessageParams) error {
			_, err := client.Api.CreateMessage(params)
			return err
		}
	} else {
		logger.Warn("Twilio not configured, attestation SMS disabled")
	}
	return n
}

func (n *notifier) AttestationRequested(ctx context.Context, a AttestationNotice) {
	subject := fmt.Sprintf("%s asked you to attest a round", a.Counterpart)
	body := fmt.Sprintf("%s asked you to confirm their round at %s on %s. Respond here: %s",
		a.Counterpart, a.CourseName, a.PlayedAt.Format("Jan 2, 2006"), n.pendingLink())
	n.deliver(ctx, a, subject, body)
}

func (n *notifier) AttestationReminder(ctx context.Context, a AttestationNotice) {
	subject := "Reminder: a round is waiting for your attestation"
	body := fmt.Sprintf("%s is still waiting for you to confirm their round at %s on %s. Respond here: %s",
		a.Counterpart, a.CourseName, a.PlayedAt.Format("Jan 2, 2006"), n.pendingLink())
	n.deliver(ctx, a, subject, body)
}

func (n *notifier) AttestationResponded(ctx context.Context, a AttestationNotice) {
	verdict := "rejected"
	if a.Approved {
		verdict = "approved"
	}
	subject := fmt.Sprintf("%s %s your round", a.Counterpart, verdict)
	body := fmt.Sprintf("%s %s your round at %s on %s. The round is now %s.",
		a.Counterpart, verdict, a.CourseName, a.PlayedAt.Format("Jan 2, 2006"), a.Status)
	n.deliver(ctx, a, subject, body)
}

func (n *notifier) pendingLink() string {
	return n.publicURL + "/attestations/pending"
}

func (n *notifier) deliver(ctx context.Context, a AttestationNotice, subject, body string) {
	if a.Recipient == nil || ctx.Err() != nil {
		return
	}
	log := n.logger.WithFields(logrus.Fields{
		"player_id":      a.Recipient.ID,
		"attestation_id": a.AttestationID,
		"round_id":       a.RoundID,
	})

	if n.sendEmail != nil && a.Recipient.Email != "" {
		to := mail.NewEmail(a.Recipient.DisplayName(), a.Recipient.Email)
		msg := mail.NewSingleEmail(n.from, subject, to, body, "<p>"+body+"</p>")
		if n.sandbox {
			ms := mail.NewMailSettings()
			ms.SetSandboxMode(mail.NewSetting(true))
			msg.MailSettings = ms
		}
		if err := n.sendEmail(msg); err != nil {
			log.WithError(err).Error("failed to send attestation email via SendGrid")
		}
	}

	if n.sendSMS != nil && a.Recipient.Phone != nil && *a.Recipient.Phone != "" {
		params := &twilioApi.CreateMessageParams{}
		params.SetTo(*a.Recipient.Phone)
		params.SetFrom(n.fromPhone)
		params.SetBody(body)
		if err := n.sendSMS(params); err != nil {
			log.WithError(err).Error("failed to send attestation SMS via Twilio")
		}
	}
}
