package email

import (
	"context"

	"office_cheer_bot/internal/domain/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SESTransport delivers greeting emails through Amazon SES. In development
// mode the message is logged instead of sent and reported as delivered.
type SESTransport struct {
	client  *sesv2.Client
	sender  string
	replyTo string
	devMode bool
	log     *logrus.Entry
}

func NewSESTransport(client *sesv2.Client, sender, replyTo string, devMode bool, log *logrus.Entry) *SESTransport {
	return &SESTransport{client: client, sender: sender, replyTo: replyTo, devMode: devMode, log: log}
}

func (t *SESTransport) Send(ctx context.Context, msg mail.Message) (*mail.Confirmation, error) {
	if t.devMode {
		t.log.WithFields(logrus.Fields{
			"to":      msg.To,
			"cc":      msg.CC,
			"subject": msg.Subject,
		}).Info("[DEV MODE] Email would be sent")
		return &mail.Confirmation{MessageID: "dev-" + uuid.NewString()}, nil
	}

	out, err := t.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(t.sender),
		ReplyToAddresses: []string{t.replyTo},
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
			CcAddresses: msg.CC,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTMLBody)},
				},
			},
		},
	})
	if err != nil {
		return nil, &mail.TransportError{Err: err}
	}

	messageID := ""
	if out.MessageId != nil {
		messageID = *out.MessageId
	}
	t.log.WithFields(logrus.Fields{"to": msg.To, "message_id": messageID}).Info("Email sent successfully")
	return &mail.Confirmation{MessageID: messageID}, nil
}
