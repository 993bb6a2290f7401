// internal/notify/notifier.go
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	awsclients "activity-signup/internal/common/aws"
	apperrors "activity-signup/internal/common/errors"
	"activity-signup/internal/common/logger"
	"activity-signup/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

var ErrUnknownNotificationType = errors.New("UNKNOWN_NOTIFICATION_TYPE")

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	EmailEnabled  bool
	EventsEnabled bool
	FromEmail     string
	TopicARN      string
	AWSRegion     string
}

// AWSNotifier emails the student through SES and publishes a change event
// to an SNS topic.
type AWSNotifier struct {
	config    Config
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
	templates map[string]models.NotificationTemplate
}

func NewAWSNotifier(ctx context.Context, cfg Config, log logger.Logger) (*AWSNotifier, error) {
	clients, err := awsclients.NewClients(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	return NewAWSNotifierWithClients(cfg, clients.SES, clients.SNS, log), nil
}

func NewAWSNotifierWithClients(cfg Config, sesClient SESService, snsClient SNSService, log logger.Logger) *AWSNotifier {
	return &AWSNotifier{
		config:    cfg,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
		sesClient: sesClient,
		snsClient: snsClient,
		templates: defaultTemplates(),
	}
}

// Notify delivers n on every enabled channel. Every channel is attempted;
// the returned error reports the first failure.
func (a *AWSNotifier) Notify(ctx context.Context, n models.Notification) (*models.NotificationResult, error) {
	tmpl, ok := a.templates[n.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNotificationType, n.Type)
	}

	result := &models.NotificationResult{
		NotificationID: n.ID,
		Channels: map[string]string{
			models.ChannelEmail: models.StatusDisabled,
			models.ChannelEvent: models.StatusDisabled,
		},
	}

	var firstErr error

	if a.config.EmailEnabled && n.Email != "" {
		data := map[string]string{
			"activity": n.Activity,
			"email":    n.Email,
		}
		if err := a.sendEmail(ctx, n.Email, renderTemplate(tmpl.Subject, data), renderTemplate(tmpl.Body, data)); err != nil {
			a.logger.Error("email send failed", map[string]interface{}{
				"error":          err,
				"notificationId": n.ID,
			})
			result.Channels[models.ChannelEmail] = models.StatusFailed
			firstErr = apperrors.NewNotificationSendFailedError(models.ChannelEmail, err)
		} else {
			result.Channels[models.ChannelEmail] = models.StatusSent
		}
	}

	if a.config.EventsEnabled && a.config.TopicARN != "" {
		if err := a.publishEvent(ctx, n); err != nil {
			a.logger.Error("event publish failed", map[string]interface{}{
				"error":          err,
				"notificationId": n.ID,
			})
			result.Channels[models.ChannelEvent] = models.StatusFailed
			if firstErr == nil {
				firstErr = apperrors.NewNotificationSendFailedError(models.ChannelEvent, err)
			}
		} else {
			result.Channels[models.ChannelEvent] = models.StatusSent
		}
	}

	return result, firstErr
}

func (a *AWSNotifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := a.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(a.config.FromEmail),
	})
	return err
}

func (a *AWSNotifier) publishEvent(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	_, err = a.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(a.config.TopicARN),
		Message:  aws.String(string(payload)),
		Subject:  aws.String("activity." + n.Type),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(n.Type),
			},
			"activity": {
				DataType:    aws.String("String"),
				StringValue: aws.String(n.Activity),
			},
		},
	})
	return err
}

// renderTemplate replaces {{key}} placeholders and drops any left unresolved.
func renderTemplate(tmpl string, data map[string]string) string {
	result := tmpl
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}

func defaultTemplates() map[string]models.NotificationTemplate {
	return map[string]models.NotificationTemplate{
		models.NotificationTypeSignedUp: {
			Type:    models.NotificationTypeSignedUp,
			Subject: "You're signed up for {{activity}}",
			Body:    "Hello {{email}}, you are now registered for {{activity}}.",
		},
		models.NotificationTypeUnregistered: {
			Type:    models.NotificationTypeUnregistered,
			Subject: "You've left {{activity}}",
			Body:    "Hello {{email}}, you have been removed from {{activity}}.",
		},
	}
}

// NopNotifier reports every channel as disabled.
type NopNotifier struct{}

func (NopNotifier) Notify(_ context.Context, n models.Notification) (*models.NotificationResult, error) {
	return &models.NotificationResult{
		NotificationID: n.ID,
		Channels: map[string]string{
			models.ChannelEmail: models.StatusDisabled,
			models.ChannelEvent: models.StatusDisabled,
		},
	}, nil
}
