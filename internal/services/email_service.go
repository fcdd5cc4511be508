package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/BradenHooton/novatech/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Notifier tells the office about new form submissions
type Notifier interface {
	NotifySubmission(ctx context.Context, s *models.Submission) error
}

// NopNotifier drops every notification
type NopNotifier struct{}

func (NopNotifier) NotifySubmission(context.Context, *models.Submission) error { return nil }

// SESAPI is the subset of the SES client used for notifications
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier sends submission notifications using AWS SES
type SESNotifier struct {
	client      SESAPI
	fromAddress string
	toAddress   string
	logger      *slog.Logger
}

// NewSESNotifier creates an SES notifier with the default AWS credential chain
func NewSESNotifier(ctx context.Context, region, fromAddress, toAddress string, logger *slog.Logger) (*SESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewSESNotifierWithClient(ses.NewFromConfig(cfg), fromAddress, toAddress, logger), nil
}

// NewSESNotifierWithClient creates an SES notifier around an existing client
func NewSESNotifierWithClient(client SESAPI, fromAddress, toAddress string, logger *slog.Logger) *SESNotifier {
	return &SESNotifier{
		client:      client,
		fromAddress: fromAddress,
		toAddress:   toAddress,
		logger:      logger,
	}
}

// NotifySubmission emails a plain text summary of the submission.
// Field values were escaped on the way in and are sent as stored.
func (n *SESNotifier) NotifySubmission(ctx context.Context, s *models.Submission) error {
	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{n.toAddress},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(submissionSubject(s)),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(submissionBody(s)),
				},
			},
		},
	}

	result, err := n.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	n.logger.Info("submission notification sent",
		slog.String("submission_id", s.ID),
		slog.String("message_id", aws.ToString(result.MessageId)))
	return nil
}

func submissionSubject(s *models.Submission) string {
	switch s.Type {
	case models.SubmissionContact:
		return "New contact message"
	case models.SubmissionApplication:
		return "New course application"
	case models.SubmissionTrialLesson:
		return "New trial lesson request"
	}
	return "New submission"
}

func submissionBody(s *models.Submission) string {
	keys := make([]string, 0, len(s.Data))
	for k := range s.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Submission %s (%s)\n\n", s.ID, s.Type)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, s.Data[k])
	}
	fmt.Fprintf(&b, "\nReceived %s\n", s.CreatedAt.Format("2006-01-02 15:04 MST"))
	return b.String()
}
