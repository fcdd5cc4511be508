package services

import (
	"context"
	"errors"
	"testing"

	"github.com/BradenHooton/novatech/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSESNotifier_NotifySubmission(t *testing.T) {
	var sent *ses.SendEmailInput
	client := &MockSESClient{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			sent = params
			return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
		},
	}
	n := NewSESNotifierWithClient(client, "site@novatech.example", "office@novatech.example", discardLogger())

	err := n.NotifySubmission(context.Background(), &models.Submission{
		ID:        "sub-1",
		Type:      models.SubmissionContact,
		Data:      map[string]string{"name": "Mario", "message": "Ciao"},
		CreatedAt: epoch,
	})
	require.NoError(t, err)

	require.NotNil(t, sent)
	assert.Equal(t, "site@novatech.example", aws.ToString(sent.Source))
	assert.Equal(t, []string{"office@novatech.example"}, sent.Destination.ToAddresses)
	assert.Equal(t, "New contact message", aws.ToString(sent.Message.Subject.Data))

	body := aws.ToString(sent.Message.Body.Text.Data)
	assert.Contains(t, body, "Submission sub-1 (contact)")
	assert.Contains(t, body, "message: Ciao\nname: Mario\n")
}

func TestSESNotifier_SendError(t *testing.T) {
	client := &MockSESClient{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	n := NewSESNotifierWithClient(client, "a@b.co", "c@d.co", discardLogger())

	err := n.NotifySubmission(context.Background(), &models.Submission{ID: "x", Type: models.SubmissionApplication})
	assert.ErrorContains(t, err, "throttled")
}

func TestNopNotifier(t *testing.T) {
	assert.NoError(t, NopNotifier{}.NotifySubmission(context.Background(), &models.Submission{}))
}
