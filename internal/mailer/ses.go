// Package mailer adapts AWS SES to the engine's MailSender contract.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/SophieEDesign/fibi-lifecycle/internal/pkg/logger"
)

// SESSender sends lifecycle emails through AWS SES using the SDK v2. It
// performs exactly one attempt per call; retry policy belongs to the engine
// (which has none within a run).
type SESSender struct {
	client  *sesv2.Client
	timeout time.Duration
}

// NewSESSender creates an SES sender. With empty credentials the default
// AWS credential chain is used (IAM role on ECS).
func NewSESSender(accessKey, secretKey, region string, timeout time.Duration) (*SESSender, error) {
	if region == "" {
		region = "us-east-1"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &SESSender{client: sesv2.NewFromConfig(cfg), timeout: timeout}, nil
}

// Send delivers a single email. The html body is passed through opaque; no
// substitution happens here.
func (s *SESSender) Send(ctx context.Context, to, subject, html, from string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	logger.Debug("email sent", "recipient", to, "message_id", messageID)
	return nil
}
