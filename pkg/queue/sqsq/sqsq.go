// Package sqsq implements the queue interfaces on AWS SQS.
package sqsq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/angelmondragon/hookrelay-backend/pkg/config"
	"github.com/angelmondragon/hookrelay-backend/pkg/queue"
)

// SQS caps both values.
const (
	maxBatch       = 10
	maxWaitSeconds = 20
)

type api interface {
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, opts ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, opts ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, opts ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	GetQueueAttributes(ctx context.Context, in *sqs.GetQueueAttributesInput, opts ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
}

// Queue is both the Receiver and the Publisher for one SQS queue.
type Queue struct {
	api               api
	queueURL          string
	visibilityTimeout int32
}

// New builds an SQS client from static credentials.
func New(cfg config.SQSConfig) (*Queue, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, errors.New("sqs queue url is required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, errors.New("aws region is required")
	}
	if strings.TrimSpace(cfg.AccessKeyID) == "" || strings.TrimSpace(cfg.SecretAccessKey) == "" {
		return nil, errors.New("aws access key id and secret access key are required")
	}

	awsCfg := aws.Config{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	return newQueue(sqs.NewFromConfig(awsCfg), cfg.QueueURL, cfg.VisibilityTimeout), nil
}

func newQueue(client api, queueURL string, visibilityTimeout int32) *Queue {
	return &Queue{api: client, queueURL: queueURL, visibilityTimeout: visibilityTimeout}
}

func (q *Queue) Receive(ctx context.Context, max int, wait time.Duration) ([]queue.Message, error) {
	in := &sqs.ReceiveMessageInput{
		QueueUrl:              aws.String(q.queueURL),
		MaxNumberOfMessages:   int32(clamp(max, 1, maxBatch)),
		WaitTimeSeconds:       int32(clamp(int(wait/time.Second), 0, maxWaitSeconds)),
		MessageAttributeNames: []string{"All"},
	}
	if q.visibilityTimeout > 0 {
		in.VisibilityTimeout = q.visibilityTimeout
	}

	out, err := q.api.ReceiveMessage(ctx, in)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("receive from sqs: %w", err)
	}

	msgs := make([]queue.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		attrs := make(map[string]string, len(m.MessageAttributes))
		for name, v := range m.MessageAttributes {
			attrs[name] = aws.ToString(v.StringValue)
		}
		msgs = append(msgs, queue.Message{
			ID:         aws.ToString(m.MessageId),
			Body:       []byte(aws.ToString(m.Body)),
			Attributes: attrs,
			AckHandle:  aws.ToString(m.ReceiptHandle),
		})
	}
	return msgs, nil
}

// Ack deletes the message, which is how SQS acknowledges.
func (q *Queue) Ack(ctx context.Context, msg queue.Message) error {
	if msg.AckHandle == "" {
		return fmt.Errorf("message %s has no receipt handle", msg.ID)
	}
	_, err := q.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(msg.AckHandle),
	})
	if err != nil {
		return fmt.Errorf("delete sqs message %s: %w", msg.ID, err)
	}
	return nil
}

func (q *Queue) Publish(ctx context.Context, body []byte, attrs map[string]string) (string, error) {
	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
	}
	if len(attrs) > 0 {
		in.MessageAttributes = make(map[string]types.MessageAttributeValue, len(attrs))
		for name, value := range attrs {
			in.MessageAttributes[name] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(value),
			}
		}
	}
	out, err := q.api.SendMessage(ctx, in)
	if err != nil {
		return "", fmt.Errorf("send sqs message: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

// Ping reads the queue depth, which fails when the queue or credentials are wrong.
func (q *Queue) Ping(ctx context.Context) error {
	_, err := q.api.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(q.queueURL),
		AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameApproximateNumberOfMessages},
	})
	return err
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
