package sqsq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/angelmondragon/hookrelay-backend/pkg/config"
	"github.com/angelmondragon/hookrelay-backend/pkg/queue"
)

type fakeSQS struct {
	receiveIn *sqs.ReceiveMessageInput
	receive   func() (*sqs.ReceiveMessageOutput, error)
	deleted   []*sqs.DeleteMessageInput
	sent      []*sqs.SendMessageInput
	attrsErr  error
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.receiveIn = in
	return f.receive()
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, in)
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("sqs-1")}, nil
}

func (f *fakeSQS) GetQueueAttributes(_ context.Context, _ *sqs.GetQueueAttributesInput, _ ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
	return &sqs.GetQueueAttributesOutput{}, f.attrsErr
}

const queueURL = "https://sqs.us-east-1.amazonaws.com/123/inbound"

func TestReceiveBuildsLongPollAndMapsMessages(t *testing.T) {
	fake := &fakeSQS{receive: func() (*sqs.ReceiveMessageOutput, error) {
		return &sqs.ReceiveMessageOutput{Messages: []types.Message{{
			MessageId:     aws.String("m-1"),
			ReceiptHandle: aws.String("rh-1"),
			Body:          aws.String(`{"urlCode":"abc","payload":{}}`),
			MessageAttributes: map[string]types.MessageAttributeValue{
				queue.AttrURLCode: {DataType: aws.String("String"), StringValue: aws.String("abc")},
			},
		}}}, nil
	}}
	q := newQueue(fake, queueURL, 60)

	msgs, err := q.Receive(context.Background(), 5, 20*time.Second)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	in := fake.receiveIn
	if in.MaxNumberOfMessages != 5 || in.WaitTimeSeconds != 20 || in.VisibilityTimeout != 60 {
		t.Fatalf("unexpected receive input %+v", in)
	}
	if len(msgs) != 1 || msgs[0].ID != "m-1" || msgs[0].AckHandle != "rh-1" || msgs[0].Attributes[queue.AttrURLCode] != "abc" {
		t.Fatalf("unexpected messages %+v", msgs)
	}

	if err := q.Ack(context.Background(), msgs[0]); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if len(fake.deleted) != 1 || aws.ToString(fake.deleted[0].ReceiptHandle) != "rh-1" {
		t.Fatalf("unexpected delete %+v", fake.deleted)
	}
}

func TestReceiveClampsToSQSLimits(t *testing.T) {
	fake := &fakeSQS{receive: func() (*sqs.ReceiveMessageOutput, error) { return &sqs.ReceiveMessageOutput{}, nil }}
	q := newQueue(fake, queueURL, 0)

	msgs, err := q.Receive(context.Background(), 50, time.Minute)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("expected empty batch, got %v %v", msgs, err)
	}
	if fake.receiveIn.MaxNumberOfMessages != maxBatch || fake.receiveIn.WaitTimeSeconds != maxWaitSeconds {
		t.Fatalf("expected clamped input, got %+v", fake.receiveIn)
	}
}

func TestReceiveError(t *testing.T) {
	fake := &fakeSQS{receive: func() (*sqs.ReceiveMessageOutput, error) { return nil, errors.New("throttled") }}
	q := newQueue(fake, queueURL, 60)

	if _, err := q.Receive(context.Background(), 5, time.Second); err == nil {
		t.Fatal("expected error")
	}
}

func TestPublishSendsURLCodeAttribute(t *testing.T) {
	fake := &fakeSQS{}
	q := newQueue(fake, queueURL, 60)

	id, err := q.Publish(context.Background(), []byte(`{"urlCode":"abc"}`), map[string]string{queue.AttrURLCode: "abc"})
	if err != nil || id != "sqs-1" {
		t.Fatalf("unexpected publish result %q %v", id, err)
	}
	sent := fake.sent[0]
	if aws.ToString(sent.MessageBody) != `{"urlCode":"abc"}` {
		t.Fatalf("unexpected body %q", aws.ToString(sent.MessageBody))
	}
	attr := sent.MessageAttributes[queue.AttrURLCode]
	if aws.ToString(attr.DataType) != "String" || aws.ToString(attr.StringValue) != "abc" {
		t.Fatalf("unexpected attribute %+v", attr)
	}
}

func TestPing(t *testing.T) {
	fake := &fakeSQS{}
	q := newQueue(fake, queueURL, 60)
	if err := q.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	fake.attrsErr = errors.New("access denied")
	if err := q.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(config.SQSConfig{Region: "us-east-1"}); err == nil {
		t.Fatal("expected missing queue url error")
	}
	if _, err := New(config.SQSConfig{QueueURL: queueURL, Region: "us-east-1"}); err == nil {
		t.Fatal("expected missing credentials error")
	}
	q, err := New(config.SQSConfig{QueueURL: queueURL, Region: "us-east-1", AccessKeyID: "id", SecretAccessKey: "secret", VisibilityTimeout: 30})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if q.visibilityTimeout != 30 {
		t.Fatalf("unexpected visibility timeout %d", q.visibilityTimeout)
	}
}
