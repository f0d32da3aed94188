// Package pubsubq implements the queue interfaces on GCP Pub/Sub.
package pubsubq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/hookrelay-backend/pkg/queue"
)

type subscriberAPI interface {
	Pull(ctx context.Context, req *pubsubpb.PullRequest, opts ...gax.CallOption) (*pubsubpb.PullResponse, error)
	Acknowledge(ctx context.Context, req *pubsubpb.AcknowledgeRequest, opts ...gax.CallOption) error
}

// Receiver pulls synchronously so the worker controls batch size and pacing.
type Receiver struct {
	api          subscriberAPI
	subscription string
}

// NewReceiver binds a receiver to a fully qualified subscription name.
func NewReceiver(api subscriberAPI, subscription string) (*Receiver, error) {
	if api == nil {
		return nil, errors.New("pubsub subscription admin client is required")
	}
	if strings.TrimSpace(subscription) == "" {
		return nil, errors.New("pubsub subscription is required")
	}
	return &Receiver{api: api, subscription: subscription}, nil
}

func (r *Receiver) Receive(ctx context.Context, max int, wait time.Duration) ([]queue.Message, error) {
	if max <= 0 {
		max = 1
	}
	pullCtx := ctx
	if wait > 0 {
		var cancel context.CancelFunc
		pullCtx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	resp, err := r.api.Pull(pullCtx, &pubsubpb.PullRequest{
		Subscription: r.subscription,
		MaxMessages:  int32(max),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || status.Code(err) == codes.DeadlineExceeded {
			return nil, nil
		}
		return nil, fmt.Errorf("pull %s: %w", r.subscription, err)
	}

	out := make([]queue.Message, 0, len(resp.GetReceivedMessages()))
	for _, rm := range resp.GetReceivedMessages() {
		msg := rm.GetMessage()
		out = append(out, queue.Message{
			ID:         msg.GetMessageId(),
			Body:       msg.GetData(),
			Attributes: msg.GetAttributes(),
			AckHandle:  rm.GetAckId(),
		})
	}
	return out, nil
}

func (r *Receiver) Ack(ctx context.Context, msg queue.Message) error {
	if msg.AckHandle == "" {
		return fmt.Errorf("message %s has no ack id", msg.ID)
	}
	return r.api.Acknowledge(ctx, &pubsubpb.AcknowledgeRequest{
		Subscription: r.subscription,
		AckIds:       []string{msg.AckHandle},
	})
}

// Publisher enqueues onto a topic and waits for the server-assigned id.
type Publisher struct {
	publish func(ctx context.Context, msg *pubsub.Message) (string, error)
	stop    func()
}

func NewPublisher(p *pubsub.Publisher) (*Publisher, error) {
	if p == nil {
		return nil, errors.New("pubsub publisher is required")
	}
	return &Publisher{
		publish: func(ctx context.Context, msg *pubsub.Message) (string, error) {
			return p.Publish(ctx, msg).Get(ctx)
		},
		stop: p.Stop,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, body []byte, attrs map[string]string) (string, error) {
	id, err := p.publish(ctx, &pubsub.Message{Data: body, Attributes: attrs})
	if err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}
	return id, nil
}

// Stop flushes pending publishes.
func (p *Publisher) Stop() {
	if p != nil && p.stop != nil {
		p.stop()
	}
}
