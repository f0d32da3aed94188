package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/hookrelay-backend/pkg/config"
	"github.com/angelmondragon/hookrelay-backend/pkg/logger"
	"github.com/angelmondragon/hookrelay-backend/pkg/metrics"
	"github.com/angelmondragon/hookrelay-backend/pkg/queue"
)

const (
	dedupScope = "inbound"

	defaultMaxMessages = 5
	defaultWaitTime    = 20 * time.Second
	defaultIdleSleep   = time.Second
	ackTimeout         = 10 * time.Second
)

type inboundProcessor interface {
	ProcessInbound(ctx context.Context, msg InboundMessage) error
}

type deduper interface {
	WasProcessed(ctx context.Context, scope, id string) (bool, error)
	MarkProcessed(ctx context.Context, scope, id string, ttl time.Duration) error
}

// ConsumerParams groups dependencies for the inbound consumer. Dedup is only
// consulted when Config.DedupTTL is positive.
type ConsumerParams struct {
	Receiver  queue.Receiver
	Processor inboundProcessor
	Dedup     deduper
	Metrics   *metrics.DeliveryMetrics
	Logger    *logger.Logger
	Config    config.ConsumerConfig
}

// Consumer drains the inbound queue and feeds each event to the pipeline.
// Every received message is acknowledged exactly once, whatever the outcome.
type Consumer struct {
	receiver  queue.Receiver
	processor inboundProcessor
	dedup     deduper
	metrics   *metrics.DeliveryMetrics
	logg      *logger.Logger
	cfg       config.ConsumerConfig
	sleep     func(ctx context.Context, d time.Duration) bool
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Receiver == nil {
		return nil, fmt.Errorf("queue receiver required")
	}
	if params.Processor == nil {
		return nil, fmt.Errorf("inbound processor required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg := params.Config
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = defaultMaxMessages
	}
	if cfg.WaitTime <= 0 {
		cfg.WaitTime = defaultWaitTime
	}
	if cfg.EmptyPollInterval <= 0 {
		cfg.EmptyPollInterval = defaultIdleSleep
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = defaultIdleSleep
	}
	dedup := params.Dedup
	if cfg.DedupTTL <= 0 {
		dedup = nil
	}
	return &Consumer{
		receiver:  params.Receiver,
		processor: params.Processor,
		dedup:     dedup,
		metrics:   params.Metrics,
		logg:      params.Logger,
		cfg:       cfg,
		sleep:     sleepCtx,
	}, nil
}

// Run polls until ctx is cancelled. A batch is processed concurrently and fully
// drained before the next poll; cancellation never interrupts a message already
// handed to the processor.
func (c *Consumer) Run(ctx context.Context) error {
	c.logg.Info(c.logg.WithFields(ctx, map[string]any{
		"max_messages": c.cfg.MaxMessages,
		"wait_time":    c.cfg.WaitTime.String(),
		"dedup":        c.dedup != nil,
	}), "webhooks.consumer.started")

	for {
		if ctx.Err() != nil {
			c.logg.Info(ctx, "webhooks.consumer.stopped")
			return nil
		}

		msgs, err := c.receiver.Receive(ctx, c.cfg.MaxMessages, c.cfg.WaitTime)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logg.Error(ctx, "webhooks.consumer.receive_failed", err)
			c.sleep(ctx, c.cfg.ErrorBackoff)
			continue
		}
		if len(msgs) == 0 {
			c.sleep(ctx, c.cfg.EmptyPollInterval)
			continue
		}

		c.handleBatch(ctx, msgs)
	}
}

func (c *Consumer) handleBatch(ctx context.Context, msgs []queue.Message) {
	var g errgroup.Group
	g.SetLimit(c.cfg.MaxMessages)
	for _, msg := range msgs {
		g.Go(func() error {
			c.handle(ctx, msg)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Consumer) handle(ctx context.Context, msg queue.Message) {
	logCtx := c.logg.WithField(ctx, "message_id", msg.ID)
	defer c.ack(logCtx, msg)

	if c.dedup != nil && msg.ID != "" {
		seen, err := c.dedup.WasProcessed(ctx, dedupScope, msg.ID)
		if err != nil {
			c.logg.Warn(logCtx, "webhooks.consumer.dedup_check_failed")
		}
		if seen {
			c.logg.Info(logCtx, "webhooks.consumer.duplicate")
			c.metrics.IncMessage(metrics.OutcomeDuplicate)
			return
		}
	}

	inbound, err := decodeInbound(msg)
	if err != nil {
		c.logg.Error(logCtx, "webhooks.consumer.malformed_message", err)
		c.metrics.IncMessage(metrics.OutcomeMalformed)
		return
	}

	// a started dispatch runs to completion; ctx cancellation only stops polling
	workCtx := context.WithoutCancel(ctx)
	if err := c.processor.ProcessInbound(workCtx, inbound); err != nil {
		c.logg.Error(c.logg.WithField(logCtx, "url_code", inbound.URLCode), "webhooks.consumer.process_failed", err)
	}
	c.metrics.IncMessage(metrics.OutcomeProcessed)

	if c.dedup != nil && msg.ID != "" {
		if err := c.dedup.MarkProcessed(workCtx, dedupScope, msg.ID, c.cfg.DedupTTL); err != nil {
			c.logg.Warn(logCtx, "webhooks.consumer.dedup_mark_failed")
		}
	}
}

// ack survives shutdown so an event handled during cancellation is not redelivered.
func (c *Consumer) ack(ctx context.Context, msg queue.Message) {
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
	defer cancel()
	if err := c.receiver.Ack(ackCtx, msg); err != nil {
		c.logg.Error(ctx, "webhooks.consumer.ack_failed", err)
		c.metrics.IncMessage(metrics.OutcomeAckFailed)
	}
}

// decodeInbound reads {urlCode, payload}; the url code attribute fills in for a
// body that omits it.
func decodeInbound(msg queue.Message) (InboundMessage, error) {
	var inbound InboundMessage
	if err := json.Unmarshal(msg.Body, &inbound); err != nil {
		return InboundMessage{}, fmt.Errorf("decode inbound message: %w", err)
	}
	inbound.URLCode = strings.TrimSpace(inbound.URLCode)
	if inbound.URLCode == "" {
		inbound.URLCode = strings.TrimSpace(msg.Attributes[queue.AttrURLCode])
	}
	if inbound.URLCode == "" {
		return InboundMessage{}, fmt.Errorf("decode inbound message: url code missing")
	}
	return inbound, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
