package mapping

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// SenderOptions configures the shared outbound client.
type SenderOptions struct {
	Timeout   time.Duration
	UserAgent string
}

// Request is a single outbound destination call.
type Request struct {
	// Platform is the display name used in error messages, e.g. "Hotzapp".
	Platform string
	URL      string
	Headers  map[string]string
	Body     any
}

// Response captures the destination answer and the measured wall-clock latency.
type Response struct {
	Status  int
	Body    []byte
	Latency time.Duration
}

// Sender performs destination calls for every mapper over one pooled client.
type Sender struct {
	client *resty.Client
	now    func() time.Time
}

// NewSender builds a Sender without automatic retries.
func NewSender(opts SenderOptions) *Sender {
	client := resty.New().
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	return &Sender{client: client, now: time.Now}
}

// Post sends req.Body as JSON. Transport failures and non-2xx answers are returned as *DispatchError.
func (s *Sender) Post(ctx context.Context, req Request) (*Response, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("sender not configured")
	}

	start := s.now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers).
		SetBody(req.Body).
		Post(req.URL)
	latency := s.now().Sub(start)

	if err != nil {
		return nil, &DispatchError{
			Code:          CodeDestinationDown,
			Message:       fmt.Sprintf("%s API request failed: %v", req.Platform, err),
			MappedPayload: req.Body,
			cause:         err,
		}
	}

	out := &Response{Status: resp.StatusCode(), Body: resp.Body(), Latency: latency}
	if out.Status < http.StatusOK || out.Status >= http.StatusMultipleChoices {
		text := resp.String()
		return out, &DispatchError{
			Code:          CodeDestinationHTTP,
			Message:       fmt.Sprintf("%s API error: %d - %s", req.Platform, out.Status, truncate(text, maxErrorBody)),
			Status:        out.Status,
			Body:          text,
			MappedPayload: req.Body,
		}
	}
	return out, nil
}
