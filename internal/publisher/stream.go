// package publisher delivers service events to other consumers: a Redis stream for downstream
// services and a fan-out sink that combines it with the websocket hub.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/tclive/internal/models"
)

const (
	DefaultStream = "tclive.events"
	defaultMaxLen = 10000
)

// Sink receives events.
type Sink interface {
	Publish(ctx context.Context, e models.Event) error
}

// StreamPublisher appends events to a Redis stream.
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamPublisher creates a publisher writing to stream (default "tclive.events").
func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{client: client, stream: stream, maxLen: defaultMaxLen}
}

// NewRedisClient connects to url (redis://…) and pings it.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}
	return client, nil
}

// Stream returns the stream key.
func (p *StreamPublisher) Stream() string {
	return p.stream
}

// Publish appends e to the stream, trimming it to roughly maxLen entries.
func (p *StreamPublisher) Publish(ctx context.Context, e models.Event) error {
	values, err := streamValues(e)
	if err != nil {
		return err
	}

	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return fmt.Errorf("error publishing to stream %s: %w", p.stream, err)
	}

	return nil
}

func streamValues(e models.Event) (map[string]any, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("error marshaling event: %w", err)
	}
	return map[string]any{
		"data": string(data),
		"type": string(e.Kind),
		"id":   e.ID,
	}, nil
}

// Fanout publishes every event to all sinks and joins their errors.
type Fanout []Sink

// Publish implements [Sink].
func (f Fanout) Publish(ctx context.Context, e models.Event) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
