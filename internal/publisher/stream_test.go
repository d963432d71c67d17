package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/tclive/internal/models"
	tu "github.com/desertthunder/tclive/internal/testing"
)

func TestStreamValues(t *testing.T) {
	e := models.NewEvent(models.EventScoreUpdate, models.ScoreUpdate{House: "advi", Sport: "Cricket", Score: 95})

	values, err := streamValues(e)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if values["type"] != "score.update" {
		t.Errorf("expected type score.update, got %v", values["type"])
	}
	if values["id"] != e.ID {
		t.Errorf("expected id %s, got %v", e.ID, values["id"])
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(values["data"].(string)), &decoded); err != nil {
		t.Fatalf("data is not JSON: %v", err)
	}
	if decoded["type"] != "score.update" {
		t.Errorf("expected envelope type in data, got %v", decoded["type"])
	}
}

func TestStreamPublisher(t *testing.T) {
	t.Run("default stream", func(t *testing.T) {
		if p := NewStreamPublisher(nil, ""); p.Stream() != DefaultStream {
			t.Errorf("expected %s, got %s", DefaultStream, p.Stream())
		}
	})

	t.Run("wraps connection errors", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 50 * time.Millisecond,
			MaxRetries:  -1,
		})
		defer client.Close()

		p := NewStreamPublisher(client, "test.events")
		err := p.Publish(context.Background(), models.NewEvent(models.EventPong, nil))
		if err == nil {
			t.Fatal("expected error publishing to unreachable redis")
		}
	})

	t.Run("rejects bad url", func(t *testing.T) {
		if _, err := NewRedisClient(context.Background(), "not-a-url"); err == nil {
			t.Error("expected error for invalid url")
		}
	})
}

func TestFanout(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes to every sink", func(t *testing.T) {
		a, b := &tu.MockSink{}, &tu.MockSink{}
		if err := (Fanout{a, nil, b}).Publish(ctx, models.NewEvent(models.EventPong, nil)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(a.Events) != 1 || len(b.Events) != 1 {
			t.Errorf("expected both sinks to receive the event, got %d/%d", len(a.Events), len(b.Events))
		}
	})

	t.Run("continues past failures", func(t *testing.T) {
		failing := &tu.MockSink{Err: tu.ErrMock}
		ok := &tu.MockSink{}

		err := (Fanout{failing, ok}).Publish(ctx, models.NewEvent(models.EventPong, nil))
		if !errors.Is(err, tu.ErrMock) {
			t.Errorf("expected joined mock error, got %v", err)
		}
		if len(ok.Events) != 1 {
			t.Error("expected healthy sink to receive the event")
		}
	})
}
