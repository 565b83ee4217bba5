package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/LJTian/TreasuryHub/internal/processor"
	"github.com/LJTian/TreasuryHub/internal/storage"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishKeysByLinkHash(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisher(w, "treasury-news")

	articles := []storage.Article{
		{Title: "Metaplanet buys 1,000 BTC", Link: "https://example.com/1", Published: time.Date(2025, 7, 30, 11, 0, 0, 0, time.UTC)},
		{Title: "SharpLink adds ETH", Link: "https://example.com/2"},
	}
	if err := p.Publish(context.Background(), articles); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != processor.HashURL("https://example.com/1") {
		t.Fatalf("unexpected key %s", w.msgs[0].Key)
	}

	var got storage.Article
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if got.Title != "Metaplanet buys 1,000 BTC" {
		t.Fatalf("unexpected value: %+v", got)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("close: %v", err)
	}
}

func TestPublishEmptyIsNoop(t *testing.T) {
	w := &fakeWriter{err: errors.New("should not be called")}
	if err := NewPublisher(w, "t").Publish(context.Background(), nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestPublishWriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	err := NewPublisher(w, "t").Publish(context.Background(), []storage.Article{{Link: "https://example.com/1"}})
	if err == nil {
		t.Fatalf("expected error")
	}
}
