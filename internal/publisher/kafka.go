package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LJTian/TreasuryHub/internal/processor"
	"github.com/LJTian/TreasuryHub/internal/storage"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// MessageWriter 是 kafka.Writer 中用到的部分，测试时可替换
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher 把每轮刷新后的文章逐条写入 Kafka 主题
type Publisher struct {
	writer MessageWriter
	topic  string
}

func NewKafkaPublisher(broker, topic string) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	logrus.Infof("kafka publisher ready: broker=%s topic=%s", broker, topic)
	return &Publisher{writer: w, topic: topic}
}

func NewPublisher(w MessageWriter, topic string) *Publisher {
	return &Publisher{writer: w, topic: topic}
}

// Messages 将文章编码为消息，key 为链接的 sha1
func Messages(articles []storage.Article, now time.Time) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(articles))
	for _, a := range articles {
		bs, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("marshal article %s: %w", a.Link, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(processor.HashURL(a.Link)),
			Value: bs,
			Time:  now,
		})
	}
	return msgs, nil
}

func (p *Publisher) Publish(ctx context.Context, articles []storage.Article) error {
	if len(articles) == 0 {
		return nil
	}
	msgs, err := Messages(articles, time.Now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), p.topic, err)
	}
	logrus.Debugf("published %d articles to %s", len(msgs), p.topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
