package feed

import (
	"context"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"

	"github.com/riskibarqy/turf-war/internal/domain/warevent"
	"github.com/riskibarqy/turf-war/internal/platform/logging"
	"github.com/riskibarqy/turf-war/internal/platform/resilience"
)

var ErrPublisherClosed = errors.New("feed publisher is closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	Breaker      resilience.CircuitBreakerConfig
}

// KafkaPublisher pushes war events to the player feed topic, keyed by war id
// so each war's events stay ordered within one partition.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	breaker *resilience.CircuitBreaker
	logger  *logging.Logger
}

func NewKafkaPublisher(cfg Config, logger *logging.Logger) (*KafkaPublisher, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka feed topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return newKafkaPublisher(writer, cfg, logger), nil
}

func newKafkaPublisher(writer messageWriter, cfg Config, logger *logging.Logger) *KafkaPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return &KafkaPublisher{
		writer:  writer,
		topic:   cfg.Topic,
		timeout: timeout,
		breaker: resilience.NewCircuitBreaker(cfg.Breaker),
		logger:  logger.Named("feed"),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...warevent.Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		payload, err := sonic.Marshal(newEventMessage(event))
		if err != nil {
			return errors.Wrapf(err, "encode feed event %s", event.ID)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(event.WarID),
			Value: payload,
			Time:  event.OccurredAt.UTC(),
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.Type)},
			},
		})
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.breaker.Execute(func() error {
		return p.writer.WriteMessages(writeCtx, msgs...)
	}, func(err error) bool {
		return errors.Is(err, context.Canceled) && ctx.Err() != nil
	})
	if err != nil {
		p.logger.WarnContext(ctx, "feed publish failed",
			"topic", p.topic,
			"events", len(msgs),
			"error", err,
		)
		err = errors.Wrapf(err, "publish %d feed events", len(msgs))
		return errors.WithDetailf(err, "topic=%s war=%s", p.topic, events[0].WarID)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return ErrPublisherClosed
	}
	return p.writer.Close()
}

type eventMessage struct {
	ID           string    `json:"id"`
	WarID        string    `json:"warId"`
	Type         string    `json:"type"`
	FactionID    string    `json:"factionId,omitempty"`
	PlayerID     string    `json:"playerId,omitempty"`
	POIID        string    `json:"poiId,omitempty"`
	AttemptID    string    `json:"attemptId,omitempty"`
	PointsEarned int64     `json:"pointsEarned"`
	Description  string    `json:"description"`
	OccurredAt   time.Time `json:"occurredAt"`
}

func newEventMessage(e warevent.Event) eventMessage {
	return eventMessage{
		ID:           e.ID,
		WarID:        e.WarID,
		Type:         string(e.Type),
		FactionID:    e.FactionID,
		PlayerID:     e.PlayerID,
		POIID:        e.POIID,
		AttemptID:    e.AttemptID,
		PointsEarned: e.PointsEarned,
		Description:  e.Description,
		OccurredAt:   e.OccurredAt.UTC(),
	}
}
