package feed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Clark-Hu/cinesignal/internal/domain"
)

// DefaultTopic is used when BrokerOptions.Topic is empty.
const DefaultTopic = "cinesignal.feed"

// Message is the JSON body of a broker feed message.
type Message struct {
	EventID   string           `json:"eventId"`
	Timestamp int64            `json:"timestamp"`
	UserID    int64            `json:"userId"`
	EventType domain.EventType `json:"eventType"`
	Operation domain.Operation `json:"operation"`
	EntityID  int64            `json:"entityId"`
}

// BrokerOptions configures a BrokerSink.
type BrokerOptions struct {
	Topic string
	// MaxFailures consecutive publish errors open the breaker. Default 5.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open. Default 30s.
	OpenTimeout time.Duration
	Logger      zerolog.Logger
}

// BrokerSink publishes events as Watermill messages behind a circuit breaker.
type BrokerSink struct {
	publisher message.Publisher
	topic     string
	breaker   *gobreaker.CircuitBreaker[struct{}]
	logger    zerolog.Logger
	now       func() time.Time
}

// NewBrokerSink wraps publisher. The sink owns publisher and closes it in Close.
func NewBrokerSink(publisher message.Publisher, opts BrokerOptions) *BrokerSink {
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	logger := opts.Logger.With().Str("component", "feed.broker").Str("topic", opts.Topic).Logger()

	maxFailures := opts.MaxFailures
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "feed-broker",
		Timeout: opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &BrokerSink{
		publisher: publisher,
		topic:     opts.Topic,
		breaker:   breaker,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *BrokerSink) Publish(ctx context.Context, userID int64, eventType domain.EventType, operation domain.Operation, entityID int64) error {
	body := Message{
		EventID:   uuid.NewString(),
		Timestamp: s.now().UnixMilli(),
		UserID:    userID,
		EventType: eventType,
		Operation: operation,
		EntityID:  entityID,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal feed message: %w", err)
	}

	msg := message.NewMessage(body.EventID, payload)
	msg.Metadata.Set(natsgo.MsgIdHdr, body.EventID)
	msg.Metadata.Set("event_type", string(eventType))
	msg.Metadata.Set("user_id", strconv.FormatInt(userID, 10))
	msg.SetContext(ctx)

	_, err = s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.publisher.Publish(s.topic, msg)
	})
	if err != nil {
		return fmt.Errorf("publish feed message: %w", err)
	}
	s.logger.Debug().Str("event_id", body.EventID).Msg("feed message published")
	return nil
}

func (s *BrokerSink) Name() string { return "broker" }

// Close releases the underlying publisher.
func (s *BrokerSink) Close() error {
	return s.publisher.Close()
}

// NATSOptions configures the production NATS publisher.
type NATSOptions struct {
	URL       string
	JetStream bool
}

// NewNATSPublisher dials NATS through watermill-nats.
func NewNATSPublisher(opts NATSOptions, logger watermill.LoggerAdapter) (message.Publisher, error) {
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         opts.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      !opts.JetStream,
			AutoProvision: true,
			TrackMsgId:    true,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}
	return pub, nil
}
