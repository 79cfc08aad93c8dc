package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/pandemic-scrollmap/internal/config"
	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
	"github.com/couchcryptid/pandemic-scrollmap/internal/scroll"
)

// SceneChange is published whenever a viewer enters a scene.
type SceneChange struct {
	SessionID        string      `json:"session_id"`
	SceneIndex       int         `json:"scene_index"`
	SceneTitle       string      `json:"scene_title"`
	SceneDate        domain.Date `json:"scene_date"`
	ShowVaccinations bool        `json:"show_vaccinations"`
	Direction        string      `json:"direction"`
	EnteredAt        time.Time   `json:"entered_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Notifier publishes scene changes to a Kafka topic. Writes are asynchronous
// so a slow broker never stalls a viewer's scroll events.
type Notifier struct {
	writer messageWriter
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewNotifier creates a producer for the configured scene topic.
func NewNotifier(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSceneTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(msgs []kafkago.Message, err error) {
			if err != nil {
				logger.Warn("scene change publish failed", "messages", len(msgs), "error", err)
			}
		},
	}
	return &Notifier{writer: w, clock: clock, logger: logger}
}

// ForSession returns a listener that publishes the session's scene entries.
// Progress and exit events are not published.
func (n *Notifier) ForSession(sessionID string) scroll.Listener {
	return scroll.ListenerFunc(func(e scroll.Event) {
		if e.Kind != scroll.EventEnter {
			return
		}
		change := SceneChange{
			SessionID:        sessionID,
			SceneIndex:       e.Index,
			SceneTitle:       e.Scene.Title,
			SceneDate:        e.Scene.Date,
			ShowVaccinations: e.Scene.ShowVaccinations,
			Direction:        string(e.Direction),
			EnteredAt:        n.clock.Now().UTC(),
		}
		if err := n.Publish(context.Background(), change); err != nil {
			n.logger.Warn("scene change not published", "session_id", sessionID, "error", err)
		}
	})
}

// Publish writes one scene change keyed by session id, so a session's changes
// stay ordered within a partition.
func (n *Notifier) Publish(ctx context.Context, change SceneChange) error {
	msg, err := serializeToMessage(change)
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, msg)
}

// Close flushes pending writes.
func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a SceneChange into a Kafka message.
func serializeToMessage(change SceneChange) (kafkago.Message, error) {
	data, err := json.Marshal(change)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize scene change: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(change.SessionID),
		Value: data,
		Time:  change.EnteredAt,
		Headers: []kafkago.Header{
			{Key: "scene_index", Value: []byte(strconv.Itoa(change.SceneIndex))},
			{Key: "entered_at", Value: []byte(change.EnteredAt.Format(time.RFC3339))},
		},
	}, nil
}
