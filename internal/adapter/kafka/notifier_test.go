package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
	"github.com/couchcryptid/pandemic-scrollmap/internal/scroll"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

var enteredAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testNotifier(w messageWriter) *Notifier {
	return &Notifier{
		writer: w,
		clock:  clockwork.NewFakeClockAt(enteredAt),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSerializeToMessage(t *testing.T) {
	change := SceneChange{
		SessionID:  "sess-1",
		SceneIndex: 3,
		SceneTitle: "Vaccines",
		SceneDate:  domain.MustParseDate("2021-01-15"),
		Direction:  "down",
		EnteredAt:  enteredAt,
	}

	msg, err := serializeToMessage(change)
	require.NoError(t, err)

	assert.Equal(t, []byte("sess-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"scene_date":"2021-01-15"`)
	assert.Contains(t, string(msg.Value), `"scene_index":3`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "scene_index", msg.Headers[0].Key)
	assert.Equal(t, []byte("3"), msg.Headers[0].Value)
	assert.Equal(t, "entered_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(enteredAt.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestForSession_PublishesEnterOnly(t *testing.T) {
	w := &fakeWriter{}
	n := testNotifier(w)
	l := n.ForSession("sess-9")

	scene := domain.Scene{Date: domain.MustParseDate("2020-03-11"), Title: "Pandemic", ShowVaccinations: false}
	l.HandleScrollEvent(scroll.Event{Kind: scroll.EventProgress, Index: 1, Scene: scene})
	l.HandleScrollEvent(scroll.Event{Kind: scroll.EventExit, Index: 1, Scene: scene})
	l.HandleScrollEvent(scroll.Event{Kind: scroll.EventEnter, Index: 1, Scene: scene, Direction: scroll.DirectionUp})

	require.Len(t, w.msgs, 1)
	var got SceneChange
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, SceneChange{
		SessionID:  "sess-9",
		SceneIndex: 1,
		SceneTitle: "Pandemic",
		SceneDate:  scene.Date,
		Direction:  "up",
		EnteredAt:  enteredAt,
	}, got)
}

func TestForSession_WriteErrorIsSwallowed(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	n := testNotifier(w)

	assert.NotPanics(t, func() {
		n.ForSession("s").HandleScrollEvent(scroll.Event{Kind: scroll.EventEnter})
	})
	assert.Empty(t, w.msgs)
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, testNotifier(w).Close())
	assert.True(t, w.closed)
}
