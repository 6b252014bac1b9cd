package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/engtrack/internal/dto"
)

type stubPublisher struct {
	subject  string
	payloads [][]byte
	err      error
}

func (s *stubPublisher) Publish(subject string, data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.subject = subject
	s.payloads = append(s.payloads, data)
	return nil
}

func TestChangeNotifierPublishesJSON(t *testing.T) {
	publisher := &stubPublisher{}
	notifier := newChangeNotifier(publisher, "engtrack.activities", testLogger())

	notifier.Notify(context.Background(), dto.ActivityChangeEvent{
		Type:       dto.ActivityEventUpdated,
		ActivityID: 7,
		Name:       "Weld fixture",
		Actor:      "Bruno Reis",
		OccurredAt: time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC),
		Changes:    []dto.ActivityFieldDelta{{Field: "Status", Old: strPtr("Started"), New: strPtr("Completed")}},
	})

	require.Equal(t, "engtrack.activities", publisher.subject)
	require.Len(t, publisher.payloads, 1)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &decoded))
	require.Equal(t, "activity.updated", decoded["type"])
	require.EqualValues(t, 7, decoded["activity_id"])
	changes := decoded["changes"].([]interface{})
	require.Len(t, changes, 1)
	require.Equal(t, "Completed", changes[0].(map[string]interface{})["new"])
}

func TestChangeNotifierSwallowsPublishErrors(t *testing.T) {
	publisher := &stubPublisher{err: errors.New("connection closed")}
	notifier := newChangeNotifier(publisher, "engtrack.activities", testLogger())

	require.NotPanics(t, func() {
		notifier.Notify(context.Background(), dto.ActivityChangeEvent{Type: dto.ActivityEventDeleted, ActivityID: 1})
	})
	require.Empty(t, publisher.payloads)
}

func TestNewChangeNotifierWithoutConnectionIsNoop(t *testing.T) {
	notifier := NewChangeNotifier(nil, "engtrack.activities", testLogger())
	require.IsType(t, noopChangeNotifier{}, notifier)
	notifier.Notify(context.Background(), dto.ActivityChangeEvent{Type: dto.ActivityEventCreated})
}
