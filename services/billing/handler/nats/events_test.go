package nats

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/piresc/vidcredit/internal/pkg/constants"
	"github.com/piresc/vidcredit/internal/pkg/models"
	natspkg "github.com/piresc/vidcredit/internal/pkg/nats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDeliverer struct {
	mu       sync.Mutex
	userIDs  []string
	messages []models.WSMessage
	got      chan struct{}
}

func newRecordingDeliverer() *recordingDeliverer {
	return &recordingDeliverer{got: make(chan struct{}, 10)}
}

func (d *recordingDeliverer) Deliver(userID string, msg models.WSMessage) int {
	d.mu.Lock()
	d.userIDs = append(d.userIDs, userID)
	d.messages = append(d.messages, msg)
	d.mu.Unlock()
	d.got <- struct{}{}
	return 1
}

func TestEventsHandler_RelaysUserEvents(t *testing.T) {
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	s := natsserver.RunServer(&opts)
	defer s.Shutdown()

	client, err := natspkg.NewClient(s.ClientURL())
	require.NoError(t, err)
	defer client.Close()

	deliverer := newRecordingDeliverer()
	handler := NewEventsHandler(client, deliverer)
	require.NoError(t, handler.InitNATSConsumers())
	defer handler.Close()
	require.NoError(t, client.Flush())

	require.NoError(t, client.PublishJSON(constants.SubjectUserEventPrefix+".user-1", models.UserEvent{
		UserID: "user-1",
		Event:  constants.EventBalanceChanged,
		Data:   json.RawMessage(`{"balance":150,"delta":50}`),
	}))

	select {
	case <-deliverer.got:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}

	deliverer.mu.Lock()
	defer deliverer.mu.Unlock()
	assert.Equal(t, []string{"user-1"}, deliverer.userIDs)
	assert.Equal(t, constants.EventBalanceChanged, deliverer.messages[0].Event)
	assert.JSONEq(t, `{"balance":150,"delta":50}`, string(deliverer.messages[0].Data))
}

func TestEventsHandler_HandleUserEvent_Invalid(t *testing.T) {
	handler := NewEventsHandler(nil, newRecordingDeliverer())

	assert.Error(t, handler.handleUserEvent([]byte(`not json`)))
	assert.Error(t, handler.handleUserEvent([]byte(`{"event":"balance_changed"}`)))
	assert.Error(t, handler.handleUserEvent([]byte(`{"user_id":"user-1"}`)))
}
