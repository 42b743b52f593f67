package nats

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runServer(t *testing.T) *server.Server {
	t.Helper()
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	s := natsserver.RunServer(&opts)
	t.Cleanup(s.Shutdown)
	return s
}

func TestNewClient_InvalidAddress(t *testing.T) {
	client, err := NewClient("nats://127.0.0.1:1")
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to connect to NATS server")
}

func TestClient_PublishSubscribe(t *testing.T) {
	s := runServer(t)

	client, err := NewClient(s.ClientURL())
	require.NoError(t, err)
	defer client.Close()
	assert.True(t, client.IsConnected())

	received := make(chan []byte, 1)
	_, err = client.Subscribe("billing.user.u1", func(msg *nats.Msg) {
		received <- msg.Data
	})
	require.NoError(t, err)

	require.NoError(t, client.PublishJSON("billing.user.u1", map[string]int{"balance": 50}))
	require.NoError(t, client.Flush())

	select {
	case data := <-received:
		assert.JSONEq(t, `{"balance":50}`, string(data))
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestClient_PublishJSONMarshalError(t *testing.T) {
	s := runServer(t)

	client, err := NewClient(s.ClientURL())
	require.NoError(t, err)
	defer client.Close()

	err = client.PublishJSON("x", make(chan int))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal message")
}
