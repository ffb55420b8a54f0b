package realtime

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestBroadcastToRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(quietLogger())
	go hub.Run(ctx)

	watcher := NewClient(hub, nil, RoundRoom(7))
	other := NewClient(hub, nil, RoundRoom(8))
	hub.Register(watcher)
	hub.Register(other)
	require.Eventually(t, func() bool { return hub.RoomSize(RoundRoom(7)) == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastToRoom(RoundRoom(7), MessageRoundVerificationChanged, map[string]string{"status": "verified"})

	select {
	case raw := <-watcher.send:
		var msg struct {
			Type    string            `json:"type"`
			Payload map[string]string `json:"payload"`
			RoomID  string            `json:"room_id"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, MessageRoundVerificationChanged, msg.Type)
		assert.Equal(t, "verified", msg.Payload["status"])
		assert.Equal(t, "round_7", msg.RoomID)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
	assert.Len(t, other.send, 0)

	hub.Unregister(watcher)
	require.Eventually(t, func() bool { return hub.RoomSize(RoundRoom(7)) == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-watcher.send
	assert.False(t, open)

	// Broadcasting to an empty room is a no-op.
	hub.BroadcastToRoom(RoundRoom(7), MessageAttestationResponded, nil)
}

func TestFullBufferDropsMessage(t *testing.T) {
	c := NewClient(NewHub(quietLogger()), nil, "r")
	for i := 0; i < sendBuffer; i++ {
		require.True(t, c.enqueue([]byte("x")))
	}
	assert.False(t, c.enqueue([]byte("x")))

	c.close()
	assert.False(t, c.enqueue([]byte("x")))
}
