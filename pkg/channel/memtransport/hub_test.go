package memtransport_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livenotify/pkg/channel"
	"github.com/dmitrymomot/livenotify/pkg/channel/memtransport"
	"github.com/dmitrymomot/livenotify/pkg/logger"
)

func receive(t *testing.T, conn channel.Conn) channel.Message {
	t.Helper()
	select {
	case msg, ok := <-conn.Messages():
		require.True(t, ok, "connection closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return channel.Message{}
	}
}

func assertSilent(t *testing.T, conn channel.Conn) {
	t.Helper()
	select {
	case msg := <-conn.Messages():
		t.Fatalf("unexpected message %q", msg.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RoomDelivery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	hub := memtransport.NewHub(memtransport.WithLogger(logger.Nop()))
	defer hub.Close()

	alice, err := hub.Dial(ctx)
	require.NoError(t, err)
	bob, err := hub.Dial(ctx)
	require.NoError(t, err)

	require.NoError(t, alice.Send(ctx, channel.JoinMessage("user:alice")))
	require.NoError(t, alice.Send(ctx, channel.JoinMessage("role:admin")))
	require.NoError(t, bob.Send(ctx, channel.JoinMessage("user:bob")))

	require.NoError(t, hub.Publish(ctx, "role:admin", channel.EventNotification, map[string]string{"title": "for admins"}))
	msg := receive(t, alice)
	assert.Equal(t, channel.EventNotification, msg.Event)
	assert.Equal(t, "role:admin", msg.Room)
	assert.JSONEq(t, `{"title":"for admins"}`, string(msg.Payload))
	assertSilent(t, bob)

	require.NoError(t, hub.Publish(ctx, "user:bob", "ping", nil))
	assert.Equal(t, "ping", receive(t, bob).Event)
	assertSilent(t, alice)

	assert.NoError(t, hub.Publish(ctx, "nobody", "ping", nil))
}

func TestHub_Leave(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	hub := memtransport.NewHub(memtransport.WithLogger(logger.Nop()))
	defer hub.Close()

	conn, err := hub.Dial(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Send(ctx, channel.JoinMessage("role:admin")))
	require.NoError(t, conn.Send(ctx, channel.JoinMessage("role:admin")))
	assert.Equal(t, 1, hub.Members("role:admin"))

	require.NoError(t, conn.Send(ctx, channel.LeaveMessage("role:admin")))
	assert.Eventually(t, func() bool { return hub.Members("role:admin") == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Publish(ctx, "role:admin", "ping", nil))
	assertSilent(t, conn)
}

func TestHub_ClientSendToRoom(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inbound []string
	)
	hub := memtransport.NewHub(
		memtransport.WithLogger(logger.Nop()),
		memtransport.WithInbound(func(_ context.Context, _ string, msg channel.Message) {
			mu.Lock()
			inbound = append(inbound, msg.Event)
			mu.Unlock()
		}),
	)
	defer hub.Close()

	a, err := hub.Dial(ctx)
	require.NoError(t, err)
	b, err := hub.Dial(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Send(ctx, channel.JoinMessage("chat")))

	require.NoError(t, a.Send(ctx, channel.Message{Event: "say", Room: "chat"}))
	assert.Equal(t, "say", receive(t, b).Event)

	require.NoError(t, a.Send(ctx, channel.Message{Event: "hello"}))
	mu.Lock()
	assert.Equal(t, []string{"hello"}, inbound)
	mu.Unlock()
}

func TestHub_Kick(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	hub := memtransport.NewHub(memtransport.WithLogger(logger.Nop()))
	defer hub.Close()

	conn, err := hub.Dial(ctx)
	require.NoError(t, err)
	id := conn.(*memtransport.Conn).ID()
	assert.Equal(t, []string{id}, hub.Conns())

	assert.True(t, hub.Kick(id))
	assert.False(t, hub.Kick(id))
	assert.Empty(t, hub.Conns())

	_, ok := <-conn.Messages()
	assert.False(t, ok)
	assert.ErrorIs(t, conn.Send(ctx, channel.JoinMessage("x")), memtransport.ErrConnClosed)
}

func TestHub_Close(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	hub := memtransport.NewHub(memtransport.WithLogger(logger.Nop()))

	conn, err := hub.Dial(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Send(ctx, channel.JoinMessage("user:1")))

	require.NoError(t, hub.Close())
	require.NoError(t, hub.Close())

	_, ok := <-conn.Messages()
	assert.False(t, ok)

	_, err = hub.Dial(ctx)
	assert.ErrorIs(t, err, memtransport.ErrHubClosed)
	assert.ErrorIs(t, hub.Publish(ctx, "user:1", "ping", nil), memtransport.ErrHubClosed)
}

func TestHub_WithClient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	hub := memtransport.NewHub(memtransport.WithLogger(logger.Nop()))
	defer hub.Close()

	client := channel.NewClient(hub, channel.WithLogger(logger.Nop()))
	got := make(chan string, 1)
	client.On("ping", func(_ context.Context, msg channel.Message) error {
		got <- msg.Room
		return nil
	})

	require.NoError(t, client.Connect(ctx))
	defer client.Disconnect()
	require.NoError(t, client.Join(ctx, "user:1"))

	require.NoError(t, hub.Publish(ctx, "user:1", "ping", nil))
	select {
	case room := <-got:
		assert.Equal(t, "user:1", room)
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}

	dropped := hub.Conns()
	require.Len(t, dropped, 1)
	hub.Kick(dropped[0])
	assert.Eventually(t, func() bool { return client.State() == channel.StateDisconnected }, time.Second, 5*time.Millisecond)
	assert.Empty(t, client.Rooms())
}
