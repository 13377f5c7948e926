package redistransport_test

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livenotify/pkg/channel"
	"github.com/dmitrymomot/livenotify/pkg/channel/redistransport"
	"github.com/dmitrymomot/livenotify/pkg/logger"
)

func redisClient(t *testing.T) *goredis.Client {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL is not set")
	}
	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)
	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestTransport_DialUnreachable(t *testing.T) {
	t.Parallel()
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	tr := redistransport.New(client, redistransport.WithLogger(logger.Nop()))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := tr.Dial(ctx)
	assert.Error(t, err)
}

func TestPublisher_NoRoom(t *testing.T) {
	t.Parallel()
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	pub := redistransport.NewPublisher(client)
	err := pub.Publish(context.Background(), "", "ping", nil)
	assert.ErrorIs(t, err, redistransport.ErrNoRoom)
}

func TestTransport_RoomRoundTrip(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()
	prefix := "livenotify-test:" + t.Name() + ":"

	tr := redistransport.New(client, redistransport.WithPrefix(prefix), redistransport.WithLogger(logger.Nop()))
	pub := redistransport.NewPublisher(client, redistransport.WithPrefix(prefix), redistransport.WithLogger(logger.Nop()))

	c := channel.NewClient(tr, channel.WithLogger(logger.Nop()))
	got := make(chan channel.Message, 1)
	c.On("ping", func(_ context.Context, msg channel.Message) error {
		got <- msg
		return nil
	})

	require.NoError(t, c.Connect(ctx))
	defer c.Disconnect()
	require.NoError(t, c.Join(ctx, "user:1"))

	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, prefix+"user:1").Result()
		return err == nil && n[prefix+"user:1"] == 1
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, pub.Publish(ctx, "user:1", "ping", map[string]int{"n": 1}))
	select {
	case msg := <-got:
		assert.Equal(t, "user:1", msg.Room)
		assert.JSONEq(t, `{"n":1}`, string(msg.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	require.NoError(t, c.Leave(ctx, "user:1"))
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, prefix+"user:1").Result()
		return err == nil && n[prefix+"user:1"] == 0
	}, 2*time.Second, 20*time.Millisecond)
}

// fakeRedis answers just enough RESP2 for a client to connect, ping and
// subscribe. shutdown drops every connection and stops accepting new ones.
type fakeRedis struct {
	ln    net.Listener
	mu    sync.Mutex
	conns []net.Conn
}

func startFakeRedis(t *testing.T) *fakeRedis {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeRedis{ln: ln}
	t.Cleanup(f.shutdown)

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			f.mu.Lock()
			f.conns = append(f.conns, conn)
			f.mu.Unlock()
			go f.serve(conn)
		}
	}()
	return f
}

func (f *fakeRedis) addr() string { return f.ln.Addr().String() }

func (f *fakeRedis) shutdown() {
	_ = f.ln.Close()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conns {
		_ = c.Close()
	}
	f.conns = nil
}

func (f *fakeRedis) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		reply := "+OK\r\n"
		switch strings.ToUpper(args[0]) {
		case "HELLO":
			reply = "-ERR unknown command 'HELLO'\r\n"
		case "PING":
			reply = "+PONG\r\n"
		}
		if _, err := io.WriteString(conn, reply); err != nil {
			return
		}
	}
}

func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "*")))
	if err != nil || n < 1 {
		return nil, errors.New("malformed command")
	}

	args := make([]string, 0, n)
	for range n {
		hdr, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(hdr, "$")))
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func TestTransport_HealthCheckClosesOnOutage(t *testing.T) {
	t.Parallel()
	srv := startFakeRedis(t)

	client := goredis.NewClient(&goredis.Options{Addr: srv.addr(), MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	tr := redistransport.New(client,
		redistransport.WithLogger(logger.Nop()),
		redistransport.WithHealthCheck(20*time.Millisecond, 2),
	)
	c := channel.NewClient(tr, channel.WithLogger(logger.Nop()))
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Disconnect() })

	// healthy pings keep the connection open
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, channel.StateConnected, c.State())

	srv.shutdown()
	assert.Eventually(t, func() bool {
		return c.State() == channel.StateDisconnected
	}, 2*time.Second, 10*time.Millisecond)
}
