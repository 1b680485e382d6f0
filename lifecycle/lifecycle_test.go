package lifecycle_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/s3proxy"
	"github.com/sagarc03/s3proxy/lifecycle"
)

type fakeBackend struct {
	initErr   error
	initBlock bool
	closed    atomic.Int32
}

func (b *fakeBackend) Init(ctx context.Context) <-chan error {
	ch := make(chan error, 1)
	if b.initBlock {
		return ch
	}
	ch <- b.initErr
	close(ch)
	return ch
}

func (b *fakeBackend) Head(context.Context, s3proxy.Request) (*s3proxy.Object, error) {
	return nil, s3proxy.ErrNotReady
}

func (b *fakeBackend) Get(context.Context, s3proxy.Request) (*s3proxy.Object, error) {
	return nil, s3proxy.ErrNotReady
}

func (b *fakeBackend) HealthCheck(context.Context) (*s3proxy.Object, error) {
	return nil, s3proxy.ErrNotReady
}

func (b *fakeBackend) State() s3proxy.HandleState { return s3proxy.StateReady }

func (b *fakeBackend) ClientVersion() string { return "fake/1.0" }

func (b *fakeBackend) Close() error {
	b.closed.Add(1)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Ready() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, "ready")
	return nil
}

func (n *recordingNotifier) Stopping() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, "stopping")
	return nil
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
}

// start runs c in the background and waits until it listens.
func start(t *testing.T, c *lifecycle.Controller) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-c.Listening():
	case err := <-done:
		cancel()
		t.Fatalf("run exited before listening: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("timed out waiting for listener")
	}
	return cancel, done
}

func TestRun_InitFailureNeverListens(t *testing.T) {
	backend := &fakeBackend{initErr: errors.Join(s3proxy.ErrBackendInit, errors.New("access denied"))}
	notifier := &recordingNotifier{}
	c := lifecycle.New(lifecycle.Options{
		Addr:     "127.0.0.1:0",
		Handler:  okHandler(),
		Backend:  backend,
		Notifier: notifier,
	})

	err := c.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, s3proxy.ErrBackendInit)
	assert.Nil(t, c.Addr())
	select {
	case <-c.Listening():
		t.Fatal("listener bound after failed init")
	default:
	}
	assert.Empty(t, notifier.Events())
	assert.Equal(t, int32(1), backend.closed.Load())
}

func TestRun_InitTimeout(t *testing.T) {
	backend := &fakeBackend{initBlock: true}
	c := lifecycle.New(lifecycle.Options{
		Addr:        "127.0.0.1:0",
		Handler:     okHandler(),
		Backend:     backend,
		InitTimeout: 50 * time.Millisecond,
	})

	began := time.Now()
	err := c.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, s3proxy.ErrBackendInit)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(began), 5*time.Second)
	assert.Nil(t, c.Addr())
}

func TestRun_ListenFailure(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()

	backend := &fakeBackend{}
	c := lifecycle.New(lifecycle.Options{
		Addr:    occupied.Addr().String(),
		Handler: okHandler(),
		Backend: backend,
	})

	err = c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on")
	assert.Equal(t, int32(1), backend.closed.Load())
}

func TestRun_ServesAndShutsDown(t *testing.T) {
	backend := &fakeBackend{}
	notifier := &recordingNotifier{}
	c := lifecycle.New(lifecycle.Options{
		Addr:     "127.0.0.1:0",
		Handler:  okHandler(),
		Backend:  backend,
		Notifier: notifier,
	})

	cancel, done := start(t, c)
	require.NotNil(t, c.Addr())

	resp, err := http.Get("http://" + c.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	assert.Eventually(t, func() bool {
		return len(notifier.Events()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}

	assert.Equal(t, []string{"ready", "stopping"}, notifier.Events())
	assert.Equal(t, int32(1), backend.closed.Load())

	_, err = net.DialTimeout("tcp", c.Addr().String(), 200*time.Millisecond)
	assert.Error(t, err)
}

func TestRun_ShutdownDrainsInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		_, _ = io.WriteString(w, "drained")
	})

	c := lifecycle.New(lifecycle.Options{
		Addr:            "127.0.0.1:0",
		Handler:         handler,
		Backend:         &fakeBackend{},
		ShutdownTimeout: 5 * time.Second,
	})
	cancel, done := start(t, c)

	type result struct {
		body string
		err  error
	}
	got := make(chan result, 1)
	go func() {
		resp, err := http.Get("http://" + c.Addr().String() + "/slow")
		if err != nil {
			got <- result{err: err}
			return
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		got <- result{body: string(b), err: err}
	}()

	<-entered
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(release)

	r := <-got
	require.NoError(t, r.err)
	assert.Equal(t, "drained", r.body)
	assert.NoError(t, <-done)
}

func TestRun_ShutdownTimeoutBoundsDrain(t *testing.T) {
	entered := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-r.Context().Done()
	})

	backend := &fakeBackend{}
	c := lifecycle.New(lifecycle.Options{
		Addr:            "127.0.0.1:0",
		Handler:         handler,
		Backend:         backend,
		ShutdownTimeout: 100 * time.Millisecond,
	})
	cancel, done := start(t, c)

	go func() {
		resp, err := http.Get("http://" + c.Addr().String() + "/stuck")
		if err == nil {
			_ = resp.Body.Close()
		}
	}()

	<-entered
	began := time.Now()
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, err.Error(), "drain connections")
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown exceeded its grace period")
	}
	assert.Less(t, time.Since(began), 5*time.Second)
	assert.Equal(t, int32(1), backend.closed.Load())
}
