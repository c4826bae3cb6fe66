package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient records calls and replies with a canned answer.
type stubClient struct {
	mu     sync.Mutex
	times  []time.Time
	reply  string
	err    error
	block  bool
	closed bool
}

func (s *stubClient) Name() string { return "stub" }
func (s *stubClient) Close() error {
	s.closed = true
	return nil
}
func (s *stubClient) GenerateText(ctx context.Context, prompt string, input any) (string, error) {
	s.mu.Lock()
	s.times = append(s.times, time.Now())
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.reply, s.err
}

func TestWrapOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next Client) Client {
			order = append(order, name)
			return next
		}
	}
	Wrap(&stubClient{}, tag("outer"), tag("inner"))
	assert.Equal(t, []string{"inner", "outer"}, order)
}

func TestRateLimitSpacing(t *testing.T) {
	stub := &stubClient{reply: "ok"}
	cli := Wrap(stub, RateLimit(5, 1))
	t.Cleanup(func() { _ = cli.Close() })

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := cli.GenerateText(ctx, "p", nil)
		require.NoError(t, err)
	}
	require.Len(t, stub.times, 2)
	gap := stub.times[1].Sub(stub.times[0])
	assert.GreaterOrEqual(t, gap, 150*time.Millisecond)
}

func TestRateLimitDisabledIsPassThrough(t *testing.T) {
	stub := &stubClient{reply: "ok"}
	cli := Wrap(stub, RateLimit(0, 0))
	out, err := cli.GenerateText(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	require.NoError(t, cli.Close())
	assert.True(t, stub.closed)
}

func TestTimeoutCancelsSlowBackend(t *testing.T) {
	cli := Wrap(&stubClient{block: true}, Timeout(20*time.Millisecond))
	start := time.Now()
	_, err := cli.GenerateText(context.Background(), "p", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLoggingPassesErrorsThrough(t *testing.T) {
	boom := errors.New("boom")
	cli := Wrap(&stubClient{err: boom}, WithLogging(nil))
	_, err := cli.GenerateText(WithKind(context.Background(), "Entity.java"), "p", map[string]any{"a": 1})
	require.ErrorIs(t, err, boom)
}

func TestKindFromDefaults(t *testing.T) {
	assert.Equal(t, "unknown", KindFrom(context.Background()))
	assert.Equal(t, "pom.xml", KindFrom(WithKind(context.Background(), " pom.xml ")))
}

func TestFakeClientTemplatesAndCode(t *testing.T) {
	f := NewFakeClient()
	tpl, err := f.GenerateText(WithKind(context.Background(), "Entity.java template"), "p", nil)
	require.NoError(t, err)
	assert.Contains(t, tpl, "{{ .groupId }}")

	code, err := f.GenerateText(WithKind(context.Background(), "Entity.java"), "p",
		map[string]any{"file": "Entity.java", "spec": map[string]any{"groupId": "com.example"}})
	require.NoError(t, err)
	assert.Contains(t, code, "com.example")
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Options{Provider: "nope"})
	require.Error(t, err)
}

func TestNewFakeProvider(t *testing.T) {
	cli, err := New(context.Background(), Options{Provider: "fake", Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "FakeLLM", cli.Name())
	require.NoError(t, cli.Close())
}
