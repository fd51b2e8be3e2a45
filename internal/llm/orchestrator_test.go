package llm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient answers each call with the function for that call number (1-based).
type scriptedClient struct {
	mu    sync.Mutex
	calls int
	reqs  []Request
	fn    func(ctx context.Context, call int, req Request) (string, error)
}

func (c *scriptedClient) Complete(ctx context.Context, req Request) (string, error) {
	c.mu.Lock()
	c.calls++
	call := c.calls
	c.reqs = append(c.reqs, req)
	c.mu.Unlock()
	return c.fn(ctx, call, req)
}

func (c *scriptedClient) GetModel(tier ModelTier) string {
	return "model-" + string(tier)
}

func (c *scriptedClient) Close() error { return nil }

func (c *scriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func fastConfig() OrchestratorConfig {
	return OrchestratorConfig{
		Timeout:     50 * time.Millisecond,
		MaxRetries:  2,
		Backoff:     time.Millisecond,
		CancelGrace: time.Second,
	}
}

func userRequest() Request {
	return NewRequest(TierStandard, "system prompt", "user prompt")
}

// blockUntilCancelled waits for the attempt context and reports that it unwound.
func blockUntilCancelled(ctx context.Context, unwound *atomic.Int32) (string, error) {
	<-ctx.Done()
	unwound.Add(1)
	return "", ctx.Err()
}

func TestGenerate_Success(t *testing.T) {
	client := &scriptedClient{fn: func(ctx context.Context, call int, req Request) (string, error) {
		return "# Jane Doe", nil
	}}

	res := NewOrchestrator(client, fastConfig(), nil).Generate(context.Background(), userRequest())

	assert.True(t, res.OK())
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "# Jane Doe", res.Text)
	assert.Equal(t, 1, res.Attempts)
	assert.NoError(t, res.Err)
	assert.Equal(t, "model-standard", client.reqs[0].Model)
}

func TestGenerate_TimeoutsThenSuccess(t *testing.T) {
	var unwound atomic.Int32
	client := &scriptedClient{fn: func(ctx context.Context, call int, req Request) (string, error) {
		if call < 3 {
			return blockUntilCancelled(ctx, &unwound)
		}
		return `{"score": 80}`, nil
	}}

	res := NewOrchestrator(client, fastConfig(), nil).Generate(context.Background(), userRequest())

	require.True(t, res.OK(), "err: %v", res.Err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, client.Calls())
	assert.Equal(t, int32(2), unwound.Load(), "timed out attempts must be cancelled, not abandoned")
}

func TestGenerate_ExhaustedRetries(t *testing.T) {
	var unwound atomic.Int32
	client := &scriptedClient{fn: func(ctx context.Context, call int, req Request) (string, error) {
		return blockUntilCancelled(ctx, &unwound)
	}}

	res := NewOrchestrator(client, fastConfig(), nil).Generate(context.Background(), userRequest())

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, ErrorExhaustedRetries, res.ErrorKind)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, client.Calls())
	assert.Equal(t, int32(3), unwound.Load())
	assert.Empty(t, res.Text)
	assert.ErrorIs(t, res.Err, ErrAttemptTimeout)

	var aiErr *AIRequestError
	require.ErrorAs(t, res.Err, &aiErr)
	assert.Equal(t, ErrorExhaustedRetries, aiErr.Kind)
}

func TestGenerate_TransientErrorsUseLinearBackoff(t *testing.T) {
	var (
		mu    sync.Mutex
		times []time.Time
	)
	client := &scriptedClient{fn: func(ctx context.Context, call int, req Request) (string, error) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		return "", &TransientError{StatusCode: 503, Message: "overloaded"}
	}}
	cfg := fastConfig()
	cfg.Backoff = 40 * time.Millisecond

	res := NewOrchestrator(client, cfg, nil).Generate(context.Background(), userRequest())

	assert.Equal(t, ErrorExhaustedRetries, res.ErrorKind)
	require.Len(t, times, 3)
	assert.GreaterOrEqual(t, times[1].Sub(times[0]), 40*time.Millisecond)
	assert.GreaterOrEqual(t, times[2].Sub(times[1]), 80*time.Millisecond)
}

func TestGenerate_InvalidRequestNeverCallsClient(t *testing.T) {
	client := &scriptedClient{fn: func(ctx context.Context, call int, req Request) (string, error) {
		return "unreachable", nil
	}}

	res := NewOrchestrator(client, fastConfig(), nil).Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser}},
	})

	assert.Equal(t, ErrorInvalidRequest, res.ErrorKind)
	assert.Equal(t, 0, res.Attempts)
	assert.Equal(t, 0, client.Calls())
}

func TestGenerate_ProviderRejectionIsNotRetried(t *testing.T) {
	client := &scriptedClient{fn: func(ctx context.Context, call int, req Request) (string, error) {
		return "", &RequestError{StatusCode: 400, Message: "context length exceeded"}
	}}

	res := NewOrchestrator(client, fastConfig(), nil).Generate(context.Background(), userRequest())

	assert.Equal(t, ErrorInvalidRequest, res.ErrorKind)
	assert.Equal(t, 1, client.Calls())
}

func TestGenerate_EmptyResponse(t *testing.T) {
	client := &scriptedClient{fn: func(ctx context.Context, call int, req Request) (string, error) {
		return "  \n ", nil
	}}

	res := NewOrchestrator(client, fastConfig(), nil).Generate(context.Background(), userRequest())

	assert.Equal(t, ErrorInvalidResponse, res.ErrorKind)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, client.Calls())
	var respErr *ResponseError
	assert.ErrorAs(t, res.Err, &respErr)
}

func TestGenerate_ClientPanicIsContained(t *testing.T) {
	client := &scriptedClient{fn: func(ctx context.Context, call int, req Request) (string, error) {
		panic("boom")
	}}

	res := NewOrchestrator(client, fastConfig(), nil).Generate(context.Background(), userRequest())

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, ErrorInvalidResponse, res.ErrorKind)
	assert.Contains(t, res.Err.Error(), "client panic: boom")
}

func TestGenerate_CallerCancellationDuringAttempt(t *testing.T) {
	var unwound atomic.Int32
	started := make(chan struct{})
	client := &scriptedClient{fn: func(ctx context.Context, call int, req Request) (string, error) {
		close(started)
		return blockUntilCancelled(ctx, &unwound)
	}}
	cfg := fastConfig()
	cfg.Timeout = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	res := NewOrchestrator(client, cfg, nil).Generate(ctx, userRequest())

	assert.Equal(t, ErrorCancelled, res.ErrorKind)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, int32(1), unwound.Load(), "in-flight attempt must unwind before Generate returns")
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 1, client.Calls())
}

func TestGenerate_CallerCancellationDuringBackoff(t *testing.T) {
	client := &scriptedClient{fn: func(ctx context.Context, call int, req Request) (string, error) {
		return "", &TransientError{StatusCode: 429, Message: "slow down"}
	}}
	cfg := fastConfig()
	cfg.Backoff = 5 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := NewOrchestrator(client, cfg, nil).Generate(ctx, userRequest())

	assert.Equal(t, ErrorCancelled, res.ErrorKind)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, client.Calls())
	assert.True(t, errors.Is(res.Err, context.DeadlineExceeded))
}

func TestGenerate_AlreadyCancelled(t *testing.T) {
	client := &scriptedClient{fn: func(ctx context.Context, call int, req Request) (string, error) {
		return "never", nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewOrchestrator(client, fastConfig(), nil).Generate(ctx, userRequest())

	assert.Equal(t, ErrorCancelled, res.ErrorKind)
	assert.Equal(t, 0, res.Attempts)
	assert.Equal(t, 0, client.Calls())
}

func TestGenerate_ClientIgnoringCancellationIsBoundedByGrace(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	client := &scriptedClient{fn: func(ctx context.Context, call int, req Request) (string, error) {
		<-release
		return "late", nil
	}}
	cfg := OrchestratorConfig{
		Timeout:     20 * time.Millisecond,
		MaxRetries:  -1,
		CancelGrace: 30 * time.Millisecond,
	}

	start := time.Now()
	res := NewOrchestrator(client, cfg, nil).Generate(context.Background(), userRequest())

	assert.Equal(t, ErrorExhaustedRetries, res.ErrorKind)
	assert.Equal(t, 1, res.Attempts)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewOrchestrator_Defaults(t *testing.T) {
	o := NewOrchestrator(&scriptedClient{}, OrchestratorConfig{}, nil)

	assert.Equal(t, DefaultOrchestratorConfig(), o.Config())
}

func TestNewOrchestrator_BackoffOverrides(t *testing.T) {
	o := NewOrchestrator(&scriptedClient{}, OrchestratorConfig{Timeout: time.Second}, nil)
	assert.Equal(t, DefaultBackoff, o.Config().Backoff)
	assert.Equal(t, time.Second, o.Config().Timeout)

	o = NewOrchestrator(&scriptedClient{}, OrchestratorConfig{Backoff: -1}, nil)
	assert.Equal(t, time.Duration(0), o.Config().Backoff)

	o = NewOrchestrator(&scriptedClient{}, OrchestratorConfig{Backoff: 250 * time.Millisecond}, nil)
	assert.Equal(t, 250*time.Millisecond, o.Config().Backoff)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(ErrAttemptTimeout))
	assert.True(t, IsTransient(&TransientError{StatusCode: 502}))
	assert.False(t, IsTransient(&RequestError{StatusCode: 401}))
	assert.False(t, IsTransient(&ResponseError{Message: "empty"}))
	assert.False(t, IsTransient(nil))
}

func TestClassifyStatus(t *testing.T) {
	var transient *TransientError
	var reqErr *RequestError

	assert.ErrorAs(t, classifyStatus(429, "rate"), &transient)
	assert.ErrorAs(t, classifyStatus(500, "oops"), &transient)
	assert.ErrorAs(t, classifyStatus(401, "bad key"), &reqErr)
	assert.Equal(t, 401, reqErr.StatusCode)
}
