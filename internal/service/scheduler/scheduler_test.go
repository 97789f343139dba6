package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/band-order-server/internal/config"
	"github.com/darkkaiser/band-order-server/internal/ingestion"
	"github.com/darkkaiser/band-order-server/internal/service/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRunner struct {
	mu       sync.Mutex
	requests []contract.RunRequest
	block    bool
}

func (f *fakeRunner) Submit(req contract.RunRequest) error {
	_, err := f.Run(context.Background(), req)
	return err
}

func (f *fakeRunner) Run(ctx context.Context, req contract.RunRequest) (*ingestion.RunResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return &ingestion.RunResult{TenantID: req.TenantID, Canceled: true}, nil
	}
	return &ingestion.RunResult{TenantID: req.TenantID, Success: true}, nil
}

func (f *fakeRunner) Health() error { return nil }

func (f *fakeRunner) Requests() []contract.RunRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]contract.RunRequest(nil), f.requests...)
}

type fakeSender struct {
	mu   sync.Mutex
	sent []contract.Notification
}

func (f *fakeSender) Notify(_ context.Context, n contract.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeSender) Health() error { return nil }

func TestNewService(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t, "IngestionRunner는 필수입니다", func() {
		NewService(nil, nil, nil)
	})
	assert.NotPanics(t, func() {
		NewService(nil, &fakeRunner{}, nil)
	})
}

func TestScheduler_RegisterTenants(t *testing.T) {
	t.Parallel()

	tenants := []config.TenantConfig{
		{ID: "t1", Schedule: config.ScheduleConfig{Runnable: true, TimeSpec: "@every 1h", Limit: 30, UseAI: true}},
		{ID: "t2", Schedule: config.ScheduleConfig{Runnable: false, TimeSpec: "@every 1h"}},
		{ID: "t3", NotifierID: "tg", Schedule: config.ScheduleConfig{Runnable: true, TimeSpec: "invalid spec"}},
	}
	sender := &fakeSender{}
	s := NewService(tenants, &fakeRunner{}, sender)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))

	s.runningMu.Lock()
	entries := len(s.cron.Entries())
	s.runningMu.Unlock()
	assert.Equal(t, 1, entries, "runnable이고 표현식이 올바른 테넌트만 등록")

	sender.mu.Lock()
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "t3", sender.sent[0].TenantID)
	assert.Equal(t, "tg", sender.sent[0].NotifierID)
	assert.True(t, sender.sent[0].ErrorOccurred)
	sender.mu.Unlock()

	cancel()
	wg.Wait()

	assert.False(t, s.running)
	assert.Nil(t, s.cron)
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	t.Parallel()

	tenants := []config.TenantConfig{
		{ID: "t1", Schedule: config.ScheduleConfig{Runnable: true, TimeSpec: "* * * * * *", Limit: 10, UseAI: true}},
	}
	runner := &fakeRunner{}
	s := NewService(tenants, runner, nil)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))

	require.Eventually(t, func() bool { return len(runner.Requests()) > 0 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	wg.Wait()

	req := runner.Requests()[0]
	assert.Equal(t, "t1", req.TenantID)
	assert.Equal(t, contract.RunByScheduler, req.RunBy)
	assert.Equal(t, ingestion.RunOptions{Limit: 10, UseAI: true}, req.Options)
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	t.Parallel()

	tenants := []config.TenantConfig{
		{ID: "t1", Schedule: config.ScheduleConfig{Runnable: true, TimeSpec: "* * * * * *"}},
	}
	runner := &fakeRunner{block: true}
	s := NewService(tenants, runner, nil)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))

	require.Eventually(t, func() bool { return len(runner.Requests()) > 0 }, 3*time.Second, 20*time.Millisecond)

	done := make(chan struct{})
	go func() {
		cancel()
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("종료 신호 후 실행 중인 수집이 멈추지 않았습니다")
	}

	assert.Len(t, runner.Requests(), 1, "이전 실행이 끝나지 않았으면 다음 회차는 건너뜁니다")
}

func TestScheduler_DuplicateStart(t *testing.T) {
	t.Parallel()

	s := NewService(nil, &fakeRunner{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))

	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))

	cancel()
	wg.Wait()
}
