package credential

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
	"github.com/darkkaiser/band-order-server/internal/store"
	"github.com/darkkaiser/band-order-server/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, currentIndex int, backups ...string) *memory.Store {
	t.Helper()

	s := memory.New()
	set := store.CredentialSet{
		TenantID:     "t1",
		Primary:      store.Credential{AccessToken: "token-0", BandKey: "band"},
		CurrentIndex: currentIndex,
	}
	for _, b := range backups {
		set.Backups = append(set.Backups, store.Credential{AccessToken: b, BandKey: "band"})
	}
	s.SetCredentials(set)
	return s
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"할당량 문구", errors.New("Band API logical error: 1001 - quota"), "quota_exceeded"},
		{"429", errors.New("Band API error: 429 Too Many Requests"), "quota_exceeded"},
		{"403 limit", errors.New("403 Forbidden: daily limit reached"), "quota_exceeded"},
		{"토큰 오류", errors.New("invalid access token"), "invalid_token"},
		{"인증 실패", errors.New("401 Unauthorized"), "invalid_token"},
		{"네트워크", errors.New("connection reset by peer"), "network_error"},
		{"타임아웃", context.DeadlineExceeded, "network_error"},
		{"분류된 AppError", apperrors.New(apperrors.InvalidToken, "밴드 인증 오류"), "invalid_token"},
		{"감싼 AppError", apperrors.Wrap(apperrors.New(apperrors.QuotaExceeded, "x"), apperrors.ExecutionFailed, "y"), "quota_exceeded"},
		{"알 수 없음", errors.New("boom"), "unknown_error"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClassName(Classify(tt.err)))
		})
	}
}

func TestActionKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "get_posts", ActionGetPosts.String())
	assert.Equal(t, "get_comments", ActionGetComments.String())
	assert.Equal(t, "unknown", ActionKind(99).String())
}

func TestLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("저장된 인덱스부터 시작", func(t *testing.T) {
		t.Parallel()

		r, err := Load(ctx, newStore(t, 1, "token-1"), "t1")
		require.NoError(t, err)
		idx, cred := r.Current()
		assert.Equal(t, 1, idx)
		assert.Equal(t, "token-1", cred.AccessToken)
		assert.Equal(t, 2, r.Len())
	})

	t.Run("범위를 벗어난 인덱스는 기본 키", func(t *testing.T) {
		t.Parallel()

		r, err := Load(ctx, newStore(t, 5), "t1")
		require.NoError(t, err)
		idx, _ := r.Current()
		assert.Equal(t, 0, idx)
	})

	t.Run("등록되지 않은 테넌트", func(t *testing.T) {
		t.Parallel()

		_, err := Load(ctx, memory.New(), "none")
		assert.ErrorIs(t, err, store.ErrCredentialsNotFound)
	})
}

func TestRotator_ExecuteWithFailover(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("할당량 초과 후 다음 키로 성공", func(t *testing.T) {
		t.Parallel()

		s := newStore(t, 0, "token-1")
		r, err := Load(ctx, s, "t1")
		require.NoError(t, err)
		sessionID := r.StartSession(ctx)

		var tried []string
		err = r.ExecuteWithFailover(ctx, ActionGetPosts, func(_ context.Context, cred store.Credential) (Usage, error) {
			tried = append(tried, cred.AccessToken)
			if cred.AccessToken == "token-0" {
				return Usage{APICalls: 1}, apperrors.New(apperrors.QuotaExceeded, "quota exceeded")
			}
			return Usage{PostsFetched: 3, APICalls: 1}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"token-0", "token-1"}, tried)

		idx, _ := r.Current()
		assert.Equal(t, 1, idx)
		set, _ := s.LoadCredentials(ctx, "t1")
		assert.Equal(t, 1, set.CurrentIndex, "성공한 인덱스 저장")

		logs := s.UsageLogs()
		require.Len(t, logs, 2)
		assert.False(t, logs[0].Success)
		assert.Equal(t, "quota_exceeded", logs[0].ErrorType)
		assert.Equal(t, "get_posts", logs[0].ActionType)
		assert.Equal(t, sessionID, logs[0].SessionID)
		assert.True(t, logs[1].Success)
		assert.Equal(t, 1, logs[1].KeyIndex)

		sess := r.EndSession(ctx, true, "")
		require.NotNil(t, sess)
		assert.Equal(t, 2, sess.KeysUsed)
		assert.Equal(t, 1, sess.FinalKeyIndex)
		assert.Equal(t, 3, sess.TotalPostsFetched)
		assert.Equal(t, 2, sess.TotalAPICalls)
		assert.NotNil(t, sess.EndedAt)

		stored, ok := s.Session(sessionID)
		require.True(t, ok)
		assert.True(t, stored.Success)
	})

	t.Run("네트워크 오류는 전환하지 않음", func(t *testing.T) {
		t.Parallel()

		s := newStore(t, 0, "token-1")
		r, _ := Load(ctx, s, "t1")

		calls := 0
		netErr := errors.New("network unreachable")
		err := r.ExecuteWithFailover(ctx, ActionGetComments, func(context.Context, store.Credential) (Usage, error) {
			calls++
			return Usage{}, netErr
		})
		assert.ErrorIs(t, err, netErr)
		assert.Equal(t, 1, calls)

		set, _ := s.LoadCredentials(ctx, "t1")
		assert.Equal(t, 0, set.CurrentIndex)
	})

	t.Run("모든 키 소진 시 첫 번째 에러", func(t *testing.T) {
		t.Parallel()

		r, _ := Load(ctx, newStore(t, 0, "token-1", "token-2"), "t1")

		first := apperrors.New(apperrors.QuotaExceeded, "first quota")
		calls := 0
		err := r.ExecuteWithFailover(ctx, ActionGetPosts, func(_ context.Context, cred store.Credential) (Usage, error) {
			calls++
			if calls == 1 {
				return Usage{}, first
			}
			return Usage{}, apperrors.New(apperrors.InvalidToken, "later token error")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.ErrorIs(t, err, first)
		assert.True(t, apperrors.Is(err, apperrors.QuotaExceeded))
	})

	t.Run("저장된 인덱스부터 순환", func(t *testing.T) {
		t.Parallel()

		s := newStore(t, 2, "token-1", "token-2")
		r, _ := Load(ctx, s, "t1")

		var tried []string
		err := r.ExecuteWithFailover(ctx, ActionGetPosts, func(_ context.Context, cred store.Credential) (Usage, error) {
			tried = append(tried, cred.AccessToken)
			if cred.AccessToken != "token-0" {
				return Usage{}, errors.New("invalid token")
			}
			return Usage{}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"token-2", "token-0"}, tried)

		set, _ := s.LoadCredentials(ctx, "t1")
		assert.Equal(t, 0, set.CurrentIndex)
	})

	t.Run("동시 호출은 차례대로 실행되고 확정된 인덱스에서 시작", func(t *testing.T) {
		t.Parallel()

		s := newStore(t, 0, "token-1")
		r, _ := Load(ctx, s, "t1")

		var (
			inflight    atomic.Int32
			maxInflight atomic.Int32
			primaryUsed atomic.Int32
		)
		op := func(_ context.Context, cred store.Credential) (Usage, error) {
			n := inflight.Add(1)
			defer inflight.Add(-1)
			for {
				m := maxInflight.Load()
				if n <= m || maxInflight.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)

			if cred.AccessToken == "token-0" {
				primaryUsed.Add(1)
				return Usage{}, apperrors.New(apperrors.QuotaExceeded, "quota exceeded")
			}
			return Usage{APICalls: 1}, nil
		}

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, r.ExecuteWithFailover(ctx, ActionGetComments, op))
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), maxInflight.Load())
		assert.Equal(t, int32(1), primaryUsed.Load(), "할당량이 초과된 키는 한 번만 시도")

		set, _ := s.LoadCredentials(ctx, "t1")
		assert.Equal(t, 1, set.CurrentIndex)
	})

	t.Run("순환 대기 중 컨텍스트 취소", func(t *testing.T) {
		t.Parallel()

		r, _ := Load(ctx, newStore(t, 0), "t1")

		release := make(chan struct{})
		started := make(chan struct{})
		go func() {
			_ = r.ExecuteWithFailover(ctx, ActionGetPosts, func(context.Context, store.Credential) (Usage, error) {
				close(started)
				<-release
				return Usage{}, nil
			})
		}()
		<-started

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := r.ExecuteWithFailover(cctx, ActionGetPosts, func(context.Context, store.Credential) (Usage, error) {
			t.Error("호출되면 안 됨")
			return Usage{}, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		close(release)
	})

	t.Run("취소된 컨텍스트", func(t *testing.T) {
		t.Parallel()

		r, _ := Load(ctx, newStore(t, 0), "t1")
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := r.ExecuteWithFailover(cctx, ActionGetPosts, func(context.Context, store.Credential) (Usage, error) {
			t.Fatal("호출되면 안 됨")
			return Usage{}, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
