// Package credential 테넌트별 밴드 API 키 목록(기본 키 1개와 백업 키 N개)을 순환하며 호출을 재시도합니다.
//
// Rotator는 수집 실행 한 번 동안만 사용하는 상태 값입니다. 테넌트마다 별도로 생성되므로
// 서로 다른 테넌트의 실행이 키 인덱스나 사용량 집계를 공유하지 않습니다.
package credential

import (
	"context"
	"sync"
	"time"

	"github.com/darkkaiser/band-order-server/internal/idgen"
	"github.com/darkkaiser/band-order-server/internal/store"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
)

// component 로깅용 컴포넌트 이름
const component = "credential.rotator"

var sessionIDs = idgen.New("session")

// Usage 호출 한 번으로 가져온 항목 수
type Usage struct {
	PostsFetched    int
	CommentsFetched int
	APICalls        int
}

// Operation 키 하나로 수행하는 API 호출. 결과는 클로저로 전달합니다.
type Operation func(ctx context.Context, cred store.Credential) (Usage, error)

// Rotator 키 순환 상태
type Rotator struct {
	store    store.CredentialStore
	tenantID string
	creds    []store.Credential
	now      func() time.Time

	// attemptSlot 키 순환 루프를 한 번에 하나만 실행합니다.
	// 동시에 들어온 호출은 앞선 호출이 확정한 인덱스에서 시작합니다.
	attemptSlot chan struct{}

	// mu 아래 필드를 보호합니다. 네트워크 호출 동안에는 잡지 않습니다.
	mu        sync.Mutex
	current   int
	persisted int
	session   *store.Session
	keysUsed  map[int]struct{}
}

// Load 저장소에서 테넌트의 키 목록과 마지막으로 성공한 키 인덱스를 불러옵니다.
func Load(ctx context.Context, cs store.CredentialStore, tenantID string) (*Rotator, error) {
	set, err := cs.LoadCredentials(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	creds := set.All()
	if set.Primary.AccessToken == "" {
		return nil, ErrPrimaryCredentialMissing
	}

	index := set.CurrentIndex
	if index < 0 || index >= len(creds) {
		applog.WithComponentAndFields(component, applog.Fields{
			"tenant_id":        tenantID,
			"credential_index": index,
			"credential_count": len(creds),
		}).Warn("저장된 키 인덱스가 범위를 벗어나 기본 키부터 시작합니다")
		index = 0
	}

	return &Rotator{
		store:     cs,
		tenantID:  tenantID,
		creds:     creds,
		now:       time.Now,
		current:   index,
		persisted: index,
		keysUsed:  make(map[int]struct{}),

		attemptSlot: make(chan struct{}, 1),
	}, nil
}

// Len 기본 키를 포함한 전체 키 개수
func (r *Rotator) Len() int {
	return len(r.creds)
}

// Current 현재 사용 중인 키와 그 인덱스(0 = 기본 키)를 반환합니다.
func (r *Rotator) Current() (int, store.Credential) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.creds[r.current]
}

// ExecuteWithFailover 현재 인덱스의 키부터 순환하며 op를 실행합니다. 각 키는 한 번씩만 시도합니다.
//
// 할당량 초과와 토큰 오류만 다음 키로 넘어가고, 네트워크 오류나 알 수 없는 오류는 즉시 반환합니다.
// 모든 키가 소진되면 첫 번째 시도의 에러를 반환합니다.
// 성공하면 그 키의 인덱스를 저장하여 다음 실행이 마지막으로 성공한 키부터 시작하게 합니다.
// 모든 시도는 성공 여부와 관계없이 사용 기록으로 남습니다.
// 여러 고루틴이 같은 Rotator를 사용하면 호출은 차례대로 실행됩니다.
func (r *Rotator) ExecuteWithFailover(ctx context.Context, kind ActionKind, op Operation) error {
	select {
	case r.attemptSlot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-r.attemptSlot }()

	start, _ := r.Current()

	var firstErr error
	for attempt := 0; attempt < len(r.creds); attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		index := (start + attempt) % len(r.creds)
		usage, err := op(ctx, r.creds[index])
		r.record(ctx, kind, index, usage, err)

		if err == nil {
			r.succeeded(ctx, index)
			return nil
		}

		class := Classify(err)
		fields := applog.Fields{
			"tenant_id":        r.tenantID,
			"credential_index": index,
			"action_type":      kind.String(),
			"error_type":       ClassName(class),
		}

		if !Rotatable(class) {
			applog.WithComponentAndFields(component, fields).WithError(err).Warn("API 호출 실패: 키 전환 대상이 아닌 오류로 중단합니다")
			return err
		}

		if firstErr == nil {
			firstErr = err
		}
		applog.WithComponentAndFields(component, fields).WithError(err).Warn("API 호출 실패: 다음 키로 전환합니다")
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"tenant_id":        r.tenantID,
		"action_type":      kind.String(),
		"credential_count": len(r.creds),
	}).Error("API 호출 실패: 모든 키가 소진되었습니다")

	return NewErrCredentialsExhausted(firstErr, len(r.creds))
}

func (r *Rotator) succeeded(ctx context.Context, index int) {
	r.mu.Lock()
	r.current = index
	changed := r.persisted != index
	if changed {
		r.persisted = index
	}
	r.mu.Unlock()

	if !changed {
		return
	}
	if err := r.store.SaveCredentialIndex(ctx, r.tenantID, index); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"tenant_id":        r.tenantID,
			"credential_index": index,
		}).WithError(err).Warn("키 인덱스 저장 실패")
		return
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"tenant_id":        r.tenantID,
		"credential_index": index,
	}).Info("성공한 키 인덱스 저장")
}

func (r *Rotator) record(ctx context.Context, kind ActionKind, index int, usage Usage, err error) {
	entry := store.UsageLog{
		TenantID:        r.tenantID,
		KeyIndex:        index,
		ActionType:      kind.String(),
		PostsFetched:    usage.PostsFetched,
		CommentsFetched: usage.CommentsFetched,
		APICallsMade:    usage.APICalls,
		Success:         err == nil,
		CreatedAt:       r.now(),
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
		entry.ErrorType = ClassName(Classify(err))
	}

	r.mu.Lock()
	r.keysUsed[index] = struct{}{}
	if r.session != nil {
		entry.SessionID = r.session.SessionID
		r.session.TotalPostsFetched += usage.PostsFetched
		r.session.TotalCommentsFetched += usage.CommentsFetched
		r.session.TotalAPICalls += usage.APICalls
	}
	r.mu.Unlock()

	if logErr := r.store.AppendUsageLog(ctx, entry); logErr != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"tenant_id":        r.tenantID,
			"credential_index": index,
		}).WithError(logErr).Warn("API 사용 기록 저장 실패")
	}
}

// StartSession 수집 실행 한 번을 감싸는 세션을 시작하고 세션 ID를 반환합니다.
func (r *Rotator) StartSession(ctx context.Context) string {
	r.mu.Lock()
	r.session = &store.Session{
		SessionID:     sessionIDs.Next(),
		TenantID:      r.tenantID,
		StartedAt:     r.now(),
		KeysUsed:      1,
		FinalKeyIndex: r.current,
	}
	r.keysUsed = make(map[int]struct{})
	sess := *r.session
	r.mu.Unlock()

	if err := r.store.StartSession(ctx, sess); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"tenant_id":  r.tenantID,
			"session_id": sess.SessionID,
		}).WithError(err).Warn("세션 시작 기록 실패")
	}
	return sess.SessionID
}

// EndSession 세션의 집계 값을 기록하고 반환합니다. 시작된 세션이 없으면 아무 일도 하지 않습니다.
func (r *Rotator) EndSession(ctx context.Context, success bool, errorSummary string) *store.Session {
	r.mu.Lock()
	if r.session == nil {
		r.mu.Unlock()
		return nil
	}
	ended := r.now()
	sess := *r.session
	sess.EndedAt = &ended
	sess.FinalKeyIndex = r.current
	sess.Success = success
	sess.ErrorSummary = errorSummary
	if n := len(r.keysUsed); n > 0 {
		sess.KeysUsed = n
	}
	r.session = nil
	r.mu.Unlock()

	if err := r.store.EndSession(ctx, sess); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"tenant_id":  r.tenantID,
			"session_id": sess.SessionID,
		}).WithError(err).Warn("세션 종료 기록 실패")
	}
	return &sess
}
