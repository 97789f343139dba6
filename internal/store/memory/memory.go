// Package memory 프로세스 메모리에 레코드를 보관하는 store.Store 구현체입니다.
//
// database.driver가 "memory"일 때의 기본 저장소이며, 테스트에서는 FailAfter로 특정 작업에 장애를 주입할 수 있습니다.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/darkkaiser/band-order-server/internal/store"
)

// Op 장애 주입 대상 작업
type Op string

const (
	OpUpsertPost          Op = "UpsertPost"
	OpUpsertProducts      Op = "UpsertProducts"
	OpUpsertCustomers     Op = "UpsertCustomers"
	OpDeleteCustomers     Op = "DeleteCustomers"
	OpUpsertOrders        Op = "UpsertOrders"
	OpDeleteOrders        Op = "DeleteOrders"
	OpUpdateOrderStatus   Op = "UpdateOrderStatus"
	OpSaveCredentialIndex Op = "SaveCredentialIndex"
)

// Store 메모리 기반 저장소
type Store struct {
	mu sync.RWMutex

	posts       map[string]model.Post
	products    map[string]model.Product
	postStates  map[string]store.PostState
	customers   map[string]model.Customer
	orders      map[string]model.Order
	credentials map[string]store.CredentialSet

	cancellationLogs []store.CancellationLog
	usageLogs        []store.UsageLog
	sessions         map[string]store.Session

	// faults 작업별로 몇 개의 행을 처리한 뒤 실패할지 기록합니다.
	faults map[Op]int
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ store.Store = (*Store)(nil)

// New 빈 메모리 저장소를 생성합니다.
func New() *Store {
	return &Store{
		posts:       make(map[string]model.Post),
		products:    make(map[string]model.Product),
		postStates:  make(map[string]store.PostState),
		customers:   make(map[string]model.Customer),
		orders:      make(map[string]model.Order),
		credentials: make(map[string]store.CredentialSet),
		sessions:    make(map[string]store.Session),
		faults:      make(map[Op]int),
	}
}

// FailAfter op 작업이 n개의 행을 처리한 뒤 실패하도록 장애를 주입합니다. n이 0이면 즉시 실패합니다.
func (s *Store) FailAfter(op Op, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = n
}

// ClearFaults 주입된 장애를 모두 제거합니다.
func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[Op]int)
}

// shouldFail 호출 측이 s.mu를 잡고 있어야 합니다.
func (s *Store) shouldFail(op Op, processed int) bool {
	n, ok := s.faults[op]
	return ok && processed >= n
}

func postID(tenantID, postKey string) string {
	return tenantID + "|" + postKey
}

func (s *Store) Close() {}

func (s *Store) UpsertPost(_ context.Context, post model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shouldFail(OpUpsertPost, 0) {
		return store.NewErrInjectedFault(string(OpUpsertPost))
	}
	s.posts[postID(post.TenantID, post.PostKey)] = post
	return nil
}

// Post 저장된 게시물을 반환합니다.
func (s *Store) Post(tenantID, postKey string) (model.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[postID(tenantID, postKey)]
	return p, ok
}

func (s *Store) UpsertProducts(_ context.Context, products []model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range products {
		if s.shouldFail(OpUpsertProducts, i) {
			return store.NewErrInjectedFault(string(OpUpsertProducts))
		}
		s.products[p.ProductID] = p
	}
	return nil
}

func (s *Store) ListProducts(_ context.Context, tenantID, postKey string) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Product
	for _, p := range s.products {
		if p.TenantID == tenantID && p.PostKey == postKey {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemNumber < out[j].ItemNumber })
	return out, nil
}

func (s *Store) GetPostState(_ context.Context, tenantID, postKey string) (store.PostState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.postStates[postID(tenantID, postKey)]
	return st, ok, nil
}

func (s *Store) MarkPostProcessed(_ context.Context, state store.PostState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postStates[postID(state.TenantID, state.PostKey)] = state
	return nil
}

func (s *Store) UpsertCustomers(_ context.Context, customers []model.Customer) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted []string
	for i, c := range customers {
		if s.shouldFail(OpUpsertCustomers, i) {
			return inserted, store.NewErrInjectedFault(string(OpUpsertCustomers))
		}

		existing, ok := s.customers[c.CustomerID]
		if !ok {
			s.customers[c.CustomerID] = c
			inserted = append(inserted, c.CustomerID)
			continue
		}
		s.customers[c.CustomerID] = mergeCustomer(existing, c)
	}
	return inserted, nil
}

// mergeCustomer 기존 고객의 이름과 연락처를 유지하고 집계 필드만 갱신합니다.
func mergeCustomer(existing, c model.Customer) model.Customer {
	if existing.Contact == "" {
		existing.Contact = c.Contact
	}
	if c.TotalOrders > existing.TotalOrders {
		existing.TotalOrders = c.TotalOrders
	}
	if !c.FirstOrderAt.IsZero() && (existing.FirstOrderAt.IsZero() || c.FirstOrderAt.Before(existing.FirstOrderAt)) {
		existing.FirstOrderAt = c.FirstOrderAt
	}
	if c.LastOrderAt.After(existing.LastOrderAt) {
		existing.LastOrderAt = c.LastOrderAt
	}
	return existing
}

func (s *Store) DeleteCustomers(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shouldFail(OpDeleteCustomers, 0) {
		return store.NewErrInjectedFault(string(OpDeleteCustomers))
	}
	for _, id := range ids {
		delete(s.customers, id)
	}
	return nil
}

// Customer 저장된 고객을 반환합니다.
func (s *Store) Customer(id string) (model.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	return c, ok
}

// CustomerCount 저장된 고객 수를 반환합니다.
func (s *Store) CustomerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.customers)
}

func (s *Store) UpsertOrders(_ context.Context, orders []model.Order) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted []string
	for i, o := range orders {
		if s.shouldFail(OpUpsertOrders, i) {
			return inserted, store.NewErrInjectedFault(string(OpUpsertOrders))
		}
		if _, ok := s.orders[o.OrderID]; ok {
			continue
		}
		s.orders[o.OrderID] = o
		inserted = append(inserted, o.OrderID)
	}
	return inserted, nil
}

func (s *Store) DeleteOrders(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shouldFail(OpDeleteOrders, 0) {
		return store.NewErrInjectedFault(string(OpDeleteOrders))
	}
	for _, id := range ids {
		delete(s.orders, id)
	}
	return nil
}

func (s *Store) FindOrders(_ context.Context, filter store.OrderFilter) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Order
	for _, o := range s.orders {
		if filter.Match(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderedAt.Equal(out[j].OrderedAt) {
			return out[i].OrderedAt.Before(out[j].OrderedAt)
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out, nil
}

// OrderCount 저장된 주문 수를 반환합니다.
func (s *Store) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

func (s *Store) UpdateOrderStatus(_ context.Context, ids []string, status model.OrderStatus, canceledAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shouldFail(OpUpdateOrderStatus, 0) {
		return store.NewErrInjectedFault(string(OpUpdateOrderStatus))
	}
	for _, id := range ids {
		o, ok := s.orders[id]
		if !ok {
			continue
		}
		o.Status = status
		o.CanceledAt = canceledAt
		s.orders[id] = o
	}
	return nil
}

func (s *Store) AppendCancellationLog(_ context.Context, entry store.CancellationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancellationLogs = append(s.cancellationLogs, entry)
	return nil
}

// CancellationLogs 기록된 취소 감사 로그의 복사본을 반환합니다.
func (s *Store) CancellationLogs() []store.CancellationLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.CancellationLog(nil), s.cancellationLogs...)
}

// SetCredentials 테넌트의 API 키 목록을 등록합니다.
func (s *Store) SetCredentials(set store.CredentialSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[set.TenantID] = set
}

func (s *Store) LoadCredentials(_ context.Context, tenantID string) (store.CredentialSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.credentials[tenantID]
	if !ok {
		return store.CredentialSet{}, store.ErrCredentialsNotFound
	}
	set.Backups = append([]store.Credential(nil), set.Backups...)
	return set, nil
}

func (s *Store) SaveCredentialIndex(_ context.Context, tenantID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shouldFail(OpSaveCredentialIndex, 0) {
		return store.NewErrInjectedFault(string(OpSaveCredentialIndex))
	}
	set, ok := s.credentials[tenantID]
	if !ok {
		return store.ErrCredentialsNotFound
	}
	set.CurrentIndex = index
	s.credentials[tenantID] = set
	return nil
}

func (s *Store) AppendUsageLog(_ context.Context, entry store.UsageLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usageLogs = append(s.usageLogs, entry)
	return nil
}

// UsageLogs 기록된 API 사용 로그의 복사본을 반환합니다.
func (s *Store) UsageLogs() []store.UsageLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.UsageLog(nil), s.usageLogs...)
}

func (s *Store) StartSession(_ context.Context, session store.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = session
	return nil
}

func (s *Store) EndSession(_ context.Context, session store.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = session
	return nil
}

// Session 기록된 세션을 반환합니다.
func (s *Store) Session(id string) (store.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}
