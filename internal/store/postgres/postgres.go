// Package postgres PostgreSQL 기반 store.Store 구현체입니다.
//
// upsert는 pgx.Batch로 묶어 전송하며, 주문 삽입은 "ON CONFLICT DO NOTHING RETURNING"으로
// 이번 호출에서 새로 삽입된 id를 구분합니다. 보상 롤백은 이 id 목록만 삭제합니다.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/darkkaiser/band-order-server/internal/store"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// component 로깅용 컴포넌트 이름
const component = "store.postgres"

const (
	defaultMaxConns  = 4
	defaultBatchSize = 200
)

//go:embed schema.sql
var schemaSQL string

// Config 연결 설정
type Config struct {
	DSN      string
	MaxConns int

	// ViaBouncer PgBouncer(transaction pooling)를 거치는 경우 prepared statement 없이 simple protocol을 사용합니다.
	ViaBouncer bool

	// Schema search_path로 사용할 스키마. 비어 있으면 서버 기본값을 따릅니다.
	Schema string
}

// Store PostgreSQL 저장소
type Store struct {
	pool      *pgxpool.Pool
	batchSize int
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ store.Store = (*Store)(nil)

// Open 커넥션 풀을 생성하고 연결을 확인합니다.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, NewErrInvalidDSN(err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	poolCfg.MaxConns = int32(maxConns)
	if cfg.ViaBouncer {
		poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	if cfg.Schema != "" {
		poolCfg.ConnConfig.RuntimeParams["search_path"] = cfg.Schema
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, NewErrConnectFailed(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, NewErrConnectFailed(err)
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"max_conns":   maxConns,
		"via_bouncer": cfg.ViaBouncer,
		"schema":      cfg.Schema,
	}).Info("PostgreSQL 연결 완료")

	return &Store{pool: pool, batchSize: defaultBatchSize}, nil
}

// Migrate 테이블이 없으면 생성합니다.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return store.NewErrQueryFailed(err, "스키마 생성")
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) UpsertPost(ctx context.Context, p model.Post) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO posts (user_id, post_key, band_number, band_key, title, content, author_name, posted_at,
		                   comment_count, is_product, order_needs_ai, order_needs_ai_reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (user_id, post_key) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			comment_count = EXCLUDED.comment_count,
			is_product = EXCLUDED.is_product,
			order_needs_ai = EXCLUDED.order_needs_ai,
			order_needs_ai_reason = EXCLUDED.order_needs_ai_reason`,
		p.TenantID, p.PostKey, p.BandNumber, p.BandKey, p.Title, p.Content, p.AuthorName, p.PostedAt,
		p.CommentCount, p.IsProduct, p.OrderNeedsAI, p.OrderNeedsAIReason,
	)
	if err != nil {
		return store.NewErrQueryFailed(err, "게시물 저장")
	}
	return nil
}

func (s *Store) UpsertProducts(ctx context.Context, products []model.Product) error {
	for _, chunk := range chunks(products, s.batchSize) {
		b := &pgx.Batch{}
		for _, p := range chunk {
			keywords := p.Keywords
			if keywords == nil {
				keywords = []string{}
			}
			b.Queue(`
				INSERT INTO products (product_id, user_id, band_key, post_key, item_number, title, base_price,
				                      price_options, quantity_text, keywords, pickup_date, pickup_type, barcode, order_needs_ai)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
				ON CONFLICT (product_id) DO UPDATE SET
					title = EXCLUDED.title,
					base_price = EXCLUDED.base_price,
					price_options = EXCLUDED.price_options,
					quantity_text = EXCLUDED.quantity_text,
					keywords = EXCLUDED.keywords,
					pickup_date = EXCLUDED.pickup_date,
					pickup_type = EXCLUDED.pickup_type,
					order_needs_ai = EXCLUDED.order_needs_ai`,
				p.ProductID, p.TenantID, p.BandKey, p.PostKey, p.ItemNumber, p.Title, p.BasePrice,
				p.PriceOptions, p.QuantityText, keywords, p.PickupDate, string(p.PickupType), p.Barcode, p.OrderNeedsAI,
			)
		}
		if err := s.execBatch(ctx, b); err != nil {
			return store.NewErrQueryFailed(err, "상품 저장")
		}
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context, tenantID, postKey string) ([]model.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT product_id, user_id, band_key, post_key, item_number, title, base_price, price_options,
		       quantity_text, keywords, pickup_date, pickup_type, barcode, order_needs_ai
		FROM products WHERE user_id = $1 AND post_key = $2 ORDER BY item_number`, tenantID, postKey)
	if err != nil {
		return nil, store.NewErrQueryFailed(err, "상품 조회")
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var (
			p          model.Product
			pickupType string
		)
		if err := rows.Scan(&p.ProductID, &p.TenantID, &p.BandKey, &p.PostKey, &p.ItemNumber, &p.Title, &p.BasePrice,
			&p.PriceOptions, &p.QuantityText, &p.Keywords, &p.PickupDate, &pickupType, &p.Barcode, &p.OrderNeedsAI); err != nil {
			return nil, store.NewErrQueryFailed(err, "상품 조회")
		}
		p.PickupType = model.PickupType(pickupType)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewErrQueryFailed(err, "상품 조회")
	}
	return out, nil
}

func (s *Store) GetPostState(ctx context.Context, tenantID, postKey string) (store.PostState, bool, error) {
	var (
		count *int
		at    *time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT processed_comment_count, processed_at FROM posts WHERE user_id = $1 AND post_key = $2`,
		tenantID, postKey).Scan(&count, &at)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.PostState{}, false, nil
	}
	if err != nil {
		return store.PostState{}, false, store.NewErrQueryFailed(err, "게시물 처리 상태 조회")
	}
	if count == nil || at == nil {
		return store.PostState{}, false, nil
	}
	return store.PostState{TenantID: tenantID, PostKey: postKey, CommentCount: *count, ProcessedAt: *at}, true, nil
}

func (s *Store) MarkPostProcessed(ctx context.Context, st store.PostState) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE posts SET processed_comment_count = $3, processed_at = $4 WHERE user_id = $1 AND post_key = $2`,
		st.TenantID, st.PostKey, st.CommentCount, st.ProcessedAt)
	if err != nil {
		return store.NewErrQueryFailed(err, "게시물 처리 상태 저장")
	}
	return nil
}

func (s *Store) UpsertCustomers(ctx context.Context, customers []model.Customer) ([]string, error) {
	var inserted []string
	for _, chunk := range chunks(customers, s.batchSize) {
		b := &pgx.Batch{}
		for _, c := range chunk {
			b.Queue(`
				INSERT INTO customers (customer_id, user_id, band_number, band_user_id, customer_name, contact,
				                       total_orders, first_order_at, last_order_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
				ON CONFLICT (customer_id) DO UPDATE SET
					contact = CASE WHEN customers.contact = '' THEN EXCLUDED.contact ELSE customers.contact END,
					total_orders = GREATEST(customers.total_orders, EXCLUDED.total_orders),
					first_order_at = LEAST(customers.first_order_at, EXCLUDED.first_order_at),
					last_order_at = GREATEST(customers.last_order_at, EXCLUDED.last_order_at)
				RETURNING customer_id, (xmax = 0) AS inserted`,
				c.CustomerID, c.TenantID, c.BandNumber, c.BandUserNo, c.Name, c.Contact,
				c.TotalOrders, c.FirstOrderAt, c.LastOrderAt,
			)
		}

		ids, err := s.sendReturning(ctx, b, len(chunk), true)
		inserted = append(inserted, ids...)
		if err != nil {
			return inserted, store.NewErrQueryFailed(err, "고객 저장")
		}
	}
	return inserted, nil
}

func (s *Store) DeleteCustomers(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM customers WHERE customer_id = ANY($1)`, ids); err != nil {
		return store.NewErrQueryFailed(err, "고객 삭제")
	}
	return nil
}

func (s *Store) UpsertOrders(ctx context.Context, orders []model.Order) ([]string, error) {
	var inserted []string
	for _, chunk := range chunks(orders, s.batchSize) {
		b := &pgx.Batch{}
		for _, o := range chunk {
			b.Queue(`
				INSERT INTO orders (order_id, user_id, band_number, band_key, post_key, comment_key, customer_id,
				                    customer_name, customer_band_id, product_id, product_name, item_number, quantity,
				                    price, total_amount, comment, status, processing_method, is_ambiguous, ordered_at, canceled_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
				ON CONFLICT (order_id) DO NOTHING
				RETURNING order_id, TRUE`,
				o.OrderID, o.TenantID, o.BandNumber, o.BandKey, o.PostKey, o.CommentKey, o.CustomerID,
				o.CustomerName, o.CustomerUserNo, o.ProductID, o.ProductName, o.ItemNumber, o.Quantity,
				o.UnitPrice, o.TotalAmount, o.Comment, string(o.Status), string(o.ProcessingMethod), o.IsAmbiguous,
				o.OrderedAt, o.CanceledAt,
			)
		}

		ids, err := s.sendReturning(ctx, b, len(chunk), false)
		inserted = append(inserted, ids...)
		if err != nil {
			return inserted, store.NewErrQueryFailed(err, "주문 저장")
		}
	}
	return inserted, nil
}

func (s *Store) DeleteOrders(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE order_id = ANY($1)`, ids); err != nil {
		return store.NewErrQueryFailed(err, "주문 삭제")
	}
	return nil
}

func (s *Store) FindOrders(ctx context.Context, f store.OrderFilter) ([]model.Order, error) {
	var (
		conds []string
		args  []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("user_id", f.TenantID)
	add("post_key", f.PostKey)
	add("customer_band_id", f.CustomerUserNo)
	add("status", string(f.Status))
	if f.OrderedUntil != nil {
		args = append(args, *f.OrderedUntil)
		conds = append(conds, fmt.Sprintf("ordered_at <= $%d", len(args)))
	}

	query := `
		SELECT order_id, user_id, band_number, band_key, post_key, comment_key, customer_id, customer_name,
		       customer_band_id, product_id, product_name, item_number, quantity, price, total_amount, comment,
		       status, processing_method, is_ambiguous, ordered_at, canceled_at
		FROM orders`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY ordered_at, order_id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, store.NewErrQueryFailed(err, "주문 조회")
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		var (
			o              model.Order
			status, method string
		)
		if err := rows.Scan(&o.OrderID, &o.TenantID, &o.BandNumber, &o.BandKey, &o.PostKey, &o.CommentKey, &o.CustomerID,
			&o.CustomerName, &o.CustomerUserNo, &o.ProductID, &o.ProductName, &o.ItemNumber, &o.Quantity, &o.UnitPrice,
			&o.TotalAmount, &o.Comment, &status, &method, &o.IsAmbiguous, &o.OrderedAt, &o.CanceledAt); err != nil {
			return nil, store.NewErrQueryFailed(err, "주문 조회")
		}
		o.Status = model.OrderStatus(status)
		o.ProcessingMethod = model.MatchType(method)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewErrQueryFailed(err, "주문 조회")
	}
	return out, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, ids []string, status model.OrderStatus, canceledAt *time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `UPDATE orders SET status = $1, canceled_at = $2 WHERE order_id = ANY($3)`,
		string(status), canceledAt, ids)
	if err != nil {
		return store.NewErrQueryFailed(err, "주문 상태 변경")
	}
	return nil
}

func (s *Store) AppendCancellationLog(ctx context.Context, e store.CancellationLog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cancellation_logs (user_id, post_key, comment_key, author_user_no, author_name, comment_content, order_ids, canceled_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.TenantID, e.PostKey, e.CommentKey, e.AuthorUserNo, e.AuthorName, e.Content, e.OrderIDs, e.CanceledAt)
	if err != nil {
		return store.NewErrQueryFailed(err, "취소 기록 저장")
	}
	return nil
}

func (s *Store) LoadCredentials(ctx context.Context, tenantID string) (store.CredentialSet, error) {
	set := store.CredentialSet{TenantID: tenantID}
	err := s.pool.QueryRow(ctx, `
		SELECT access_token, band_key, backup_keys, current_key_index FROM band_credentials WHERE user_id = $1`,
		tenantID).Scan(&set.Primary.AccessToken, &set.Primary.BandKey, &set.Backups, &set.CurrentIndex)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.CredentialSet{}, store.ErrCredentialsNotFound
	}
	if err != nil {
		return store.CredentialSet{}, store.NewErrQueryFailed(err, "API 키 조회")
	}
	return set, nil
}

// SaveCredentials 테넌트의 API 키 목록을 등록합니다. 설정 파일의 키를 부팅 시 동기화할 때 사용합니다.
func (s *Store) SaveCredentials(ctx context.Context, set store.CredentialSet) error {
	backups := set.Backups
	if backups == nil {
		backups = []store.Credential{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO band_credentials (user_id, access_token, band_key, backup_keys)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			band_key = EXCLUDED.band_key,
			backup_keys = EXCLUDED.backup_keys`,
		set.TenantID, set.Primary.AccessToken, set.Primary.BandKey, backups)
	if err != nil {
		return store.NewErrQueryFailed(err, "API 키 저장")
	}
	return nil
}

func (s *Store) SaveCredentialIndex(ctx context.Context, tenantID string, index int) error {
	tag, err := s.pool.Exec(ctx, `UPDATE band_credentials SET current_key_index = $2 WHERE user_id = $1`, tenantID, index)
	if err != nil {
		return store.NewErrQueryFailed(err, "API 키 인덱스 저장")
	}
	if tag.RowsAffected() == 0 {
		return store.ErrCredentialsNotFound
	}
	return nil
}

func (s *Store) AppendUsageLog(ctx context.Context, e store.UsageLog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO api_usage_logs (user_id, session_id, api_key_index, action_type, posts_fetched, comments_fetched,
		                            api_calls_made, success, error_message, error_type, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.TenantID, e.SessionID, e.KeyIndex, e.ActionType, e.PostsFetched, e.CommentsFetched,
		e.APICallsMade, e.Success, e.ErrorMessage, e.ErrorType, e.CreatedAt)
	if err != nil {
		return store.NewErrQueryFailed(err, "API 사용 기록 저장")
	}
	return nil
}

func (s *Store) StartSession(ctx context.Context, sess store.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO api_sessions (session_id, user_id, started_at, keys_used, final_key_index)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (session_id) DO NOTHING`,
		sess.SessionID, sess.TenantID, sess.StartedAt, sess.KeysUsed, sess.FinalKeyIndex)
	if err != nil {
		return store.NewErrQueryFailed(err, "세션 시작 기록")
	}
	return nil
}

func (s *Store) EndSession(ctx context.Context, sess store.Session) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE api_sessions SET ended_at = $2, total_posts_fetched = $3, total_comments_fetched = $4,
		       total_api_calls = $5, keys_used = $6, final_key_index = $7, success = $8, error_summary = $9
		WHERE session_id = $1`,
		sess.SessionID, sess.EndedAt, sess.TotalPostsFetched, sess.TotalCommentsFetched,
		sess.TotalAPICalls, sess.KeysUsed, sess.FinalKeyIndex, sess.Success, sess.ErrorSummary)
	if err != nil {
		return store.NewErrQueryFailed(err, "세션 종료 기록")
	}
	return nil
}

func (s *Store) execBatch(ctx context.Context, b *pgx.Batch) error {
	br := s.pool.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}

// sendReturning "RETURNING id, inserted" 형태의 배치를 실행하고 새로 삽입된 id만 모읍니다.
// ON CONFLICT DO NOTHING으로 건너뛴 행은 pgx.ErrNoRows로 돌아오므로 무시합니다.
//
// 배치는 하나의 암묵적 트랜잭션으로 실행되므로, 에러가 나면 같은 배치에서 앞서 읽은 id도 실제로는 롤백되어 있습니다.
// 반환된 id를 보상 삭제해도 없는 행을 지우는 것이라 무해합니다.
func (s *Store) sendReturning(ctx context.Context, b *pgx.Batch, n int, upsert bool) ([]string, error) {
	br := s.pool.SendBatch(ctx, b)

	var ids []string
	for i := 0; i < n; i++ {
		var (
			id       string
			inserted bool
		)
		err := br.QueryRow().Scan(&id, &inserted)
		if errors.Is(err, pgx.ErrNoRows) && !upsert {
			continue
		}
		if err != nil {
			_ = br.Close()
			return ids, err
		}
		if inserted {
			ids = append(ids, id)
		}
	}
	return ids, br.Close()
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for i := 0; i < len(items); i += size {
		j := i + size
		if j > len(items) {
			j = len(items)
		}
		out = append(out, items[i:j])
	}
	return out
}
