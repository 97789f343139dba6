// Package model 게시물, 상품, 댓글, 주문, 고객 레코드를 정의합니다.
//
// json 태그는 저장소 컬럼명과 같습니다.
package model

import "time"

// PickupType 상품 수령 방식
type PickupType string

const (
	PickupTypePickup   PickupType = "픽업"
	PickupTypeDelivery PickupType = "배송"

	// PickupTypeDefault 수령 방식을 특정할 수 없을 때의 기본값
	PickupTypeDefault PickupType = "수령"
)

// OrderStatus 주문 상태
type OrderStatus string

const (
	OrderStatusPlaced      OrderStatus = "주문완료"
	OrderStatusCanceled    OrderStatus = "주문취소"
	OrderStatusNeedsReview OrderStatus = "확인필요"
	OrderStatusPaid        OrderStatus = "결제완료"
	OrderStatusFulfilled   OrderStatus = "수령완료"
)

// MatchType 후보 주문을 만든 추출 전략
type MatchType string

const (
	MatchTypeKeyword    MatchType = "keyword"
	MatchTypeUnit       MatchType = "unit"
	MatchTypeSimilarity MatchType = "similarity"
	MatchTypePattern    MatchType = "pattern"
	MatchTypeAI         MatchType = "ai"
)

// Post 밴드 게시물
type Post struct {
	TenantID           string    `json:"user_id"`
	BandNumber         string    `json:"band_number"`
	BandKey            string    `json:"band_key"`
	PostKey            string    `json:"post_key"`
	Title              string    `json:"title"`
	Content            string    `json:"content"`
	AuthorName         string    `json:"author_name"`
	PostedAt           time.Time `json:"posted_at"`
	CommentCount       int       `json:"comment_count"`
	IsProduct          bool      `json:"is_product"`
	OrderNeedsAI       bool      `json:"order_needs_ai"`
	OrderNeedsAIReason string    `json:"order_needs_ai_reason,omitempty"`
}

// PriceOption 수량별 가격 옵션 (예: 1통 15,000원, 2통 28,000원)
type PriceOption struct {
	Quantity    int    `json:"quantity"`
	Price       int    `json:"price"`
	Description string `json:"description"`
}

// Product 게시물에서 추출한 판매 상품. 하나의 게시물은 1..N개의 상품을 가지며 ItemNumber는 1부터 시작합니다.
type Product struct {
	ProductID    string        `json:"product_id"`
	TenantID     string        `json:"user_id"`
	BandKey      string        `json:"band_key"`
	PostKey      string        `json:"post_key"`
	ItemNumber   int           `json:"item_number"`
	Title        string        `json:"title"`
	BasePrice    int           `json:"base_price"`
	PriceOptions []PriceOption `json:"price_options"`
	QuantityText string        `json:"quantity_text"`
	Keywords     []string      `json:"keywords,omitempty"`
	PickupDate   *time.Time    `json:"pickup_date,omitempty"`
	PickupType   PickupType    `json:"pickup_type"`
	Barcode      string        `json:"barcode,omitempty"`
	OrderNeedsAI bool          `json:"order_needs_ai"`
}

// Author 댓글 작성자
type Author struct {
	UserNo          string `json:"user_no"`
	Name            string `json:"name"`
	MemberKey       string `json:"member_key,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// Comment 정규화된 댓글. CommentKey는 플랫폼 댓글마다 안정적이고 유일해야 하며,
// 원본에 키가 없어 합성한 경우 Synthetic이 true입니다.
type Comment struct {
	CommentKey string    `json:"comment_key"`
	ParentKey  string    `json:"parent_key,omitempty"`
	Content    string    `json:"content"`
	Author     Author    `json:"author"`
	CreatedAt  time.Time `json:"created_at"`
	Synthetic  bool      `json:"synthetic,omitempty"`
}

// CandidateOrder 저장 전의 추출 결과입니다.
//
// 패턴 매칭 결과는 ItemNumber/Quantity/MatchType/IsAmbiguous만 채우고,
// AI 결과는 댓글 식별자와 가격 정보까지 함께 채웁니다.
type CandidateOrder struct {
	ItemNumber  int       `json:"item_number"`
	Quantity    int       `json:"quantity"`
	MatchType   MatchType `json:"match_type"`
	IsAmbiguous bool      `json:"is_ambiguous"`
	Confidence  float64   `json:"confidence,omitempty"`

	CommentKey   string `json:"comment_key,omitempty"`
	AuthorUserNo string `json:"author_user_no,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	UnitPrice    int    `json:"unit_price,omitempty"`
	TotalPrice   int    `json:"total_price,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Order 저장되는 주문. OrderID는 (BandKey, PostKey, CommentKey, ItemNumber)로부터 결정적으로 만들어집니다.
type Order struct {
	OrderID          string      `json:"order_id"`
	TenantID         string      `json:"user_id"`
	BandNumber       string      `json:"band_number"`
	BandKey          string      `json:"band_key"`
	PostKey          string      `json:"post_key"`
	CommentKey       string      `json:"comment_key"`
	CustomerID       string      `json:"customer_id"`
	CustomerName     string      `json:"customer_name"`
	CustomerUserNo   string      `json:"customer_band_id"`
	ProductID        string      `json:"product_id"`
	ProductName      string      `json:"product_name"`
	ItemNumber       int         `json:"item_number"`
	Quantity         int         `json:"quantity"`
	UnitPrice        int         `json:"price"`
	TotalAmount      int         `json:"total_amount"`
	Comment          string      `json:"comment"`
	Status           OrderStatus `json:"status"`
	ProcessingMethod MatchType   `json:"processing_method"`
	IsAmbiguous      bool        `json:"is_ambiguous"`
	OrderedAt        time.Time   `json:"ordered_at"`
	CanceledAt       *time.Time  `json:"canceled_at,omitempty"`
}

// Customer 주문 고객. 삭제는 보상 롤백에서만 수행됩니다.
type Customer struct {
	CustomerID   string    `json:"customer_id"`
	TenantID     string    `json:"user_id"`
	BandNumber   string    `json:"band_number"`
	BandUserNo   string    `json:"band_user_id"`
	Name         string    `json:"customer_name"`
	Contact      string    `json:"contact,omitempty"`
	TotalOrders  int       `json:"total_orders"`
	FirstOrderAt time.Time `json:"first_order_at"`
	LastOrderAt  time.Time `json:"last_order_at"`
}
