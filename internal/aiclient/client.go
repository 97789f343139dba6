// Package aiclient 외부 AI 댓글 분석 엔드포인트 클라이언트입니다.
//
// 엔드포인트는 게시물과 댓글 목록을 받아 후보 주문 목록을 돌려주는 블랙박스로 취급합니다.
//
//	POST {endpoint}
//	{"post": {...}, "comments": [...]}
//	-> {"orders": [{"commentKey", "authorUserNo", "productItemNumber", "quantity", ...}]}
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/darkkaiser/band-order-server/internal/comment"
	"github.com/darkkaiser/band-order-server/internal/fetcher"
	"github.com/darkkaiser/band-order-server/internal/model"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
)

// component 로깅용 컴포넌트 이름
const component = "aiclient"

// Config 클라이언트 설정
type Config struct {
	Enabled  bool
	Endpoint string

	// APIKey 비어 있지 않으면 X-Api-Key 헤더로 전송합니다.
	APIKey string
}

// PostInfo 요청에 포함되는 게시물 정보
type PostInfo struct {
	PostKey    string          `json:"post_key"`
	BandKey    string          `json:"band_key"`
	BandNumber string          `json:"band_number"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	PostedAt   time.Time       `json:"posted_at"`
	Products   []model.Product `json:"products"`
}

type request struct {
	Post     PostInfo                `json:"post"`
	Comments []comment.StoredComment `json:"comments"`
}

// Order AI 응답의 주문 항목
type Order struct {
	CommentKey        string  `json:"commentKey"`
	AuthorUserNo      string  `json:"authorUserNo"`
	ProductItemNumber int     `json:"productItemNumber"`
	Quantity          int     `json:"quantity"`
	UnitPrice         int     `json:"unitPrice"`
	TotalPrice        int     `json:"totalPrice"`
	CustomerName      string  `json:"customerName"`
	Confidence        float64 `json:"confidence"`
	IsAmbiguous       bool    `json:"isAmbiguous"`
	Reason            string  `json:"reason"`
}

type response struct {
	Orders []Order `json:"orders"`
}

// Client AI 댓글 분석 클라이언트
type Client struct {
	fetcher fetcher.Fetcher
	cfg     Config
}

// New f는 보통 fetcher.New로 만든 체인입니다. POST 요청이므로 재시도는 하지 않습니다.
func New(f fetcher.Fetcher, cfg Config) *Client {
	return &Client{fetcher: f, cfg: cfg}
}

// Enabled AI 분석 사용 여부
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.Enabled && c.cfg.Endpoint != ""
}

// Extract 게시물과 댓글을 AI 엔드포인트로 보내 후보 주문 목록을 받습니다.
//
// 호출 실패와 빈 결과는 모두 ExtractionFailure 에러입니다. 호출자는 이 에러를 기록만 하고
// 이미 패턴 매칭으로 얻은 결과는 그대로 유지해야 합니다.
func (c *Client) Extract(ctx context.Context, post PostInfo, comments []model.Comment) ([]model.CandidateOrder, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	payload := request{Post: post, Comments: make([]comment.StoredComment, 0, len(comments))}
	for _, cm := range comments {
		payload.Comments = append(payload.Comments, comment.ToStored(cm))
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewErrRequestFailed(err, post.PostKey)
	}

	header := map[string]string{"Content-Type": "application/json", "Accept": "application/json"}
	if c.cfg.APIKey != "" {
		header["X-Api-Key"] = c.cfg.APIKey
	}

	start := time.Now()
	var resp response
	if err := fetcher.FetchJSON(ctx, c.fetcher, http.MethodPost, c.cfg.Endpoint, header, bytes.NewReader(body), &resp); err != nil {
		return nil, NewErrRequestFailed(err, post.PostKey)
	}

	candidates := make([]model.CandidateOrder, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		if o.CommentKey == "" || o.ProductItemNumber < 1 {
			applog.WithComponentAndFields(component, applog.Fields{
				"post_key":    post.PostKey,
				"comment_key": o.CommentKey,
				"item_number": o.ProductItemNumber,
			}).Warn("식별자가 없는 AI 주문 항목을 건너뜁니다")
			continue
		}
		candidates = append(candidates, toCandidate(o))
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"post_key": post.PostKey,
		"comments": len(comments),
		"orders":   len(candidates),
		"duration": time.Since(start).String(),
	}).Info("AI 댓글 분석 완료")

	if len(candidates) == 0 {
		return nil, NewErrEmptyResult(post.PostKey, len(comments))
	}
	return candidates, nil
}

func toCandidate(o Order) model.CandidateOrder {
	quantity := o.Quantity
	if quantity < 1 {
		quantity = 1
	}
	confidence := o.Confidence
	if confidence == 0 {
		confidence = 0.9
	}
	total := o.TotalPrice
	if total == 0 && o.UnitPrice > 0 {
		total = o.UnitPrice * quantity
	}

	return model.CandidateOrder{
		ItemNumber:   o.ProductItemNumber,
		Quantity:     quantity,
		MatchType:    model.MatchTypeAI,
		IsAmbiguous:  o.IsAmbiguous,
		Confidence:   confidence,
		CommentKey:   o.CommentKey,
		AuthorUserNo: o.AuthorUserNo,
		CustomerName: o.CustomerName,
		UnitPrice:    o.UnitPrice,
		TotalPrice:   total,
		Reason:       o.Reason,
	}
}
