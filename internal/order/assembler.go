// Package order 댓글과 상품 목록으로부터 주문과 고객 레코드를 조립합니다.
//
// 패턴 매칭(키워드, 단위, 유사도, 숫자 단독)을 먼저 적용하고, 남은 댓글이나 AI 처리가 필요한 게시물은
// AI 댓글 분석 결과로 보충합니다. 같은 주문 ID가 양쪽에서 나오면 패턴 결과가 이깁니다.
package order

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/darkkaiser/band-order-server/internal/aiclient"
	"github.com/darkkaiser/band-order-server/internal/comment"
	"github.com/darkkaiser/band-order-server/internal/matcher"
	"github.com/darkkaiser/band-order-server/internal/model"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
)

// component 로깅용 컴포넌트 이름
const component = "order.assembler"

const defaultProductName = "상품명 없음"

// Extractor AI 댓글 분석기. *aiclient.Client가 구현합니다.
type Extractor interface {
	Enabled() bool
	Extract(ctx context.Context, post aiclient.PostInfo, comments []model.Comment) ([]model.CandidateOrder, error)
}

// Input 게시물 하나의 주문 조립 입력. Comments는 취소 댓글이 이미 제외된 목록이어야 합니다.
type Input struct {
	TenantID   string
	BandNumber string
	Post       model.Post
	Products   []model.Product
	Comments   []model.Comment
	UseAI      bool
}

// Result 조립 결과
type Result struct {
	Orders        []model.Order
	Customers     []model.Customer
	PatternOrders int
	AIOrders      int

	// Errors AI 호출 실패처럼 게시물 처리를 중단하지 않는 에러
	Errors []error
}

// Assembler 주문 조립기
type Assembler struct {
	ai  Extractor
	now func() time.Time
}

// NewAssembler ai가 nil이면 패턴 매칭만 사용합니다.
func NewAssembler(ai Extractor) *Assembler {
	return &Assembler{ai: ai, now: time.Now}
}

// NeedsAI 게시물이나 상품 중 하나라도 AI 처리 표시가 있으면 true입니다. 이때 패턴 매칭은 건너뜁니다.
func NeedsAI(post model.Post, products []model.Product) bool {
	if post.OrderNeedsAI {
		return true
	}
	for _, p := range products {
		if p.OrderNeedsAI {
			return true
		}
	}
	return false
}

func needsAIReason(post model.Post, products []model.Product) string {
	if post.OrderNeedsAIReason != "" {
		return post.OrderNeedsAIReason
	}
	for _, p := range products {
		if p.OrderNeedsAI {
			return fmt.Sprintf("%d번 상품 AI 처리 필요", p.ItemNumber)
		}
	}
	return ""
}

// Assemble 댓글에서 주문을 추출하고 고객 레코드를 만듭니다.
//
// AI 호출은 패턴 매칭과 동시에 시작되며, 실패해도 패턴 결과는 유지되고 에러만 Result.Errors에 남습니다.
func (a *Assembler) Assemble(ctx context.Context, in Input) Result {
	var res Result
	if len(in.Comments) == 0 || len(in.Products) == 0 {
		return res
	}

	comments := comment.SortByTime(in.Comments)
	products := sortedProducts(in.Products)
	forceAI := NeedsAI(in.Post, products)
	multi := len(products) > 1
	aiAvailable := in.UseAI && a.ai != nil && a.ai.Enabled()

	// 다중 상품이거나 AI 처리 표시가 있으면 모든 댓글을 처음부터 AI에 보냅니다.
	type aiResult struct {
		candidates []model.CandidateOrder
		err        error
	}
	var aiDone chan aiResult
	startAI := func(targets []model.Comment) {
		aiDone = make(chan aiResult, 1)
		go func() {
			c, err := a.ai.Extract(ctx, postInfo(in, products), targets)
			aiDone <- aiResult{candidates: c, err: err}
		}()
	}
	if aiAvailable && (forceAI || multi) {
		startAI(comments)
	}

	if forceAI && !aiAvailable {
		err := NewErrAIUnavailable(in.Post.PostKey, needsAIReason(in.Post, products), len(comments))
		applog.WithComponentAndFields(component, applog.Fields{
			"post_key":      in.Post.PostKey,
			"comment_count": len(comments),
			"use_ai":        in.UseAI,
		}).Warn(err.Error())
		res.Errors = append(res.Errors, err)
	}

	var patternOrders []model.Order
	var unmatched []model.Comment
	if !forceAI {
		m := matcher.New(products)
		for _, c := range comments {
			cand := matchComment(m, c)
			if cand == nil {
				unmatched = append(unmatched, c)
				continue
			}
			o, err := a.buildOrder(in, products, c, *cand)
			if err != nil {
				res.Errors = append(res.Errors, err)
				continue
			}
			patternOrders = append(patternOrders, o)
		}
	}
	res.PatternOrders = len(patternOrders)

	if aiDone == nil && aiAvailable && len(unmatched) > 0 {
		startAI(unmatched)
	}

	var aiOrders []model.Order
	if aiDone != nil {
		r := <-aiDone
		if r.err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"post_key":       in.Post.PostKey,
				"pattern_orders": len(patternOrders),
			}).WithError(r.err).Warn("AI 주문 추출 실패: 패턴 매칭 결과만 사용합니다")
			res.Errors = append(res.Errors, r.err)
		}
		aiOrders = a.buildAIOrders(in, products, comments, r.candidates, &res)
	}
	res.AIOrders = len(aiOrders)

	res.Orders = Merge(patternOrders, aiOrders)
	res.Customers = DeriveCustomers(in.TenantID, in.BandNumber, res.Orders, comments)
	return res
}

// matchComment 매처를 적용하고, 상품이 하나뿐인 게시물이면 숫자 단독 댓글("2", "2요")도 주문으로 봅니다.
func matchComment(m *matcher.Matcher, c model.Comment) *model.CandidateOrder {
	if cand := m.Match(c.Content); cand != nil {
		return cand
	}
	if len(m.Products()) != 1 || matcher.HasClosureVocabulary(c.Content) {
		return nil
	}
	if q, ok := matcher.NumberOnly(c.Content); ok {
		return &model.CandidateOrder{ItemNumber: m.Products()[0].ItemNumber, Quantity: q, MatchType: model.MatchTypePattern}
	}
	return nil
}

func (a *Assembler) buildAIOrders(in Input, products []model.Product, comments []model.Comment, candidates []model.CandidateOrder, res *Result) []model.Order {
	byKey := make(map[string]model.Comment, len(comments))
	for _, c := range comments {
		byKey[c.CommentKey] = c
	}

	var orders []model.Order
	for _, cand := range candidates {
		c, ok := byKey[cand.CommentKey]
		if !ok {
			res.Errors = append(res.Errors, NewErrUnknownComment(in.Post.PostKey, cand.CommentKey))
			continue
		}
		if cand.AuthorUserNo != "" && c.Author.UserNo == "" {
			c.Author.UserNo = cand.AuthorUserNo
		}
		if cand.CustomerName != "" && (c.Author.Name == "" || c.Author.Name == comment.UnknownAuthorName) {
			c.Author.Name = cand.CustomerName
		}

		o, err := a.buildOrder(in, products, c, cand)
		if err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}
		orders = append(orders, o)
	}
	return orders
}

func (a *Assembler) buildOrder(in Input, products []model.Product, c model.Comment, cand model.CandidateOrder) (model.Order, error) {
	p, ok := findProduct(products, cand.ItemNumber)
	if !ok {
		return model.Order{}, NewErrUnknownItem(in.Post.PostKey, c.CommentKey, cand.ItemNumber)
	}

	quantity := max(cand.Quantity, 1)
	unitPrice, total := price(p, quantity)
	if cand.UnitPrice > 0 {
		unitPrice = cand.UnitPrice
		total = unitPrice * quantity
	}
	if cand.TotalPrice > 0 {
		total = cand.TotalPrice
	}

	productID := p.ProductID
	if productID == "" {
		productID = ProductID(in.Post.BandKey, in.Post.PostKey, p.ItemNumber)
	}
	productName := p.Title
	if productName == "" {
		productName = defaultProductName
	}

	status := model.OrderStatusPlaced
	if cand.IsAmbiguous {
		status = model.OrderStatusNeedsReview
	}

	orderedAt := c.CreatedAt
	if orderedAt.IsZero() {
		orderedAt = a.now()
	}

	return model.Order{
		OrderID:          OrderID(in.Post.BandKey, in.Post.PostKey, c.CommentKey, p.ItemNumber),
		TenantID:         in.TenantID,
		BandNumber:       in.BandNumber,
		BandKey:          in.Post.BandKey,
		PostKey:          in.Post.PostKey,
		CommentKey:       c.CommentKey,
		CustomerID:       CustomerID(in.BandNumber, c.Author.UserNo),
		CustomerName:     c.Author.Name,
		CustomerUserNo:   c.Author.UserNo,
		ProductID:        productID,
		ProductName:      productName,
		ItemNumber:       p.ItemNumber,
		Quantity:         quantity,
		UnitPrice:        unitPrice,
		TotalAmount:      total,
		Comment:          c.Content,
		Status:           status,
		ProcessingMethod: cand.MatchType,
		IsAmbiguous:      cand.IsAmbiguous,
		OrderedAt:        orderedAt,
	}, nil
}

// price 수량과 정확히 일치하는 가격 옵션이 있으면 그 가격을, 없으면 기본가 × 수량을 사용합니다.
func price(p model.Product, quantity int) (unit, total int) {
	for _, o := range p.PriceOptions {
		if o.Quantity == quantity && o.Price > 0 {
			return o.Price / quantity, o.Price
		}
	}
	return p.BasePrice, p.BasePrice * quantity
}

// Merge 패턴 주문과 AI 주문을 주문 ID 기준으로 합칩니다. 같은 ID면 패턴 주문을 유지하고, 순서는 입력 순서를 따릅니다.
func Merge(pattern, ai []model.Order) []model.Order {
	seen := make(map[string]struct{}, len(pattern)+len(ai))
	merged := make([]model.Order, 0, len(pattern)+len(ai))
	for _, list := range [][]model.Order{pattern, ai} {
		for _, o := range list {
			if _, dup := seen[o.OrderID]; dup {
				continue
			}
			seen[o.OrderID] = struct{}{}
			merged = append(merged, o)
		}
	}
	return merged
}

func postInfo(in Input, products []model.Product) aiclient.PostInfo {
	return aiclient.PostInfo{
		PostKey:    in.Post.PostKey,
		BandKey:    in.Post.BandKey,
		BandNumber: in.BandNumber,
		Title:      in.Post.Title,
		Content:    in.Post.Content,
		PostedAt:   in.Post.PostedAt,
		Products:   products,
	}
}

func sortedProducts(products []model.Product) []model.Product {
	sorted := make([]model.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ItemNumber < sorted[j].ItemNumber })
	return sorted
}

func findProduct(products []model.Product, itemNumber int) (model.Product, bool) {
	for _, p := range products {
		if p.ItemNumber == itemNumber {
			return p, true
		}
	}
	if itemNumber >= 1 && itemNumber <= len(products) {
		return products[itemNumber-1], true
	}
	return model.Product{}, false
}
