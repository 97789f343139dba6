// Package product 게시물 본문에서 판매 상품을 결정적으로 추출합니다.
//
// 상품 정보가 따로 주어지지 않은 게시물에만 사용합니다. 여러 상품이 있거나 가격 옵션을 해석할 수 없는
// 게시물은 OrderNeedsAI를 켜서 댓글 주문 추출을 AI에 맡깁니다.
package product

import (
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/darkkaiser/band-order-server/internal/matcher"
	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/darkkaiser/band-order-server/internal/order"
	"github.com/darkkaiser/band-order-server/internal/pickupdate"
	"github.com/darkkaiser/band-order-server/pkg/strutil"
)

const (
	titleMaxRunes = 40

	reasonMultipleProducts = "다중 상품 게시물"
	reasonUnresolvedOption = "가격 옵션을 해석할 수 없음"
)

var (
	pricePattern     = regexp.MustCompile(`(\d{1,3}(?:,\d{3})+|\d+)\s*원`)
	priceArrowMarker = "👉"

	circledNumbers = []rune("①②③④⑤⑥⑦⑧⑨⑩⑪⑫⑬⑭⑮⑯⑰⑱⑲⑳")

	numberedLinePattern = regexp.MustCompile(`^\s*(?:(\d{1,2})\s*[.)]|(\d{1,2})\s*번|([①-⑳]))\s*(.*)$`)

	// titleNoisePattern 제목 후보에서 제외하는 줄 (공지, 날짜만 있는 줄, 구분선 등)
	titleNoisePattern = regexp.MustCompile(`^(?:[-=~*_.·•]+|공지.*|\d{1,2}월\s*\d{1,2}일.*|\[?\s*\d{1,2}\s*월\s*\d{1,2}\s*일\s*\]?)$`)

	leadingSymbols = regexp.MustCompile(`^[\s\p{So}\p{Sk}\-*•·#>]+`)
)

// Extraction 게시물 하나의 추출 결과
type Extraction struct {
	IsProduct    bool
	Products     []model.Product
	OrderNeedsAI bool
	Reason       string
}

// Extract 게시물 본문에서 상품 목록을 추출합니다.
func Extract(post model.Post) Extraction {
	content := strutil.NormalizeMultiLineSpaces(strutil.NormalizeText(post.Content))
	if !HasPrice(content) {
		return Extraction{}
	}

	pickup := pickupdate.Infer(content, post.PostedAt)

	items := numberedItems(content)
	if len(items) == 0 {
		items = []item{singleItem(content)}
	}

	ext := Extraction{IsProduct: true}
	for i, it := range items {
		itemNumber := i + 1
		p := model.Product{
			ProductID:    order.ProductID(post.BandKey, post.PostKey, itemNumber),
			TenantID:     post.TenantID,
			BandKey:      post.BandKey,
			PostKey:      post.PostKey,
			ItemNumber:   itemNumber,
			Title:        pickupdate.PrefixTitle(it.title, pickup.Date),
			BasePrice:    it.basePrice(),
			PriceOptions: it.options,
			QuantityText: it.quantityText,
			PickupDate:   pickup.Date,
			PickupType:   pickup.Type,
		}
		if p.QuantityText == "" {
			p.QuantityText = "1개"
		}
		if it.unresolved {
			p.OrderNeedsAI = true
			ext.OrderNeedsAI = true
			ext.Reason = reasonUnresolvedOption
		}
		ext.Products = append(ext.Products, p)
	}

	if len(ext.Products) > 1 {
		ext.OrderNeedsAI = true
		ext.Reason = reasonMultipleProducts
	}
	return ext
}

// HasPrice 본문에 가격 표기("N원", "N,NNN원", "👉")가 있는지 확인합니다.
func HasPrice(content string) bool {
	return strings.Contains(content, priceArrowMarker) || len(parsePrices(content)) > 0
}

type item struct {
	title        string
	prices       []int
	options      []model.PriceOption
	quantityText string
	unresolved   bool
}

func (it item) basePrice() int {
	if len(it.prices) == 0 {
		return 0
	}
	return slices.Min(it.prices)
}

// numberedItems 번호가 붙은 줄("1.", "1)", "①", "1번")을 상품 항목으로 나눕니다.
// 번호 줄 다음에 오는 번호 없는 줄은 그 항목의 설명으로 봅니다. 가격이 있는 항목이 없으면 nil입니다.
func numberedItems(content string) []item {
	var items []item
	var current *item

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := numberedLinePattern.FindStringSubmatch(line); m != nil && itemIndex(m) == len(items)+1 {
			items = append(items, item{title: cleanTitle(m[4])})
			current = &items[len(items)-1]
			current.addLine(m[4])
			continue
		}
		if current != nil {
			current.addLine(line)
		}
	}

	priced := items[:0]
	for _, it := range items {
		if len(it.prices) > 0 {
			priced = append(priced, it)
		}
	}
	if len(priced) < 2 {
		return nil
	}
	return priced
}

func itemIndex(m []string) int {
	for _, g := range m[1:3] {
		if g != "" {
			n, _ := strconv.Atoi(g)
			return n
		}
	}
	if m[3] != "" {
		r := []rune(m[3])[0]
		for i, c := range circledNumbers {
			if c == r {
				return i + 1
			}
		}
	}
	return 0
}

func singleItem(content string) item {
	it := item{title: firstMeaningfulLine(content)}
	for _, line := range strings.Split(content, "\n") {
		it.addLine(strings.TrimSpace(line))
	}

	// 가격이 여러 개인데 수량별 옵션으로 해석되지 않으면 어떤 가격으로 주문했는지 알 수 없습니다.
	distinct := map[int]struct{}{}
	for _, p := range it.prices {
		distinct[p] = struct{}{}
	}
	if len(distinct) > 1 && len(it.options) < 2 {
		it.unresolved = true
	}
	return it
}

// addLine 가격, 수량 옵션, 수량 표기를 수집합니다.
func (it *item) addLine(line string) {
	prices := parsePrices(line)
	it.prices = append(it.prices, prices...)

	unit := matcher.UnitText(line)
	if it.quantityText == "" && unit != "" {
		it.quantityText = unit
	}

	if unit != "" && len(prices) > 0 {
		q, _ := strconv.Atoi(strings.TrimRightFunc(unit, func(r rune) bool { return r < '0' || r > '9' }))
		if q > 0 && !it.hasOption(q) {
			it.options = append(it.options, model.PriceOption{Quantity: q, Price: slices.Min(prices), Description: line})
			sort.SliceStable(it.options, func(i, j int) bool { return it.options[i].Quantity < it.options[j].Quantity })
		}
	}
}

func (it *item) hasOption(quantity int) bool {
	for _, o := range it.options {
		if o.Quantity == quantity {
			return true
		}
	}
	return false
}

func parsePrices(s string) []int {
	var prices []int
	for _, m := range pricePattern.FindAllStringSubmatch(s, -1) {
		if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil && n > 0 {
			prices = append(prices, n)
		}
	}
	return prices
}

func firstMeaningfulLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		title := cleanTitle(line)
		if title == "" || titleNoisePattern.MatchString(title) {
			continue
		}
		return title
	}
	return cleanTitle(strutil.FirstLine(content, titleMaxRunes))
}

// cleanTitle 앞쪽 기호와 가격, 기존 날짜 접두어를 제거합니다.
func cleanTitle(line string) string {
	t := pickupdate.StripTitlePrefix(strings.TrimSpace(line))
	t = leadingSymbols.ReplaceAllString(t, "")
	t = strings.TrimSpace(pricePattern.ReplaceAllString(t, ""))
	t = strings.TrimSpace(strings.ReplaceAll(t, priceArrowMarker, ""))
	t = strings.TrimRight(t, " -:/")
	return strutil.FirstLine(t, titleMaxRunes)
}
