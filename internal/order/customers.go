package order

import (
	"github.com/darkkaiser/band-order-server/internal/comment"
	"github.com/darkkaiser/band-order-server/internal/model"
)

// DeriveCustomers 주문이 있는 작성자마다 고객 레코드를 하나씩 만듭니다.
//
// 같은 작성자의 댓글이 여러 개면 시간순으로 먼저 나온 댓글의 이름을 쓰고, 연락처는 전화번호가 처음 발견된 댓글에서 가져옵니다.
// 결과는 주문 목록에 처음 등장한 순서를 따릅니다.
func DeriveCustomers(tenantID, bandNumber string, orders []model.Order, comments []model.Comment) []model.Customer {
	if len(orders) == 0 {
		return nil
	}

	contacts := make(map[string]string)
	for _, c := range comment.SortByTime(comments) {
		if _, ok := contacts[c.Author.UserNo]; ok {
			continue
		}
		if phone := comment.ExtractPhoneNumber(c.Content); phone != "" {
			contacts[c.Author.UserNo] = phone
		}
	}

	var customers []model.Customer
	index := make(map[string]int)
	for _, o := range orders {
		i, ok := index[o.CustomerID]
		if !ok {
			name := o.CustomerName
			if name == "" {
				name = comment.UnknownAuthorName
			}
			index[o.CustomerID] = len(customers)
			customers = append(customers, model.Customer{
				CustomerID:   o.CustomerID,
				TenantID:     tenantID,
				BandNumber:   bandNumber,
				BandUserNo:   o.CustomerUserNo,
				Name:         name,
				Contact:      contacts[o.CustomerUserNo],
				TotalOrders:  1,
				FirstOrderAt: o.OrderedAt,
				LastOrderAt:  o.OrderedAt,
			})
			continue
		}

		c := &customers[i]
		c.TotalOrders++
		if o.OrderedAt.Before(c.FirstOrderAt) {
			c.FirstOrderAt = o.OrderedAt
			if o.CustomerName != "" {
				c.Name = o.CustomerName
			}
		}
		if o.OrderedAt.After(c.LastOrderAt) {
			c.LastOrderAt = o.OrderedAt
		}
	}
	return customers
}
