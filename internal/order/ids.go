package order

import (
	"fmt"
	"strings"
)

// unknownUserNo 작성자 식별자가 없을 때 사용하는 값
const unknownUserNo = "unknown"

// OrderID 주문 ID를 만듭니다. 같은 댓글의 같은 상품은 언제 처리해도 같은 ID가 되므로 재처리가 중복 행을 만들지 않습니다.
func OrderID(bandKey, postKey, commentKey string, itemNumber int) string {
	return fmt.Sprintf("order_%s_%s_%s_item%d", bandKey, postKey, commentKey, itemNumber)
}

// CustomerID 고객 ID를 만듭니다.
func CustomerID(bandNumber, authorUserNo string) string {
	if authorUserNo = strings.TrimSpace(authorUserNo); authorUserNo == "" {
		authorUserNo = unknownUserNo
	}
	return fmt.Sprintf("cust_%s_%s", bandNumber, authorUserNo)
}

// ProductID 상품 ID를 만듭니다.
func ProductID(bandKey, postKey string, itemNumber int) string {
	return fmt.Sprintf("prod_%s_%s_item%d", bandKey, postKey, itemNumber)
}
