package pickupdate

import (
	"testing"
	"time"

	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-06-01은 토요일이다.
var anchor = time.Date(2024, 6, 1, 10, 0, 0, 0, KST)

func date(y int, m time.Month, d int) string {
	return time.Date(y, m, d, 0, 0, 0, 0, KST).Format("2006-01-02")
}

func TestInfer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		wantDate string
		wantType model.PickupType
	}{
		{"월일 명시", "7월5일 픽업", date(2024, 7, 5), model.PickupTypePickup},
		{"내일 수령", "내일 오전에 수령", date(2024, 6, 2), model.PickupTypePickup},
		{"모레 배송", "모레 배송 예정입니다", date(2024, 6, 3), model.PickupTypeDelivery},
		{"지난 날짜는 다음 해", "5월 3일 수령", date(2025, 5, 3), model.PickupTypePickup},
		{"수령 기간의 앞쪽 날짜", "수령기간: 6월10일~6월12일", date(2024, 6, 10), model.PickupTypePickup},
		{"점 표기 수령 기간", "상품수령기간 : 6.12~13", date(2024, 6, 12), model.PickupTypePickup},
		{"일만 있는 기간", "6월 상품입니다\n5~7일 픽업", date(2024, 6, 5), model.PickupTypePickup},
		{"앞서 나온 월 적용", "6월 공구\n15일 수령", date(2024, 6, 15), model.PickupTypePickup},
		{"요일", "화요일 픽업", date(2024, 6, 4), model.PickupTypePickup},
		{"한 글자 요일", "(수) 도착", date(2024, 6, 5), model.PickupTypeDelivery},
		{"같은 요일은 당일", "토요일 수령", date(2024, 6, 1), model.PickupTypePickup},
		{"다음주 같은 요일", "다음주 토요일 수령", date(2024, 6, 8), model.PickupTypePickup},
		{"오타 보정", "6월1l일 픽업", date(2024, 6, 11), model.PickupTypePickup},
		{"전각 숫자", "７월５일 수령", date(2024, 7, 5), model.PickupTypePickup},
		{"유통기한 줄은 제외", "유통기한 2024-06-10", "", model.PickupTypeDefault},
		{"유통기한 줄이어도 수령 키워드가 있으면 사용", "유통기한 넉넉, 6월 20일 수령", date(2024, 6, 20), model.PickupTypePickup},
		{"주문 시작 줄은 수령일이 아님", "6월3일 주문 시작\n6월7일 픽업", date(2024, 6, 7), model.PickupTypePickup},
		{"주문 시작 줄의 날짜는 마지막 후보", "6월3일 오픈 예정", date(2024, 6, 3), model.PickupTypeDefault},
		{"키워드 없는 내일은 무시", "내일 또 올릴게요", "", model.PickupTypeDefault},
		{"신호 없음", "맛있는 사과 팝니다", "", model.PickupTypeDefault},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := Infer(tt.text, anchor)
			assert.Equal(t, tt.wantType, r.Type)
			assert.Equal(t, tt.text, r.Original)
			if tt.wantDate == "" {
				assert.Nil(t, r.Date)
				assert.Empty(t, r.ISO())
				return
			}
			require.NotNil(t, r.Date)
			assert.Equal(t, tt.wantDate, r.Date.In(KST).Format("2006-01-02"))
			assert.NotEmpty(t, r.Reason)
		})
	}
}

func TestInfer_Time(t *testing.T) {
	t.Parallel()

	t.Run("시각 없으면 9시", func(t *testing.T) {
		t.Parallel()

		r := Infer("7월5일 픽업", anchor)
		require.NotNil(t, r.Date)
		assert.Equal(t, 9, r.Date.Hour())
	})

	t.Run("오후 표기", func(t *testing.T) {
		t.Parallel()

		r := Infer("7월5일 오후 3시 30분 픽업", anchor)
		require.NotNil(t, r.Date)
		assert.Equal(t, 15, r.Date.Hour())
		assert.Equal(t, 30, r.Date.Minute())
	})

	t.Run("오전 오후 없이 이른 시각은 오후", func(t *testing.T) {
		t.Parallel()

		r := Infer("내일 4시 수령", anchor)
		require.NotNil(t, r.Date)
		assert.Equal(t, date(2024, 6, 2), r.Date.Format("2006-01-02"))
		assert.Equal(t, 16, r.Date.Hour())
	})

	t.Run("시각만 있으면 게시일 당일", func(t *testing.T) {
		t.Parallel()

		r := Infer("11시부터 가능해요", anchor)
		require.NotNil(t, r.Date)
		assert.Equal(t, date(2024, 6, 1), r.Date.Format("2006-01-02"))
		assert.Equal(t, 11, r.Date.Hour())
	})

	t.Run("시간 단위는 시각이 아님", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, Infer("3시간 숙성", anchor).Date)
	})
}

func TestInfer_AnchorInUTC(t *testing.T) {
	t.Parallel()

	// UTC 2024-06-01 16:00 = KST 2024-06-02 01:00
	r := Infer("내일 픽업", time.Date(2024, 6, 1, 16, 0, 0, 0, time.UTC))
	require.NotNil(t, r.Date)
	assert.Equal(t, date(2024, 6, 3), r.Date.Format("2006-01-02"))
	assert.Equal(t, "2024-06-03T09:00:00+09:00", r.ISO())
}

func TestInfer_Empty(t *testing.T) {
	t.Parallel()

	r := Infer("   ", anchor)
	assert.Nil(t, r.Date)
	assert.Equal(t, model.PickupTypeDefault, r.Type)
}

func TestPrefixTitle(t *testing.T) {
	t.Parallel()

	d := time.Date(2024, 7, 5, 9, 0, 0, 0, KST)

	assert.Equal(t, "[7월5일] 배추김치", PrefixTitle("배추김치", &d))
	assert.Equal(t, "[7월5일] 배추김치", PrefixTitle("[6월 30일] 배추김치", &d), "기존 접두어는 교체")
	assert.Equal(t, "[7월5일]", PrefixTitle("", &d))
	assert.Equal(t, "배추김치", PrefixTitle("배추김치", nil))
	assert.Equal(t, "배추김치", StripTitlePrefix("[7월5일] 배추김치"))

	utc := time.Date(2024, 7, 4, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "[7월5일] 사과", PrefixTitle("사과", &utc), "KST 기준 날짜")
}
