package ingestion

import (
	"github.com/darkkaiser/band-order-server/pkg/maputil"
)

// Tenant 수집 대상 밴드 운영자
type Tenant struct {
	ID         string
	BandNumber string
}

// RunOptions 수집 실행 한 번의 옵션
type RunOptions struct {
	// Limit 가져올 최대 게시물 수. 0 이하이면 설정의 기본값을 사용합니다.
	Limit int `json:"limit"`

	// UseAI AI 댓글 분석 사용 여부. AI 클라이언트가 비활성화되어 있으면 무시됩니다.
	UseAI bool `json:"use_ai"`

	// Force 이미 처리된 게시물도 다시 처리합니다.
	Force bool `json:"force"`

	// PostKeys 비어 있지 않으면 이 게시물만 처리합니다.
	PostKeys []string `json:"post_keys"`
}

// DecodeOptions API 요청의 자유 형식 옵션 맵을 RunOptions로 변환합니다. 알 수 없는 키는 에러입니다.
func DecodeOptions(input map[string]any) (RunOptions, error) {
	if len(input) == 0 {
		return RunOptions{}, nil
	}
	opts, err := maputil.Decode[RunOptions](input, maputil.WithErrorUnused(true))
	if err != nil {
		return RunOptions{}, NewErrInvalidOptions(err)
	}
	return *opts, nil
}
