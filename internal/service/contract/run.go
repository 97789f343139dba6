// Package contract 서비스 간에 주고받는 요청 타입과 인터페이스를 정의합니다.
//
// 스케줄러, API, 알림 서비스가 서로의 구현 패키지를 직접 참조하지 않도록 이 패키지의 계약만 사용합니다.
package contract

import (
	"context"

	"github.com/darkkaiser/band-order-server/internal/ingestion"
)

// RunBy 수집 실행을 요청한 주체
type RunBy int

const (
	RunByUnknown RunBy = iota
	RunByScheduler
	RunByAPI
)

func (r RunBy) String() string {
	switch r {
	case RunByScheduler:
		return "scheduler"
	case RunByAPI:
		return "api"
	default:
		return "unknown"
	}
}

// RunRequest 테넌트 하나에 대한 수집 실행 요청
type RunRequest struct {
	TenantID string
	Options  ingestion.RunOptions
	RunBy    RunBy

	// ApplicationID API로 요청된 경우 인증된 애플리케이션 ID
	ApplicationID string
}

// IngestionRunner 수집 실행 요청을 받아 처리합니다.
type IngestionRunner interface {
	// Submit 요청을 검증한 뒤 백그라운드에서 실행하고 즉시 반환합니다.
	Submit(req RunRequest) error

	// Run 요청을 실행하고 끝날 때까지 기다립니다.
	Run(ctx context.Context, req RunRequest) (*ingestion.RunResult, error)

	// Health 실행 요청을 받을 수 있는 상태인지 확인합니다.
	Health() error
}
