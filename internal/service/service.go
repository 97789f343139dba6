// Package service 애플리케이션을 구성하는 장기 실행 서비스(스케줄러, 알림, API 서버 등)의 공통 생명주기를 정의합니다.
package service

import (
	"context"
	"sync"
)

// Service 백그라운드에서 동작하는 서비스의 공통 인터페이스입니다.
//
// Start는 즉시 반환하며, 서비스는 serviceStopCtx가 취소되면 정리 작업을 마친 뒤
// serviceStopWG.Done()을 호출합니다. 호출자는 Start 전에 serviceStopWG.Add(1)을 해야 합니다.
type Service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}
