// Package service 애플리케이션을 구성하는 장기 실행 서비스의 공통 계약을 정의합니다.
package service

import (
	"context"
	"sync"
)

// Service 애플리케이션 구동 시 시작되는 장기 실행 서비스입니다.
//
// Start는 서비스 고유의 백그라운드 작업을 시작한 뒤 즉시 반환해야 하며,
// serviceStopCtx가 취소되면 내부 고루틴을 정리하고 serviceStopWG.Done()을 호출해야 합니다.
type Service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}
