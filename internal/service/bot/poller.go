package bot

import (
	"context"
	"sync"
	"time"

	applog "github.com/dvizh-wroclaw/dvizh-bot/pkg/log"
)

// 수신 실패 시 재시도 대기 시간입니다. 실패가 반복되면 지수적으로 늘어납니다.
const (
	pollBackoffInitial = 1 * time.Second
	pollBackoffMax     = 30 * time.Second
)

// poll 업데이트 수신 루프입니다. serviceStopCtx가 취소될 때까지 실행됩니다.
//
// offset은 수신한 각 업데이트를 처리한 직후 update_id + 1로 전진합니다. 처리 중
// 에러가 발생한 업데이트도 전진 대상에 포함되므로, 각 업데이트는 최대 한 번만
// 처리됩니다. (처리 실패한 업데이트가 루프를 영원히 막는 것을 방지)
// 반면 수신 자체가 실패하면 offset은 전진하지 않아, 같은 배치가 다시 수신됩니다.
func (s *BotService) poll(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	logger := applog.WithComponent(component)

	var offset int64
	backoff := pollBackoffInitial

	for {
		select {
		case <-serviceStopCtx.Done():
			logger.Debug("Bot 서비스 중지됨")
			return
		default:
		}

		updates, err := s.updates.GetUpdates(serviceStopCtx, offset, s.config.Telegram.PollTimeoutSeconds)
		if err != nil {
			if serviceStopCtx.Err() != nil {
				logger.Debug("Bot 서비스 중지됨")
				return
			}

			applog.WithComponentAndFields(component, applog.Fields{
				"error":   err,
				"backoff": backoff.String(),
			}).Error("업데이트 수신에 실패하였습니다. 잠시 후 재시도합니다")

			select {
			case <-serviceStopCtx.Done():
				return
			case <-time.After(backoff):
			}

			backoff *= 2
			if backoff > pollBackoffMax {
				backoff = pollBackoffMax
			}
			continue
		}
		backoff = pollBackoffInitial

		for _, u := range updates {
			if err := s.handleUpdate(serviceStopCtx, u.Raw); err != nil {
				applog.WithComponentAndFields(component, applog.Fields{
					"update_id": u.UpdateID,
					"error":     err,
				}).Error("업데이트 처리에 실패하였습니다")
			}

			offset = u.UpdateID + 1
		}
	}
}
