package scheduler

import "time"

// nextBoundaryDelay 다음 경계 시각까지의 대기 시간을 계산합니다.
//
// 경계는 매일 hour시 minute분에 bufferSeconds를 더한 시각입니다. 오늘의 경계가
// 이미 지났으면(같은 시각 포함) 다음 날 경계까지의 시간을 반환하므로, 경계 직후에
// 호출해도 항상 만 하루 뒤의 경계를 가리킵니다.
func nextBoundaryDelay(now time.Time, hour, minute, bufferSeconds int) time.Duration {
	boundary := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()).
		Add(time.Duration(bufferSeconds) * time.Second)

	if !boundary.After(now) {
		boundary = boundary.Add(24 * time.Hour)
	}

	return boundary.Sub(now)
}
