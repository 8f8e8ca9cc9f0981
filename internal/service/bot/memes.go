package bot

import (
	"context"
	"math/rand"
	"sync"

	applog "github.com/dvizh-wroclaw/dvizh-bot/pkg/log"
)

// memeCache 수집된 밈 이미지 URL의 메모리 캐시입니다. 동시 호출에 안전합니다.
//
// 수집 실패 시 기존 목록이 유지되므로, 일시적인 수집 실패가 /meme 명령어를
// 즉시 망가뜨리지 않습니다.
type memeCache struct {
	mu   sync.RWMutex
	urls []string
}

func newMemeCache() *memeCache {
	return &memeCache{}
}

// refresh 밈 URL 목록을 새로 수집하여 통째로 교체합니다.
func (c *memeCache) refresh(ctx context.Context, content ContentSource) error {
	urls, err := content.MemeURLs(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.urls = urls
	c.mu.Unlock()

	applog.WithComponentAndFields(component, applog.Fields{"count": len(urls)}).
		Debug("밈 캐시 갱신 완료")

	return nil
}

// random 캐시에서 무작위 밈 URL 하나를 반환합니다. 캐시가 비어 있으면 false를 반환합니다.
func (c *memeCache) random() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.urls) == 0 {
		return "", false
	}
	return c.urls[rand.Intn(len(c.urls))], true
}
