package translation

import (
	"context"
	"sync"

	applog "github.com/dvizh-wroclaw/dvizh-bot/pkg/log"
)

// component Translation Cache의 로깅용 컴포넌트 이름
const component = "translation.cache"

// LanguageSource 채팅방의 언어 설정을 조회하는 저장소 측 의존성입니다.
type LanguageSource interface {
	ChatLanguage(ctx context.Context, chatID int64) (string, error)
}

// Cache 채팅방 언어와 언어별 번역 테이블의 2단계 캐시입니다.
//
// 1단계: 채팅방 ID → 언어 코드. 채팅방별 최초 조회 시 저장소에서 읽어와 채워지며,
// 언어 설정이 변경될 때(UpdateLanguage)만 덮어써집니다. 시간 기반 만료는 없습니다.
//
// 2단계: 언어 코드 → (키 → 번역 값). 해당 언어의 최초 미스 시 전체 테이블이
// 한 번에 로드되며, 부분 로드는 일어나지 않습니다. 프로세스 생존 기간 동안 만료되지 않습니다.
//
// 모든 메서드는 봇 서비스와 스케줄러 서비스 양쪽에서의 동시 호출에 안전합니다.
type Cache struct {
	source          LanguageSource
	store           Store
	defaultLanguage string

	mu            sync.RWMutex
	chatLanguages map[int64]string
	tables        map[string]map[string]Value
}

// NewCache 새로운 번역 캐시를 생성합니다.
func NewCache(source LanguageSource, store Store, defaultLanguage string) *Cache {
	return &Cache{
		source:          source,
		store:           store,
		defaultLanguage: defaultLanguage,
		chatLanguages:   make(map[int64]string),
		tables:          make(map[string]map[string]Value),
	}
}

// Get 채팅방의 언어에 맞는 번역 값을 조회합니다.
//
// 전체 언어 테이블을 로드한 뒤에도 키가 존재하지 않으면, 호출자가 항상 표시 가능한
// 값을 얻을 수 있도록 키 문자열 자체를 단일 문자열 값으로 반환합니다.
func (c *Cache) Get(ctx context.Context, chatID int64, key string) (Value, error) {
	languageCode := c.resolveLanguage(ctx, chatID)

	c.mu.RLock()
	table, loaded := c.tables[languageCode]
	c.mu.RUnlock()

	if !loaded {
		// 락을 잡지 않은 채 전체 언어 테이블을 로드합니다. 동일 언어에 대한 중복 로드가
		// 동시에 일어날 수 있으나, 로드 결과는 항상 완전한 테이블이므로 상태가 손상되지 않습니다.
		freshTable, err := c.store.Load(languageCode)
		if err != nil {
			return Value{}, err
		}

		c.mu.Lock()
		c.tables[languageCode] = freshTable
		c.mu.Unlock()

		table = freshTable
	}

	if value, exists := table[key]; exists {
		return value, nil
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"language_code": languageCode,
		"key":           key,
	}).Warn("번역 키가 존재하지 않아 키 문자열을 그대로 반환합니다")

	return NewText(key), nil
}

// Text 단일 문자열 번역 값을 조회합니다.
func (c *Cache) Text(ctx context.Context, chatID int64, key string) (string, error) {
	value, err := c.Get(ctx, chatID, key)
	if err != nil {
		return "", err
	}
	return value.Text()
}

// List 문자열 목록 번역 값을 조회합니다.
func (c *Cache) List(ctx context.Context, chatID int64, key string) ([]string, error) {
	value, err := c.Get(ctx, chatID, key)
	if err != nil {
		return nil, err
	}
	return value.List()
}

// Language 채팅방의 언어 코드를 캐시를 거쳐 반환합니다.
//
// 번역 값이 아닌 언어 코드 자체가 필요한 호출자(언어별 외부 API 등)도 저장소를
// 직접 조회하지 않고 같은 캐시 경로를 사용하도록 합니다.
func (c *Cache) Language(ctx context.Context, chatID int64) (string, error) {
	return c.resolveLanguage(ctx, chatID), nil
}

// UpdateLanguage 채팅방의 언어 설정 변경을 캐시에 즉시 반영합니다.
//
// 다음 Get 호출은 재시작 없이 새 언어를 관찰합니다. 이전 언어의 번역 테이블은
// 다른 채팅방이 계속 사용할 수 있으므로 제거하지 않습니다.
func (c *Cache) UpdateLanguage(chatID int64, languageCode string) {
	c.mu.Lock()
	c.chatLanguages[chatID] = languageCode
	c.mu.Unlock()
}

// resolveLanguage 채팅방의 언어 코드를 캐시 → 저장소 순서로 결정합니다.
//
// 저장소 조회가 실패하면 기본 언어로 진행하되 캐시에 저장하지 않아,
// 다음 호출에서 저장소 조회가 다시 시도됩니다.
func (c *Cache) resolveLanguage(ctx context.Context, chatID int64) string {
	c.mu.RLock()
	languageCode, cached := c.chatLanguages[chatID]
	c.mu.RUnlock()

	if cached {
		return languageCode
	}

	languageCode, err := c.source.ChatLanguage(ctx, chatID)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"chat_id": chatID,
			"error":   err,
		}).Error("채팅방 언어 조회 실패, 기본 언어로 진행합니다")

		return c.defaultLanguage
	}
	if languageCode == "" {
		languageCode = c.defaultLanguage
	}

	c.mu.Lock()
	c.chatLanguages[chatID] = languageCode
	c.mu.Unlock()

	return languageCode
}
