// Package contract 서비스 간에 공유되는 도메인 타입과 포트(인터페이스)를 정의합니다.
//
// 봇 서비스(Long Polling)와 스케줄러 서비스, 관리 API 서비스는 모두 이 패키지의
// 인터페이스를 통해서만 저장소와 텔레그램 API에 접근합니다.
package contract

import (
	"context"
	"encoding/json"
)

// User 채팅방 구성원 한 명의 저장소 표현입니다.
type User struct {
	Username     string
	FirstName    string
	Birthdate    string // DD.MM.YYYY 형식, 미설정이면 빈 문자열
	LanguageCode string
}

// Chat 봇이 참여 중인 채팅방 하나의 저장소 표현입니다.
type Chat struct {
	ID           int64
	Title        string
	LanguageCode string
}

// Event 채팅방에 등록된 이벤트 하나의 저장소 표현입니다.
type Event struct {
	ChatID      int64
	Title       string
	Date        string // DD.MM.YYYY
	Location    string
	Description string
}

// Repository 저장소 포트입니다. 모든 구현은 동시 호출에 안전해야 합니다.
type Repository interface {
	// UpsertChat 채팅방을 등록하거나 제목을 갱신합니다. 기존 언어 설정은 보존됩니다.
	UpsertChat(ctx context.Context, chat Chat) error

	// ChatLanguage 채팅방의 언어 코드를 조회합니다. 등록되지 않은 채팅방은 "en"을 반환합니다.
	ChatLanguage(ctx context.Context, chatID int64) (string, error)

	// SetChatLanguage 채팅방의 언어 코드를 변경합니다.
	SetChatLanguage(ctx context.Context, chatID int64, languageCode string) error

	// AllChatIDs 등록된 모든 채팅방 ID를 반환합니다.
	AllChatIDs(ctx context.Context) ([]int64, error)

	// UpsertUser 사용자를 등록/갱신하고 채팅방 멤버십을 기록합니다.
	UpsertUser(ctx context.Context, user User, chatID int64) error

	// UsersWithBirthday 생일(DD.MM)이 일치하는 모든 사용자를 반환합니다.
	UsersWithBirthday(ctx context.Context, dayMonth string) ([]User, error)

	// ChatsForUser 사용자가 속한 모든 채팅방 ID를 반환합니다.
	ChatsForUser(ctx context.Context, username string) ([]int64, error)

	// AddAdmin 사용자를 채팅방 관리자로 등록합니다. 이미 등록되어 있으면 무시합니다.
	AddAdmin(ctx context.Context, username string, chatID int64) error

	// IsAdmin 사용자가 채팅방 관리자인지 확인합니다.
	IsAdmin(ctx context.Context, username string, chatID int64) (bool, error)

	// UpsertEvent 이벤트를 등록하거나 갱신합니다. (채팅방 ID + 제목이 고유 키)
	UpsertEvent(ctx context.Context, event Event) error

	// EventsOn 지정된 날짜(DD.MM.YYYY)에 열리는 모든 이벤트를 반환합니다.
	EventsOn(ctx context.Context, date string) ([]Event, error)

	// UpcomingEvents 지정된 날짜 이후(포함)에 열리는 채팅방의 이벤트를 반환합니다.
	UpcomingEvents(ctx context.Context, chatID int64, from string) ([]Event, error)
}

// Messenger 텔레그램 Bot API 아웃바운드 호출 포트입니다.
//
// method는 Bot API 메서드 이름("sendMessage", "editMessageText" 등)이며,
// 성공 시 응답의 result 필드를 원본 JSON 그대로 반환합니다.
type Messenger interface {
	Call(ctx context.Context, method string, params map[string]string) (json.RawMessage, error)
}

// Translator 채팅방 언어에 맞는 번역 값을 제공하는 포트입니다.
type Translator interface {
	// Text 단일 문자열 번역 값을 조회합니다. 키가 없으면 키 문자열 자체를 반환합니다.
	Text(ctx context.Context, chatID int64, key string) (string, error)

	// List 문자열 목록 번역 값을 조회합니다.
	List(ctx context.Context, chatID int64, key string) ([]string, error)

	// Language 채팅방의 언어 코드를 반환합니다. 확인할 수 없으면 기본 언어를 반환합니다.
	Language(ctx context.Context, chatID int64) (string, error)

	// UpdateLanguage 채팅방의 언어 설정 변경을 캐시에 즉시 반영합니다.
	UpdateLanguage(chatID int64, languageCode string)
}
