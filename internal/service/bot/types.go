package bot

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	apperrors "github.com/dvizh-wroclaw/dvizh-bot/internal/pkg/errors"
)

// update 수신된 업데이트의 디코딩 결과입니다.
//
// 텔레그램이 보내는 필드 중 처리에 필요한 것만 디코딩하며, 나머지는 무시됩니다.
type update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *message       `json:"message"`
	CallbackQuery *callbackQuery `json:"callback_query"`
}

type message struct {
	MessageID      int64        `json:"message_id"`
	From           *user        `json:"from"`
	Chat           *chat        `json:"chat"`
	Text           string       `json:"text"`
	Photo          []photoSize  `json:"photo"`
	NewChatMembers []user       `json:"new_chat_members"`
}

type chat struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type user struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LanguageCode string `json:"language_code"`
}

type photoSize struct {
	FileID string `json:"file_id"`
}

type callbackQuery struct {
	ID      string   `json:"id"`
	From    *user    `json:"from"`
	Message *message `json:"message"`
	Data    string   `json:"data"`
}

// parseUpdate 원본 업데이트 JSON을 디코딩합니다.
//
// 메시지이지만 채팅방 정보가 없는 등 처리에 필요한 최소 구조를 갖추지 못한
// 페이로드는 에러로 처리되어, 호출자가 채팅방 ID 복구 경로로 진입하게 됩니다.
func parseUpdate(raw json.RawMessage) (*update, error) {
	var u update
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ParsingFailed, "업데이트 페이로드 디코딩에 실패하였습니다")
	}

	if u.Message != nil && u.Message.Chat == nil {
		return nil, apperrors.New(apperrors.ParsingFailed, "메시지에 채팅방 정보가 없습니다")
	}
	if u.CallbackQuery != nil && (u.CallbackQuery.Message == nil || u.CallbackQuery.Message.Chat == nil) {
		return nil, apperrors.New(apperrors.ParsingFailed, "콜백 쿼리에 채팅방 정보가 없습니다")
	}

	return &u, nil
}

// findChatID 형식을 알 수 없는 페이로드에서 채팅방 ID를 복구합니다.
//
// 페이로드를 깊이 우선으로 탐색하여 chat.id를 가진 첫 번째 객체를 찾습니다.
// 찾지 못하면 false를 반환합니다.
func findChatID(raw json.RawMessage) (int64, bool) {
	return findChatIDIn(gjson.ParseBytes(raw))
}

func findChatIDIn(node gjson.Result) (int64, bool) {
	if !node.IsObject() && !node.IsArray() {
		return 0, false
	}

	if chatID := node.Get("chat.id"); chatID.Exists() && chatID.Type == gjson.Number {
		return chatID.Int(), true
	}

	var (
		foundID int64
		found   bool
	)
	node.ForEach(func(_, child gjson.Result) bool {
		if chatID, ok := findChatIDIn(child); ok {
			foundID, found = chatID, true
			return false
		}
		return true
	})

	return foundID, found
}
