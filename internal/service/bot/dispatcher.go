package bot

import (
	"context"
	"encoding/json"
	"strconv"

	apperrors "github.com/dvizh-wroclaw/dvizh-bot/internal/pkg/errors"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/service/contract"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/translation"
	applog "github.com/dvizh-wroclaw/dvizh-bot/pkg/log"
)

// handleUpdate 업데이트 하나를 종류에 따라 분기 처리합니다.
//
// 디코딩할 수 없는 페이로드는 버리지 않고, 채팅방 ID 복구를 시도한 뒤 해당
// 채팅방에 처리 불가 안내를 보냅니다. 복구까지 실패한 페이로드만 조용히 버려집니다.
func (s *BotService) handleUpdate(ctx context.Context, raw json.RawMessage) error {
	u, err := parseUpdate(raw)
	if err != nil {
		return s.handleMalformed(ctx, raw, err)
	}

	switch {
	case u.CallbackQuery != nil:
		return s.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		return s.handleMessage(ctx, u.Message)
	default:
		// 수신 대상이 아닌 업데이트 종류(수정된 메시지 등)는 무시합니다.
		return nil
	}
}

// handleMalformed 디코딩 실패한 페이로드에서 채팅방 ID를 복구하여 안내 메시지를 보냅니다.
func (s *BotService) handleMalformed(ctx context.Context, raw json.RawMessage, parseErr error) error {
	chatID, found := findChatID(raw)
	if !found {
		applog.WithComponentAndFields(component, applog.Fields{"error": parseErr}).
			Warn("채팅방 ID를 복구할 수 없는 페이로드를 무시합니다")
		return nil
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"chat_id": chatID,
		"error":   parseErr,
	}).Warn("디코딩할 수 없는 페이로드입니다. 처리 불가 안내를 보냅니다")

	return s.sendTranslated(ctx, chatID, "wrong")
}

// handleMessage 일반 메시지 하나를 처리합니다.
func (s *BotService) handleMessage(ctx context.Context, m *message) error {
	chatID := m.Chat.ID

	if err := s.repository.UpsertChat(ctx, contract.Chat{ID: chatID, Title: m.Chat.Title}); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{"chat_id": chatID, "error": err}).
			Error("채팅방 저장에 실패하였습니다")
	}

	if len(m.NewChatMembers) > 0 {
		return s.handleNewMembers(ctx, m)
	}

	if m.From != nil && !m.From.IsBot && m.From.Username != "" {
		if err := s.repository.UpsertUser(ctx, contract.User{
			Username:     m.From.Username,
			FirstName:    m.From.FirstName,
			LanguageCode: m.From.LanguageCode,
		}, chatID); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{"chat_id": chatID, "error": err}).
				Error("사용자 저장에 실패하였습니다")
		}
	}

	// 사진 메시지는 처리 대상이 아닙니다.
	if len(m.Photo) > 0 {
		return nil
	}

	if name, args, isCommand := parseCommand(m.Text); isCommand {
		return s.dispatchCommand(ctx, m, name, args)
	}

	if m.Text != "" {
		return s.handlePlainText(ctx, m)
	}

	return nil
}

// handleNewMembers 채팅방에 새로 들어온 구성원들을 처리합니다.
//
// 봇 자신이 초대된 경우에는 시작 플로우(인사말 + 언어 선택)를 수행하고 기존 채팅방
// 관리자 목록을 저장소로 가져옵니다. 일반 사용자는 등록 후 환영 인사를 보냅니다.
func (s *BotService) handleNewMembers(ctx context.Context, m *message) error {
	chatID := m.Chat.ID

	for _, member := range m.NewChatMembers {
		if member.IsBot {
			if member.Username == s.botUsername {
				if err := s.cmdStart(ctx, m, nil); err != nil {
					return err
				}
				s.importChatAdmins(ctx, chatID)
			}
			continue
		}

		if member.Username != "" {
			if err := s.repository.UpsertUser(ctx, contract.User{
				Username:     member.Username,
				FirstName:    member.FirstName,
				LanguageCode: member.LanguageCode,
			}, chatID); err != nil {
				applog.WithComponentAndFields(component, applog.Fields{"chat_id": chatID, "error": err}).
					Error("신규 구성원 저장에 실패하였습니다")
			}
		}

		welcomeTemplate, err := s.translator.Text(ctx, chatID, "welcome")
		if err != nil {
			return err
		}

		welcome := translation.Render(welcomeTemplate, map[string]string{
			"first_name": member.FirstName,
			"username":   member.Username,
		})
		if err := s.sendText(ctx, chatID, welcome); err != nil {
			return err
		}
	}

	return nil
}

// importChatAdmins 채팅방의 현재 관리자 목록을 조회하여 사용자/관리자로 등록합니다.
//
// 조회나 개별 등록 실패는 로그만 남기고 계속 진행합니다. 초대 직후 1회성 동기화이므로
// 실패하더라도 이후 /addevent 시점에 관리자 등록이 다시 요구될 뿐입니다.
func (s *BotService) importChatAdmins(ctx context.Context, chatID int64) {
	result, err := s.messenger.Call(ctx, "getChatAdministrators", map[string]string{
		"chat_id": strconv.FormatInt(chatID, 10),
	})
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{"chat_id": chatID, "error": err}).
			Warn("채팅방 관리자 목록 조회에 실패하였습니다")
		return
	}

	var members []struct {
		User user `json:"user"`
	}
	if err := json.Unmarshal(result, &members); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{"chat_id": chatID, "error": err}).
			Warn("채팅방 관리자 목록 디코딩에 실패하였습니다")
		return
	}

	for _, member := range members {
		if member.User.IsBot || member.User.Username == "" {
			continue
		}

		if err := s.repository.UpsertUser(ctx, contract.User{
			Username:     member.User.Username,
			FirstName:    member.User.FirstName,
			LanguageCode: member.User.LanguageCode,
		}, chatID); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{"chat_id": chatID, "error": err}).
				Error("관리자 사용자 저장에 실패하였습니다")
			continue
		}
		if err := s.repository.AddAdmin(ctx, member.User.Username, chatID); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{"chat_id": chatID, "error": err}).
				Error("관리자 등록에 실패하였습니다")
		}
	}
}

//
// 발신 헬퍼
//

// sendText 채팅방에 일반 텍스트 메시지를 보내고 발신된 message_id를 반환합니다.
func (s *BotService) sendText(ctx context.Context, chatID int64, text string) error {
	_, err := s.sendTextForID(ctx, chatID, text)
	return err
}

func (s *BotService) sendTextForID(ctx context.Context, chatID int64, text string) (int64, error) {
	result, err := s.messenger.Call(ctx, "sendMessage", map[string]string{
		"chat_id": strconv.FormatInt(chatID, 10),
		"text":    text,
	})
	if err != nil {
		return 0, err
	}

	var sent struct {
		MessageID int64 `json:"message_id"`
	}
	if err := json.Unmarshal(result, &sent); err != nil {
		return 0, apperrors.Wrap(err, apperrors.ParsingFailed, "발신 응답에서 message_id를 읽을 수 없습니다")
	}
	return sent.MessageID, nil
}

// sendTranslated 채팅방 언어로 번역된 메시지를 보냅니다.
func (s *BotService) sendTranslated(ctx context.Context, chatID int64, key string) error {
	text, err := s.translator.Text(ctx, chatID, key)
	if err != nil {
		return err
	}
	return s.sendText(ctx, chatID, text)
}

// editText 발신된 메시지의 본문을 교체합니다. 인라인 키보드는 함께 제거됩니다.
func (s *BotService) editText(ctx context.Context, chatID, messageID int64, text string) error {
	_, err := s.messenger.Call(ctx, "editMessageText", map[string]string{
		"chat_id":    strconv.FormatInt(chatID, 10),
		"message_id": strconv.FormatInt(messageID, 10),
		"text":       text,
	})
	return err
}

// inlineKeyboard 인라인 키보드 reply_markup 파라미터 값을 생성합니다.
//
// buttons는 행 단위의 [표시 텍스트, 콜백 데이터] 쌍 목록입니다.
func inlineKeyboard(rows [][][2]string) string {
	type button struct {
		Text         string `json:"text"`
		CallbackData string `json:"callback_data"`
	}

	keyboard := make([][]button, 0, len(rows))
	for _, row := range rows {
		keyboardRow := make([]button, 0, len(row))
		for _, b := range row {
			keyboardRow = append(keyboardRow, button{Text: b[0], CallbackData: b[1]})
		}
		keyboard = append(keyboard, keyboardRow)
	}

	markup, _ := json.Marshal(map[string]interface{}{"inline_keyboard": keyboard})
	return string(markup)
}
