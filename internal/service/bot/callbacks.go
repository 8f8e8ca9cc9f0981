package bot

import (
	"context"
	"strings"

	applog "github.com/dvizh-wroclaw/dvizh-bot/pkg/log"
)

// supportedLanguages 언어 선택 콜백으로 설정할 수 있는 언어 코드입니다.
var supportedLanguages = map[string]bool{
	"en": true,
	"ru": true,
	"pl": true,
}

// handleCallback 인라인 키보드 콜백 하나를 처리합니다.
//
// 콜백 데이터 접두사로 종류를 구분합니다. ("lang_" 언어 선택, "zodiac_" 별자리 선택)
// 어떤 경우든 answerCallbackQuery를 보내 버튼의 로딩 표시를 해제합니다.
func (s *BotService) handleCallback(ctx context.Context, cb *callbackQuery) error {
	if _, err := s.messenger.Call(ctx, "answerCallbackQuery", map[string]string{
		"callback_query_id": cb.ID,
	}); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{"error": err}).
			Warn("콜백 쿼리 응답에 실패하였습니다")
	}

	switch {
	case strings.HasPrefix(cb.Data, "lang_"):
		return s.handleLanguageCallback(ctx, cb, strings.TrimPrefix(cb.Data, "lang_"))
	case strings.HasPrefix(cb.Data, "zodiac_"):
		return s.handleZodiacCallback(ctx, cb, strings.TrimPrefix(cb.Data, "zodiac_"))
	default:
		applog.WithComponentAndFields(component, applog.Fields{"data": cb.Data}).
			Warn("알 수 없는 콜백 데이터를 무시합니다")
		return nil
	}
}

// handleLanguageCallback 채팅방 언어를 변경합니다.
//
// 저장소 반영 → 캐시 반영 순서로 처리한 뒤, 키보드가 붙어 있던 메시지를 새 언어의
// 인사말로 교체하여 키보드를 제거합니다. 다음 메시지부터 새 언어가 적용됩니다.
func (s *BotService) handleLanguageCallback(ctx context.Context, cb *callbackQuery, languageCode string) error {
	chatID := cb.Message.Chat.ID

	if !supportedLanguages[languageCode] {
		applog.WithComponentAndFields(component, applog.Fields{
			"chat_id":       chatID,
			"language_code": languageCode,
		}).Warn("지원하지 않는 언어 선택을 무시합니다")
		return nil
	}

	if err := s.repository.SetChatLanguage(ctx, chatID, languageCode); err != nil {
		return err
	}
	s.translator.UpdateLanguage(chatID, languageCode)

	applog.WithComponentAndFields(component, applog.Fields{
		"chat_id":       chatID,
		"language_code": languageCode,
	}).Info("채팅방 언어가 변경되었습니다")

	hello, err := s.translator.Text(ctx, chatID, "hello")
	if err != nil {
		return err
	}
	return s.editText(ctx, chatID, cb.Message.MessageID, hello)
}

// handleZodiacCallback 선택된 별자리의 오늘 운세를 가져와 메시지를 교체합니다.
//
// 운세 API 응답을 기다리는 동안 먼저 대기 안내로 교체하고, 수신 후 운세로 다시 교체합니다.
func (s *BotService) handleZodiacCallback(ctx context.Context, cb *callbackQuery, sign string) error {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	thinking, err := s.translator.Text(ctx, chatID, "thinking")
	if err != nil {
		return err
	}
	if err := s.editText(ctx, chatID, messageID, thinking); err != nil {
		return err
	}

	horoscope, err := s.content.DailyHoroscope(ctx, sign)
	if err != nil {
		wrong, translateErr := s.translator.Text(ctx, chatID, "wrong")
		if translateErr == nil {
			_ = s.editText(ctx, chatID, messageID, wrong)
		}
		return err
	}

	return s.editText(ctx, chatID, messageID, horoscope)
}
