package bot

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	applog "github.com/dvizh-wroclaw/dvizh-bot/pkg/log"
)

// spamThreshold 이 점수 이상이면 스팸으로 판정합니다.
const spamThreshold = 10

// spamPattern 스팸 판정 규칙 하나입니다. 소문자로 정규화된 본문에 대해 검사합니다.
type spamPattern struct {
	substring string
	score     int
}

// 채팅방에 반복적으로 유입되는 광고성 메시지의 패턴입니다.
var spamPatterns = []spamPattern{
	{"крипт", 5},
	{"crypto", 5},
	{"заработ", 5},
	{"доход", 4},
	{"инвест", 4},
	{"казино", 5},
	{"удаленн", 3},
	{"удалённ", 3},
	{"пиши в лс", 4},
	{"в личку", 4},
	{"t.me/", 3},
	{"http://", 3},
	{"https://", 3},
	{"18+", 5},
	{"только сегодня", 4},
	{"бесплатно", 3},
}

// spamScore 메시지 본문의 스팸 점수를 계산합니다.
//
// 각 패턴은 포함 여부당 한 번만 가산됩니다. 패턴 외에 이모지 과다 사용과
// 대문자 위주 본문에도 소량의 점수가 붙습니다.
func spamScore(text string) int {
	normalized := strings.ToLower(text)

	score := 0
	for _, pattern := range spamPatterns {
		if strings.Contains(normalized, pattern.substring) {
			score += pattern.score
		}
	}

	if emojiCount(text) > 5 {
		score += 2
	}
	if isMostlyUppercase(text) {
		score += 2
	}

	return score
}

func emojiCount(text string) int {
	count := 0
	for _, r := range text {
		if r >= 0x1F300 && r <= 0x1FAFF {
			count++
		}
	}
	return count
}

func isMostlyUppercase(text string) bool {
	var letters, uppercase int
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppercase++
			}
		}
	}
	return letters >= 20 && uppercase*10 >= letters*7
}

// handlePlainText 명령어가 아닌 일반 텍스트 메시지를 처리합니다.
//
// 스팸으로 판정되면 메시지를 삭제하고 작성자를 채팅방에서 차단합니다.
// 스팸이 아닌 메시지에는 아무런 응답도 하지 않습니다.
func (s *BotService) handlePlainText(ctx context.Context, m *message) error {
	score := spamScore(m.Text)
	if score < spamThreshold {
		return nil
	}

	chatID := m.Chat.ID

	applog.WithComponentAndFields(component, applog.Fields{
		"chat_id": chatID,
		"score":   score,
	}).Info("스팸 메시지를 차단합니다")

	if _, err := s.messenger.Call(ctx, "deleteMessage", map[string]string{
		"chat_id":    strconv.FormatInt(chatID, 10),
		"message_id": strconv.FormatInt(m.MessageID, 10),
	}); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{"chat_id": chatID, "error": err}).
			Warn("스팸 메시지 삭제에 실패하였습니다")
	}

	if m.From == nil {
		return nil
	}

	_, err := s.messenger.Call(ctx, "banChatMember", map[string]string{
		"chat_id": strconv.FormatInt(chatID, 10),
		"user_id": strconv.FormatInt(m.From.ID, 10),
	})
	return err
}
