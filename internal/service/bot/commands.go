package bot

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/dvizh-wroclaw/dvizh-bot/internal/pkg/validation"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/service/contract"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/translation"
	applog "github.com/dvizh-wroclaw/dvizh-bot/pkg/log"
)

// commandHandler 검증을 통과한 명령어 하나를 처리합니다.
type commandHandler func(ctx context.Context, m *message, args []string) error

// commandSpec 명령어의 검증 규칙과 핸들러입니다.
//
// 검증은 인자 개수 → 날짜 형식 → 관리자 권한 순서로 수행되며, 첫 번째 실패에서
// 해당 에러 키의 번역 메시지를 보내고 핸들러 진입 없이 종료합니다.
type commandSpec struct {
	handler      commandHandler
	argCount     int // 0이면 인자 검증 없음
	dateArgIndex int // -1이면 날짜 인자 없음
	adminOnly    bool
}

func (s *BotService) commandTable() map[string]commandSpec {
	return map[string]commandSpec{
		"start":          {handler: s.cmdStart, dateArgIndex: -1},
		"hello":          {handler: s.cmdHello, dateArgIndex: -1},
		"help":           {handler: s.cmdHelp, dateArgIndex: -1},
		"setbirthday":    {handler: s.cmdSetBirthday, argCount: 1, dateArgIndex: 0},
		"setbirthdayfor": {handler: s.cmdSetBirthdayFor, argCount: 2, dateArgIndex: 1},
		"addevent":       {handler: s.cmdAddEvent, argCount: 4, dateArgIndex: 1, adminOnly: true},
		"listevents":     {handler: s.cmdListEvents, dateArgIndex: -1},
		"meme":           {handler: s.cmdMeme, dateArgIndex: -1},
		"astro":          {handler: s.cmdAstro, dateArgIndex: -1},
		"luck":           {handler: s.cmdLuck, dateArgIndex: -1},
		"joke":           {handler: s.cmdJoke, dateArgIndex: -1},
		"8ball":          {handler: s.cmd8Ball, argCount: 1, dateArgIndex: -1},
		"tease":          {handler: s.cmdTease, dateArgIndex: -1},
		"test":           {handler: s.cmdTest, argCount: 1, dateArgIndex: -1},
	}
}

// dispatchCommand 명령어를 검증한 뒤 핸들러로 전달합니다.
func (s *BotService) dispatchCommand(ctx context.Context, m *message, name string, args []string) error {
	chatID := m.Chat.ID

	spec, exists := s.commands[name]
	if !exists {
		return s.sendTranslated(ctx, chatID, "error_unknown_command")
	}

	if spec.argCount > 0 {
		if errorKey := validation.ArgumentCount(args, spec.argCount); errorKey != "" {
			return s.sendTranslated(ctx, chatID, errorKey)
		}
	}

	if spec.dateArgIndex >= 0 {
		if errorKey := validation.DateFormat(args[spec.dateArgIndex]); errorKey != "" {
			return s.sendTranslated(ctx, chatID, errorKey)
		}
	}

	if spec.adminOnly {
		username := ""
		if m.From != nil {
			username = m.From.Username
		}

		isAdmin, err := s.repository.IsAdmin(ctx, username, chatID)
		if err != nil {
			return err
		}
		if !isAdmin {
			return s.sendTranslated(ctx, chatID, "error_not_admin")
		}
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"chat_id": chatID,
		"command": name,
	}).Debug("명령어 처리")

	return spec.handler(ctx, m, args)
}

func (s *BotService) cmdStart(ctx context.Context, m *message, _ []string) error {
	text, err := s.translator.Text(ctx, m.Chat.ID, "hello")
	if err != nil {
		return err
	}

	_, err = s.messenger.Call(ctx, "sendMessage", map[string]string{
		"chat_id": strconv.FormatInt(m.Chat.ID, 10),
		"text":    text,
		"reply_markup": inlineKeyboard([][][2]string{{
			{"English 🇬🇧", "lang_en"},
			{"Русский 🇷🇺", "lang_ru"},
			{"Polski 🇵🇱", "lang_pl"},
		}}),
	})
	return err
}

func (s *BotService) cmdHello(ctx context.Context, m *message, _ []string) error {
	return s.sendTranslated(ctx, m.Chat.ID, "hello")
}

func (s *BotService) cmdHelp(ctx context.Context, m *message, _ []string) error {
	return s.sendTranslated(ctx, m.Chat.ID, "help")
}

func (s *BotService) cmdSetBirthday(ctx context.Context, m *message, args []string) error {
	if m.From == nil || m.From.Username == "" {
		return s.sendTranslated(ctx, m.Chat.ID, "wrong")
	}

	return s.setBirthday(ctx, m.Chat.ID, contract.User{
		Username:     m.From.Username,
		FirstName:    m.From.FirstName,
		LanguageCode: m.From.LanguageCode,
		Birthdate:    args[0],
	})
}

func (s *BotService) cmdSetBirthdayFor(ctx context.Context, m *message, args []string) error {
	return s.setBirthday(ctx, m.Chat.ID, contract.User{
		Username:  strings.TrimPrefix(args[0], "@"),
		Birthdate: args[1],
	})
}

func (s *BotService) setBirthday(ctx context.Context, chatID int64, user contract.User) error {
	if err := s.repository.UpsertUser(ctx, user, chatID); err != nil {
		return err
	}

	template, err := s.translator.Text(ctx, chatID, "remeber_birthday")
	if err != nil {
		return err
	}

	return s.sendText(ctx, chatID, translation.Render(template, map[string]string{
		"username": user.Username,
		"date":     user.Birthdate,
	}))
}

func (s *BotService) cmdAddEvent(ctx context.Context, m *message, args []string) error {
	event := contract.Event{
		ChatID:      m.Chat.ID,
		Title:       args[0],
		Date:        args[1],
		Location:    args[2],
		Description: args[3],
	}
	if err := s.repository.UpsertEvent(ctx, event); err != nil {
		return err
	}

	template, err := s.translator.Text(ctx, m.Chat.ID, "remeber_event")
	if err != nil {
		return err
	}

	return s.sendText(ctx, m.Chat.ID, translation.Render(template, map[string]string{
		"title": event.Title,
		"date":  event.Date,
	}))
}

func (s *BotService) cmdListEvents(ctx context.Context, m *message, _ []string) error {
	chatID := m.Chat.ID
	today := time.Now().Format("02.01.2006")

	events, err := s.repository.UpcomingEvents(ctx, chatID, today)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return s.sendTranslated(ctx, chatID, "no_upcoming_event")
	}

	header, err := s.translator.Text(ctx, chatID, "upcoming_event")
	if err != nil {
		return err
	}
	template, err := s.translator.Text(ctx, chatID, "event_template")
	if err != nil {
		return err
	}

	lines := make([]string, 0, len(events)+1)
	lines = append(lines, header)
	for _, event := range events {
		lines = append(lines, translation.Render(template, map[string]string{
			"title":       event.Title,
			"date":        event.Date,
			"location":    event.Location,
			"description": event.Description,
		}))
	}

	return s.sendText(ctx, chatID, strings.Join(lines, "\n\n"))
}

func (s *BotService) cmdMeme(ctx context.Context, m *message, _ []string) error {
	memeURL, available := s.memes.random()
	if !available {
		// 캐시가 아직 비어 있으면 즉석에서 한 번 수집을 시도합니다.
		if err := s.memes.refresh(ctx, s.content); err != nil {
			return err
		}
		if memeURL, available = s.memes.random(); !available {
			return s.sendTranslated(ctx, m.Chat.ID, "wrong")
		}
	}

	_, err := s.messenger.Call(ctx, "sendPhoto", map[string]string{
		"chat_id": strconv.FormatInt(m.Chat.ID, 10),
		"photo":   memeURL,
	})
	return err
}

// zodiacSigns 별자리 선택 키보드의 구성입니다. 콜백 데이터는 "zodiac_<영문명>"입니다.
var zodiacSigns = [][][2]string{
	{{"♈ Aries", "zodiac_aries"}, {"♉ Taurus", "zodiac_taurus"}, {"♊ Gemini", "zodiac_gemini"}},
	{{"♋ Cancer", "zodiac_cancer"}, {"♌ Leo", "zodiac_leo"}, {"♍ Virgo", "zodiac_virgo"}},
	{{"♎ Libra", "zodiac_libra"}, {"♏ Scorpio", "zodiac_scorpio"}, {"♐ Sagittarius", "zodiac_sagittarius"}},
	{{"♑ Capricorn", "zodiac_capricorn"}, {"♒ Aquarius", "zodiac_aquarius"}, {"♓ Pisces", "zodiac_pisces"}},
}

func (s *BotService) cmdAstro(ctx context.Context, m *message, _ []string) error {
	text, err := s.translator.Text(ctx, m.Chat.ID, "astro")
	if err != nil {
		return err
	}

	_, err = s.messenger.Call(ctx, "sendMessage", map[string]string{
		"chat_id":      strconv.FormatInt(m.Chat.ID, 10),
		"text":         text,
		"reply_markup": inlineKeyboard(zodiacSigns),
	})
	return err
}

func (s *BotService) cmdLuck(ctx context.Context, m *message, _ []string) error {
	if err := s.sendTranslated(ctx, m.Chat.ID, "luck"); err != nil {
		return err
	}

	_, err := s.messenger.Call(ctx, "sendDice", map[string]string{
		"chat_id": strconv.FormatInt(m.Chat.ID, 10),
	})
	return err
}

func (s *BotService) cmdJoke(ctx context.Context, m *message, _ []string) error {
	return s.replyWithThinking(ctx, m.Chat.ID, func(ctx context.Context) (string, error) {
		joke, err := s.content.RandomJoke(ctx)
		if err != nil {
			return "", err
		}
		return joke.Setup + "\n\n" + joke.Punchline, nil
	})
}

// replyWithThinking 준비 중 메시지를 먼저 보낸 뒤, 수집된 콘텐츠로 본문을 교체합니다.
// 콘텐츠 수집에 실패하면 준비 중 메시지를 처리 불가 안내로 교체하고 에러를 반환합니다.
func (s *BotService) replyWithThinking(ctx context.Context, chatID int64, fetch func(context.Context) (string, error)) error {
	thinking, err := s.translator.Text(ctx, chatID, "thinking")
	if err != nil {
		return err
	}
	messageID, err := s.sendTextForID(ctx, chatID, thinking)
	if err != nil {
		return err
	}

	text, err := fetch(ctx)
	if err != nil {
		wrong, translateErr := s.translator.Text(ctx, chatID, "wrong")
		if translateErr == nil && messageID != 0 {
			_ = s.editText(ctx, chatID, messageID, wrong)
		}
		return err
	}

	return s.editText(ctx, chatID, messageID, text)
}

func (s *BotService) cmd8Ball(ctx context.Context, m *message, _ []string) error {
	answers, err := s.translator.List(ctx, m.Chat.ID, "8ball")
	if err != nil {
		return err
	}
	if len(answers) == 0 {
		return s.sendTranslated(ctx, m.Chat.ID, "wrong")
	}

	return s.sendText(ctx, m.Chat.ID, answers[rand.Intn(len(answers))])
}

func (s *BotService) cmdTease(ctx context.Context, m *message, _ []string) error {
	chatID := m.Chat.ID

	languageCode, err := s.translator.Language(ctx, chatID)
	if err != nil {
		return err
	}

	return s.replyWithThinking(ctx, chatID, func(ctx context.Context) (string, error) {
		return s.content.RandomInsult(ctx, languageCode)
	})
}

// cmdTest 지정된 키의 번역 값을 그대로 보여줍니다. 번역 테이블 점검용입니다.
func (s *BotService) cmdTest(ctx context.Context, m *message, args []string) error {
	return s.sendTranslated(ctx, m.Chat.ID, args[0])
}
