// Package scheduler 매일 정해진 시각에 생일 축하, 이벤트 알림, 인사 메시지를 발송하는 서비스입니다.
package scheduler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/dvizh-wroclaw/dvizh-bot/internal/config"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/service/contract"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/translation"
	applog "github.com/dvizh-wroclaw/dvizh-bot/pkg/log"
)

const component = "service.scheduler"

const dateLayout = "02.01.2006"

//
// SchedulerService
//

// SchedulerService 하루 세 번의 경계 시각에 알림을 발송하는 서비스입니다.
//
//   - 자정(+여유 시간): 생일 축하와 당일 이벤트 알림
//   - 아침: 아침 인사
//   - 저녁: 저녁 인사
//
// 각 경계는 발송 후 다음 날 같은 시각으로 재설정됩니다. 발송 대상 중 일부가
// 실패해도 나머지 대상에 대한 발송은 계속됩니다.
type SchedulerService struct {
	config *config.AppConfig

	running   bool
	runningMu sync.Mutex

	messenger  contract.Messenger
	repository contract.Repository
	translator contract.Translator

	location *time.Location
}

// NewService 새로운 SchedulerService를 생성합니다.
func NewService(appConfig *config.AppConfig, messenger contract.Messenger,
	repository contract.Repository, translator contract.Translator,
	location *time.Location) *SchedulerService {

	return &SchedulerService{
		config: appConfig,

		running:   false,
		runningMu: sync.Mutex{},

		messenger:  messenger,
		repository: repository,
		translator: translator,

		location: location,
	}
}

// Start 세 경계 시각의 타이머 루프를 시작합니다.
func (s *SchedulerService) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Debug("Scheduler 서비스 시작중...")

	if s.running {
		serviceStopWG.Done()

		applog.WithComponent(component).Warn("Scheduler 서비스가 이미 시작됨!!!")

		return nil
	}

	go s.run(serviceStopCtx, serviceStopWG)

	s.running = true

	applog.WithComponent(component).Debug("Scheduler 서비스 시작됨")

	return nil
}

// run 경계 타이머 루프입니다. serviceStopCtx가 취소될 때까지 실행됩니다.
//
// 각 타이머는 발송 완료 후 그 시점 기준으로 다음 경계까지의 시간으로 재설정되므로,
// 발송에 걸린 시간만큼 다음 경계가 밀리지 않습니다.
func (s *SchedulerService) run(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	schedulerConfig := &s.config.Scheduler

	midnightTimer := time.NewTimer(nextBoundaryDelay(s.now(), 0, 0, schedulerConfig.MidnightBufferSeconds))
	morningTimer := time.NewTimer(nextBoundaryDelay(s.now(), schedulerConfig.MorningHour, 0, 0))
	eveningTimer := time.NewTimer(nextBoundaryDelay(s.now(), schedulerConfig.EveningHour, 0, 0))
	defer midnightTimer.Stop()
	defer morningTimer.Stop()
	defer eveningTimer.Stop()

	for {
		select {
		case <-serviceStopCtx.Done():
			applog.WithComponent(component).Debug("Scheduler 서비스 중지됨")
			return

		case <-midnightTimer.C:
			s.runMidnightPass(serviceStopCtx, s.now())
			midnightTimer.Reset(nextBoundaryDelay(s.now(), 0, 0, schedulerConfig.MidnightBufferSeconds))

		case <-morningTimer.C:
			s.runGreetingPass(serviceStopCtx, "morning")
			morningTimer.Reset(nextBoundaryDelay(s.now(), schedulerConfig.MorningHour, 0, 0))

		case <-eveningTimer.C:
			s.runGreetingPass(serviceStopCtx, "night")
			eveningTimer.Reset(nextBoundaryDelay(s.now(), schedulerConfig.EveningHour, 0, 0))
		}
	}
}

func (s *SchedulerService) now() time.Time {
	return time.Now().In(s.location)
}

// runMidnightPass 자정 경계의 발송 작업입니다. 생일 축하 후 당일 이벤트 알림을 발송합니다.
func (s *SchedulerService) runMidnightPass(ctx context.Context, now time.Time) {
	s.runBirthdayPass(ctx, now)
	s.runEventPass(ctx, now)
}

// runBirthdayPass 오늘이 생일인 모든 사용자에 대해, 그 사용자가 속한 모든 채팅방에
// 생일 축하 메시지를 발송합니다.
func (s *SchedulerService) runBirthdayPass(ctx context.Context, now time.Time) {
	logger := applog.WithComponent(component)

	users, err := s.repository.UsersWithBirthday(ctx, now.Format("02.01"))
	if err != nil {
		logger.WithField("error", err).Error("생일 사용자 조회에 실패하였습니다")
		return
	}

	for _, user := range users {
		chatIDs, err := s.repository.ChatsForUser(ctx, user.Username)
		if err != nil {
			logger.WithField("error", err).Errorf("사용자(%s)의 채팅방 조회에 실패하였습니다", user.Username)
			continue
		}

		for _, chatID := range chatIDs {
			if err := s.sendBirthdayGreeting(ctx, chatID, user, now); err != nil {
				logger.WithField("error", err).Errorf("채팅방(%d) 생일 축하 발송에 실패하였습니다", chatID)
			}
		}
	}
}

func (s *SchedulerService) sendBirthdayGreeting(ctx context.Context, chatID int64, user contract.User, now time.Time) error {
	template, err := s.translator.Text(ctx, chatID, "birthday_template")
	if err != nil {
		return err
	}

	return s.sendText(ctx, chatID, translation.Render(template, map[string]string{
		"first_name": user.FirstName,
		"username":   user.Username,
		"age":        ageOn(user.Birthdate, now),
	}))
}

// ageOn 생일(DD.MM.YYYY) 기준으로 now 시점의 나이를 계산합니다.
// 생일을 해석할 수 없으면 빈 문자열을 반환하여 템플릿에서 자리 표시자가 비워지도록 합니다.
func ageOn(birthdate string, now time.Time) string {
	birth, err := time.Parse(dateLayout, birthdate)
	if err != nil {
		return ""
	}

	age := now.Year() - birth.Year()
	if age < 0 {
		return ""
	}
	return strconv.Itoa(age)
}

// runEventPass 오늘 열리는 모든 이벤트의 알림을 해당 채팅방에 발송합니다.
func (s *SchedulerService) runEventPass(ctx context.Context, now time.Time) {
	logger := applog.WithComponent(component)

	events, err := s.repository.EventsOn(ctx, now.Format(dateLayout))
	if err != nil {
		logger.WithField("error", err).Error("당일 이벤트 조회에 실패하였습니다")
		return
	}

	for _, event := range events {
		if err := s.sendEventReminder(ctx, event); err != nil {
			logger.WithField("error", err).Errorf("채팅방(%d) 이벤트 알림 발송에 실패하였습니다", event.ChatID)
		}
	}
}

func (s *SchedulerService) sendEventReminder(ctx context.Context, event contract.Event) error {
	template, err := s.translator.Text(ctx, event.ChatID, "event_template")
	if err != nil {
		return err
	}

	return s.sendText(ctx, event.ChatID, translation.Render(template, map[string]string{
		"title":       event.Title,
		"date":        event.Date,
		"location":    event.Location,
		"description": event.Description,
	}))
}

// runGreetingPass 등록된 모든 채팅방에 지정된 키의 인사 메시지를 발송합니다.
func (s *SchedulerService) runGreetingPass(ctx context.Context, key string) {
	logger := applog.WithComponent(component)

	chatIDs, err := s.repository.AllChatIDs(ctx)
	if err != nil {
		logger.WithField("error", err).Error("채팅방 목록 조회에 실패하였습니다")
		return
	}

	for _, chatID := range chatIDs {
		text, err := s.translator.Text(ctx, chatID, key)
		if err != nil {
			logger.WithField("error", err).Errorf("채팅방(%d) 인사말 번역 조회에 실패하였습니다", chatID)
			continue
		}

		if err := s.sendText(ctx, chatID, text); err != nil {
			logger.WithField("error", err).Errorf("채팅방(%d) 인사말 발송에 실패하였습니다", chatID)
		}
	}
}

func (s *SchedulerService) sendText(ctx context.Context, chatID int64, text string) error {
	_, err := s.messenger.Call(ctx, "sendMessage", map[string]string{
		"chat_id": strconv.FormatInt(chatID, 10),
		"text":    text,
	})
	return err
}
