// Package bot 텔레그램 업데이트 수신(Long Polling)과 명령어 처리를 담당하는 서비스입니다.
package bot

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dvizh-wroclaw/dvizh-bot/internal/config"
	apperrors "github.com/dvizh-wroclaw/dvizh-bot/internal/pkg/errors"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/scraper"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/service/contract"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/telegram"
	"github.com/dvizh-wroclaw/dvizh-bot/pkg/cronx"
	applog "github.com/dvizh-wroclaw/dvizh-bot/pkg/log"
)

const component = "service.bot"

// UpdateSource 텔레그램 업데이트를 수신하는 인바운드 포트입니다.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]telegram.RawUpdate, error)
}

// ContentSource 외부 소스에서 콘텐츠를 수집하는 포트입니다.
type ContentSource interface {
	MemeURLs(ctx context.Context) ([]string, error)
	RandomJoke(ctx context.Context) (scraper.Joke, error)
	RandomInsult(ctx context.Context, languageCode string) (string, error)
	DailyHoroscope(ctx context.Context, sign string) (string, error)
}

//
// BotService
//

// BotService 텔레그램 업데이트를 수신하여 명령어와 콜백을 처리하는 서비스입니다.
type BotService struct {
	config *config.AppConfig

	running   bool
	runningMu sync.Mutex

	updates    UpdateSource
	messenger  contract.Messenger
	repository contract.Repository
	translator contract.Translator
	content    ContentSource

	botUsername string

	commands map[string]commandSpec
	memes    *memeCache

	memeRefreshCron *cron.Cron
}

// NewService 새로운 BotService를 생성합니다.
func NewService(appConfig *config.AppConfig, updates UpdateSource, messenger contract.Messenger,
	repository contract.Repository, translator contract.Translator, content ContentSource,
	botUsername string) *BotService {

	s := &BotService{
		config: appConfig,

		running:   false,
		runningMu: sync.Mutex{},

		updates:    updates,
		messenger:  messenger,
		repository: repository,
		translator: translator,
		content:    content,

		botUsername: botUsername,

		memes: newMemeCache(),
	}
	s.commands = s.commandTable()

	return s
}

// Start 업데이트 수신 루프와 밈 캐시 갱신 스케줄을 시작합니다.
func (s *BotService) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Debug("Bot 서비스 시작중...")

	if s.running {
		serviceStopWG.Done()

		applog.WithComponent(component).Warn("Bot 서비스가 이미 시작됨!!!")

		return nil
	}

	// 최초 밈 수집은 기동을 지연시키지 않도록 백그라운드로 수행합니다.
	go func() {
		if err := s.memes.refresh(serviceStopCtx, s.content); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{"error": err}).
				Warn("최초 밈 캐시 수집에 실패하였습니다")
		}
	}()

	if err := s.startMemeRefreshCron(serviceStopCtx); err != nil {
		serviceStopWG.Done()
		return err
	}

	go s.poll(serviceStopCtx, serviceStopWG)

	s.running = true

	applog.WithComponent(component).Debug("Bot 서비스 시작됨")

	return nil
}

// startMemeRefreshCron 설정된 크론 스펙에 따라 밈 캐시를 주기적으로 갱신합니다.
// 스펙이 비어 있으면 주기 갱신 없이 최초 수집만 수행합니다.
func (s *BotService) startMemeRefreshCron(serviceStopCtx context.Context) error {
	if s.config.Scheduler.MemeRefreshSpec == "" {
		applog.WithComponent(component).Debug("밈 캐시 갱신 스케줄이 설정되지 않아 주기 갱신을 생략합니다")
		return nil
	}

	cronLogger := cron.VerbosePrintfLogger(applog.StandardLogger())
	s.memeRefreshCron = cron.New(
		cron.WithParser(cronx.StandardParser()),
		cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		),
	)

	_, err := s.memeRefreshCron.AddFunc(s.config.Scheduler.MemeRefreshSpec, func() {
		refreshCtx, cancel := context.WithTimeout(serviceStopCtx, time.Minute)
		defer cancel()

		if err := s.memes.refresh(refreshCtx, s.content); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{"error": err}).
				Warn("밈 캐시 갱신에 실패하였습니다")
		}
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, "밈 캐시 갱신 스케줄 등록에 실패하였습니다")
	}

	s.memeRefreshCron.Start()

	go func() {
		<-serviceStopCtx.Done()
		s.memeRefreshCron.Stop()
	}()

	return nil
}
