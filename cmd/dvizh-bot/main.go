package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/dvizh-wroclaw/dvizh-bot/internal/config"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/pkg/version"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/scraper"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/service"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/service/api"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/service/bot"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/service/scheduler"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/storage/postgres"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/telegram"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/translation"
	applog "github.com/dvizh-wroclaw/dvizh-bot/pkg/log"
)

const banner = `
      _         _         _         _             _
   __| | __   _(_) ______| |__     | |__    ___  | |_
  / _' | \ \ / / ||_  / _' | _ \   | '_ \  / _ \ | __|
 | (_| |  \ V /| | / / (_| | | |   | |_) || (_) || |_
  \__,_|   \_/ |_|/___\__,_|_| |_| |_.__/  \___/  \__|  %s
--------------------------------------------------------------------------------
`

func main() {
	// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행한다)
	configFile := config.DefaultFilename
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}

	appConfig, err := config.LoadWithFile(configFile)
	if err != nil {
		// 로거 초기화 전이므로 표준 에러에 출력
		fmt.Fprintf(os.Stderr, "[FATAL] 환경설정 로드 실패: %v\n", err)
		os.Exit(1)
	}

	// 2. 로그 시스템 초기화
	var logOpts applog.Options
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName)
	} else {
		logOpts = applog.NewProductionOptions(config.AppName)
	}

	appLogCloser, err := applog.Setup(logOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] 로그 시스템 초기화 실패: %v\n", err)
		os.Exit(1)
	}
	defer appLogCloser.Close()

	applog.SetDebugMode(appConfig.Debug)

	buildInfo := version.Get()
	fmt.Printf(banner, buildInfo.Version)

	applog.WithComponentAndFields("main", log.Fields{
		"version": buildInfo.String(),
		"env":     map[bool]string{true: "development", false: "production"}[appConfig.Debug],
	}).Info("서버 초기화 시작")

	// 3. 인프라 구성 요소 초기화
	bootstrapCtx, bootstrapCancel := context.WithCancel(context.Background())
	defer bootstrapCancel()

	repository, err := postgres.NewRepository(bootstrapCtx, appConfig.Database.DSN, int32(appConfig.Database.MaxConns))
	if err != nil {
		log.Fatalf("데이터베이스 초기화 실패: %v", err)
	}
	defer repository.Close()

	telegramClient, err := telegram.NewClient(appConfig.Telegram.Token, appConfig.Telegram.APIEndpoint)
	if err != nil {
		log.Fatalf("텔레그램 클라이언트 초기화 실패: %v", err)
	}

	translator := translation.NewCache(repository,
		translation.NewFileStore(appConfig.Translations.Dir), appConfig.Translations.DefaultLanguage)

	contentSource := scraper.NewSource(scraper.NewHTTPFetcher())

	location, err := appConfig.Scheduler.Location()
	if err != nil {
		log.Fatalf("스케줄러 타임존 초기화 실패: %v", err)
	}

	// 4. 서비스를 생성하고 초기화한다.
	botService := bot.NewService(appConfig, telegramClient, telegramClient, repository,
		translator, contentSource, appConfig.Telegram.BotUsername)
	schedulerService := scheduler.NewService(appConfig, telegramClient, repository, translator, location)

	services := []service.Service{botService, schedulerService}
	if appConfig.AdminAPI.Enabled {
		services = append(services, api.NewService(appConfig, telegramClient, repository))
	}

	// 5. 서비스를 시작한다.
	serviceStopCtx, cancel := context.WithCancel(context.Background())
	serviceStopWG := &sync.WaitGroup{}

	for _, s := range services {
		serviceStopWG.Add(1)
		if err := s.Start(serviceStopCtx, serviceStopWG); err != nil {
			applog.WithComponentAndFields("main", log.Fields{
				"error": err,
			}).Error("서비스 초기화 실패")

			cancel() // 다른 서비스들도 종료
			serviceStopWG.Wait()

			log.Fatal("서비스 초기화 실패로 프로그램을 종료합니다")
		}
	}

	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)

	applog.WithComponent("main").Info("서버 가동 완료")

	<-termC // Blocks here until interrupted

	applog.WithComponent("main").Info("Shutdown signal received")
	cancel()             // Signal cancellation to context.Context
	serviceStopWG.Wait() // Block here until all services are done
}
