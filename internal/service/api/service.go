// Package api 관리용 HTTP API 서비스입니다.
//
// 헬스 체크와 전체 채팅방 공지 전송 엔드포인트를 제공합니다. 공지 전송은
// 설정된 App Key로 인증된 요청만 허용됩니다.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/dvizh-wroclaw/dvizh-bot/internal/config"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/service/contract"
	applog "github.com/dvizh-wroclaw/dvizh-bot/pkg/log"
)

const component = "service.api"

// shutdownTimeout 서버 종료 시 대기 시간
const shutdownTimeout = 5 * time.Second

//
// AdminAPIService
//

// AdminAPIService 관리 API 서버의 생명주기를 관리하는 서비스입니다.
type AdminAPIService struct {
	config *config.AppConfig

	running   bool
	runningMu sync.Mutex

	messenger  contract.Messenger
	repository contract.Repository
}

// NewService 새로운 AdminAPIService를 생성합니다.
func NewService(appConfig *config.AppConfig, messenger contract.Messenger, repository contract.Repository) *AdminAPIService {
	return &AdminAPIService{
		config: appConfig,

		running:   false,
		runningMu: sync.Mutex{},

		messenger:  messenger,
		repository: repository,
	}
}

// Start HTTP 서버를 시작합니다.
func (s *AdminAPIService) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Debug("관리 API 서비스 시작중...")

	if s.running {
		serviceStopWG.Done()

		applog.WithComponent(component).Warn("관리 API 서비스가 이미 시작됨!!!")

		return nil
	}

	go s.runServiceLoop(serviceStopCtx, serviceStopWG)

	s.running = true

	applog.WithComponent(component).Debug("관리 API 서비스 시작됨")

	return nil
}

// runServiceLoop 서버 설정, HTTP 서버 시작, Shutdown 대기를 순차적으로 수행합니다.
func (s *AdminAPIService) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	e := s.setupServer()

	httpServerDone := make(chan struct{})
	go s.startHTTPServer(e, httpServerDone)

	s.waitForShutdown(serviceStopCtx, e, httpServerDone)
}

// setupServer Echo 서버 및 라우트를 설정합니다.
func (s *AdminAPIService) setupServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = s.config.Debug
	e.Logger = echoLogger{Logger: applog.StandardLogger()}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger())

	h := newHandler(s.config, s.messenger, s.repository)

	e.GET("/healthz", h.healthCheck)

	grp := e.Group("/api/v1")
	{
		grp.POST("/announcements", h.publishAnnouncement)
	}

	return e
}

func (s *AdminAPIService) startHTTPServer(e *echo.Echo, done chan struct{}) {
	defer close(done)

	listenAddress := s.config.AdminAPI.ListenAddress
	applog.WithComponentAndFields(component, log.Fields{
		"listen_address": listenAddress,
	}).Debug("관리 API 서비스 > http 서버 시작")

	if err := e.Start(listenAddress); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			applog.WithComponent(component).Info("관리 API 서비스 > http 서버 중지됨")
			return
		}

		applog.WithComponentAndFields(component, log.Fields{
			"listen_address": listenAddress,
			"error":          err,
		}).Error("관리 API 서비스 > http 서버를 구성하는 중에 치명적인 오류가 발생하였습니다")
	}
}

// waitForShutdown 종료 신호를 대기하고 Graceful Shutdown을 처리합니다.
func (s *AdminAPIService) waitForShutdown(serviceStopCtx context.Context, e *echo.Echo, httpServerDone chan struct{}) {
	<-serviceStopCtx.Done()

	applog.WithComponent(component).Debug("관리 API 서비스 중지중...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		applog.WithComponentAndFields(component, log.Fields{"error": err}).
			Error("관리 API 서비스 > http 서버 종료 중 오류가 발생하였습니다")
	}

	<-httpServerDone

	applog.WithComponent(component).Debug("관리 API 서비스 중지됨")
}
