package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/dvizh-wroclaw/dvizh-bot/internal/config"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/service/contract"
	applog "github.com/dvizh-wroclaw/dvizh-bot/pkg/log"
)

type handler struct {
	config     *config.AppConfig
	messenger  contract.Messenger
	repository contract.Repository
}

func newHandler(appConfig *config.AppConfig, messenger contract.Messenger, repository contract.Repository) *handler {
	return &handler{
		config:     appConfig,
		messenger:  messenger,
		repository: repository,
	}
}

// announcementRequest 전체 공지 전송 요청입니다.
type announcementRequest struct {
	Message string `json:"message"`
}

// announcementResponse 전체 공지 전송 결과입니다.
type announcementResponse struct {
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

// healthCheck 서비스 동작 여부를 확인합니다.
func (h *handler) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// publishAnnouncement 등록된 모든 채팅방에 공지 메시지를 전송합니다.
//
// app_key 쿼리 파라미터로 인증하며, 일부 채팅방 전송이 실패해도 나머지 채팅방에
// 대한 전송은 계속됩니다. 응답에 성공/실패 건수가 담깁니다.
func (h *handler) publishAnnouncement(c echo.Context) error {
	appKey := c.QueryParam("app_key")
	if appKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "app_key는 필수입니다")
	}
	if subtle.ConstantTimeCompare([]byte(appKey), []byte(h.config.AdminAPI.AppKey)) != 1 {
		h.log(c).Warn("잘못된 app_key로 공지 전송이 시도되었습니다")
		return echo.NewHTTPError(http.StatusUnauthorized, "인증에 실패하였습니다")
	}

	req := new(announcementRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "잘못된 요청 형식입니다")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message는 필수입니다")
	}

	ctx := c.Request().Context()

	chatIDs, err := h.repository.AllChatIDs(ctx)
	if err != nil {
		h.log(c).WithField("error", err).Error("채팅방 목록 조회에 실패하였습니다")
		return echo.NewHTTPError(http.StatusInternalServerError, "채팅방 목록 조회에 실패하였습니다")
	}

	response := announcementResponse{}
	for _, chatID := range chatIDs {
		_, err := h.messenger.Call(ctx, "sendMessage", map[string]string{
			"chat_id": strconv.FormatInt(chatID, 10),
			"text":    req.Message,
		})
		if err != nil {
			h.log(c).WithFields(log.Fields{"chat_id": chatID, "error": err}).
				Warn("채팅방 공지 전송에 실패하였습니다")
			response.Failed++
			continue
		}
		response.Delivered++
	}

	h.log(c).WithFields(log.Fields{
		"delivered": response.Delivered,
		"failed":    response.Failed,
	}).Info("전체 공지 전송 완료")

	return c.JSON(http.StatusOK, response)
}

// log 공통 로깅 필드가 설정된 로거 엔트리를 반환합니다.
func (h *handler) log(c echo.Context) *log.Entry {
	return applog.WithComponentAndFields(component, log.Fields{
		"endpoint":   c.Path(),
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
	})
}
