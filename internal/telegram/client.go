// Package telegram 텔레그램 Bot API 호출 클라이언트를 제공합니다.
//
// 업데이트 수신(getUpdates)과 아웃바운드 호출(sendMessage 등) 모두 응답의 result
// 필드를 원본 JSON 그대로 다루므로, 텔레그램이 새로운 필드를 추가하더라도
// 역직렬화 실패 없이 처리를 계속할 수 있습니다.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	apperrors "github.com/dvizh-wroclaw/dvizh-bot/internal/pkg/errors"
	applog "github.com/dvizh-wroclaw/dvizh-bot/pkg/log"
)

const component = "telegram.client"

// 텔레그램 전역 발신 제한(초당 약 30건)을 넘지 않도록 하는 보수적인 한도입니다.
const (
	sendRatePerSecond = 25
	sendBurst         = 5
)

// RawUpdate 수신된 업데이트 하나입니다. 페이로드는 파싱하지 않은 원본 JSON입니다.
type RawUpdate struct {
	UpdateID int64
	Raw      json.RawMessage
}

// Client 텔레그램 Bot API 클라이언트입니다. 동시 호출에 안전합니다.
type Client struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
}

// NewClient 토큰 유효성을 확인(getMe)한 뒤 클라이언트를 생성합니다.
//
// apiEndpoint가 빈 문자열이면 텔레그램 기본 엔드포인트를 사용합니다.
func NewClient(token, apiEndpoint string) (*Client, error) {
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, apiEndpoint)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, "텔레그램 Bot API 접속에 실패하였습니다")
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"bot_username": bot.Self.UserName,
	}).Info("텔레그램 Bot API 접속 완료")

	return &Client{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(sendRatePerSecond), sendBurst),
	}, nil
}

// BotUsername 접속된 봇 계정의 사용자명을 반환합니다.
func (c *Client) BotUsername() string {
	return c.bot.Self.UserName
}

// GetUpdates Long Polling으로 업데이트 목록을 수신합니다.
//
// offset은 텔레그램 getUpdates의 offset 파라미터로 그대로 전달되며, 0이면 생략됩니다.
// 반환되는 업데이트는 update_id 오름차순입니다. 수신 배치 중 update_id를 읽을 수
// 없는 원소가 있으면 전체 배치를 에러로 처리합니다. (offset 전진 판단이 불가능하므로)
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]RawUpdate, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Timeout, "업데이트 수신이 중단되었습니다")
	}

	params := tgbotapi.Params{
		"timeout": strconv.Itoa(timeoutSeconds),
	}
	if offset > 0 {
		params["offset"] = strconv.FormatInt(offset, 10)
	}

	resp, err := c.bot.MakeRequest("getUpdates", params)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, "업데이트 수신(getUpdates)에 실패하였습니다")
	}

	var rawUpdates []json.RawMessage
	if err := json.Unmarshal(resp.Result, &rawUpdates); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ParsingFailed, "업데이트 목록 파싱에 실패하였습니다")
	}

	updates := make([]RawUpdate, 0, len(rawUpdates))
	for _, raw := range rawUpdates {
		updateID := gjson.GetBytes(raw, "update_id")
		if !updateID.Exists() {
			return nil, apperrors.Newf(apperrors.ParsingFailed, "update_id가 없는 업데이트가 수신되었습니다: %s", raw)
		}

		updates = append(updates, RawUpdate{
			UpdateID: updateID.Int(),
			Raw:      raw,
		})
	}

	return updates, nil
}

// Call 텔레그램 Bot API 메서드를 호출하고 응답의 result 필드를 반환합니다.
//
// 전역 발신 제한을 지키기 위해 호출 전 Rate Limiter를 통과해야 하며,
// ctx 취소 시 대기 중이던 호출은 즉시 에러로 반환됩니다.
func (c *Client) Call(ctx context.Context, method string, params map[string]string) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Timeout,
			fmt.Sprintf("텔레그램 API 호출(%s) 대기가 중단되었습니다", method))
	}

	resp, err := c.bot.MakeRequest(method, tgbotapi.Params(params))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ExecutionFailed,
			fmt.Sprintf("텔레그램 API 호출(%s)에 실패하였습니다", method))
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"method": method,
	}).Debug("텔레그램 API 호출 완료")

	return resp.Result, nil
}
