// Package scraper 외부 웹 페이지와 공개 API에서 콘텐츠(밈, 운세, 농담 등)를 수집합니다.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html/charset"

	apperrors "github.com/dvizh-wroclaw/dvizh-bot/internal/pkg/errors"
)

// Fetcher HTTP 요청을 수행하는 인터페이스
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPFetcher 기본 타임아웃(30초) 및 User-Agent 자동 추가 기능이 내장된 HTTP 클라이언트 구현체입니다.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher 기본 타임아웃(30초) 설정이 포함된 새로운 HTTPFetcher 인스턴스를 생성합니다.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Do HTTP 요청을 실행합니다.
// 요청 헤더에 User-Agent가 없는 경우, 기본값(Chrome)을 자동으로 추가하여 봇 차단을 방지합니다.
func (h *HTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	}
	return h.client.Do(req)
}

// fetchHTMLDocument 지정된 URL의 HTML 문서를 가져와 goquery.Document로 파싱합니다.
// 응답 헤더의 Content-Type을 분석하여, 비 UTF-8 인코딩 페이지도 자동으로 UTF-8로 변환하여 처리합니다.
func fetchHTMLDocument(ctx context.Context, fetcher Fetcher, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ExecutionFailed, fmt.Sprintf("HTML 페이지(%s) 요청 생성에 실패했습니다", url))
	}

	resp, err := fetcher.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("HTML 페이지(%s) 요청 중 네트워크 에러가 발생했습니다", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.ExecutionFailed, fmt.Sprintf("HTML 페이지(%s) 요청이 실패했습니다. 상태 코드: %s", url, resp.Status))
	}

	utf8Reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ExecutionFailed, fmt.Sprintf("페이지(%s)의 인코딩 변환이 실패하였습니다", url))
	}

	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ParsingFailed, fmt.Sprintf("불러온 페이지(%s)의 데이터 파싱이 실패하였습니다", url))
	}

	return doc, nil
}

// fetchJSON 지정된 URL의 JSON 응답 본문을 읽어 gjson.Result로 반환합니다.
func fetchJSON(ctx context.Context, fetcher Fetcher, url string) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return gjson.Result{}, apperrors.Wrap(err, apperrors.ExecutionFailed, fmt.Sprintf("JSON 요청 생성에 실패했습니다. (URL: %s)", url))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := fetcher.Do(req)
	if err != nil {
		return gjson.Result{}, apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("JSON API(%s) 요청 전송 중 에러가 발생했습니다", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, apperrors.New(apperrors.ExecutionFailed, fmt.Sprintf("JSON API(%s) 요청이 실패했습니다. 상태 코드: %s", url, resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("JSON API(%s) 응답 읽기에 실패했습니다", url))
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, apperrors.New(apperrors.ParsingFailed, fmt.Sprintf("JSON API(%s) 응답이 유효한 JSON이 아닙니다", url))
	}

	return gjson.ParseBytes(body), nil
}
