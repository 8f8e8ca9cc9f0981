package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "github.com/dvizh-wroclaw/dvizh-bot/internal/pkg/errors"
)

// 수집 대상 외부 소스들입니다.
const (
	memeSiteURL      = "https://admem.net/"
	jokeAPIURL       = "https://official-joke-api.appspot.com/random_joke"
	insultAPIURL     = "https://evilinsult.com/generate_insult.php?lang=%s&type=json"
	horoscopeAPIURL  = "https://horoscope-app-api.vercel.app/api/v1/get-horoscope/daily?sign=%s&day=today"
	memeImgSelector  = "img[src*='storage/meme']"
	defaultImageHost = "https://admem.net"
)

// Joke 농담 하나입니다. 도입부와 마무리로 구성됩니다.
type Joke struct {
	Setup     string
	Punchline string
}

// Source 외부 소스에서 콘텐츠를 수집하는 수집기입니다.
type Source struct {
	fetcher Fetcher
}

// NewSource 지정된 Fetcher를 사용하는 수집기를 생성합니다.
func NewSource(fetcher Fetcher) *Source {
	return &Source{fetcher: fetcher}
}

// MemeURLs 밈 사이트의 메인 페이지에서 밈 이미지 URL 목록을 수집합니다.
func (s *Source) MemeURLs(ctx context.Context) ([]string, error) {
	doc, err := fetchHTMLDocument(ctx, s.fetcher, memeSiteURL)
	if err != nil {
		return nil, err
	}

	urls := collectMemeURLs(doc)
	if len(urls) == 0 {
		return nil, apperrors.New(apperrors.ExecutionFailed,
			"밈 이미지를 찾을 수 없습니다. 페이지 구조가 변경되었는지 확인하세요")
	}

	return urls, nil
}

// collectMemeURLs 문서에서 밈 이미지 URL을 추출합니다. 상대 경로는 절대 URL로 변환됩니다.
func collectMemeURLs(doc *goquery.Document) []string {
	var urls []string
	doc.Find(memeImgSelector).Each(func(_ int, selection *goquery.Selection) {
		src, exists := selection.Attr("src")
		if !exists || src == "" {
			return
		}

		if strings.HasPrefix(src, "/") {
			src = defaultImageHost + src
		}
		urls = append(urls, src)
	})

	return urls
}

// RandomJoke 농담 API에서 무작위 농담 하나를 가져옵니다.
func (s *Source) RandomJoke(ctx context.Context) (Joke, error) {
	result, err := fetchJSON(ctx, s.fetcher, jokeAPIURL)
	if err != nil {
		return Joke{}, err
	}

	joke := Joke{
		Setup:     result.Get("setup").String(),
		Punchline: result.Get("punchline").String(),
	}
	if joke.Setup == "" || joke.Punchline == "" {
		return Joke{}, apperrors.New(apperrors.ParsingFailed, "농담 API 응답에 필수 필드가 없습니다")
	}

	return joke, nil
}

// RandomInsult 지정된 언어의 무작위 장난 문구 하나를 가져옵니다.
func (s *Source) RandomInsult(ctx context.Context, languageCode string) (string, error) {
	result, err := fetchJSON(ctx, s.fetcher, fmt.Sprintf(insultAPIURL, languageCode))
	if err != nil {
		return "", err
	}

	insult := result.Get("insult").String()
	if insult == "" {
		return "", apperrors.New(apperrors.ParsingFailed, "장난 문구 API 응답에 필수 필드가 없습니다")
	}

	return insult, nil
}

// DailyHoroscope 지정된 별자리의 오늘 운세를 가져옵니다.
//
// sign은 영문 별자리 이름(소문자)입니다. ("aries", "taurus", ...)
func (s *Source) DailyHoroscope(ctx context.Context, sign string) (string, error) {
	result, err := fetchJSON(ctx, s.fetcher, fmt.Sprintf(horoscopeAPIURL, sign))
	if err != nil {
		return "", err
	}

	horoscope := result.Get("data.horoscope_data").String()
	if horoscope == "" {
		return "", apperrors.New(apperrors.ParsingFailed, "운세 API 응답에 필수 필드가 없습니다")
	}

	return horoscope, nil
}
