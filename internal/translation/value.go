// Package translation 채팅방 언어 설정과 언어별 번역 테이블의 2단계 캐시를 제공합니다.
package translation

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/dvizh-wroclaw/dvizh-bot/internal/pkg/errors"
)

// Value 번역 테이블의 값 하나입니다. 단일 문자열 또는 문자열 목록 중 하나의 형태를 가집니다.
//
// 호출자는 기대하는 형태에 맞는 접근자(Text/List)를 사용해야 하며,
// 형태가 일치하지 않으면 에러가 반환됩니다. (패닉하지 않습니다)
type Value struct {
	text   string
	list   []string
	isList bool
}

// NewText 단일 문자열 형태의 Value를 생성합니다.
func NewText(text string) Value {
	return Value{text: text}
}

// NewList 문자열 목록 형태의 Value를 생성합니다.
func NewList(list []string) Value {
	return Value{list: list, isList: true}
}

// Text 단일 문자열 값을 반환합니다. 목록 형태라면 에러를 반환합니다.
func (v Value) Text() (string, error) {
	if v.isList {
		return "", apperrors.New(apperrors.ParsingFailed, "단일 문자열 번역 값을 기대했으나 목록 형태입니다")
	}
	return v.text, nil
}

// List 문자열 목록 값을 반환합니다. 단일 문자열 형태라면 에러를 반환합니다.
func (v Value) List() ([]string, error) {
	if !v.isList {
		return nil, apperrors.New(apperrors.ParsingFailed, "목록 번역 값을 기대했으나 단일 문자열 형태입니다")
	}
	return v.list, nil
}

// UnmarshalJSON JSON 문자열 또는 문자열 배열을 Value로 역직렬화합니다.
func (v *Value) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*v = NewText(text)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = NewList(list)
		return nil
	}

	return apperrors.New(apperrors.ParsingFailed,
		fmt.Sprintf("번역 값은 문자열 또는 문자열 배열이어야 합니다: %s", string(data)))
}
