// Package validation 봇 명령어 인자에 대한 공통 유효성 검사 기능을 제공합니다.
//
// 검사 실패 시 반환되는 에러 키는 번역 테이블의 키와 1:1로 대응하며,
// 호출자는 이 키를 그대로 Translation Cache에 조회하여 사용자에게 안내 메시지를 전송합니다.
package validation

import (
	"time"
)

// 번역 테이블과 연결되는 검사 실패 키
const (
	KeyMissingArguments      = "error_missing_arguments"
	KeyInsufficientArguments = "error_insufficient_arguments"
	KeyInvalidDate           = "error_invalid_date"
)

// dateLayout 봇이 허용하는 유일한 날짜 형식(DD.MM.YYYY)입니다.
const dateLayout = "02.01.2006"

// ArgumentCount 명령어 인자의 개수가 요구 개수와 정확히 일치하는지 검사합니다.
//
// 인자가 하나도 없으면 KeyMissingArguments를, 개수가 다르면 KeyInsufficientArguments를
// 에러 키로 반환합니다. 검사에 통과하면 빈 문자열을 반환합니다.
func ArgumentCount(args []string, required int) (errorKey string) {
	if required > 0 && len(args) == 0 {
		return KeyMissingArguments
	}
	if len(args) != required {
		return KeyInsufficientArguments
	}
	return ""
}

// DateFormat 문자열이 실제 달력에 존재하는 DD.MM.YYYY 날짜인지 검사합니다.
//
// 형식이 맞지 않거나 31.02.2025처럼 존재하지 않는 날짜면 KeyInvalidDate를 반환합니다.
func DateFormat(date string) (errorKey string) {
	parsed, err := time.Parse(dateLayout, date)
	if err != nil {
		return KeyInvalidDate
	}

	// time.Parse는 일부 범위 초과 값을 보정할 수 있으므로 재포맷하여 원문과 대조합니다.
	if parsed.Format(dateLayout) != date {
		return KeyInvalidDate
	}

	return ""
}
