// Package log logrus 기반의 애플리케이션 공통 로깅 기능을 제공합니다.
//
// 모든 로그는 component 필드를 통해 발생 위치(서비스/패키지)를 식별할 수 있으며,
// Setup() 호출로 환경(개발/운영)에 맞는 출력 대상과 레벨이 구성됩니다.
package log

import (
	log "github.com/sirupsen/logrus"
)

const (
	// defaultLogDirectoryName 로그 파일이 저장될 디렉토리 이름
	defaultLogDirectoryName = "logs"

	// defaultLogFileExtension 로그 파일의 확장자
	defaultLogFileExtension = "log"
)

// SetDebugMode Debug 모드에 따라 로그 레벨을 설정합니다.
//   - Debug 모드: Trace 레벨 (모든 로그 출력)
//   - 운영 모드: Info 레벨 (Info, Warn, Error, Fatal만 출력)
func SetDebugMode(debug bool) {
	if debug {
		log.SetLevel(log.TraceLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// StandardLogger 전역 logrus 로거를 반환합니다.
// 외부 라이브러리(cron 등)에 로거를 연결할 때 사용합니다.
func StandardLogger() *log.Logger {
	return log.StandardLogger()
}

// MaskSensitiveData 토큰, 키 등의 민감 정보를 안전하게 로깅하기 위해 마스킹합니다.
func MaskSensitiveData(data string) string {
	if data == "" {
		return ""
	}

	if len(data) <= 3 {
		return "***"
	}

	if len(data) <= 12 {
		return data[:4] + "***"
	}

	return data[:4] + "***" + data[len(data)-4:]
}

// WithComponent component 필드를 포함한 로그 Entry를 반환합니다.
// 모든 로그에 component 필드를 일관되게 추가하기 위해 사용합니다.
func WithComponent(component string) *log.Entry {
	return log.WithFields(log.Fields{
		"component": component,
	})
}

// WithComponentAndFields component 필드와 추가 필드를 포함한 로그 Entry를 반환합니다.
func WithComponentAndFields(component string, fields log.Fields) *log.Entry {
	newFields := make(log.Fields, len(fields)+1)
	for k, v := range fields {
		newFields[k] = v
	}
	newFields["component"] = component
	return log.WithFields(newFields)
}
