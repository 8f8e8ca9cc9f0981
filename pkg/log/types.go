package log

import (
	"github.com/sirupsen/logrus"
)

// Level logrus의 로그 레벨 타입 별칭입니다.
type Level = logrus.Level

const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
	TraceLevel = logrus.TraceLevel
)

// Fields 로그 필드 맵 타입 별칭입니다.
type Fields = logrus.Fields

// Entry 로그 엔트리 타입 별칭입니다.
type Entry = logrus.Entry
