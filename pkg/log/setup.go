package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// nopCloser 파일 출력을 사용하지 않을 때 반환되는 no-op Closer입니다.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup 로그 시스템을 초기화하고, 열린 로그 파일을 정리할 Closer를 반환합니다.
//
// 파일 출력은 lumberjack을 통해 크기/보관일 기준으로 롤링되며,
// 반환된 Closer는 애플리케이션 종료 시점에 반드시 Close()되어야 합니다.
func Setup(opts Options) (io.Closer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	log.SetLevel(opts.Level)
	log.SetReportCaller(opts.ReportCaller)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			function = fmt.Sprintf("%s(line:%d)", frame.Function, frame.Line)
			if opts.CallerPathPrefix != "" && strings.HasPrefix(function, opts.CallerPathPrefix) {
				function = "..." + function[len(opts.CallerPathPrefix):]
			}

			return function, ""
		},
	})

	// 파일 출력을 사용하지 않는 경우 표준 출력만 구성합니다.
	if opts.Dir == "" {
		log.SetOutput(os.Stdout)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("로그 디렉토리(%s) 생성 실패: %w", opts.Dir, err)
	}

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, fmt.Sprintf("%s.%s", opts.Name, defaultLogFileExtension)),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge,
		LocalTime:  true,
	}

	if opts.EnableConsoleLog {
		log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	} else {
		log.SetOutput(logFile)
	}

	return logFile, nil
}
