package api

import (
	"io"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/sirupsen/logrus"
)

// echoLogger Echo의 log.Logger 인터페이스를 구현하는 Logrus 어댑터입니다.
//
// Echo는 자체 Logger 인터페이스(github.com/labstack/gommon/log.Logger)를 정의하고
// 있으며, 아래 메서드들은 대부분 Logrus의 해당 메서드로 단순 위임합니다.
type echoLogger struct {
	*logrus.Logger
}

func (l echoLogger) Output() io.Writer {
	return l.Out
}

func (l echoLogger) SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

func (l echoLogger) Prefix() string {
	return ""
}

func (l echoLogger) SetPrefix(string) {
	// Echo의 Prefix 기능은 사용하지 않음
}

// Level Logrus의 로그 레벨을 Echo의 로그 레벨로 변환합니다.
func (l echoLogger) Level() log.Lvl {
	switch l.Logger.Level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return log.DEBUG
	case logrus.InfoLevel:
		return log.INFO
	case logrus.WarnLevel:
		return log.WARN
	case logrus.ErrorLevel:
		return log.ERROR
	default:
		return log.OFF
	}
}

// SetLevel Echo의 로그 레벨을 Logrus의 로그 레벨로 변환하여 설정합니다.
func (l echoLogger) SetLevel(lvl log.Lvl) {
	switch lvl {
	case log.DEBUG:
		logrus.SetLevel(logrus.DebugLevel)
	case log.INFO:
		logrus.SetLevel(logrus.InfoLevel)
	case log.WARN:
		logrus.SetLevel(logrus.WarnLevel)
	case log.ERROR:
		logrus.SetLevel(logrus.ErrorLevel)
	}
}

func (l echoLogger) SetHeader(string) {
	// Echo의 Header 기능은 사용하지 않음
}

func (l echoLogger) Print(i ...interface{}) { logrus.Print(i...) }
func (l echoLogger) Debug(i ...interface{}) { logrus.Debug(i...) }
func (l echoLogger) Info(i ...interface{})  { logrus.Info(i...) }
func (l echoLogger) Warn(i ...interface{})  { logrus.Warn(i...) }
func (l echoLogger) Error(i ...interface{}) { logrus.Error(i...) }
func (l echoLogger) Fatal(i ...interface{}) { logrus.Fatal(i...) }
func (l echoLogger) Panic(i ...interface{}) { logrus.Panic(i...) }

func (l echoLogger) Printf(format string, args ...interface{}) { logrus.Printf(format, args...) }
func (l echoLogger) Debugf(format string, args ...interface{}) { logrus.Debugf(format, args...) }
func (l echoLogger) Infof(format string, args ...interface{})  { logrus.Infof(format, args...) }
func (l echoLogger) Warnf(format string, args ...interface{})  { logrus.Warnf(format, args...) }
func (l echoLogger) Errorf(format string, args ...interface{}) { logrus.Errorf(format, args...) }
func (l echoLogger) Fatalf(format string, args ...interface{}) { logrus.Fatalf(format, args...) }
func (l echoLogger) Panicf(format string, args ...interface{}) { logrus.Panicf(format, args...) }

func (l echoLogger) Printj(j log.JSON) { logrus.WithFields(logrus.Fields(j)).Print() }
func (l echoLogger) Debugj(j log.JSON) { logrus.WithFields(logrus.Fields(j)).Debug() }
func (l echoLogger) Infoj(j log.JSON)  { logrus.WithFields(logrus.Fields(j)).Info() }
func (l echoLogger) Warnj(j log.JSON)  { logrus.WithFields(logrus.Fields(j)).Warn() }
func (l echoLogger) Errorj(j log.JSON) { logrus.WithFields(logrus.Fields(j)).Error() }
func (l echoLogger) Fatalj(j log.JSON) { logrus.WithFields(logrus.Fields(j)).Fatal() }
func (l echoLogger) Panicj(j log.JSON) { logrus.WithFields(logrus.Fields(j)).Panic() }

// requestLogger HTTP 요청/응답 정보를 Logrus로 기록하는 미들웨어입니다.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()

			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			logrus.WithFields(logrus.Fields{
				"remote_ip":     c.RealIP(),
				"method":        req.Method,
				"uri":           req.RequestURI,
				"status":        res.Status,
				"latency_human": elapsed.String(),
				"bytes_out":     strconv.FormatInt(res.Size, 10),
				"request_id":    res.Header().Get(echo.HeaderXRequestID),
			}).Info("http request")

			return nil
		}
	}
}
