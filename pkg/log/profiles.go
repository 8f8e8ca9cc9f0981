package log

// NewProductionOptions 운영(Production) 환경에 최적화된 로그 설정을 반환합니다.
func NewProductionOptions(appName string) Options {
	return Options{
		Name:  appName,
		Dir:   defaultLogDirectoryName,
		Level: InfoLevel,

		MaxAge:     30, // 30일 보관
		MaxSizeMB:  100,
		MaxBackups: 10,

		EnableConsoleLog: false,

		ReportCaller:     true,
		CallerPathPrefix: "",
	}
}

// NewDevelopmentOptions 개발(Development) 환경에 최적화된 로그 설정을 반환합니다.
func NewDevelopmentOptions(appName string) Options {
	return Options{
		Name:  appName,
		Dir:   "", // 개발 환경에서는 파일 출력을 사용하지 않습니다.
		Level: TraceLevel,

		MaxAge: 1,

		EnableConsoleLog: true,

		ReportCaller:     true,
		CallerPathPrefix: "",
	}
}
