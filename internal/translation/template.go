package translation

import "strings"

// Render 번역 템플릿의 "{이름}" 자리 표시자를 주어진 값으로 치환합니다.
//
// 값에 없는 자리 표시자는 그대로 남습니다. 템플릿 오류로 알림 발송 전체가
// 중단되는 것보다 미치환 텍스트가 노출되는 쪽이 낫기 때문입니다.
func Render(template string, values map[string]string) string {
	rendered := template
	for name, value := range values {
		rendered = strings.ReplaceAll(rendered, "{"+name+"}", value)
	}
	return rendered
}
