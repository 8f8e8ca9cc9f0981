package bot

import "strings"

// tokenize 명령어 텍스트를 인자 목록으로 분해합니다.
//
// 공백이 토큰 구분자이며, 큰따옴표(" “ ”)와 대괄호([ ])는 인용 구간을 토글합니다.
// 인용 구간 안의 공백은 구분자로 취급되지 않으므로, 공백이 포함된 이벤트 제목이나
// 장소를 하나의 인자로 전달할 수 있습니다. 인용 문자 자체는 토큰에 포함되지 않습니다.
func tokenize(text string) []string {
	var (
		tokens   []string
		current  strings.Builder
		inQuotes bool
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch r {
		case '"', '“', '”', '[', ']':
			inQuotes = !inQuotes
		case ' ':
			if inQuotes {
				current.WriteRune(r)
			} else {
				flush()
			}
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}

// parseCommand 메시지 텍스트에서 명령어 이름과 인자를 추출합니다.
//
// 명령어 이름은 소문자로 정규화되며, 그룹 채팅에서 붙는 "@사용자명" 접미사는
// 누구를 향한 것이든 제거됩니다. 명령어 형식이 아니면 ok=false를 반환합니다.
func parseCommand(text string) (name string, args []string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return "", nil, false
	}

	name = strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}

	return name, tokens[1:], true
}
