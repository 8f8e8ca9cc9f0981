package translation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/language"

	apperrors "github.com/dvizh-wroclaw/dvizh-bot/internal/pkg/errors"
)

// Store 언어 코드 하나에 대한 전체 번역 테이블을 한 번에 로드하는 백킹 스토어입니다.
type Store interface {
	Load(languageCode string) (map[string]Value, error)
}

// FileStore 언어 코드명으로 된 JSON 파일(<dir>/<code>.json)에서 번역 테이블을 읽는 Store 구현체입니다.
type FileStore struct {
	dir string
}

// NewFileStore 지정된 디렉토리를 사용하는 FileStore를 생성합니다.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

var _ Store = (*FileStore)(nil)

// Load 지정된 언어의 전체 번역 테이블을 로드합니다.
//
// 언어 코드는 파일 경로 조립에 사용되므로, BCP 47 태그로 파싱되지 않는 값은
// 파일 시스템 접근 전에 거부됩니다.
func (s *FileStore) Load(languageCode string) (map[string]Value, error) {
	if _, err := language.Parse(languageCode); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput,
			fmt.Sprintf("유효한 언어 코드가 아닙니다: '%s'", languageCode))
	}

	filePath := filepath.Join(s.dir, languageCode+".json")
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.NotFound,
				fmt.Sprintf("언어 '%s'의 번역 파일이 존재하지 않습니다: %s", languageCode, filePath))
		}
		return nil, apperrors.Wrap(err, apperrors.System,
			fmt.Sprintf("번역 파일(%s) 읽기에 실패했습니다", filePath))
	}

	table := make(map[string]Value)
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ParsingFailed,
			fmt.Sprintf("번역 파일(%s) 파싱에 실패했습니다", filePath))
	}

	return table, nil
}
