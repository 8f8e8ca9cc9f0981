// Package postgres PostgreSQL 기반의 contract.Repository 구현을 제공합니다.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	apperrors "github.com/dvizh-wroclaw/dvizh-bot/internal/pkg/errors"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/service/contract"
	applog "github.com/dvizh-wroclaw/dvizh-bot/pkg/log"
)

const component = "storage.postgres"

// fallbackLanguageCode 등록되지 않았거나 언어가 설정되지 않은 채팅방에 적용되는 언어입니다.
const fallbackLanguageCode = "en"

// 스키마는 기동 시 멱등하게 생성됩니다. 날짜 컬럼은 모두 DD.MM.YYYY 형식의 텍스트로
// 저장하며, 순서 비교가 필요한 질의에서만 to_date로 변환합니다.
const schema = `
CREATE TABLE IF NOT EXISTS chat (
	id            BIGINT PRIMARY KEY,
	title         TEXT NOT NULL DEFAULT '',
	language_code TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS app_user (
	username      TEXT PRIMARY KEY,
	first_name    TEXT NOT NULL DEFAULT '',
	birthdate     TEXT NOT NULL DEFAULT '',
	language_code TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS member (
	username TEXT   NOT NULL,
	chat_id  BIGINT NOT NULL,
	PRIMARY KEY (username, chat_id)
);

CREATE TABLE IF NOT EXISTS admin (
	username TEXT   NOT NULL,
	chat_id  BIGINT NOT NULL,
	PRIMARY KEY (username, chat_id)
);

CREATE TABLE IF NOT EXISTS event (
	chat_id     BIGINT NOT NULL,
	title       TEXT   NOT NULL,
	date        TEXT   NOT NULL,
	location    TEXT   NOT NULL DEFAULT '',
	description TEXT   NOT NULL DEFAULT '',
	PRIMARY KEY (chat_id, title)
);
`

// Repository contract.Repository의 PostgreSQL 구현체입니다. 동시 호출에 안전합니다.
type Repository struct {
	pool *pgxpool.Pool
}

var _ contract.Repository = (*Repository)(nil)

// NewRepository 커넥션 풀을 생성하고 스키마를 준비합니다.
func NewRepository(ctx context.Context, dsn string, maxConns int32) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, "데이터베이스 DSN 파싱에 실패하였습니다")
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, "데이터베이스 접속에 실패하였습니다")
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(err, apperrors.System, "데이터베이스 스키마 준비에 실패하였습니다")
	}

	applog.WithComponent(component).Info("데이터베이스 접속 및 스키마 준비 완료")

	return &Repository{pool: pool}, nil
}

// Close 커넥션 풀을 닫습니다.
func (r *Repository) Close() {
	r.pool.Close()
}

// UpsertChat 채팅방을 등록하거나 제목을 갱신합니다. 기존 언어 설정은 보존됩니다.
func (r *Repository) UpsertChat(ctx context.Context, chat contract.Chat) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat (id, title, language_code)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title`,
		chat.ID, chat.Title, chat.LanguageCode)
	if err != nil {
		return apperrors.Wrap(err, apperrors.System,
			fmt.Sprintf("채팅방(%d) 저장에 실패하였습니다", chat.ID))
	}
	return nil
}

// ChatLanguage 채팅방의 언어 코드를 조회합니다.
// 등록되지 않았거나 언어가 설정되지 않은 채팅방은 기본 언어를 반환합니다.
func (r *Repository) ChatLanguage(ctx context.Context, chatID int64) (string, error) {
	var languageCode string
	err := r.pool.QueryRow(ctx, `SELECT language_code FROM chat WHERE id = $1`, chatID).Scan(&languageCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return fallbackLanguageCode, nil
	}
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.System,
			fmt.Sprintf("채팅방(%d) 언어 조회에 실패하였습니다", chatID))
	}

	if languageCode == "" {
		return fallbackLanguageCode, nil
	}
	return languageCode, nil
}

// SetChatLanguage 채팅방의 언어 코드를 변경합니다. 미등록 채팅방이면 함께 등록합니다.
func (r *Repository) SetChatLanguage(ctx context.Context, chatID int64, languageCode string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat (id, language_code)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET language_code = EXCLUDED.language_code`,
		chatID, languageCode)
	if err != nil {
		return apperrors.Wrap(err, apperrors.System,
			fmt.Sprintf("채팅방(%d) 언어 변경에 실패하였습니다", chatID))
	}
	return nil
}

// AllChatIDs 등록된 모든 채팅방 ID를 반환합니다.
func (r *Repository) AllChatIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM chat ORDER BY id`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "채팅방 목록 조회에 실패하였습니다")
	}
	defer rows.Close()

	var chatIDs []int64
	for rows.Next() {
		var chatID int64
		if err := rows.Scan(&chatID); err != nil {
			return nil, apperrors.Wrap(err, apperrors.System, "채팅방 목록 조회에 실패하였습니다")
		}
		chatIDs = append(chatIDs, chatID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "채팅방 목록 조회에 실패하였습니다")
	}

	return chatIDs, nil
}

// UpsertUser 사용자를 등록/갱신하고 채팅방 멤버십을 기록합니다.
//
// 빈 문자열로 들어온 필드는 기존 값을 보존합니다. 타인의 생일을 등록하는
// /setbirthdayfor 경로는 사용자명과 생일만 알고 있으므로, 이미 저장된 이름이나
// 언어 코드를 지우지 않아야 하기 때문입니다.
func (r *Repository) UpsertUser(ctx context.Context, user contract.User, chatID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO app_user (username, first_name, birthdate, language_code)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO UPDATE SET
			first_name    = CASE WHEN EXCLUDED.first_name = '' THEN app_user.first_name ELSE EXCLUDED.first_name END,
			language_code = CASE WHEN EXCLUDED.language_code = '' THEN app_user.language_code ELSE EXCLUDED.language_code END,
			birthdate     = CASE WHEN EXCLUDED.birthdate = '' THEN app_user.birthdate ELSE EXCLUDED.birthdate END`,
		user.Username, user.FirstName, user.Birthdate, user.LanguageCode)
	if err != nil {
		return apperrors.Wrap(err, apperrors.System,
			fmt.Sprintf("사용자(%s) 저장에 실패하였습니다", user.Username))
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO member (username, chat_id)
		VALUES ($1, $2)
		ON CONFLICT (username, chat_id) DO NOTHING`,
		user.Username, chatID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.System,
			fmt.Sprintf("사용자(%s) 멤버십 저장에 실패하였습니다", user.Username))
	}

	return nil
}

// UsersWithBirthday 생일(DD.MM)이 일치하는 모든 사용자를 반환합니다.
func (r *Repository) UsersWithBirthday(ctx context.Context, dayMonth string) ([]contract.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT username, first_name, birthdate, language_code
		FROM app_user
		WHERE birthdate <> '' AND substring(birthdate FROM 1 FOR 5) = $1`,
		dayMonth)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "생일 사용자 조회에 실패하였습니다")
	}
	defer rows.Close()

	var users []contract.User
	for rows.Next() {
		var user contract.User
		if err := rows.Scan(&user.Username, &user.FirstName, &user.Birthdate, &user.LanguageCode); err != nil {
			return nil, apperrors.Wrap(err, apperrors.System, "생일 사용자 조회에 실패하였습니다")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "생일 사용자 조회에 실패하였습니다")
	}

	return users, nil
}

// ChatsForUser 사용자가 속한 모든 채팅방 ID를 반환합니다.
func (r *Repository) ChatsForUser(ctx context.Context, username string) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT chat_id FROM member WHERE username = $1 ORDER BY chat_id`, username)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.System,
			fmt.Sprintf("사용자(%s) 채팅방 조회에 실패하였습니다", username))
	}
	defer rows.Close()

	var chatIDs []int64
	for rows.Next() {
		var chatID int64
		if err := rows.Scan(&chatID); err != nil {
			return nil, apperrors.Wrap(err, apperrors.System,
				fmt.Sprintf("사용자(%s) 채팅방 조회에 실패하였습니다", username))
		}
		chatIDs = append(chatIDs, chatID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System,
			fmt.Sprintf("사용자(%s) 채팅방 조회에 실패하였습니다", username))
	}

	return chatIDs, nil
}

// AddAdmin 사용자를 채팅방 관리자로 등록합니다. 이미 등록되어 있으면 무시합니다.
func (r *Repository) AddAdmin(ctx context.Context, username string, chatID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admin (username, chat_id)
		VALUES ($1, $2)
		ON CONFLICT (username, chat_id) DO NOTHING`,
		username, chatID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.System,
			fmt.Sprintf("관리자(%s) 등록에 실패하였습니다", username))
	}
	return nil
}

// IsAdmin 사용자가 채팅방 관리자인지 확인합니다.
func (r *Repository) IsAdmin(ctx context.Context, username string, chatID int64) (bool, error) {
	var isAdmin bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM admin WHERE username = $1 AND chat_id = $2)`,
		username, chatID).Scan(&isAdmin)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.System,
			fmt.Sprintf("관리자(%s) 확인에 실패하였습니다", username))
	}
	return isAdmin, nil
}

// UpsertEvent 이벤트를 등록하거나 갱신합니다. (채팅방 ID + 제목이 고유 키)
func (r *Repository) UpsertEvent(ctx context.Context, event contract.Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event (chat_id, title, date, location, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (chat_id, title) DO UPDATE SET
			date        = EXCLUDED.date,
			location    = EXCLUDED.location,
			description = EXCLUDED.description`,
		event.ChatID, event.Title, event.Date, event.Location, event.Description)
	if err != nil {
		return apperrors.Wrap(err, apperrors.System,
			fmt.Sprintf("이벤트(%s) 저장에 실패하였습니다", event.Title))
	}
	return nil
}

// EventsOn 지정된 날짜(DD.MM.YYYY)에 열리는 모든 이벤트를 반환합니다.
func (r *Repository) EventsOn(ctx context.Context, date string) ([]contract.Event, error) {
	return r.queryEvents(ctx, `
		SELECT chat_id, title, date, location, description
		FROM event
		WHERE date = $1`, date)
}

// UpcomingEvents 지정된 날짜 이후(포함)에 열리는 채팅방의 이벤트를 날짜순으로 반환합니다.
func (r *Repository) UpcomingEvents(ctx context.Context, chatID int64, from string) ([]contract.Event, error) {
	return r.queryEvents(ctx, `
		SELECT chat_id, title, date, location, description
		FROM event
		WHERE chat_id = $1 AND to_date(date, 'DD.MM.YYYY') >= to_date($2, 'DD.MM.YYYY')
		ORDER BY to_date(date, 'DD.MM.YYYY')`, chatID, from)
}

func (r *Repository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]contract.Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "이벤트 조회에 실패하였습니다")
	}
	defer rows.Close()

	var events []contract.Event
	for rows.Next() {
		var event contract.Event
		if err := rows.Scan(&event.ChatID, &event.Title, &event.Date, &event.Location, &event.Description); err != nil {
			return nil, apperrors.Wrap(err, apperrors.System, "이벤트 조회에 실패하였습니다")
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "이벤트 조회에 실패하였습니다")
	}

	return events, nil
}
