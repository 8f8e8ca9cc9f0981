package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvizh-wroclaw/dvizh-bot/internal/service/contract"
)

// newTestRepository connects to the database named by TEST_DATABASE_DSN.
// Tests are skipped when the variable is unset so the suite stays runnable
// without a local PostgreSQL instance.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repository, err := NewRepository(ctx, dsn, 2)
	require.NoError(t, err)
	t.Cleanup(repository.Close)

	return repository
}

// uniqueChatID keeps test rows from colliding across runs against a shared database.
func uniqueChatID() int64 {
	return -time.Now().UnixNano()
}

func TestRepository_ChatLanguage(t *testing.T) {
	repository := newTestRepository(t)
	ctx := context.Background()

	t.Run("unregistered chat falls back to english", func(t *testing.T) {
		languageCode, err := repository.ChatLanguage(ctx, uniqueChatID())

		require.NoError(t, err)
		assert.Equal(t, "en", languageCode)
	})

	t.Run("upsert preserves the language, set overrides it", func(t *testing.T) {
		chatID := uniqueChatID()

		require.NoError(t, repository.UpsertChat(ctx, contract.Chat{ID: chatID, Title: "dvizh"}))
		require.NoError(t, repository.SetChatLanguage(ctx, chatID, "ru"))

		// A later title-only upsert must not reset the language.
		require.NoError(t, repository.UpsertChat(ctx, contract.Chat{ID: chatID, Title: "dvizh wroclaw"}))

		languageCode, err := repository.ChatLanguage(ctx, chatID)
		require.NoError(t, err)
		assert.Equal(t, "ru", languageCode)
	})
}

func TestRepository_UpsertUser(t *testing.T) {
	repository := newTestRepository(t)
	ctx := context.Background()

	chatID := uniqueChatID()
	username := fmt.Sprintf("user_%d", -chatID)

	require.NoError(t, repository.UpsertUser(ctx, contract.User{
		Username:     username,
		FirstName:    "Ola",
		Birthdate:    "15.06.1990",
		LanguageCode: "pl",
	}, chatID))

	// An empty birthdate on re-upsert keeps the stored one.
	require.NoError(t, repository.UpsertUser(ctx, contract.User{
		Username:     username,
		FirstName:    "Aleksandra",
		LanguageCode: "pl",
	}, chatID))

	// A birthdate-only upsert (the /setbirthdayfor path knows nothing else)
	// must not wipe the stored name or language.
	require.NoError(t, repository.UpsertUser(ctx, contract.User{
		Username:  username,
		Birthdate: "15.06.1990",
	}, chatID))

	users, err := repository.UsersWithBirthday(ctx, "15.06")
	require.NoError(t, err)

	var found *contract.User
	for i := range users {
		if users[i].Username == username {
			found = &users[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "Aleksandra", found.FirstName)
	assert.Equal(t, "15.06.1990", found.Birthdate)
	assert.Equal(t, "pl", found.LanguageCode)

	chatIDs, err := repository.ChatsForUser(ctx, username)
	require.NoError(t, err)
	assert.Contains(t, chatIDs, chatID)
}

func TestRepository_Admins(t *testing.T) {
	repository := newTestRepository(t)
	ctx := context.Background()

	chatID := uniqueChatID()
	username := fmt.Sprintf("admin_%d", -chatID)

	isAdmin, err := repository.IsAdmin(ctx, username, chatID)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	require.NoError(t, repository.AddAdmin(ctx, username, chatID))
	require.NoError(t, repository.AddAdmin(ctx, username, chatID)) // idempotent

	isAdmin, err = repository.IsAdmin(ctx, username, chatID)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestRepository_Events(t *testing.T) {
	repository := newTestRepository(t)
	ctx := context.Background()

	chatID := uniqueChatID()

	require.NoError(t, repository.UpsertEvent(ctx, contract.Event{
		ChatID: chatID, Title: "picnic", Date: "20.09.2026", Location: "park",
	}))
	require.NoError(t, repository.UpsertEvent(ctx, contract.Event{
		ChatID: chatID, Title: "meetup", Date: "05.09.2026", Location: "cafe",
	}))

	// Same key updates in place.
	require.NoError(t, repository.UpsertEvent(ctx, contract.Event{
		ChatID: chatID, Title: "picnic", Date: "21.09.2026", Location: "river",
	}))

	events, err := repository.EventsOn(ctx, "21.09.2026")
	require.NoError(t, err)
	require.Len(t, filterByChat(events, chatID), 1)
	assert.Equal(t, "river", filterByChat(events, chatID)[0].Location)

	upcoming, err := repository.UpcomingEvents(ctx, chatID, "10.09.2026")
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "picnic", upcoming[0].Title)
}

func filterByChat(events []contract.Event, chatID int64) []contract.Event {
	var filtered []contract.Event
	for _, event := range events {
		if event.ChatID == chatID {
			filtered = append(filtered, event)
		}
	}
	return filtered
}
