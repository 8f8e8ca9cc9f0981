package bot

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/dvizh-wroclaw/dvizh-bot/internal/config"
	apperrors "github.com/dvizh-wroclaw/dvizh-bot/internal/pkg/errors"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/scraper"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/service/contract"
	"github.com/dvizh-wroclaw/dvizh-bot/internal/telegram"
)

//
// test doubles
//

type apiCall struct {
	method string
	params map[string]string
}

// fakeMessenger records outbound Bot API calls and replays canned responses.
type fakeMessenger struct {
	mu       sync.Mutex
	calls    []apiCall
	response map[string]json.RawMessage
	failWith map[string]error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		response: make(map[string]json.RawMessage),
		failWith: make(map[string]error),
	}
}

func (f *fakeMessenger) Call(_ context.Context, method string, params map[string]string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, apiCall{method: method, params: params})

	if err := f.failWith[method]; err != nil {
		return nil, err
	}
	if response, exists := f.response[method]; exists {
		return response, nil
	}
	return json.RawMessage(`{}`), nil
}

func (f *fakeMessenger) callsTo(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []apiCall
	for _, call := range f.calls {
		if call.method == method {
			matched = append(matched, call)
		}
	}
	return matched
}

func (f *fakeMessenger) lastCall() (apiCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.calls) == 0 {
		return apiCall{}, false
	}
	return f.calls[len(f.calls)-1], true
}

// fakeRepository is an in-memory contract.Repository.
type fakeRepository struct {
	mu        sync.Mutex
	chats     map[int64]contract.Chat
	languages map[int64]string
	users     map[string]contract.User
	members   map[string][]int64
	admins    map[string]map[int64]bool
	events    []contract.Event
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		chats:     make(map[int64]contract.Chat),
		languages: make(map[int64]string),
		users:     make(map[string]contract.User),
		members:   make(map[string][]int64),
		admins:    make(map[string]map[int64]bool),
	}
}

func (f *fakeRepository) UpsertChat(_ context.Context, chat contract.Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats[chat.ID] = chat
	return nil
}

func (f *fakeRepository) ChatLanguage(_ context.Context, chatID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if languageCode, exists := f.languages[chatID]; exists {
		return languageCode, nil
	}
	return "en", nil
}

func (f *fakeRepository) SetChatLanguage(_ context.Context, chatID int64, languageCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.languages[chatID] = languageCode
	return nil
}

func (f *fakeRepository) AllChatIDs(_ context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var chatIDs []int64
	for chatID := range f.chats {
		chatIDs = append(chatIDs, chatID)
	}
	return chatIDs, nil
}

func (f *fakeRepository) UpsertUser(_ context.Context, user contract.User, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Empty fields keep the stored value, mirroring the real repository's upsert.
	if stored, exists := f.users[user.Username]; exists {
		if user.FirstName == "" {
			user.FirstName = stored.FirstName
		}
		if user.LanguageCode == "" {
			user.LanguageCode = stored.LanguageCode
		}
		if user.Birthdate == "" {
			user.Birthdate = stored.Birthdate
		}
	}
	f.users[user.Username] = user
	f.members[user.Username] = append(f.members[user.Username], chatID)
	return nil
}

func (f *fakeRepository) UsersWithBirthday(_ context.Context, dayMonth string) ([]contract.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []contract.User
	for _, user := range f.users {
		if len(user.Birthdate) >= 5 && user.Birthdate[:5] == dayMonth {
			users = append(users, user)
		}
	}
	return users, nil
}

func (f *fakeRepository) ChatsForUser(_ context.Context, username string) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[username], nil
}

func (f *fakeRepository) AddAdmin(_ context.Context, username string, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.admins[username] == nil {
		f.admins[username] = make(map[int64]bool)
	}
	f.admins[username][chatID] = true
	return nil
}

func (f *fakeRepository) IsAdmin(_ context.Context, username string, chatID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.admins[username][chatID], nil
}

func (f *fakeRepository) UpsertEvent(_ context.Context, event contract.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.events {
		if f.events[i].ChatID == event.ChatID && f.events[i].Title == event.Title {
			f.events[i] = event
			return nil
		}
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeRepository) EventsOn(_ context.Context, date string) ([]contract.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events []contract.Event
	for _, event := range f.events {
		if event.Date == date {
			events = append(events, event)
		}
	}
	return events, nil
}

func (f *fakeRepository) UpcomingEvents(_ context.Context, chatID int64, _ string) ([]contract.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events []contract.Event
	for _, event := range f.events {
		if event.ChatID == chatID {
			events = append(events, event)
		}
	}
	return events, nil
}

// fakeTranslator resolves known keys from a table and echoes unknown keys,
// mirroring the literal-key fallback of the real cache.
type fakeTranslator struct {
	mu              sync.Mutex
	texts           map[string]string
	lists           map[string][]string
	languages       map[int64]string
	languageUpdates map[int64]string
}

func newFakeTranslator() *fakeTranslator {
	return &fakeTranslator{
		texts: map[string]string{
			"hello":    "Hello!",
			"welcome":  "Welcome, {first_name}!",
			"wrong":    "Something went wrong.",
			"thinking": "Thinking...",
		},
		lists: map[string][]string{
			"8ball": {"Yes", "No", "Ask again later"},
		},
		languages:       make(map[int64]string),
		languageUpdates: make(map[int64]string),
	}
}

func (f *fakeTranslator) Text(_ context.Context, _ int64, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if text, exists := f.texts[key]; exists {
		return text, nil
	}
	return key, nil
}

func (f *fakeTranslator) List(_ context.Context, _ int64, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if list, exists := f.lists[key]; exists {
		return list, nil
	}
	return nil, apperrors.Newf(apperrors.ParsingFailed, "no list for '%s'", key)
}

func (f *fakeTranslator) Language(_ context.Context, chatID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if languageCode, exists := f.languages[chatID]; exists {
		return languageCode, nil
	}
	return "en", nil
}

func (f *fakeTranslator) UpdateLanguage(chatID int64, languageCode string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.languageUpdates[chatID] = languageCode
}

// fakeContent serves canned external content.
type fakeContent struct {
	memes      []string
	memesErr   error
	joke       scraper.Joke
	jokeErr    error
	insult     string
	horoscope  string
	lastInsult string
}

func (f *fakeContent) MemeURLs(_ context.Context) ([]string, error) {
	if f.memesErr != nil {
		return nil, f.memesErr
	}
	return f.memes, nil
}

func (f *fakeContent) RandomJoke(_ context.Context) (scraper.Joke, error) {
	if f.jokeErr != nil {
		return scraper.Joke{}, f.jokeErr
	}
	return f.joke, nil
}

func (f *fakeContent) RandomInsult(_ context.Context, languageCode string) (string, error) {
	f.lastInsult = languageCode
	return f.insult, nil
}

func (f *fakeContent) DailyHoroscope(_ context.Context, _ string) (string, error) {
	return f.horoscope, nil
}

// scriptedUpdates replays predefined batches; afterwards it blocks until cancellation.
type scriptedUpdates struct {
	mu      sync.Mutex
	batches [][]telegram.RawUpdate
	errs    []error
	offsets []int64
}

func (f *scriptedUpdates) GetUpdates(ctx context.Context, offset int64, _ int) ([]telegram.RawUpdate, error) {
	f.mu.Lock()
	f.offsets = append(f.offsets, offset)

	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		f.mu.Unlock()
		if err != nil {
			return nil, err
		}
	} else if len(f.batches) > 0 {
		batch := f.batches[0]
		f.batches = f.batches[1:]
		f.mu.Unlock()
		return batch, nil
	} else {
		f.mu.Unlock()
	}

	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *scriptedUpdates) seenOffsets() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.offsets...)
}

//
// fixture
//

type fixture struct {
	service    *BotService
	messenger  *fakeMessenger
	repository *fakeRepository
	translator *fakeTranslator
	content    *fakeContent
	updates    *scriptedUpdates
}

func newFixture(_ *testing.T) *fixture {
	f := &fixture{
		messenger:  newFakeMessenger(),
		repository: newFakeRepository(),
		translator: newFakeTranslator(),
		content:    &fakeContent{},
		updates:    &scriptedUpdates{},
	}

	appConfig := &config.AppConfig{
		Telegram: config.TelegramConfig{PollTimeoutSeconds: 1},
	}

	f.service = NewService(appConfig, f.updates, f.messenger, f.repository, f.translator,
		f.content, "dvizh_wroclaw_bot")

	return f
}

func messageUpdate(updateID, chatID int64, from, text string) json.RawMessage {
	u := map[string]interface{}{
		"update_id": updateID,
		"message": map[string]interface{}{
			"message_id": updateID * 10,
			"chat":       map[string]interface{}{"id": chatID, "type": "supergroup", "title": "dvizh"},
			"text":       text,
		},
	}
	if from != "" {
		u["message"].(map[string]interface{})["from"] = map[string]interface{}{
			"id": 7, "username": from, "first_name": "Test",
		}
	}

	raw, _ := json.Marshal(u)
	return raw
}
