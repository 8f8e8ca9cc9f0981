package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpamScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		spam bool
	}{
		{name: "ordinary chat", text: "кто идёт на пикник в субботу?", spam: false},
		{name: "crypto earnings pitch", text: "Заработок на крипте! Пиши в лс", spam: true},
		{name: "income plus link", text: "Пассивный доход, подробности: https://t.me/scam", spam: true},
		{name: "casino with pressure", text: "Казино онлайн, только сегодня бонус бесплатно", spam: true},
		{name: "single link alone", text: "статья интересная https://example.com/post", spam: false},
		{name: "english crypto spam", text: "CRYPTO INVESTMENT GUARANTEED INCOME https://t.me/x", spam: true},
		{name: "empty", text: "", spam: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := spamScore(tt.text)
			assert.Equal(t, tt.spam, score >= spamThreshold, "score=%d", score)
		})
	}
}

func TestHandlePlainText_Spam(t *testing.T) {
	t.Run("spam is deleted and the author banned", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, handle(t, f,
			messageUpdate(1, -100, "spammer", "Заработок на крипте! Пиши в лс https://t.me/scam")))

		deletes := f.messenger.callsTo("deleteMessage")
		require.Len(t, deletes, 1)
		assert.Equal(t, "-100", deletes[0].params["chat_id"])

		bans := f.messenger.callsTo("banChatMember")
		require.Len(t, bans, 1)
		assert.Equal(t, "7", bans[0].params["user_id"])
	})

	t.Run("normal text is left alone", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, handle(t, f, messageUpdate(1, -100, "ola", "встречаемся в 18:00")))

		assert.Empty(t, f.messenger.callsTo("deleteMessage"))
		assert.Empty(t, f.messenger.callsTo("banChatMember"))
	})
}

func TestMemeCache(t *testing.T) {
	t.Run("failed refresh keeps the previous list", func(t *testing.T) {
		f := newFixture(t)
		f.content.memes = []string{"https://admem.net/storage/meme/1.jpg"}

		cache := newMemeCache()
		require.NoError(t, cache.refresh(context.Background(), f.content))

		f.content.memesErr = errBoom
		require.Error(t, cache.refresh(context.Background(), f.content))

		memeURL, available := cache.random()
		assert.True(t, available)
		assert.Equal(t, "https://admem.net/storage/meme/1.jpg", memeURL)
	})

	t.Run("empty cache reports unavailability", func(t *testing.T) {
		_, available := newMemeCache().random()
		assert.False(t, available)
	})
}
