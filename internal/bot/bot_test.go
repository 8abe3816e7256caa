package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/stretchr/testify/assert"
)

func TestHandleCallbackWithoutMessage(t *testing.T) {
	// Telegram omits the message on callbacks for messages older than 48
	// hours; the handler must drop those instead of panicking.
	b := &Bot{}
	callback := &tgbotapi.CallbackQuery{
		ID:   "stale",
		From: &tgbotapi.User{ID: 1},
		Data: "wd_confirm",
	}

	assert.NotPanics(t, func() {
		assert.NoError(t, b.handleCallback(callback))
	})
}
