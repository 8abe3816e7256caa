package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/getpaidbd/referralbot/internal/broadcast"
	"github.com/getpaidbd/referralbot/internal/model"
)

// pendingBroadcast is one operator's broadcast draft: first the message is
// captured, then it waits for the preview confirmation.
type pendingBroadcast struct {
	payload  broadcast.Payload
	captured bool
}

// requireOperator is the capability check in front of operator-only actions.
func (b *Bot) requireOperator(userID int64) error {
	if !b.cfg.IsAdmin(userID) {
		return model.ErrUnauthorized
	}
	return nil
}

func (b *Bot) pendingFor(userID int64) *pendingBroadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.broadcasts[userID]
}

func (b *Bot) awaitingBroadcastMessage(userID int64) bool {
	pending := b.pendingFor(userID)
	return pending != nil && !pending.captured
}

func (b *Bot) clearBroadcast(userID int64) {
	b.mu.Lock()
	delete(b.broadcasts, userID)
	b.mu.Unlock()
}

func (b *Bot) handleBroadcastCommand(message *tgbotapi.Message) {
	if err := b.requireOperator(message.From.ID); err != nil {
		b.sendErrorMessage(message.Chat.ID, "Admin only.")
		return
	}

	b.mu.Lock()
	b.broadcasts[message.From.ID] = &pendingBroadcast{}
	b.mu.Unlock()

	b.sendText(message.Chat.ID, "📢 <b>Broadcast:</b> Send message (text/photo/video).\n/cancel to abort.")
}

func (b *Bot) handleBroadcastCancel(message *tgbotapi.Message) {
	if b.pendingFor(message.From.ID) == nil {
		return
	}
	b.clearBroadcast(message.From.ID)
	b.sendText(message.Chat.ID, "❌ Broadcast process cancelled by command.")
}

// captureBroadcastMessage turns the operator's message into the broadcast
// payload and shows the preview with the send/cancel keyboard.
func (b *Bot) captureBroadcastMessage(message *tgbotapi.Message) {
	pending := b.pendingFor(message.From.ID)
	if pending == nil {
		return
	}

	switch {
	case message.Text != "":
		pending.payload = broadcast.Payload{Text: message.Text}
	case len(message.Photo) > 0:
		pending.payload = broadcast.Payload{
			PhotoID: message.Photo[len(message.Photo)-1].FileID,
			Caption: message.Caption,
		}
	case message.Video != nil:
		pending.payload = broadcast.Payload{
			VideoID: message.Video.FileID,
			Caption: message.Caption,
		}
	default:
		b.sendErrorMessage(message.Chat.ID, "Unsupported type for broadcast. Use text, photo, or video. /cancel to abort.")
		return
	}
	pending.captured = true

	previewHeader := "📢 <b>Broadcast Preview:</b>\n\nDo you want to send this message to all users?\n-------------------------------------\n"
	preview := previewHeader + pending.payload.Text
	if pending.payload.Text == "" {
		preview = previewHeader + pending.payload.Caption
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, preview)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = b.getBroadcastConfirmKeyboard()
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("failed to send broadcast preview: %v", err)
	}
}

func (b *Bot) handleBroadcastCallback(callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	if err := b.requireOperator(userID); err != nil {
		b.sendErrorMessage(chatID, "Admin only.")
		return
	}

	pending := b.pendingFor(userID)
	if pending == nil || !pending.captured {
		return
	}
	b.clearBroadcast(userID)

	if callback.Data == "bcast_cancel" {
		b.sendText(chatID, "❌ Broadcast cancelled.")
		return
	}

	recipients, err := b.service.AllUserIDs(context.Background())
	if err != nil {
		b.sendErrorMessage(chatID, fmt.Sprintf("Failed to load recipients: %v", err))
		return
	}
	if len(recipients) == 0 {
		b.sendText(chatID, "No users found to broadcast the message to.")
		return
	}

	b.sendText(chatID, "🚀 Sending broadcast... This may take a while.")

	payload := pending.payload
	go func() {
		summary := b.dispatcher.Dispatch(context.Background(), payload, recipients)
		b.sendText(chatID, fmt.Sprintf(
			"✅ <b>Broadcast Complete!</b>\n\n"+
				"🎯 Targeted Users: %d\n"+
				"✔️ Successfully Sent: %d\n"+
				"❌ Failed to Send: %d\n"+
				"🚫 Blocked/Deactivated/Not Found: %d",
			summary.Targeted, summary.Sent, summary.Failed, summary.Blocked,
		))
	}()
}

// handleStatusCommand applies /approve, /reject and /complete:
// "/approve <request-id>", "/reject <request-id> [reason]".
func (b *Bot) handleStatusCommand(message *tgbotapi.Message, status model.WithdrawalStatus) {
	if err := b.requireOperator(message.From.ID); err != nil {
		b.sendErrorMessage(message.Chat.ID, "Admin only.")
		return
	}

	args := strings.Fields(message.CommandArguments())
	if len(args) == 0 {
		b.sendErrorMessage(message.Chat.ID, fmt.Sprintf("Usage: /%s <request-id> [reason]", message.Command()))
		return
	}
	requestID := args[0]
	reason := strings.Join(args[1:], " ")

	request, err := b.service.UpdateRequestStatus(context.Background(), requestID, status)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrWithdrawalNotFound):
			b.sendErrorMessage(message.Chat.ID, fmt.Sprintf("Request %s not found.", requestID))
		case errors.Is(err, model.ErrInvalidStatusTransition):
			b.sendErrorMessage(message.Chat.ID, fmt.Sprintf("Cannot move request %s to %s: %v", requestID, status, err))
		default:
			b.sendErrorMessage(message.Chat.ID, fmt.Sprintf("Failed to update request %s: %v", requestID, err))
		}
		return
	}

	if err := b.sendStatusNotification(request, reason); err != nil {
		// The decision stands even when the user cannot be notified.
		log.Printf("failed to notify user %d about %s: %v", request.UserID, request.Status, err)
	}

	b.sendText(message.Chat.ID, fmt.Sprintf(
		"✅ Request <code>%s</code> marked %s (user <code>%d</code>, %d৳).",
		request.ShortID(), request.Status, request.UserID, request.Amount,
	))
}
