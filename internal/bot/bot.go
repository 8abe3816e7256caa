package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/getpaidbd/referralbot/internal/broadcast"
	"github.com/getpaidbd/referralbot/internal/charts"
	"github.com/getpaidbd/referralbot/internal/config"
	"github.com/getpaidbd/referralbot/internal/model"
	"github.com/getpaidbd/referralbot/internal/service"
	"github.com/getpaidbd/referralbot/internal/workflow"
)

const (
	logoURL  = "https://ygpicvrjboljjzijfibg.supabase.co/storage/v1/object/public/giveme/logo.webp"
	referURL = "https://ygpicvrjboljjzijfibg.supabase.co/storage/v1/object/public/giveme/refer-and-earn.jpg"
)

type Bot struct {
	api        *tgbotapi.BotAPI
	service    *service.RewardService
	engine     *workflow.Engine
	dispatcher *broadcast.Dispatcher
	charts     *charts.ChartGenerator
	cfg        *config.Config

	mu         sync.Mutex
	broadcasts map[int64]*pendingBroadcast // broadcast drafts by operator id
}

func NewBot(cfg *config.Config, service *service.RewardService, engine *workflow.Engine, charts *charts.ChartGenerator) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}

	return &Bot{
		api:        api,
		service:    service,
		engine:     engine,
		dispatcher: broadcast.NewDispatcher(telegramTransport{api: api}, cfg.BroadcastDelay),
		charts:     charts,
		cfg:        cfg,
		broadcasts: make(map[int64]*pendingBroadcast),
	}, nil
}

// telegramTransport adapts the bot API to the dispatcher's Transport.
type telegramTransport struct {
	api *tgbotapi.BotAPI
}

func (t telegramTransport) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := t.api.Send(msg)
	return err
}

func (t telegramTransport) SendPhoto(chatID int64, fileID, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	_, err := t.api.Send(photo)
	return err
}

func (t telegramTransport) SendVideo(chatID int64, fileID, caption string) error {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(fileID))
	video.Caption = caption
	video.ParseMode = tgbotapi.ModeHTML
	_, err := t.api.Send(video)
	return err
}

// Start runs the bot in long polling mode.
func (b *Bot) Start() error {
	log.Printf("authorized as @%s", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if err := b.handleUpdate(update); err != nil {
			// Log the error but keep processing updates.
			log.Printf("error handling update: %v", err)
		}
	}

	return nil
}

func (b *Bot) handleUpdate(update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return b.handleCallback(update.CallbackQuery)
	}
	if update.Message == nil {
		return nil
	}
	if update.Message.IsCommand() {
		return b.handleCommand(update.Message)
	}
	return b.handleMessage(update.Message)
}

func (b *Bot) handleCommand(message *tgbotapi.Message) error {
	cmd := message.Command()

	// Any command other than the explicit cancel is an unrelated action for
	// an in-flight withdrawal conversation and cancels it implicitly.
	if cmd != "cancelwithdrawal" {
		b.implicitCancel(message.From.ID, message.Chat.ID)
	}

	switch cmd {
	case "start":
		b.handleStart(message)
	case "cancelwithdrawal":
		reply, err := b.engine.Handle(context.Background(), message.From.ID, workflow.Event{Kind: workflow.EventCancel})
		if err != nil {
			return err
		}
		if reply.Kind == workflow.ReplyCancelled {
			b.sendWithMenu(message.Chat.ID, "❌ উইথড্র প্রক্রিয়া বাতিল করা হয়েছে।")
		}
	case "broadcast":
		b.handleBroadcastCommand(message)
	case "cancel":
		b.handleBroadcastCancel(message)
	case "approve":
		b.handleStatusCommand(message, model.StatusApproved)
	case "reject":
		b.handleStatusCommand(message, model.StatusRejected)
	case "complete":
		b.handleStatusCommand(message, model.StatusCompleted)
	}

	return nil
}

func (b *Bot) handleMessage(message *tgbotapi.Message) error {
	userID := message.From.ID
	chatID := message.Chat.ID

	// An operator composing a broadcast gets the next message captured as
	// the broadcast payload, whatever its type.
	if b.awaitingBroadcastMessage(userID) {
		b.captureBroadcastMessage(message)
		return nil
	}

	if message.Text == "" {
		return nil
	}
	text := strings.TrimSpace(message.Text)

	// Withdrawal entry point and menu buttons; a menu press during an
	// in-flight conversation cancels it first.
	switch text {
	case btnWith:
		reply, err := b.engine.Handle(context.Background(), userID, workflow.Event{Kind: workflow.EventStart})
		if err != nil {
			b.sendErrorMessage(chatID, "অনুগ্রহ করে আগে /start দিন।")
			return nil
		}
		b.renderWorkflowReply(chatID, userID, reply)
		return nil
	case btnBalance, btnRefer, btnStats, btnRules, btnHistory, btnGuide, btnSupport:
		b.implicitCancel(userID, chatID)
	}

	switch text {
	case btnBalance:
		b.handleBalance(message)
	case btnRefer:
		b.handleRefer(message)
	case btnStats:
		b.handleStats(message)
	case btnRules:
		b.handleRules(message)
	case btnHistory:
		b.handleHistory(message)
	case btnGuide:
		b.handleGuide(message)
	case btnSupport:
		b.handleSupport(message)
	default:
		// Free text is workflow input when a session is active.
		reply, err := b.engine.Handle(context.Background(), userID, workflow.Event{Kind: workflow.EventText, Text: text})
		if err != nil {
			b.sendErrorMessage(chatID, "একটি সমস্যা হয়েছে, আবার চেষ্টা করুন।")
			return nil
		}
		if reply.Kind == workflow.ReplyNone {
			b.sendWithMenu(chatID, "Sorry, I didn't understand that. Please use the buttons from the menu.")
			return nil
		}
		b.renderWorkflowReply(chatID, userID, reply)
	}

	return nil
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) error {
	// Callbacks for messages older than 48 hours come without the message.
	if callback.Message == nil {
		return nil
	}

	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	data := callback.Data

	switch {
	case strings.HasPrefix(data, "wdm_"):
		method := model.PayoutMethod(strings.TrimPrefix(data, "wdm_"))
		reply, err := b.engine.Handle(context.Background(), userID, workflow.Event{Kind: workflow.EventMethod, Method: method})
		if err == nil {
			b.renderWorkflowReply(chatID, userID, reply)
		}
	case data == "wd_confirm":
		reply, err := b.engine.Handle(context.Background(), userID, workflow.Event{Kind: workflow.EventConfirm})
		if err == nil {
			b.renderWorkflowReply(chatID, userID, reply)
		}
	case data == "wd_cancel":
		reply, err := b.engine.Handle(context.Background(), userID, workflow.Event{Kind: workflow.EventCancel})
		if err == nil && reply.Kind == workflow.ReplyCancelled {
			b.sendWithMenu(chatID, "❌ উইথড্র প্রক্রিয়া বাতিল করা হয়েছে।")
		}
	case data == "bcast_send" || data == "bcast_cancel":
		b.handleBroadcastCallback(callback)
	}

	// Answer the callback to clear the loading indicator.
	callbackResponse := tgbotapi.NewCallback(callback.ID, "")
	if _, err := b.api.Request(callbackResponse); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}

	return nil
}

// implicitCancel discards an in-flight withdrawal conversation, telling the
// user it was cancelled.
func (b *Bot) implicitCancel(userID, chatID int64) {
	if !b.engine.Active(userID) {
		return
	}
	reply, err := b.engine.Handle(context.Background(), userID, workflow.Event{Kind: workflow.EventMenu})
	if err == nil && reply.Kind == workflow.ReplyCancelled {
		b.sendText(chatID, "❌ উইথড্র প্রক্রিয়া বাতিল করা হয়েছে।")
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("failed to send message to %d: %v", chatID, err)
	}
}

func (b *Bot) sendWithMenu(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = b.getMainKeyboard()
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("failed to send message to %d: %v", chatID, err)
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	b.sendText(chatID, "❌ "+text)
}

// sendPhotoWithFallback sends photo by URL and falls back to plain text when
// the media cannot be delivered.
func (b *Bot) sendPhotoWithFallback(chatID int64, url, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(photo); err != nil {
		log.Printf("failed to send photo to %d, falling back to text: %v", chatID, err)
		b.sendText(chatID, caption)
	}
}

// notifyOperators tells every configured operator about a new withdrawal
// request. Best effort; a failed notification never rolls the request back.
func (b *Bot) notifyOperators(request *model.WithdrawalRequest) {
	notification := fmt.Sprintf(
		"🔔 নতুন উইথড্র রিকোয়েস্ট!\nUser: %s (<code>%d</code>)\nAmount: %d৳\nMethod: %s\nAcc: <code>%s</code>\nReq ID: <code>%s</code>",
		request.FullName, request.UserID, request.Amount,
		request.Method.DisplayName(), request.AccountNumber, request.RequestID,
	)
	for _, adminID := range b.cfg.AdminIDs {
		msg := tgbotapi.NewMessage(adminID, notification)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("failed to notify operator %d: %v", adminID, err)
		}
	}
}
