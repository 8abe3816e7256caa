package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnBalance = "💰 My Balance"
	btnRefer   = "🔗 Refer a Friend"
	btnWith    = "💸 Withdraw Funds"
	btnStats   = "📊 My Stats"
	btnRules   = "📋 Rules & Terms"
	btnHistory = "📋 Withdraw History"
	btnGuide   = "📋 Withdraw Guide"
	btnSupport = "📞 Support"
)

func (b *Bot) getMainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBalance),
			tgbotapi.NewKeyboardButton(btnRefer),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnWith),
			tgbotapi.NewKeyboardButton(btnStats),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRules),
			tgbotapi.NewKeyboardButton(btnHistory),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnGuide),
			tgbotapi.NewKeyboardButton(btnSupport),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func (b *Bot) getCancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/cancelwithdrawal"),
		),
	)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true
	return keyboard
}

func (b *Bot) getMethodKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📱 বিকাশ", "wdm_bkash"),
			tgbotapi.NewInlineKeyboardButtonData("💳 নগদ", "wdm_nagad"),
			tgbotapi.NewInlineKeyboardButtonData("🚀 রকেট", "wdm_rocket"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ বাতিল করুন", "wd_cancel"),
		),
	)
}

func (b *Bot) getConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ নিশ্চিত করুন এবং রিকোয়েস্ট পাঠান", "wd_confirm"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ বাতিল করুন", "wd_cancel"),
		),
	)
}

func (b *Bot) getBroadcastConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Send Broadcast", "bcast_send"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel Broadcast", "bcast_cancel"),
		),
	)
}
