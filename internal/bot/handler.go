package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/getpaidbd/referralbot/internal/model"
	"github.com/getpaidbd/referralbot/internal/workflow"
)

func (b *Bot) handleStart(message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID
	name := strings.TrimSpace(message.From.FirstName + " " + message.From.LastName)

	var referredBy *int64
	if arg := strings.TrimSpace(message.CommandArguments()); arg != "" {
		refID, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			log.Printf("invalid referral id %q from user %d", arg, userID)
		} else {
			referredBy = &refID
		}
	}

	user, created, err := b.service.RegisterUser(context.Background(), userID, name, referredBy)
	if err != nil {
		b.sendErrorMessage(chatID, "Account creation failed. Try /start or contact support.")
		return
	}

	caption := fmt.Sprintf("🌟 <b>আসসালামু আলাইকুম, %s!</b>\n\n", name)
	if created {
		caption += fmt.Sprintf(
			"💎 <b>ReferEarnBD-তে আপনাকে স্বাগতম! 🎉</b>\n\n"+
				"🎁 <b>বিশেষ জয়েনিং বোনাস: %d৳</b> ✅\n\n"+
				"🚀 <b>আয় শুরু করুন:</b>\n"+
				"• বন্ধুদের আমন্ত্রণ জানান\n"+
				"• প্রতি রেফারেলে <b>%d৳</b>\n"+
				"• <b>%d৳</b> হলেই টাকা তুলুন!\n\n",
			b.service.JoiningBonus(), b.service.ReferralBonus(), b.service.MinWithdrawal(),
		)
		if user.ReferredBy != nil {
			referrerName := fmt.Sprintf("User ID <code>%d</code>", *user.ReferredBy)
			if referrer, err := b.service.GetUser(context.Background(), *user.ReferredBy); err == nil && referrer.Name != "" {
				referrerName = referrer.Name
			}
			caption += fmt.Sprintf("🎯 আপনি %s এর মাধ্যমে জয়েন করেছেন। রেফারার <b>%d৳</b> বোনাস পেয়েছেন! 🙏\n\n",
				referrerName, b.service.ReferralBonus())
		}
	} else {
		caption += fmt.Sprintf(
			"🔥 <b>ReferEarnBD-তে স্বাগতম ফিরে!</b>\n\n"+
				"💰 আপনার বর্তমান ব্যালেন্স: <b>%d৳</b>\n"+
				"👥 আপনি রেফার করেছেন: <b>%d জন</b>\n\n"+
				"✨ আরো বেশি রেফার করে আপনার আয় বাড়ান!",
			user.Balance, user.Referrals,
		)
	}

	b.sendPhotoWithFallback(chatID, logoURL, caption)
	b.sendWithMenu(chatID, "📌 Main Menu:")
}

func (b *Bot) handleBalance(message *tgbotapi.Message) {
	user, err := b.service.GetUser(context.Background(), message.From.ID)
	if err != nil {
		b.sendErrorMessage(message.Chat.ID, "User data not found. Use /start.")
		return
	}

	min := b.service.MinWithdrawal()
	bonus := b.service.ReferralBonus()

	text := fmt.Sprintf(
		"💎 <b>Account Overview</b>\n\n💰 <b>Balance:</b> <code>%d৳</code>\n👥 <b>Referrals:</b> <code>%d</code>\n\n",
		user.Balance, user.Referrals,
	)
	if user.Balance >= min {
		text += fmt.Sprintf("🎉 <b>Congrats!</b> You can withdraw.\n💸 Max: <b>%d৳</b>\n\n📌 Click '%s'.", user.Balance, btnWith)
	} else {
		needed := min - user.Balance
		text += fmt.Sprintf("🎯 <b>To Withdraw:</b>\n💵 Need: <b>%d৳</b>\n", needed)
		if bonus > 0 {
			neededRefs := (needed + bonus - 1) / bonus
			text += fmt.Sprintf("👨‍👩‍👧‍👦 Refer: Approx. <b>%d</b>\n\n", neededRefs)
		}
		text += fmt.Sprintf("🚀 Earn <b>%d৳</b> per referral!", bonus)
	}

	b.sendText(message.Chat.ID, text)
}

func (b *Bot) handleRefer(message *tgbotapi.Message) {
	userID := message.From.ID
	link := fmt.Sprintf("https://t.me/%s?start=%d", b.cfg.BotUsername, userID)

	caption := fmt.Sprintf(
		"🔗 <b>রেফার করে আয় করুন!</b>\n\nআপনার লিঙ্ক: <code>%s</code>\n\nপ্রতি রেফারেলে <b>%d৳</b>!",
		link, b.service.ReferralBonus(),
	)
	if user, err := b.service.GetUser(context.Background(), userID); err == nil {
		earned := user.Referrals * b.service.ReferralBonus()
		caption = fmt.Sprintf(
			"🔥 <b>রেফার করে আয় করুন!</b>\n\n"+
				"💰 <b>প্রতি রেফারেলে: %d৳</b>\n"+
				"👥 <b>মোট রেফারেল: %d জন</b>\n"+
				"💵 <b>মোট আয়: %d৳</b>\n\n"+
				"🎯 <b>আপনার রেফারেল লিঙ্ক:</b>\n<code>%s</code>\n(ক্লিক করলে কপি হবে)\n\n"+
				"📱 বন্ধুদের শেয়ার করুন আর আয় বাড়ান!",
			b.service.ReferralBonus(), user.Referrals, earned, link,
		)
	}

	b.sendPhotoWithFallback(message.Chat.ID, referURL, caption)
}

func (b *Bot) handleStats(message *tgbotapi.Message) {
	stats, err := b.service.Stats(context.Background(), message.From.ID)
	if err != nil {
		b.sendErrorMessage(message.Chat.ID, "Stats unavailable. /start first.")
		return
	}

	progress := "✅ <b>অভিনন্দন! টাকা তুলতে পারবেন!</b>"
	if stats.NeededAmount > 0 {
		progress = fmt.Sprintf("🎯 টাকা তুলতে আরো <b>%d৳</b> প্রয়োজন (আনুমানিক <b>%d</b> রেফার)",
			stats.NeededAmount, stats.NeededReferrals)
	}

	text := fmt.Sprintf(
		"📈 <b>পারফরম্যান্স রিপোর্ট</b>\n\n💎 <b>সামারি:</b>\n"+
			"┣ 💰 ব্যালেন্স: <code>%d৳</code>\n"+
			"┣ 👥 রেফারেল: <code>%d জন</code>\n"+
			"┣ 💵 রেফার আয়: <code>%d৳</code>\n"+
			"┗ 💸 মোট উইথড্র: <code>%d৳</code>\n\n"+
			"🎯 <b>উইথড্র স্ট্যাটাস:</b>\n%s\n\n"+
			"🚀 যত বেশি রেফার, তত বেশি আয়!",
		stats.Balance, stats.Referrals, stats.ReferralEarnings, stats.WithdrawnTotal, progress,
	)
	b.sendText(message.Chat.ID, text)

	chartBytes, err := b.charts.GenerateEarningsChart(stats)
	if err != nil {
		log.Printf("failed to generate earnings chart for %d: %v", message.From.ID, err)
		return
	}
	if chartBytes == nil {
		return
	}
	photo := tgbotapi.NewPhoto(message.Chat.ID, tgbotapi.FileBytes{Name: "stats.png", Bytes: chartBytes})
	if _, err := b.api.Send(photo); err != nil {
		log.Printf("failed to send earnings chart to %d: %v", message.From.ID, err)
	}
}

func (b *Bot) handleRules(message *tgbotapi.Message) {
	text := fmt.Sprintf(
		"📋 <b>নিয়মাবলী</b>\n\n"+
			"🎯 <b>রেফারেল:</b> প্রতি সফল রেফারে %d৳।\n"+
			"🎁 <b>জয়েনিং বোনাস:</b> %d৳ (একবার)।\n"+
			"💸 <b>উইথড্র:</b> সর্বনিম্ন %d৳, প্রসেসিং ২৪-৭২ ঘন্টা।\n"+
			"⚠️ ফেক বা সেলফ-রেফার করলে একাউন্ট বন্ধ করা হবে।",
		b.service.ReferralBonus(), b.service.JoiningBonus(), b.service.MinWithdrawal(),
	)
	b.sendText(message.Chat.ID, text)
}

func (b *Bot) handleGuide(message *tgbotapi.Message) {
	text := fmt.Sprintf(
		"📋 <b>উইথড্র গাইড</b>\n\n"+
			"<b>ধাপ ১:</b> ব্যালেন্স চেক করুন (%d৳ Minimum)।\n"+
			"<b>ধাপ ২:</b> '%s' চাপুন।\n"+
			"<b>ধাপ ৩:</b> নাম, পেমেন্ট পদ্ধতি, একাউন্ট নম্বর ও পরিমাণ দিন।\n"+
			"<b>ধাপ ৪:</b> তথ্য যাচাই করে নিশ্চিত করুন।\n\n"+
			"⏱ রিকোয়েস্ট ২৪-৭২ ঘন্টার মধ্যে প্রসেস হয়।",
		b.service.MinWithdrawal(), btnWith,
	)
	b.sendText(message.Chat.ID, text)
}

func (b *Bot) handleSupport(message *tgbotapi.Message) {
	text := fmt.Sprintf(
		"📞 <b>সাপোর্ট</b>\n\n📱 <b>Telegram:</b> @%s\n"+
			"🕒 সময়: সকাল ৯টা - রাত ১০টা (শনি-বৃহঃ)\n\n"+
			"⚡ User ID <code>%d</code> সহ জানান।",
		b.cfg.SupportUsername, message.From.ID,
	)
	b.sendText(message.Chat.ID, text)
}

var statusPresentation = map[model.WithdrawalStatus]struct {
	Emoji string
	Label string
}{
	model.StatusPending:   {"⏳", "অপেক্ষমাণ"},
	model.StatusApproved:  {"✅", "অনুমোদিত"},
	model.StatusRejected:  {"❌", "বাতিল"},
	model.StatusCompleted: {"💸", "সম্পন্ন"},
}

func (b *Bot) handleHistory(message *tgbotapi.Message) {
	withdrawals, err := b.service.Withdrawals(context.Background(), message.From.ID, 10)
	if err != nil {
		b.sendErrorMessage(message.Chat.ID, "Error loading history.")
		return
	}
	if len(withdrawals) == 0 {
		b.sendText(message.Chat.ID, "📋 No withdrawal history.")
		return
	}

	text := "📋 <b>উইথড্র ইতিহাস (১০টি)</b>\n\n"
	for _, w := range withdrawals {
		p, ok := statusPresentation[w.Status]
		if !ok {
			p.Emoji, p.Label = "❓", string(w.Status)
		}
		requestedAt := "N/A"
		if !w.RequestedAt.IsZero() {
			requestedAt = w.RequestedAt.Format("02Jan06 03:04PM")
		}
		text += fmt.Sprintf(
			"<b>ID:</b><code>%s</code> %s%s\n<b>Amt:</b>%d৳ <b>To:</b><code>%s</code> (%s)\n<b>Date:</b>%s\n---\n",
			w.ShortID(), p.Emoji, p.Label, w.Amount, w.AccountNumber, w.Method.DisplayName(), requestedAt,
		)
	}
	b.sendText(message.Chat.ID, text)
}

// renderWorkflowReply turns an engine reply into chat messages and keyboards.
func (b *Bot) renderWorkflowReply(chatID, userID int64, reply workflow.Reply) {
	switch reply.Kind {
	case workflow.ReplyNone:
		b.sendWithMenu(chatID, "📌 Main Menu:")

	case workflow.ReplyBalanceTooLow:
		b.sendText(chatID, fmt.Sprintf(
			"❌ আপনার ব্যালেন্স কম! (%d৳), টাকা তুলতে আরো %d৳ প্রয়োজন।",
			reply.Balance, reply.Shortfall))

	case workflow.ReplyAskName:
		msg := tgbotapi.NewMessage(chatID,
			"💸 উইথড্র প্রক্রিয়া শুরু হচ্ছে...\n\nআপনার <b>পূর্ণ নাম</b> লিখুন (যেমনটি মোবাইল ব্যাংকিং একাউন্টে আছে):\n\nবাতিল করতে /cancelwithdrawal টাইপ করুন।")
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = b.getCancelKeyboard()
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("failed to send name prompt to %d: %v", chatID, err)
		}

	case workflow.ReplyInvalidName:
		b.sendText(chatID, "❌ অবৈধ নাম। অনুগ্রহ করে ৩-৬০ অক্ষরের মধ্যে সঠিক নাম লিখুন।")

	case workflow.ReplyAskMethod:
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"✅ আপনার নাম: <b>%s</b>।\n\nএবার আপনার পেমেন্ট পদ্ধতি বেছে নিন:", reply.Name))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = b.getMethodKeyboard()
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("failed to send method prompt to %d: %v", chatID, err)
		}

	case workflow.ReplyAskAccountNumber:
		b.sendText(chatID, fmt.Sprintf(
			"✅ আপনি <b>%s</b> বেছে নিয়েছেন।\n\nআপনার <b>%s একাউন্ট নম্বর</b> লিখুন:",
			reply.Method.DisplayName(), reply.Method.DisplayName()))

	case workflow.ReplyInvalidAccountNumber:
		b.sendText(chatID, "❌ ভুল নম্বর ফরম্যাট। ১১ বা ১২ ডিজিটের সঠিক মোবাইল নম্বর দিন।")

	case workflow.ReplyAskAmount:
		b.sendText(chatID, fmt.Sprintf(
			"✅ আপনার একাউন্ট নম্বর: <code>%s</code>।\n\nকত টাকা তুলতে চান? (সর্বনিম্ন: %d৳, আপনার আছে: %d৳)",
			reply.AccountNumber, b.service.MinWithdrawal(), reply.Balance))

	case workflow.ReplyInvalidAmount:
		switch reply.AmountIssue {
		case workflow.AmountNotANumber:
			b.sendText(chatID, "❌ অবৈধ পরিমাণ। সংখ্যায় লিখুন।")
		case workflow.AmountBelowMinimum:
			b.sendText(chatID, fmt.Sprintf("❌ পরিমাণ সঠিক নয়। সর্বনিম্ন %d৳ তুলতে হবে।", b.service.MinWithdrawal()))
		case workflow.AmountAboveBalance:
			b.sendText(chatID, fmt.Sprintf("❌ আপনার ব্যালেন্সের (%d৳) চেয়ে বেশি তুলতে পারবেন না।", reply.Balance))
		}

	case workflow.ReplyConfirmSummary:
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"🔍 <b>আপনার তথ্য যাচাই করুন:</b>\n\n"+
				"👤 নাম: %s\n"+
				"📱 পেমেন্ট পদ্ধতি: %s\n"+
				"📞 একাউন্ট নম্বর: <code>%s</code>\n"+
				"💰 টাকার পরিমাণ: <b>%d৳</b>\n\n"+
				"⚠️ <b>গুরুত্বপূর্ণ:</b> উপরের তথ্যগুলো সঠিক কি? ভুল তথ্যের জন্য পেমেন্ট সমস্যা হতে পারে।",
			reply.Name, reply.Method.DisplayName(), reply.AccountNumber, reply.Amount))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = b.getConfirmKeyboard()
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("failed to send confirmation prompt to %d: %v", chatID, err)
		}

	case workflow.ReplyCancelled:
		b.sendWithMenu(chatID, "❌ উইথড্র প্রক্রিয়া বাতিল করা হয়েছে।")

	case workflow.ReplySubmitted:
		b.sendText(chatID, fmt.Sprintf(
			"✅ আপনার উইথড্র রিকোয়েস্ট (ID: <code>%s</code>) সফলভাবে জমা হয়েছে। এটি ২৪-৭২ ঘন্টার মধ্যে প্রসেস করা হবে।",
			reply.Request.RequestID))
		b.notifyOperators(reply.Request)
		b.sendWithMenu(chatID, "আপনার উইথড্র রিকোয়েস্ট প্রসেস করা হয়েছে।")

	case workflow.ReplyInsufficientFunds:
		b.sendWithMenu(chatID, "❌ দুঃখিত, আপনার ব্যালেন্স এখন এই পরিমাণ টাকা তোলার জন্য পর্যাপ্ত নয়।")

	case workflow.ReplyLedgerFailure:
		b.sendWithMenu(chatID, "❌ ব্যালেন্স আপডেট করতে সমস্যা হয়েছে। পরে আবার চেষ্টা করুন।")

	case workflow.ReplyRecordingFailure:
		refundNote := "আপনার টাকা আপনার মূল ব্যালেন্সে ফেরত দেওয়া হয়েছে।"
		if !reply.Refunded {
			refundNote = "ব্যালেন্স স্বয়ংক্রিয়ভাবে ফেরত দিতেও সমস্যা হয়েছে! অবিলম্বে সাপোর্টে যোগাযোগ করুন।"
		}
		b.sendWithMenu(chatID, "❌ উইথড্র রিকোয়েস্ট জমা দিতে গুরুতর সমস্যা হয়েছে।\n"+refundNote)
	}
}

// sendStatusNotification tells the user about an operator decision on their
// withdrawal request.
func (b *Bot) sendStatusNotification(request *model.WithdrawalRequest, reason string) error {
	var text string
	switch request.Status {
	case model.StatusApproved:
		text = fmt.Sprintf("🎉 অভিনন্দন! আপনার %d৳ উইথড্র (<code>%s</code>) অনুমোদিত হয়েছে।", request.Amount, request.ShortID())
	case model.StatusRejected:
		if reason == "" {
			reason = "N/A"
		}
		text = fmt.Sprintf("⚠️ দুঃখিত, আপনার %d৳ উইথড্র (<code>%s</code>) বাতিল হয়েছে। কারণ: %s", request.Amount, request.ShortID(), reason)
	case model.StatusCompleted:
		text = fmt.Sprintf("💸 আপনার %d৳ উইথড্র (<code>%s</code>) সম্পন্ন হয়েছে!", request.Amount, request.ShortID())
	default:
		return errors.New("no notification for status " + string(request.Status))
	}

	msg := tgbotapi.NewMessage(request.UserID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}
