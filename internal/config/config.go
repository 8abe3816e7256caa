package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken   string
	SupabaseURL     string
	SupabaseKey     string
	BotUsername     string
	SupportUsername string
	AdminIDs        []int64

	JoiningBonus        int64
	ReferralBonus       int64
	MinWithdrawalAmount int64
	BroadcastDelay      time.Duration
}

func LoadConfig() (*Config, error) {
	// .env is optional; on hosting the variables come from the environment.
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:       os.Getenv("TELEGRAM_TOKEN"),
		SupabaseURL:         os.Getenv("SUPABASE_URL"),
		SupabaseKey:         os.Getenv("SUPABASE_KEY"),
		BotUsername:         os.Getenv("BOT_USERNAME"),
		SupportUsername:     os.Getenv("SUPPORT_USERNAME"),
		JoiningBonus:        envInt64("JOINING_BONUS", 50),
		ReferralBonus:       envInt64("REFERRAL_BONUS", 10),
		MinWithdrawalAmount: envInt64("MIN_WITHDRAWAL_AMOUNT", 500),
		BroadcastDelay:      time.Duration(envInt64("BROADCAST_DELAY_MS", 100)) * time.Millisecond,
	}

	for name, value := range map[string]string{
		"TELEGRAM_TOKEN": cfg.TelegramToken,
		"SUPABASE_URL":   cfg.SupabaseURL,
		"SUPABASE_KEY":   cfg.SupabaseKey,
		"BOT_USERNAME":   cfg.BotUsername,
	} {
		if value == "" {
			return nil, fmt.Errorf("missing required configuration %s", name)
		}
	}

	adminIDs, err := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.AdminIDs = adminIDs

	if cfg.JoiningBonus <= 0 || cfg.ReferralBonus <= 0 || cfg.MinWithdrawalAmount <= 0 {
		return nil, fmt.Errorf("bonus and withdrawal amounts must be positive")
	}

	return cfg, nil
}

// IsAdmin reports whether id is on the operator allow-list.
func (c *Config) IsAdmin(id int64) bool {
	for _, adminID := range c.AdminIDs {
		if adminID == id {
			return true
		}
	}
	return false
}

func parseAdminIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_IDS contains non-integer value %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("ADMIN_IDS must list at least one operator id")
	}
	return ids, nil
}

func envInt64(name string, fallback int64) int64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}
