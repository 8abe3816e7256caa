package main

import (
	"log"

	"github.com/getpaidbd/referralbot/internal/bot"
	"github.com/getpaidbd/referralbot/internal/charts"
	"github.com/getpaidbd/referralbot/internal/config"
	"github.com/getpaidbd/referralbot/internal/repository"
	"github.com/getpaidbd/referralbot/internal/service"
	"github.com/getpaidbd/referralbot/internal/workflow"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	repo, err := repository.NewSupabaseRepository(cfg.SupabaseURL, cfg.SupabaseKey)
	if err != nil {
		log.Fatal(err)
	}

	rewards := service.NewRewardService(repo, cfg.JoiningBonus, cfg.ReferralBonus, cfg.MinWithdrawalAmount)
	engine := workflow.NewEngine(rewards)

	bot, err := bot.NewBot(cfg, rewards, engine, charts.NewChartGenerator())
	if err != nil {
		log.Fatal(err)
	}

	if err := bot.Start(); err != nil {
		log.Fatal(err)
	}
}
