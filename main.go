package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seravkin/notify-go/internal/bot"
	"github.com/seravkin/notify-go/internal/config"
	"github.com/seravkin/notify-go/internal/database"
	"github.com/seravkin/notify-go/internal/gcal"
	"github.com/seravkin/notify-go/internal/notify"
	"github.com/seravkin/notify-go/internal/parser"
	"github.com/seravkin/notify-go/internal/telegram"
	"github.com/seravkin/notify-go/internal/timeutil"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fatal("loading configuration", err)
	}

	if len(os.Args) > 2 && os.Args[1] == "auth" {
		runAuthExchange(cfg, os.Args[2])
		return
	}

	loc, fallback := timeutil.ResolveLocation(cfg.Timezone)
	if fallback {
		fmt.Printf("Warning: timezone %q not found, using UTC\n", cfg.Timezone)
	}

	db, err := database.New(cfg.DBPath)
	if err != nil {
		fatal("creating database", err)
	}
	defer db.Close()

	tgClient := telegram.NewClient(cfg.TelegramBotToken)
	parserClient := parser.NewClient(parser.Config{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		Temperature: &cfg.Temperature,
		Location:    loc,
	})

	calendarClient := initCalendar(cfg)

	notifyService := initNotifyService(tgClient, cfg)
	dispatcher := notify.NewDispatcher(db, notifyService, loc, cfg.DispatchEvery)

	reminderBot := bot.New(bot.Config{
		DB:             db,
		Parser:         parserClient,
		Telegram:       tgClient,
		Calendar:       calendarClient,
		CalendarID:     cfg.GoogleCalendarID,
		AllowedUserIDs: cfg.AllowedUserIDs,
		Location:       loc,
		PollInterval:   cfg.UpdatePollEvery,
	})

	fmt.Println("Starting background dispatcher")
	dispatcher.Start()

	fmt.Println("Starting bot")
	reminderBot.Start()

	waitForShutdown(reminderBot, dispatcher)
}

func initCalendar(cfg *config.Config) bot.CalendarSync {
	client, err := gcal.NewClient(cfg.GoogleCredentialsFile, cfg.GoogleTokenFile)
	if err != nil {
		fmt.Println("Google Calendar: Not configured (credentials not found)")
		return nil
	}

	if !client.IsAuthenticated() {
		fmt.Printf("Google Calendar: Not authenticated - visit %s\n", client.GetAuthURL())
		fmt.Println("Then run: notify-go auth <code>")
		return nil
	}

	fmt.Println("Google Calendar sync configured")
	return client
}

func initNotifyService(tgClient *telegram.Client, cfg *config.Config) *notify.Service {
	var emailNotifier notify.Notifier
	if cfg.ResendAPIKey != "" {
		resendNotifier := notify.NewResendNotifier(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailTo)
		if resendNotifier != nil && resendNotifier.IsConfigured() {
			fmt.Println("Email notification service configured (Resend)")
			emailNotifier = resendNotifier
		}
	}

	return notify.NewService(notify.NewTelegramNotifier(tgClient), emailNotifier)
}

// runAuthExchange completes the Google Calendar OAuth flow: it trades the
// authorization code from the printed URL for a token and saves it next to
// the credentials for subsequent runs.
func runAuthExchange(cfg *config.Config, code string) {
	client, err := gcal.NewClient(cfg.GoogleCredentialsFile, cfg.GoogleTokenFile)
	if err != nil {
		fatal("loading calendar credentials", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.ExchangeCode(ctx, code); err != nil {
		fatal("exchanging authorization code", err)
	}
	fmt.Println("Google Calendar authorized, token saved")
}

func fatal(context string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", context, err)
	os.Exit(1)
}

func waitForShutdown(reminderBot *bot.Bot, dispatcher *notify.Dispatcher) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	fmt.Println("Shutting down...")

	done := make(chan struct{})
	go func() {
		reminderBot.Stop()
		dispatcher.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		fmt.Println("Shutdown timed out")
	}
}
