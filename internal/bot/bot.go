package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/seravkin/notify-go/internal/database"
	"github.com/seravkin/notify-go/internal/reminder"
	"github.com/seravkin/notify-go/internal/telegram"
)

// Parser converts a reminder query into a structured notification
type Parser interface {
	Parse(ctx context.Context, now time.Time, text string) (*reminder.Notification, error)
}

// Messenger is the subset of the Bot API the bot talks to
type Messenger interface {
	GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) error
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error
}

// CalendarSync optionally mirrors accepted reminders into a calendar
type CalendarSync interface {
	IsAuthenticated() bool
	CreateReminderEvent(calendarID, text string, at time.Time) (string, error)
	DeleteEvent(calendarID, eventID string) error
}

// Config wires the bot's collaborators
type Config struct {
	DB             *database.DB
	Parser         Parser
	Telegram       Messenger
	Calendar       CalendarSync // optional
	CalendarID     string
	AllowedUserIDs []int64
	Location       *time.Location
	PollInterval   time.Duration
}

// Bot runs the Telegram confirmation flow: every incoming message is parsed
// into a notification, echoed back for Accept / Repeat / Cancel, and stored
// on acceptance.
type Bot struct {
	db         *database.DB
	parser     Parser
	tg         Messenger
	calendar   CalendarSync
	calendarID string
	allowed    map[int64]struct{}
	loc        *time.Location
	codec      *reminder.Codec
	interval   time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a bot
func New(cfg Config) *Bot {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}

	allowed := make(map[int64]struct{}, len(cfg.AllowedUserIDs))
	for _, id := range cfg.AllowedUserIDs {
		allowed[id] = struct{}{}
	}

	return &Bot{
		db:         cfg.DB,
		parser:     cfg.Parser,
		tg:         cfg.Telegram,
		calendar:   cfg.Calendar,
		calendarID: cfg.CalendarID,
		allowed:    allowed,
		loc:        cfg.Location,
		codec:      reminder.NewCodec(cfg.Location),
		interval:   cfg.PollInterval,
	}
}

// Start launches the update loop
func (b *Bot) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})

	go b.run(ctx)
	fmt.Println("Bot started")
}

// Stop terminates the update loop and waits for it to finish
func (b *Bot) Stop() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	<-b.done
}

func (b *Bot) run(ctx context.Context) {
	defer close(b.done)

	var lastOffset int64
	states := make(map[int64]State)
	stateUpdates := make(chan stateUpdate, 64)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		updates, err := b.tg.GetUpdates(ctx, lastOffset)
		if err != nil {
			fmt.Printf("Bot: failed to get updates: %v\n", err)
		}

		for _, update := range updates {
			lastOffset = update.UpdateID + 1

			chatID, ok := update.ChatID()
			if !ok {
				continue
			}
			if _, ok := b.allowed[chatID]; !ok {
				continue
			}

			h := &handler{
				bot:    b,
				state:  states[chatID],
				states: stateUpdates,
			}
			update := update
			go func() {
				if err := h.handleUpdate(ctx, update); err != nil {
					fmt.Printf("Bot: error in update handler: %v\n", err)
				}
			}()
		}

		// Fold in state changes produced by handler goroutines.
	drain:
		for {
			select {
			case change := <-stateUpdates:
				states[change.chatID] = change.state
			default:
				break drain
			}
		}
	}
}
