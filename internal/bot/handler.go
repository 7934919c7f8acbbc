package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/seravkin/notify-go/internal/reminder"
	"github.com/seravkin/notify-go/internal/telegram"
)

// handler processes a single update against a snapshot of the chat's state.
type handler struct {
	bot    *Bot
	state  State
	states chan<- stateUpdate
}

func (h *handler) handleUpdate(ctx context.Context, update telegram.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return h.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		return h.handleMessage(ctx, update.Message)
	}
	return nil
}

// handleMessage parses the query and replies with the parse result plus the
// confirmation keyboard.
func (h *handler) handleMessage(ctx context.Context, message *telegram.Message) error {
	if message.Text == "" {
		return nil
	}

	var replyText string
	var newState State

	notification, err := h.bot.parser.Parse(ctx, time.Now(), message.Text)
	if err != nil {
		replyText = fmt.Sprintf("Error: %v", err)
		newState = parsedWithErrorState(message.Text)
	} else {
		encoded, err := h.bot.codec.Encode(notification)
		if err != nil {
			return fmt.Errorf("failed to encode notification: %w", err)
		}
		replyText = string(encoded)
		newState = parsedState(message.Text, notification)
	}

	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "Accept", CallbackData: callbackDataAccept}},
			{{Text: "Repeat", CallbackData: callbackDataRepeat}},
			{{Text: "Cancel", CallbackData: callbackDataCancel}},
		},
	}
	if err := h.bot.tg.SendMessage(ctx, message.Chat.ID, replyText, markup); err != nil {
		return err
	}

	h.states <- stateUpdate{chatID: message.Chat.ID, state: newState}
	return nil
}

func (h *handler) handleCallbackQuery(ctx context.Context, query *telegram.CallbackQuery) error {
	data, err := parseCallback(query.Data)
	if err != nil {
		return err
	}

	var answerText string
	newState := h.state

	switch {
	case data.kind == callbackCancel:
		answerText, newState, err = h.cancel(ctx, query)
	case data.kind == callbackRepeat && h.state.Phase != PhaseIdle:
		answerText, newState, err = h.repeat(ctx, query, h.state.Text)
	case data.kind == callbackAccept && h.state.Phase == PhaseParsedWithError:
		answerText = "Impossible to accept notification with errors"
	case data.kind == callbackAccept && h.state.Phase == PhaseParsed:
		answerText, newState, err = h.accept(ctx, query, h.state.Notification)
	case data.kind == callbackDelete:
		answerText, err = h.delete(ctx, query, data.ids)
	}
	if err != nil {
		return err
	}

	h.states <- stateUpdate{chatID: query.From.ID, state: newState}
	return h.bot.tg.AnswerCallbackQuery(ctx, query.ID, answerText)
}

// accept stores the expanded occurrences and rewrites the confirmation
// message with a delete button carrying the new row IDs.
func (h *handler) accept(ctx context.Context, query *telegram.CallbackQuery, notification *reminder.Notification) (string, State, error) {
	if query.Message == nil {
		return "", h.state, fmt.Errorf("callback query has no message")
	}

	occurrences := notification.Occurrences(time.Now(), h.bot.loc)
	ids, err := h.bot.db.InsertOccurrences(query.From.ID, notification.Text, occurrences)
	if err != nil {
		return "", h.state, err
	}

	h.syncToCalendar(ids, occurrences, notification.Text)

	encoded, err := h.bot.codec.Encode(notification)
	if err != nil {
		return "", h.state, err
	}

	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "Cancel", CallbackData: encodeDeleteCallback(ids)}},
		},
	}
	newText := fmt.Sprintf("Response: %s", encoded)
	if err := h.bot.tg.EditMessageText(ctx, query.Message.Chat.ID, query.Message.MessageID, newText, markup); err != nil {
		return "", h.state, err
	}

	return "Notification accepted", idleState(), nil
}

// repeat re-parses the original query and rewrites the confirmation message.
func (h *handler) repeat(ctx context.Context, query *telegram.CallbackQuery, text string) (string, State, error) {
	if query.Message == nil {
		return "", h.state, fmt.Errorf("callback query has no message")
	}

	notification, err := h.bot.parser.Parse(ctx, time.Now(), text)
	if err != nil {
		newText := fmt.Sprintf("Error: %v", err)
		if err := h.bot.tg.EditMessageText(ctx, query.Message.Chat.ID, query.Message.MessageID, newText, nil); err != nil {
			return "", h.state, err
		}
		return "Error while parsing command", parsedWithErrorState(text), nil
	}

	encoded, err := h.bot.codec.Encode(notification)
	if err != nil {
		return "", h.state, err
	}
	newText := fmt.Sprintf("Response: %s", encoded)
	if err := h.bot.tg.EditMessageText(ctx, query.Message.Chat.ID, query.Message.MessageID, newText, nil); err != nil {
		return "", h.state, err
	}

	return "Request was repeated", parsedState(text, notification), nil
}

func (h *handler) cancel(ctx context.Context, query *telegram.CallbackQuery) (string, State, error) {
	if query.Message == nil {
		return "", h.state, fmt.Errorf("callback query has no message")
	}

	if err := h.bot.tg.DeleteMessage(ctx, query.From.ID, query.Message.MessageID); err != nil {
		return "", h.state, err
	}
	return "Canceled", idleState(), nil
}

// delete soft-deletes stored events and removes mirrored calendar entries.
func (h *handler) delete(ctx context.Context, query *telegram.CallbackQuery, ids []int64) (string, error) {
	if query.Message == nil {
		return "", fmt.Errorf("callback query has no message")
	}

	googleIDs, err := h.bot.db.GetGoogleEventIDs(ids)
	if err != nil {
		return "", err
	}

	if err := h.bot.db.SoftDeleteEvents(ids); err != nil {
		return "", err
	}

	if h.bot.calendar != nil && h.bot.calendar.IsAuthenticated() {
		for _, googleID := range googleIDs {
			if err := h.bot.calendar.DeleteEvent(h.bot.calendarID, googleID); err != nil {
				fmt.Printf("Bot: failed to delete calendar event %s: %v\n", googleID, err)
			}
		}
	}

	if err := h.bot.tg.DeleteMessage(ctx, query.From.ID, query.Message.MessageID); err != nil {
		return "", err
	}

	return "Notification deleted", nil
}

// syncToCalendar mirrors absolute occurrences into the calendar, best effort.
// Row IDs line up with occurrences by index.
func (h *handler) syncToCalendar(ids []int64, occurrences []reminder.Occurrence, text string) {
	if h.bot.calendar == nil || !h.bot.calendar.IsAuthenticated() {
		return
	}

	for i, occurrence := range occurrences {
		if occurrence.Kind != reminder.KindAbsolute {
			continue
		}
		googleID, err := h.bot.calendar.CreateReminderEvent(h.bot.calendarID, text, occurrence.At.In(h.bot.loc))
		if err != nil {
			fmt.Printf("Bot: failed to sync event to calendar: %v\n", err)
			continue
		}
		if err := h.bot.db.SetGoogleEventID(ids[i], googleID); err != nil {
			fmt.Printf("Bot: failed to store calendar event id: %v\n", err)
		}
	}
}
