package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seravkin/notify-go/internal/database"
	"github.com/seravkin/notify-go/internal/reminder"
	"github.com/seravkin/notify-go/internal/telegram"
)

var testZone = time.FixedZone("UTC+2", 2*60*60)

type fakeParser struct {
	mu           sync.Mutex
	notification *reminder.Notification
	err          error
	queries      []string
}

func (f *fakeParser) Parse(ctx context.Context, now time.Time, text string) (*reminder.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, text)
	return f.notification, f.err
}

func (f *fakeParser) queryLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type sentMessage struct {
	chatID int64
	text   string
	markup *telegram.InlineKeyboardMarkup
}

type editedMessage struct {
	chatID    int64
	messageID int64
	text      string
	markup    *telegram.InlineKeyboardMarkup
}

type deletedMessage struct {
	chatID    int64
	messageID int64
}

type fakeMessenger struct {
	mu      sync.Mutex
	updates []telegram.Update
	offsets []int64
	sent    []sentMessage
	edited  []editedMessage
	deleted []deletedMessage
	answers []string
}

func (f *fakeMessenger) setUpdates(updates []telegram.Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = updates
}

func (f *fakeMessenger) GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsets = append(f.offsets, offset)
	updates := f.updates
	f.updates = nil
	return updates, nil
}

func (f *fakeMessenger) SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, markup: markup})
	return nil
}

func (f *fakeMessenger) EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edited = append(f.edited, editedMessage{chatID: chatID, messageID: messageID, text: text, markup: markup})
	return nil
}

func (f *fakeMessenger) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, deletedMessage{chatID: chatID, messageID: messageID})
	return nil
}

func (f *fakeMessenger) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeMessenger) sentLog() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeMessenger) offsetLog() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.offsets...)
}

type createdEvent struct {
	calendarID string
	text       string
	at         time.Time
}

type fakeCalendar struct {
	authenticated bool
	created       []createdEvent
	deleted       []string
	nextID        int
}

func (f *fakeCalendar) IsAuthenticated() bool { return f.authenticated }

func (f *fakeCalendar) CreateReminderEvent(calendarID, text string, at time.Time) (string, error) {
	f.created = append(f.created, createdEvent{calendarID: calendarID, text: text, at: at})
	f.nextID++
	return fmt.Sprintf("gcal-%d", f.nextID), nil
}

func (f *fakeCalendar) DeleteEvent(calendarID, eventID string) error {
	f.deleted = append(f.deleted, eventID)
	return nil
}

type fixture struct {
	bot       *Bot
	db        *database.DB
	parser    *fakeParser
	messenger *fakeMessenger
	calendar  *fakeCalendar
	states    chan stateUpdate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:        database.NewTestDB(t),
		parser:    &fakeParser{},
		messenger: &fakeMessenger{},
		calendar:  &fakeCalendar{},
		states:    make(chan stateUpdate, 8),
	}
	f.bot = New(Config{
		DB:             f.db,
		Parser:         f.parser,
		Telegram:       f.messenger,
		Calendar:       f.calendar,
		CalendarID:     "primary",
		AllowedUserIDs: []int64{42},
		Location:       testZone,
		PollInterval:   10 * time.Millisecond,
	})
	return f
}

func (f *fixture) handler(state State) *handler {
	return &handler{bot: f.bot, state: state, states: f.states}
}

func (f *fixture) lastState(t *testing.T) State {
	t.Helper()
	select {
	case change := <-f.states:
		return change.state
	default:
		t.Fatal("no state update recorded")
		return State{}
	}
}

func messageUpdate(text string) telegram.Update {
	return telegram.Update{
		UpdateID: 1,
		Message:  &telegram.Message{MessageID: 10, Chat: telegram.Chat{ID: 42}, Text: text},
	}
}

func callbackUpdate(data string) telegram.Update {
	return telegram.Update{
		UpdateID: 2,
		CallbackQuery: &telegram.CallbackQuery{
			ID:      "cb-1",
			From:    telegram.User{ID: 42},
			Message: &telegram.Message{MessageID: 10, Chat: telegram.Chat{ID: 42}},
			Data:    data,
		},
	}
}

func absoluteNotification() *reminder.Notification {
	return &reminder.Notification{
		Kind:  reminder.KindAbsolute,
		Text:  "проверить почту",
		Times: []time.Time{time.Date(2023, 1, 27, 10, 0, 0, 0, time.UTC)},
	}
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data     string
		expected callback
		wantErr  bool
	}{
		{data: "accept", expected: callback{kind: callbackAccept}},
		{data: "repeat", expected: callback{kind: callbackRepeat}},
		{data: "cancel", expected: callback{kind: callbackCancel}},
		{data: "1,2,3", expected: callback{kind: callbackDelete, ids: []int64{1, 2, 3}}},
		{data: "7", expected: callback{kind: callbackDelete, ids: []int64{7}}},
		{data: "not-a-callback", wantErr: true},
		{data: "1,x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			parsed, err := parseCallback(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, parsed)
		})
	}
}

func TestEncodeDeleteCallback(t *testing.T) {
	data := encodeDeleteCallback([]int64{1, 2, 3})
	assert.Equal(t, "1,2,3", data)

	parsed, err := parseCallback(data)
	require.NoError(t, err)
	assert.Equal(t, callback{kind: callbackDelete, ids: []int64{1, 2, 3}}, parsed)
}

func TestHandleMessageParsed(t *testing.T) {
	f := newFixture(t)
	f.parser.notification = absoluteNotification()

	update := messageUpdate("завтра в 12 напомни проверить почту")
	require.NoError(t, f.handler(idleState()).handleUpdate(context.Background(), update))

	require.Len(t, f.messenger.sent, 1)
	reply := f.messenger.sent[0]
	assert.Equal(t, int64(42), reply.chatID)
	assert.JSONEq(t, `{"kind": "abs", "text": "проверить почту", "times": ["27.01.2023 12:00:00"]}`, reply.text)

	require.NotNil(t, reply.markup)
	require.Len(t, reply.markup.InlineKeyboard, 3)
	assert.Equal(t, "Accept", reply.markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "Repeat", reply.markup.InlineKeyboard[1][0].Text)
	assert.Equal(t, "Cancel", reply.markup.InlineKeyboard[2][0].Text)

	state := f.lastState(t)
	assert.Equal(t, PhaseParsed, state.Phase)
	assert.Equal(t, "завтра в 12 напомни проверить почту", state.Text)
	require.NotNil(t, state.Notification)
}

func TestHandleMessageParseError(t *testing.T) {
	f := newFixture(t)
	f.parser.err = fmt.Errorf("no completion given")

	require.NoError(t, f.handler(idleState()).handleUpdate(context.Background(), messageUpdate("???")))

	require.Len(t, f.messenger.sent, 1)
	assert.Contains(t, f.messenger.sent[0].text, "Error: no completion given")

	state := f.lastState(t)
	assert.Equal(t, PhaseParsedWithError, state.Phase)
	assert.Equal(t, "???", state.Text)
}

func TestAcceptStoresOccurrences(t *testing.T) {
	f := newFixture(t)
	notification := absoluteNotification()

	state := parsedState("query", notification)
	require.NoError(t, f.handler(state).handleUpdate(context.Background(), callbackUpdate("accept")))

	require.Len(t, f.messenger.edited, 1)
	edit := f.messenger.edited[0]
	assert.Contains(t, edit.text, "Response: ")
	require.NotNil(t, edit.markup)
	assert.Equal(t, "Cancel", edit.markup.InlineKeyboard[0][0].Text)

	// The Cancel button carries the stored row IDs for deletion.
	parsed, err := parseCallback(edit.markup.InlineKeyboard[0][0].CallbackData)
	require.NoError(t, err)
	assert.Equal(t, callbackDelete, parsed.kind)
	require.Len(t, parsed.ids, 1)

	event, err := f.db.GetEventByID(parsed.ids[0])
	require.NoError(t, err)
	assert.Equal(t, "проверить почту", event.Text)
	assert.False(t, event.IsDeleted)

	require.Len(t, f.messenger.answers, 1)
	assert.Equal(t, "Notification accepted", f.messenger.answers[0])
	assert.Equal(t, PhaseIdle, f.lastState(t).Phase)
}

func TestAcceptWithErrorsRejected(t *testing.T) {
	f := newFixture(t)

	state := parsedWithErrorState("query")
	require.NoError(t, f.handler(state).handleUpdate(context.Background(), callbackUpdate("accept")))

	require.Len(t, f.messenger.answers, 1)
	assert.Equal(t, "Impossible to accept notification with errors", f.messenger.answers[0])
	assert.Empty(t, f.messenger.edited)
	assert.Equal(t, PhaseParsedWithError, f.lastState(t).Phase)
}

func TestAcceptWhenIdleIgnored(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.handler(idleState()).handleUpdate(context.Background(), callbackUpdate("accept")))

	assert.Empty(t, f.messenger.edited)
	require.Len(t, f.messenger.answers, 1)
	assert.Equal(t, "", f.messenger.answers[0])
}

func TestRepeatReparses(t *testing.T) {
	f := newFixture(t)
	f.parser.notification = absoluteNotification()

	state := parsedWithErrorState("original query")
	require.NoError(t, f.handler(state).handleUpdate(context.Background(), callbackUpdate("repeat")))

	assert.Equal(t, []string{"original query"}, f.parser.queries)

	require.Len(t, f.messenger.edited, 1)
	assert.Contains(t, f.messenger.edited[0].text, "Response: ")

	require.Len(t, f.messenger.answers, 1)
	assert.Equal(t, "Request was repeated", f.messenger.answers[0])

	newState := f.lastState(t)
	assert.Equal(t, PhaseParsed, newState.Phase)
	assert.Equal(t, "original query", newState.Text)
}

func TestRepeatFailureKeepsErrorState(t *testing.T) {
	f := newFixture(t)
	f.parser.err = fmt.Errorf("no completion given")

	state := parsedState("original query", absoluteNotification())
	require.NoError(t, f.handler(state).handleUpdate(context.Background(), callbackUpdate("repeat")))

	require.Len(t, f.messenger.edited, 1)
	assert.Contains(t, f.messenger.edited[0].text, "Error: no completion given")

	require.Len(t, f.messenger.answers, 1)
	assert.Equal(t, "Error while parsing command", f.messenger.answers[0])
	assert.Equal(t, PhaseParsedWithError, f.lastState(t).Phase)
}

func TestCancelDeletesMessage(t *testing.T) {
	f := newFixture(t)

	state := parsedState("query", absoluteNotification())
	require.NoError(t, f.handler(state).handleUpdate(context.Background(), callbackUpdate("cancel")))

	require.Len(t, f.messenger.deleted, 1)
	assert.Equal(t, deletedMessage{chatID: 42, messageID: 10}, f.messenger.deleted[0])

	require.Len(t, f.messenger.answers, 1)
	assert.Equal(t, "Canceled", f.messenger.answers[0])
	assert.Equal(t, PhaseIdle, f.lastState(t).Phase)
}

func TestDeleteCallbackSoftDeletes(t *testing.T) {
	f := newFixture(t)

	ids, err := f.db.InsertOccurrences(42, "проверить почту", []reminder.Occurrence{
		{Kind: reminder.KindAbsolute, At: time.Now().Add(time.Hour)},
	})
	require.NoError(t, err)

	data := encodeDeleteCallback(ids)
	require.NoError(t, f.handler(idleState()).handleUpdate(context.Background(), callbackUpdate(data)))

	event, err := f.db.GetEventByID(ids[0])
	require.NoError(t, err)
	assert.True(t, event.IsDeleted)

	require.Len(t, f.messenger.deleted, 1)
	require.Len(t, f.messenger.answers, 1)
	assert.Equal(t, "Notification deleted", f.messenger.answers[0])
}

func TestAcceptSyncsToCalendar(t *testing.T) {
	f := newFixture(t)
	f.calendar.authenticated = true
	notification := absoluteNotification()

	state := parsedState("query", notification)
	require.NoError(t, f.handler(state).handleUpdate(context.Background(), callbackUpdate("accept")))

	require.Len(t, f.calendar.created, 1)
	assert.Equal(t, "primary", f.calendar.created[0].calendarID)
	assert.Equal(t, "проверить почту", f.calendar.created[0].text)

	edit := f.messenger.edited[0]
	parsed, err := parseCallback(edit.markup.InlineKeyboard[0][0].CallbackData)
	require.NoError(t, err)

	event, err := f.db.GetEventByID(parsed.ids[0])
	require.NoError(t, err)
	require.NotNil(t, event.GoogleEventID)
	assert.Equal(t, "gcal-1", *event.GoogleEventID)
}

func TestDeleteRemovesCalendarEvents(t *testing.T) {
	f := newFixture(t)
	f.calendar.authenticated = true

	ids, err := f.db.InsertOccurrences(42, "проверить почту", []reminder.Occurrence{
		{Kind: reminder.KindAbsolute, At: time.Now().Add(time.Hour)},
	})
	require.NoError(t, err)
	require.NoError(t, f.db.SetGoogleEventID(ids[0], "gcal-7"))

	data := encodeDeleteCallback(ids)
	require.NoError(t, f.handler(idleState()).handleUpdate(context.Background(), callbackUpdate(data)))

	assert.Equal(t, []string{"gcal-7"}, f.calendar.deleted)
}

func TestRecurrentAcceptStoresSlots(t *testing.T) {
	f := newFixture(t)
	notification := &reminder.Notification{
		Kind:  reminder.KindRecurrent,
		Text:  "пить таблетки",
		Days:  []int{1, 3},
		Clock: []reminder.ClockTime{{Hours: 9}},
	}

	state := parsedState("query", notification)
	require.NoError(t, f.handler(state).handleUpdate(context.Background(), callbackUpdate("accept")))

	edit := f.messenger.edited[0]
	parsed, err := parseCallback(edit.markup.InlineKeyboard[0][0].CallbackData)
	require.NoError(t, err)
	require.Len(t, parsed.ids, 2)

	for _, id := range parsed.ids {
		event, err := f.db.GetEventByID(id)
		require.NoError(t, err)
		assert.Equal(t, database.EventKindRecurrent, event.Kind)
	}
	// Recurrent slots are not mirrored into the calendar.
	assert.Empty(t, f.calendar.created)
}
