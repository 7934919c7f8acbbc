package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/seravkin/notify-go/internal/database"
	"github.com/seravkin/notify-go/internal/timeutil"
)

// Dispatcher periodically fires due events. Absolute events are soft
// deleted after delivery; recurrent events are stamped so they fire again
// on the next matching day.
type Dispatcher struct {
	db       *database.DB
	service  *Service
	loc      *time.Location
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewDispatcher creates a dispatcher polling at the given interval
func NewDispatcher(db *database.DB, service *Service, loc *time.Location, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Dispatcher{
		db:       db,
		service:  service,
		loc:      loc,
		interval: interval,
	}
}

// Start launches the background loop
func (d *Dispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})

	go d.run(ctx)
	fmt.Println("Dispatcher started")
}

// Stop terminates the background loop and waits for it to finish
func (d *Dispatcher) Stop() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	<-d.done
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.RunOnce(ctx, time.Now()); err != nil {
				fmt.Printf("Dispatcher: %v\n", err)
			}
		}
	}
}

// RunOnce fires every event due at now
func (d *Dispatcher) RunOnce(ctx context.Context, now time.Time) error {
	local := now.In(d.loc)
	weekday := timeutil.Weekday(now, d.loc)
	startOfDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, d.loc)

	events, err := d.db.GetDueEvents(now, weekday, startOfDay)
	if err != nil {
		return fmt.Errorf("failed to load due events: %w", err)
	}

	for _, event := range events {
		if err := d.service.Deliver(ctx, event); err != nil {
			// Leave the row untouched so the next tick retries it.
			fmt.Printf("Dispatcher: event %d not delivered: %v\n", event.ID, err)
			continue
		}

		if err := d.db.MarkEventFired(event, now); err != nil {
			return fmt.Errorf("failed to mark event %d fired: %w", event.ID, err)
		}
	}

	return nil
}
