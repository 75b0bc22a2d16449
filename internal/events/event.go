// Package events stores personal events pinned to lunar dates.
package events

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

var (
	ErrNotFound     = errors.New("event not found")
	ErrExists       = errors.New("event already exists")
	ErrInvalidEvent = errors.New("invalid event")
	ErrNoChanges    = errors.New("no pending changes")
)

// Type classifies a personal event.
type Type string

const (
	Personal Type = "personal"
	Reminder Type = "reminder"
)

// Event is a user-created entry on the lunar calendar.
type Event struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Date        lunar.LunarDate `json:"date"`
	Description string          `json:"description,omitempty"`
	Type        Type            `json:"type"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Input is the user-supplied part of an event.
type Input struct {
	Title       string          `json:"title"`
	Date        lunar.LunarDate `json:"date"`
	Description string          `json:"description"`
	Type        Type            `json:"type"`
}

// NewEvent validates in and builds an event with a fresh ID. The day is
// clamped to the month's length as reported by daysInMonth.
func NewEvent(in Input, daysInMonth func(month int) int, now time.Time) (Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Event{}, fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if in.Date.Month < 1 || in.Date.Month > 12 {
		return Event{}, fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidEvent)
	}

	typ := in.Type
	switch typ {
	case "":
		typ = Personal
	case Personal, Reminder:
	default:
		return Event{}, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, typ)
	}

	date := in.Date
	maxDay := 30
	if daysInMonth != nil {
		maxDay = daysInMonth(date.Month)
	}
	date.Day = max(1, min(date.Day, maxDay))

	return Event{
		ID:          uuid.NewString(),
		Title:       title,
		Date:        date,
		Description: strings.TrimSpace(in.Description),
		Type:        typ,
		CreatedAt:   now.UTC(),
	}, nil
}

// Store persists events. Implementations are safe for concurrent use.
type Store interface {
	List(ctx context.Context) ([]Event, error)
	ListOn(ctx context.Context, date lunar.LunarDate) ([]Event, error)
	Get(ctx context.Context, id string) (Event, error)
	Add(ctx context.Context, e Event) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Changeset is implemented by stores that stage edits before committing them.
type Changeset interface {
	HasChanges() bool
	Commit() error
	Revert() error
}

// Sort orders events by lunar date, then creation time.
func Sort(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case b.Date.Before(a.Date):
			return 1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// On returns the events falling on date.
func On(events []Event, date lunar.LunarDate) []Event {
	var out []Event
	for _, e := range events {
		if lunar.IsSameDate(e.Date, date) {
			out = append(out, e)
		}
	}
	return out
}
