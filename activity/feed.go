package activity

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"tastemap/models"
	"tastemap/utils"
)

// EventsChannel is the redis channel every appended entry is published on.
const EventsChannel = "activity_events"

const (
	DefaultListLimit     = 50
	DefaultUserListLimit = 20
	DefaultMaxEntries    = 1000
)

// Publisher broadcasts appended entries to other services. rdx.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Feed is the shared, append-only activity log.
type Feed struct {
	Store     Store
	Publisher Publisher
	// MaxEntries caps the log; older entries are pruned after each append. Zero disables.
	MaxEntries int
	Now        func() time.Time
}

func NewFeed(store Store, pub Publisher, maxEntries int) *Feed {
	return &Feed{Store: store, Publisher: pub, MaxEntries: maxEntries, Now: time.Now}
}

// Append validates e, stamps its id and time and records it.
func (f *Feed) Append(ctx context.Context, e models.ActivityEntry) (models.ActivityEntry, error) {
	e.User = strings.TrimSpace(e.User)
	e.RestaurantName = strings.TrimSpace(e.RestaurantName)
	e.RestaurantID = strings.TrimSpace(e.RestaurantID)
	if e.User == "" || e.RestaurantName == "" || e.RestaurantID == "" {
		return models.ActivityEntry{}, utils.Validation("User, restaurantName and restaurantId are required")
	}
	if e.Action == "" {
		e.Action = models.ActionVisited
	}
	if !e.Action.Valid() {
		return models.ActivityEntry{}, utils.Validation("Invalid action")
	}
	if e.Location != nil && len(e.Location.Coordinates) != 2 {
		return models.ActivityEntry{}, utils.Validation("Location coordinates must be [lat, lng]")
	}

	e.ID = utils.GetUUID()
	e.CreatedAt = f.Now().UTC()
	if err := f.Store.Insert(ctx, e); err != nil {
		return models.ActivityEntry{}, err
	}

	if f.MaxEntries > 0 {
		pruned, err := f.Store.Prune(ctx, f.MaxEntries)
		if err != nil {
			log.Printf("failed to prune activity feed: %v", err)
		} else if pruned > 0 {
			log.Printf("pruned %d old activity entries", pruned)
		}
	}

	if f.Publisher != nil {
		if err := f.Publisher.Publish(ctx, EventsChannel, e); err != nil {
			log.Println("Failed to publish activity to Redis:", err)
		}
	}
	return e, nil
}

func (f *Feed) ListRecent(ctx context.Context, page utils.Page) ([]models.ActivityEntry, error) {
	return f.Store.List(ctx, "", page.Limit, page.Offset)
}

func (f *Feed) ListRecentForUser(ctx context.Context, username string, page utils.Page) ([]models.ActivityEntry, error) {
	return f.Store.List(ctx, username, page.Limit, page.Offset)
}

func (f *Feed) DeleteOne(ctx context.Context, id string) error {
	err := f.Store.Delete(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		return utils.NotFound("Feed entry not found")
	}
	return err
}

func (f *Feed) ClearAll(ctx context.Context) (int64, error) {
	n, err := f.Store.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	log.Printf("cleared %d activity entries", n)
	return n, nil
}
