package userdata

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"tastemap/models"
	"tastemap/utils"
)

const (
	minUsernameLen = 2
	maxUsernameLen = 20
	maxLocationLen = 100
)

// Reconciler merges a client-observed restaurant snapshot into the restaurant store.
type Reconciler interface {
	Reconcile(ctx context.Context, obs models.ObservedRestaurant) (models.Restaurant, error)
}

// FeedAppender records activity entries.
type FeedAppender interface {
	Append(ctx context.Context, entry models.ActivityEntry) (models.ActivityEntry, error)
}

// Ledger is the user interaction service: visits, interest markers and saved locations.
type Ledger struct {
	Repo       Repository
	Reconciler Reconciler
	Feed       FeedAppender
	Now        func() time.Time
}

func NewLedger(repo Repository, rc Reconciler, feed FeedAppender) *Ledger {
	return &Ledger{Repo: repo, Reconciler: rc, Feed: feed, Now: time.Now}
}

// Interaction carries the optional parts of a visited/interest request.
type Interaction struct {
	RestaurantName string
	RestaurantData *models.ObservedRestaurant
	Mode           Mode
}

func ValidateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	n := utf8.RuneCountInString(username)
	if n < minUsernameLen || n > maxUsernameLen {
		return "", utils.Validation("Username must be between 2 and 20 characters")
	}
	return username, nil
}

func (l *Ledger) now() time.Time { return l.Now().UTC() }

func (l *Ledger) Profile(ctx context.Context, username string) (models.UserProfile, error) {
	username, err := ValidateUsername(username)
	if err != nil {
		return models.UserProfile{}, err
	}
	return l.Repo.GetOrCreate(ctx, username, l.now())
}

func (l *Ledger) ListUsernames(ctx context.Context) ([]string, error) {
	return l.Repo.ListUsernames(ctx)
}

// RecordVisited applies a visited toggle/add/remove. A transition into visited appends a
// feed entry when the restaurant name is known; leaving visited never touches the feed.
func (l *Ledger) RecordVisited(ctx context.Context, username, rid string, in Interaction) (Transition, error) {
	username, rid, err := validateKeys(username, rid)
	if err != nil {
		return Transition{}, err
	}
	snapshot, err := l.reconcile(ctx, rid, in.RestaurantData)
	if err != nil {
		return Transition{}, err
	}

	t, err := l.Repo.UpdateVisited(ctx, username, rid, modeOrToggle(in.Mode), l.now())
	if err != nil {
		return Transition{}, err
	}

	if !t.Before.HasVisited(rid) && t.After.HasVisited(rid) {
		name := strings.TrimSpace(in.RestaurantName)
		if name == "" && snapshot != nil {
			name = snapshot.Name
		}
		l.appendVisit(ctx, username, rid, name)
	}
	return t, nil
}

// RecordInterest applies change to the interest marker of rid.
func (l *Ledger) RecordInterest(ctx context.Context, username, rid string, change InterestChange, data *models.ObservedRestaurant) (Transition, error) {
	username, rid, err := validateKeys(username, rid)
	if err != nil {
		return Transition{}, err
	}
	switch change.Want {
	case models.InterestInterested, models.InterestNotInterested:
	case models.InterestNone:
		if change.Mode != ModeSet {
			return Transition{}, utils.Validation("Invalid interest state")
		}
	default:
		return Transition{}, utils.Validation("Invalid interest state")
	}
	if _, err := l.reconcile(ctx, rid, data); err != nil {
		return Transition{}, err
	}
	change.Mode = modeOrToggle(change.Mode)
	return l.Repo.UpdateInterest(ctx, username, rid, change, l.now())
}

func (l *Ledger) ToggleVisited(ctx context.Context, username, rid, restaurantName string) (bool, error) {
	t, err := l.RecordVisited(ctx, username, rid, Interaction{RestaurantName: restaurantName})
	return t.After.HasVisited(rid), err
}

func (l *Ledger) ToggleInterested(ctx context.Context, username, rid string) (bool, error) {
	t, err := l.RecordInterest(ctx, username, rid, InterestChange{Want: models.InterestInterested}, nil)
	return t.After.InterestIn(rid) == models.InterestInterested, err
}

func (l *Ledger) ToggleNotInterested(ctx context.Context, username, rid string) (bool, error) {
	t, err := l.RecordInterest(ctx, username, rid, InterestChange{Want: models.InterestNotInterested}, nil)
	return t.After.InterestIn(rid) == models.InterestNotInterested, err
}

// SetInterestState moves rid to exactly state, clearing the opposite marker.
func (l *Ledger) SetInterestState(ctx context.Context, username, rid string, state models.InterestState) (models.UserProfile, error) {
	t, err := l.RecordInterest(ctx, username, rid, InterestChange{Want: state, Mode: ModeSet}, nil)
	return t.After, err
}

func (l *Ledger) SaveLocation(ctx context.Context, username, name string, coords []float64) (models.UserProfile, error) {
	username, err := ValidateUsername(username)
	if err != nil {
		return models.UserProfile{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxLocationLen {
		return models.UserProfile{}, utils.Validation("Location name is required")
	}
	if len(coords) != 2 || !(models.Point{Lat: coords[0], Lng: coords[1]}).Valid() {
		return models.UserProfile{}, utils.Validation("Coordinates must be [lat, lng]")
	}

	now := l.now()
	loc := models.SavedLocation{
		ID:          utils.GetUUID(),
		Name:        name,
		Coordinates: []float64{coords[0], coords[1]},
		SavedAt:     now,
	}
	return l.Repo.SaveLocation(ctx, username, loc, now)
}

func (l *Ledger) RemoveSavedLocation(ctx context.Context, username, locationID string) (models.UserProfile, error) {
	username, err := ValidateUsername(username)
	if err != nil {
		return models.UserProfile{}, err
	}
	p, err := l.Repo.RemoveSavedLocation(ctx, username, locationID, l.now())
	if errors.Is(err, utils.ErrNotFound) {
		return models.UserProfile{}, utils.NotFound("User not found")
	}
	return p, err
}

// reconcile passes a client snapshot through to the restaurant store. The path id wins
// when the snapshot carries none.
func (l *Ledger) reconcile(ctx context.Context, rid string, data *models.ObservedRestaurant) (*models.Restaurant, error) {
	if data == nil || l.Reconciler == nil {
		return nil, nil
	}
	obs := *data
	if obs.ExternalID() == "" {
		obs.ID = models.FlexibleID(rid)
	}
	r, err := l.Reconciler.Reconcile(ctx, obs)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (l *Ledger) appendVisit(ctx context.Context, username, rid, name string) {
	if l.Feed == nil {
		return
	}
	if name == "" {
		log.Printf("no restaurant name for visit %s by %s; feed entry skipped", rid, username)
		return
	}
	_, err := l.Feed.Append(ctx, models.ActivityEntry{
		User:           username,
		RestaurantName: name,
		RestaurantID:   rid,
		Action:         models.ActionVisited,
	})
	if err != nil {
		log.Printf("failed to add visit of %s by %s to feed: %v", rid, username, err)
	}
}

func validateKeys(username, rid string) (string, string, error) {
	username, err := ValidateUsername(username)
	if err != nil {
		return "", "", err
	}
	rid = strings.TrimSpace(rid)
	if rid == "" {
		return "", "", utils.Validation("Restaurant ID is required")
	}
	return username, rid, nil
}

func modeOrToggle(m Mode) Mode {
	if m == "" {
		return ModeToggle
	}
	return m
}
