package userdata

import (
	"context"
	"slices"
	"strings"
	"time"

	"tastemap/models"
	"tastemap/utils"
)

// Mode selects how a set membership changes.
type Mode string

const (
	ModeToggle Mode = "toggle"
	ModeAdd    Mode = "add"
	ModeRemove Mode = "remove"
	// ModeSet applies an interest state as given. Only meaningful for InterestChange.
	ModeSet Mode = "set"
)

// ParseMode reads the "action" field of a toggle request; empty means toggle.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeToggle:
		return ModeToggle, nil
	case ModeAdd:
		return ModeAdd, nil
	case ModeRemove:
		return ModeRemove, nil
	}
	return "", utils.Validation("Invalid action. Use toggle, add or remove")
}

// InterestChange is a request to move a restaurant's interest marker. Want is the marker
// the caller is acting on; Mode decides the resulting state relative to the current one.
type InterestChange struct {
	Want models.InterestState
	Mode Mode
}

// Resolve returns the state that applying c to current yields.
func (c InterestChange) Resolve(current models.InterestState) models.InterestState {
	switch c.Mode {
	case ModeSet, ModeAdd:
		return c.Want
	case ModeRemove:
		if current == c.Want {
			return models.InterestNone
		}
		return current
	default:
		if current == c.Want {
			return models.InterestNone
		}
		return c.Want
	}
}

// Transition is a profile before and after one write.
type Transition struct {
	Before models.UserProfile
	After  models.UserProfile
}

// Repository is the per-user interaction store. Every mutation lazily creates the
// profile and is atomic per username.
type Repository interface {
	GetOrCreate(ctx context.Context, username string, now time.Time) (models.UserProfile, error)
	ListUsernames(ctx context.Context) ([]string, error)
	UpdateVisited(ctx context.Context, username, restaurantID string, mode Mode, now time.Time) (Transition, error)
	UpdateInterest(ctx context.Context, username, restaurantID string, change InterestChange, now time.Time) (Transition, error)
	SaveLocation(ctx context.Context, username string, loc models.SavedLocation, now time.Time) (models.UserProfile, error)
	// RemoveSavedLocation returns utils.ErrNotFound for unknown users.
	RemoveSavedLocation(ctx context.Context, username, locationID string, now time.Time) (models.UserProfile, error)
}

// The apply functions are the reference semantics of each write. MemoryRepository runs
// them directly; MongoRepository mirrors them as update pipelines.

func applyVisited(p *models.UserProfile, rid string, mode Mode) {
	has := slices.Contains(p.Visited, rid)
	member := mode == ModeAdd || (mode == ModeToggle && !has)
	p.Visited = withMembership(p.Visited, rid, member)
}

func applyInterest(p *models.UserProfile, rid string, change InterestChange) {
	target := change.Resolve(p.InterestIn(rid))
	p.Interested = withMembership(p.Interested, rid, target == models.InterestInterested)
	p.NotInterested = withMembership(p.NotInterested, rid, target == models.InterestNotInterested)
}

// applySaveLocation drops any entry with the same name, prepends loc and keeps the newest ten.
func applySaveLocation(p *models.UserProfile, loc models.SavedLocation) {
	locs := make([]models.SavedLocation, 0, len(p.SavedLocations)+1)
	locs = append(locs, loc)
	for _, l := range p.SavedLocations {
		if l.Name != loc.Name {
			locs = append(locs, l)
		}
	}
	if len(locs) > models.MaxSavedLocations {
		locs = locs[:models.MaxSavedLocations]
	}
	p.SavedLocations = locs
}

func applyRemoveLocation(p *models.UserProfile, locationID string) {
	p.SavedLocations = slices.DeleteFunc(p.SavedLocations, func(l models.SavedLocation) bool {
		return l.ID == locationID
	})
}

// withMembership adds id at the end when absent, or removes it; existing order is kept.
func withMembership(ids []string, id string, member bool) []string {
	if member {
		if slices.Contains(ids, id) {
			return ids
		}
		return append(ids, id)
	}
	return without(ids, id)
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
