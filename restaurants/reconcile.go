package restaurants

import (
	"context"
	"time"

	"tastemap/models"
	"tastemap/utils"
)

// Reconciler merges freshly observed restaurant snapshots into the store.
type Reconciler struct {
	Store Store
	Now   func() time.Time
}

func NewReconciler(store Store) *Reconciler {
	return &Reconciler{Store: store, Now: time.Now}
}

// Reconcile creates the record for an unseen external id, or patches the fields that the
// observation changes. An observation that changes nothing causes no write.
func (rc *Reconciler) Reconcile(ctx context.Context, obs models.ObservedRestaurant) (models.Restaurant, error) {
	res, err := rc.ReconcileResult(ctx, obs)
	return res.Restaurant, err
}

// ReconcileResult is Reconcile that also reports what was written.
func (rc *Reconciler) ReconcileResult(ctx context.Context, obs models.ObservedRestaurant) (UpsertResult, error) {
	if obs.ExternalID() == "" {
		return UpsertResult{}, utils.Validation("Restaurant data or ID is missing")
	}
	return rc.Store.Upsert(ctx, obs, rc.Now().UTC())
}
