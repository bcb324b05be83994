package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gigurra/subsight/internal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SubscriptionsKey is the backend key holding the subscription list
const SubscriptionsKey = "subscriptions"

var (
	ErrNotFound      = errors.New("subscription not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Draft is a subscription that has not been stored yet
type Draft struct {
	Name         string
	Provider     string
	Category     string
	Icon         internal.Icon
	StartDate    internal.Date
	BillingCycle internal.BillingCycle
	Amount       decimal.Decimal
	Currency     internal.CurrencyCode
	Notes        string
	ActiveStatus bool
	AutoRenew    bool
}

// Patch is a partial update; nil fields are left unchanged
type Patch struct {
	Name         *string
	Provider     *string
	Category     *string
	Icon         *internal.Icon
	StartDate    *internal.Date
	BillingCycle *internal.BillingCycle
	Amount       *decimal.Decimal
	Currency     *internal.CurrencyCode
	Notes        *string
	ActiveStatus *bool
	AutoRenew    *bool
}

// IsEmpty returns true if the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Repository is the subscription collection over a Backend. All methods are
// safe for concurrent use.
type Repository struct {
	backend    Backend
	log        *logrus.Logger
	tracker    internal.Tracker
	maxRecords int

	mu       sync.Mutex
	revision uint64
}

// Option configures a Repository
type Option func(*Repository)

func WithTracker(t internal.Tracker) Option {
	return func(r *Repository) { r.tracker = t }
}

func WithMaxRecords(n int) Option {
	return func(r *Repository) { r.maxRecords = n }
}

func NewRepository(backend Backend, log *logrus.Logger, opts ...Option) *Repository {
	r := &Repository{
		backend:    backend,
		log:        log,
		tracker:    internal.NopTracker{},
		maxRecords: internal.MaxImportRecords,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Revision is bumped on every successful write
func (r *Repository) Revision() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revision
}

// List returns a copy of all subscriptions in insertion order
func (r *Repository) List(ctx context.Context) ([]internal.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Snapshot returns the subscriptions together with the revision they belong to
func (r *Repository) Snapshot(ctx context.Context) ([]internal.Subscription, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs, err := r.load(ctx)
	if err != nil {
		return nil, 0, err
	}
	return subs, r.revision, nil
}

// Get returns one subscription
func (r *Repository) Get(ctx context.Context, id string) (internal.Subscription, error) {
	subs, err := r.List(ctx)
	if err != nil {
		return internal.Subscription{}, err
	}
	idx := internal.FindByID(subs, id)
	if idx < 0 {
		return internal.Subscription{}, ErrNotFound
	}
	return subs[idx], nil
}

// load reads the collection. A value that is not a JSON array is logged and
// treated as an empty list; records that are not objects are skipped. Caller
// holds mu.
func (r *Repository) load(ctx context.Context) ([]internal.Subscription, error) {
	data, ok, err := r.backend.Get(ctx, SubscriptionsKey)
	if err != nil {
		return nil, fmt.Errorf("loading subscriptions: %w", err)
	}
	if !ok || len(data) == 0 {
		return []internal.Subscription{}, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		r.log.WithError(err).Warn("stored subscriptions are unreadable, starting from an empty list")
		return []internal.Subscription{}, nil
	}
	subs := make([]internal.Subscription, 0, len(raw))
	for i, item := range raw {
		var sub internal.Subscription
		if err := json.Unmarshal(item, &sub); err != nil {
			r.log.WithError(err).WithField("index", i).Warn("skipping unreadable stored subscription")
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// save writes the collection. Caller holds mu.
func (r *Repository) save(ctx context.Context, subs []internal.Subscription) error {
	if len(subs) > r.maxRecords {
		return fmt.Errorf("%w: %d records, limit is %d", ErrQuotaExceeded, len(subs), r.maxRecords)
	}
	data, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("encoding subscriptions: %w", err)
	}
	if err := r.backend.Put(ctx, SubscriptionsKey, data); err != nil {
		return fmt.Errorf("saving subscriptions: %w", err)
	}
	r.revision++
	return nil
}

// Add stores a new subscription with a fresh id
func (r *Repository) Add(ctx context.Context, d Draft) (internal.Subscription, error) {
	sub := internal.Sanitize(internal.Subscription{
		ID:           uuid.NewString(),
		Name:         d.Name,
		Provider:     d.Provider,
		Category:     d.Category,
		Icon:         d.Icon,
		StartDate:    d.StartDate,
		BillingCycle: d.BillingCycle,
		Amount:       d.Amount,
		Currency:     d.Currency,
		Notes:        d.Notes,
		ActiveStatus: d.ActiveStatus,
		AutoRenew:    d.AutoRenew,
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	subs, err := r.load(ctx)
	if err != nil {
		return internal.Subscription{}, err
	}
	if err := r.save(ctx, append(subs, sub)); err != nil {
		return internal.Subscription{}, err
	}

	r.log.WithFields(logrus.Fields{"id": sub.ID, "name": sub.Name}).Debug("subscription added")
	r.tracker.Track(internal.EventSubscriptionAdded, map[string]any{
		"category":     internal.CategoryOf(sub),
		"billingCycle": string(sub.BillingCycle),
	})
	return sub, nil
}

// Update applies p to the subscription with id. The id itself never changes.
// Only the patched text fields are sanitized, so stored values are not
// escaped twice.
func (r *Repository) Update(ctx context.Context, id string, p Patch) (internal.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, err := r.load(ctx)
	if err != nil {
		return internal.Subscription{}, err
	}
	idx := internal.FindByID(subs, id)
	if idx < 0 {
		return internal.Subscription{}, ErrNotFound
	}

	sub := subs[idx]
	patched := internal.Sanitize(applyPatch(internal.Subscription{}, p))
	if p.Name != nil {
		sub.Name = patched.Name
	}
	if p.Provider != nil {
		sub.Provider = patched.Provider
	}
	if p.Category != nil {
		sub.Category = patched.Category
	}
	if p.Notes != nil {
		sub.Notes = patched.Notes
	}
	if p.Icon != nil {
		sub.Icon = patched.Icon
	}
	if p.Amount != nil {
		sub.Amount = patched.Amount
	}
	sub = applyPatch(sub, Patch{
		StartDate:    p.StartDate,
		BillingCycle: p.BillingCycle,
		Currency:     p.Currency,
		ActiveStatus: p.ActiveStatus,
		AutoRenew:    p.AutoRenew,
	})
	subs[idx] = sub

	if err := r.save(ctx, subs); err != nil {
		return internal.Subscription{}, err
	}

	r.log.WithField("id", id).Debug("subscription updated")
	r.tracker.Track(internal.EventSubscriptionUpdated, map[string]any{"id": id})
	return sub, nil
}

func applyPatch(s internal.Subscription, p Patch) internal.Subscription {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Provider != nil {
		s.Provider = *p.Provider
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Icon != nil {
		s.Icon = *p.Icon
	}
	if p.StartDate != nil {
		s.StartDate = *p.StartDate
	}
	if p.BillingCycle != nil {
		s.BillingCycle = *p.BillingCycle
	}
	if p.Amount != nil {
		s.Amount = *p.Amount
	}
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	if p.ActiveStatus != nil {
		s.ActiveStatus = *p.ActiveStatus
	}
	if p.AutoRenew != nil {
		s.AutoRenew = *p.AutoRenew
	}
	return s
}

// Delete removes the subscription with id
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, err := r.load(ctx)
	if err != nil {
		return err
	}
	idx := internal.FindByID(subs, id)
	if idx < 0 {
		return ErrNotFound
	}
	subs = append(subs[:idx], subs[idx+1:]...)
	if err := r.save(ctx, subs); err != nil {
		return err
	}

	r.log.WithField("id", id).Debug("subscription deleted")
	r.tracker.Track(internal.EventSubscriptionDeleted, map[string]any{"id": id})
	return nil
}

// Import replaces the whole collection. Records missing an id, a name or an
// amount are dropped. It returns how many records were kept.
func (r *Repository) Import(ctx context.Context, subs []internal.Subscription) (int, error) {
	kept := make([]internal.Subscription, 0, len(subs))
	for _, s := range subs {
		if s.ID == "" || s.Name == "" || s.Amount.IsZero() {
			continue
		}
		kept = append(kept, s)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.save(ctx, kept); err != nil {
		return 0, err
	}

	if dropped := len(subs) - len(kept); dropped > 0 {
		r.log.WithField("dropped", dropped).Warn("import skipped incomplete records")
	}
	r.tracker.Track(internal.EventImportData, map[string]any{"count": len(kept)})
	return len(kept), nil
}

// DraftOf copies the user-editable fields of s
func DraftOf(s internal.Subscription) Draft {
	return Draft{
		Name:         s.Name,
		Provider:     s.Provider,
		Category:     s.Category,
		Icon:         s.Icon,
		StartDate:    s.StartDate,
		BillingCycle: s.BillingCycle,
		Amount:       s.Amount,
		Currency:     s.Currency,
		Notes:        s.Notes,
		ActiveStatus: s.ActiveStatus,
		AutoRenew:    s.AutoRenew,
	}
}
