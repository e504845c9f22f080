package directory

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Identity is a resolved attendee. Immutable once built.
type Identity struct {
	ExternalID string `json:"external_id"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
	Email      string `json:"email"`
	PhotoURL   string `json:"photo_url,omitempty"`
}

// FirstName returns the leading token of the full name, used in
// feedback messages.
func (id Identity) FirstName() string {
	name, _, _ := strings.Cut(id.FullName, " ")
	return name
}

// LookupClient is the slice of Client the resolver needs.
type LookupClient interface {
	Lookup(ctx context.Context, rawID string) (Record, error)
	Photo(ctx context.Context, partnerID string) (string, error)
}

// Resolver memoizes directory lookups for one check-in session.
// The cache is keyed by the raw scanned input, not the resolved id:
// two distinct raw inputs resolving to the same student are cached
// separately. A nil entry is a negative mark meaning "looked up,
// confirmed absent", distinct from no entry at all. Transient failures
// are never cached.
type Resolver struct {
	client LookupClient
	log    *zap.Logger

	mu    sync.Mutex
	cache map[string]*Identity
}

// NewResolver creates a resolver with an empty cache.
func NewResolver(client LookupClient, log *zap.Logger) *Resolver {
	return &Resolver{
		client: client,
		log:    log,
		cache:  make(map[string]*Identity),
	}
}

// Resolve maps a raw scanned id to an Identity, ErrNotFound, or a
// TransientError. Cache hits, positive or negative, never touch the
// network.
func (r *Resolver) Resolve(ctx context.Context, rawID string) (Identity, error) {
	r.mu.Lock()
	cached, ok := r.cache[rawID]
	r.mu.Unlock()
	if ok {
		cacheHits.Inc()
		if cached == nil {
			return Identity{}, ErrNotFound
		}
		return *cached, nil
	}
	cacheMisses.Inc()

	start := time.Now()
	rec, err := r.client.Lookup(ctx, rawID)
	lookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if IsTransient(err) {
			return Identity{}, err
		}
		r.storeNegative(rawID)
		return Identity{}, ErrNotFound
	}

	// A 2xx body missing required fields is treated the same as an
	// authoritative not-found and negative-cached.
	if rec.EmailAddress == "" || rec.PartnerID == "" {
		r.log.Debug("incomplete directory record", zap.String("raw_id", rawID))
		r.storeNegative(rawID)
		return Identity{}, ErrNotFound
	}

	identity := Identity{
		ExternalID: rec.PartnerID,
		FullName:   FullNameFromEmail(rec.EmailAddress),
		Department: rec.Department,
		Email:      rec.EmailAddress,
	}
	if identity.Department == "" {
		identity.Department = "N/A"
	}

	// Best-effort photo lookup; failure leaves PhotoURL empty.
	if photo, perr := r.client.Photo(ctx, rec.PartnerID); perr == nil {
		identity.PhotoURL = photo
	} else {
		r.log.Debug("photo lookup failed", zap.String("partner_id", rec.PartnerID), zap.Error(perr))
	}

	r.mu.Lock()
	r.cache[rawID] = &identity
	r.mu.Unlock()
	return identity, nil
}

// Clear drops all cache entries. Called when a session ends.
func (r *Resolver) Clear() {
	r.mu.Lock()
	r.cache = make(map[string]*Identity)
	r.mu.Unlock()
}

func (r *Resolver) storeNegative(rawID string) {
	r.mu.Lock()
	r.cache[rawID] = nil
	r.mu.Unlock()
}

// FullNameFromEmail derives a display name by capitalizing the
// underscore-separated tokens of the email local part.
func FullNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	parts := strings.Split(local, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
