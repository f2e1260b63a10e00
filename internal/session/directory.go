package session

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/telemetry"
)

// AccessLister fetches the memberships of an identity joined with organization names.
// store.OrganizationStore satisfies it.
type AccessLister interface {
	ListAccess(ctx context.Context, identityID uuid.UUID) ([]*models.OrgAccess, error)
}

// CacheRecord is the cached organization list of one identity.
type CacheRecord struct {
	Key       uuid.UUID
	Value     []models.OrgAccess
	FetchedAt time.Time
}

// Directory caches the organizations an identity can access.
// Concurrent refreshes for the same identity share a single fetch.
type Directory struct {
	lister AccessLister
	group  singleflight.Group
	now    func() time.Time

	mu     sync.RWMutex
	record *CacheRecord
	// epoch changes on every invalidation so fetches started before it
	// neither populate the cache nor join fetches started after it.
	epoch uint64
}

// NewDirectory creates an empty directory backed by lister.
func NewDirectory(lister AccessLister) *Directory {
	return &Directory{lister: lister, now: time.Now}
}

// Refresh fetches the organization list for identityID and replaces the cache.
// A call made while a fetch for the same identity is in flight waits for that
// fetch instead of issuing another. On failure the cache is left untouched.
func (d *Directory) Refresh(ctx context.Context, identityID uuid.UUID) ([]models.OrgAccess, error) {
	d.mu.RLock()
	epoch := d.epoch
	d.mu.RUnlock()

	key := fmt.Sprintf("%s/%d", identityID, epoch)
	v, err, shared := d.group.Do(key, func() (any, error) {
		return d.fetch(ctx, identityID, epoch)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		log.Debug().Str("identity_id", identityID.String()).Msg("Joined in-flight directory fetch")
	}

	return slices.Clone(v.([]models.OrgAccess)), nil
}

func (d *Directory) fetch(ctx context.Context, identityID uuid.UUID, epoch uint64) ([]models.OrgAccess, error) {
	metrics := telemetry.GetMetrics()
	ctx, span := telemetry.StartSpan(ctx, "directory.refresh")

	telemetry.Incr(ctx, metrics.DirectoryRefreshesTotal)

	rows, err := d.lister.ListAccess(ctx, identityID)
	telemetry.EndSpan(span, err)
	if err != nil {
		telemetry.Incr(ctx, metrics.DirectoryRefreshErrorsTotal)
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	orgs := make([]models.OrgAccess, 0, len(rows))
	for _, row := range rows {
		if row == nil || strings.TrimSpace(row.Name) == "" {
			continue
		}
		orgs = append(orgs, *row)
	}
	slices.SortStableFunc(orgs, func(a, b models.OrgAccess) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	d.mu.Lock()
	if d.epoch == epoch {
		d.record = &CacheRecord{Key: identityID, Value: orgs, FetchedAt: d.now()}
	}
	d.mu.Unlock()

	log.Debug().
		Str("identity_id", identityID.String()).
		Int("count", len(orgs)).
		Msg("Refreshed organization directory")

	return orgs, nil
}

// Cached returns the cached list for identityID, if one is held.
func (d *Directory) Cached(identityID uuid.UUID) (CacheRecord, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.record == nil || d.record.Key != identityID {
		return CacheRecord{}, false
	}

	rec := *d.record
	rec.Value = slices.Clone(rec.Value)
	return rec, true
}

// Lookup finds orgID in the cached list for identityID.
func (d *Directory) Lookup(identityID, orgID uuid.UUID) (models.OrgAccess, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.record == nil || d.record.Key != identityID {
		return models.OrgAccess{}, false
	}
	for _, org := range d.record.Value {
		if org.OrgID == orgID {
			return org, true
		}
	}
	return models.OrgAccess{}, false
}

// Invalidate drops the cache unconditionally. Fetches already in flight will
// not repopulate it.
func (d *Directory) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record = nil
	d.epoch++
}
