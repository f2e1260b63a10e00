package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/telemetry"
)

// storageKeyPrefix namespaces the persisted pointer; the identity id follows it.
const storageKeyPrefix = "contacerta:org:"

// ErrNoIdentity is returned when an operation needs a logged-in identity.
var ErrNoIdentity = errors.New("no identity logged in")

// Persister is durable client storage with one value per key.
// prefs.Store and prefs.Memory satisfy it.
type Persister interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// StorageKey returns the key the active pointer of identityID is stored under.
func StorageKey(identityID uuid.UUID) string {
	return storageKeyPrefix + identityID.String()
}

// Selector holds the active organization pointer of the current identity and
// persists it so it survives restarts.
type Selector struct {
	store Persister

	mu       sync.RWMutex
	identity uuid.UUID
	active   models.ActiveOrg
}

// NewSelector creates a selector with no identity.
func NewSelector(store Persister) *Selector {
	return &Selector{store: store}
}

// Restore binds the selector to identityID and loads its persisted pointer.
// A missing, unreadable or corrupt value leaves no active organization; corrupt
// values are removed from storage. Restore never fails.
func (s *Selector) Restore(identityID uuid.UUID) (models.ActiveOrg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = identityID
	s.active = models.ActiveOrg{}

	key := StorageKey(identityID)
	raw, ok, err := s.store.Get(key)
	if err != nil {
		log.Warn().Err(err).Str("identity_id", identityID.String()).Msg("Failed to read active organization, starting without one")
		return models.ActiveOrg{}, false
	}
	if !ok {
		return models.ActiveOrg{}, false
	}

	active, err := decodeActive(raw)
	if err != nil {
		log.Warn().Err(err).Str("identity_id", identityID.String()).Msg("Discarding corrupt active organization")
		telemetry.Incr(context.Background(), telemetry.GetMetrics().CorruptPointersDiscardedTotal)
		if err := s.store.Delete(key); err != nil {
			log.Warn().Err(err).Msg("Failed to delete corrupt active organization")
		}
		return models.ActiveOrg{}, false
	}

	s.active = active
	return active, true
}

// SetActive overwrites the pointer and persists it for the current identity.
// The in-memory pointer is updated even if persisting fails.
func (s *Selector) SetActive(orgID uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == uuid.Nil {
		return ErrNoIdentity
	}
	if orgID == uuid.Nil {
		return errors.New("organization id is required")
	}

	s.active = models.ActiveOrg{OrgID: orgID, Name: name}

	data, err := json.Marshal(s.active)
	if err != nil {
		return fmt.Errorf("failed to encode active organization: %w", err)
	}
	if err := s.store.Set(StorageKey(s.identity), string(data)); err != nil {
		return fmt.Errorf("failed to persist active organization: %w", err)
	}
	return nil
}

// ClearActive removes the pointer from memory and storage.
func (s *Selector) ClearActive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = models.ActiveOrg{}
	if s.identity == uuid.Nil {
		return nil
	}
	if err := s.store.Delete(StorageKey(s.identity)); err != nil {
		return fmt.Errorf("failed to clear active organization: %w", err)
	}
	return nil
}

// Active returns the current pointer, if any.
func (s *Selector) Active() (models.ActiveOrg, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, !s.active.IsZero()
}

// Reset forgets the identity and the in-memory pointer without touching storage.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = uuid.Nil
	s.active = models.ActiveOrg{}
}

func decodeActive(raw string) (models.ActiveOrg, error) {
	var active models.ActiveOrg
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&active); err != nil {
		return models.ActiveOrg{}, err
	}
	if active.IsZero() {
		return models.ActiveOrg{}, errors.New("missing organization id")
	}
	return active, nil
}
