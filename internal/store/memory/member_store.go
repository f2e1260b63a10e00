package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// MemberStore implements store.MemberStore on a Backend.
type MemberStore struct {
	b *Backend
}

var _ store.MemberStore = (*MemberStore)(nil)

func (s *MemberStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListMembersOptions) ([]*models.Member, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	if !s.b.visible(ctx, orgID) {
		return nil, nil
	}

	var result []*models.Member
	for _, m := range s.b.members {
		if m.OrgID != orgID {
			continue
		}
		if opts.Status != "" && m.Status != opts.Status {
			continue
		}
		if !matches(opts.Search, m.FullName, deref(m.Email)) {
			continue
		}
		clone := *m
		result = append(result, &clone)
	}

	sortByName(result, func(m *models.Member) string { return m.FullName })
	return limit(result, opts.Limit), nil
}

func (s *MemberStore) Get(ctx context.Context, orgID, memberID uuid.UUID) (*models.Member, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	m, ok := s.b.members[memberID]
	if !ok || m.OrgID != orgID || !s.b.visible(ctx, orgID) {
		return nil, store.ErrMemberNotFound
	}
	clone := *m
	return &clone, nil
}

func (s *MemberStore) Create(ctx context.Context, member *models.Member) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if err := s.b.checkWrite(ctx, member.OrgID); err != nil {
		return err
	}
	if err := checkMember(member); err != nil {
		return err
	}

	if member.ID == uuid.Nil {
		member.ID = newID()
	}
	now := s.b.now()
	member.CreatedAt = now
	member.UpdatedAt = now

	clone := *member
	s.b.members[member.ID] = &clone
	return nil
}

func (s *MemberStore) Update(ctx context.Context, member *models.Member) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	existing, ok := s.b.members[member.ID]
	if !ok || existing.OrgID != member.OrgID || !s.b.visible(ctx, member.OrgID) {
		return store.ErrMemberNotFound
	}
	if err := checkMember(member); err != nil {
		return err
	}

	member.CreatedAt = existing.CreatedAt
	member.UpdatedAt = s.b.now()
	clone := *member
	s.b.members[member.ID] = &clone
	return nil
}

func (s *MemberStore) Delete(ctx context.Context, orgID, memberID uuid.UUID) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	m, ok := s.b.members[memberID]
	if !ok || m.OrgID != orgID || !s.b.visible(ctx, orgID) {
		return store.ErrMemberNotFound
	}
	for _, d := range s.b.documents {
		if id, ok := d.Party.MemberID(); ok && id == memberID {
			return store.NewConstraintError(store.ConstraintForeignKey, "documents_member_id_fkey")
		}
	}

	delete(s.b.members, memberID)
	delete(s.b.memberMinistries, memberID)
	return nil
}

func (s *MemberStore) ListMinistries(ctx context.Context, orgID, memberID uuid.UUID) ([]uuid.UUID, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	m, ok := s.b.members[memberID]
	if !ok || m.OrgID != orgID || !s.b.visible(ctx, orgID) {
		return nil, nil
	}
	return slices.Clone(s.b.memberMinistries[memberID]), nil
}

func (s *MemberStore) ReplaceMinistries(ctx context.Context, orgID, memberID uuid.UUID, ministryIDs []uuid.UUID) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if err := s.b.checkWrite(ctx, orgID); err != nil {
		return err
	}
	if !inOrg(s.b.members, memberID, orgID, func(m *models.Member) uuid.UUID { return m.OrgID }) {
		return store.ErrMemberNotFound
	}

	set := make([]uuid.UUID, 0, len(ministryIDs))
	for _, id := range ministryIDs {
		if !inOrg(s.b.ministries, id, orgID, func(m *models.Ministry) uuid.UUID { return m.OrgID }) {
			return store.NewConstraintError(store.ConstraintForeignKey, "member_ministries_ministry_id_fkey")
		}
		if !slices.Contains(set, id) {
			set = append(set, id)
		}
	}

	if len(set) == 0 {
		delete(s.b.memberMinistries, memberID)
		return nil
	}
	s.b.memberMinistries[memberID] = set
	return nil
}

func checkMember(m *models.Member) error {
	if m.FullName == "" {
		return store.NewConstraintError(store.ConstraintNotNull, "full_name")
	}
	switch m.Status {
	case models.MemberActive, models.MemberInactive, models.MemberVisitor:
		return nil
	}
	return store.NewConstraintError(store.ConstraintCheck, "members_status_check")
}

// MinistryStore implements store.MinistryStore on a Backend.
type MinistryStore struct {
	b *Backend
}

var _ store.MinistryStore = (*MinistryStore)(nil)

func (s *MinistryStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListMinistriesOptions) ([]*models.Ministry, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	if !s.b.visible(ctx, orgID) {
		return nil, nil
	}

	var result []*models.Ministry
	for _, m := range s.b.ministries {
		if m.OrgID != orgID || (opts.ActiveOnly && !m.Active) || !matches(opts.Search, m.Name) {
			continue
		}
		clone := *m
		result = append(result, &clone)
	}
	sortByName(result, func(m *models.Ministry) string { return m.Name })
	return result, nil
}

func (s *MinistryStore) Get(ctx context.Context, orgID, ministryID uuid.UUID) (*models.Ministry, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	m, ok := s.b.ministries[ministryID]
	if !ok || m.OrgID != orgID || !s.b.visible(ctx, orgID) {
		return nil, store.ErrMinistryNotFound
	}
	clone := *m
	return &clone, nil
}

func (s *MinistryStore) Create(ctx context.Context, ministry *models.Ministry) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if err := s.b.checkWrite(ctx, ministry.OrgID); err != nil {
		return err
	}
	if ministry.Name == "" {
		return store.NewConstraintError(store.ConstraintNotNull, "name")
	}

	if ministry.ID == uuid.Nil {
		ministry.ID = newID()
	}
	now := s.b.now()
	ministry.CreatedAt = now
	ministry.UpdatedAt = now
	clone := *ministry
	s.b.ministries[ministry.ID] = &clone
	return nil
}

func (s *MinistryStore) Update(ctx context.Context, ministry *models.Ministry) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	existing, ok := s.b.ministries[ministry.ID]
	if !ok || existing.OrgID != ministry.OrgID || !s.b.visible(ctx, ministry.OrgID) {
		return store.ErrMinistryNotFound
	}
	if ministry.Name == "" {
		return store.NewConstraintError(store.ConstraintNotNull, "name")
	}

	ministry.CreatedAt = existing.CreatedAt
	ministry.UpdatedAt = s.b.now()
	clone := *ministry
	s.b.ministries[ministry.ID] = &clone

	// cost centers bound to the ministry follow its name
	for _, cc := range s.b.costCenters {
		if cc.MinistryID != nil && *cc.MinistryID == ministry.ID {
			cc.Name = ministry.Name
			cc.UpdatedAt = ministry.UpdatedAt
		}
	}
	return nil
}

func (s *MinistryStore) Delete(ctx context.Context, orgID, ministryID uuid.UUID) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	m, ok := s.b.ministries[ministryID]
	if !ok || m.OrgID != orgID || !s.b.visible(ctx, orgID) {
		return store.ErrMinistryNotFound
	}
	for _, cc := range s.b.costCenters {
		if cc.MinistryID != nil && *cc.MinistryID == ministryID {
			return store.NewConstraintError(store.ConstraintForeignKey, "cost_centers_ministry_id_fkey")
		}
	}

	delete(s.b.ministries, ministryID)
	for memberID, ids := range s.b.memberMinistries {
		s.b.memberMinistries[memberID] = slices.DeleteFunc(ids, func(id uuid.UUID) bool { return id == ministryID })
	}
	return nil
}
