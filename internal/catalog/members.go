package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/apperr"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

var memberMessages = messages{
	store.CodeNotNull:    "Full name is required.",
	store.CodeForeignKey: "This member is referenced by financial documents and cannot be deleted.",
	store.CodeCheck:      "Select a valid status.",
}

var ministryMessages = messages{
	store.CodeNotNull:    "Name is required.",
	store.CodeForeignKey: "This ministry has a cost center. Delete the cost center first.",
}

// ListMembers returns members of orgID. Outsiders get an empty list.
func (s *Service) ListMembers(ctx context.Context, orgID uuid.UUID, opts store.ListMembersOptions) ([]*models.Member, error) {
	members, err := s.stores.Members.List(ctx, orgID, opts)
	return members, apperr.FromStore(err)
}

// SaveMember creates the member when it has no id and updates it otherwise.
// Status defaults to ACTIVE; empty optional fields are stored as absent.
func (s *Service) SaveMember(ctx context.Context, m *models.Member) error {
	m.FullName = strings.TrimSpace(m.FullName)
	m.Email = trimPtr(m.Email)
	m.Phone = trimPtr(m.Phone)
	m.Notes = trimPtr(m.Notes)
	if m.Address != nil && m.Address.IsEmpty() {
		m.Address = nil
	}
	if m.Status == "" {
		m.Status = models.MemberActive
	}

	if err := s.check(m); err != nil {
		return err
	}

	var err error
	if m.ID == uuid.Nil {
		err = s.stores.Members.Create(ctx, m)
	} else {
		err = s.stores.Members.Update(ctx, m)
	}
	return translate(err, memberMessages)
}

// DeleteMember deletes a member. Members referenced by documents cannot be deleted.
func (s *Service) DeleteMember(ctx context.Context, orgID, memberID uuid.UUID) error {
	return translate(s.stores.Members.Delete(ctx, orgID, memberID), memberMessages)
}

// DescribeMemberDeletion explains what deleting the member does.
func (s *Service) DescribeMemberDeletion(ctx context.Context, orgID, memberID uuid.UUID) (string, error) {
	m, err := s.stores.Members.Get(ctx, orgID, memberID)
	if err != nil {
		return "", apperr.FromStore(err)
	}

	docs, err := s.documentsOf(ctx, orgID, func(d *models.Document) bool {
		id, ok := d.Party.MemberID()
		return ok && id == memberID
	})
	if err != nil {
		return "", err
	}
	if docs > 0 {
		return fmt.Sprintf("%s is referenced by %s and cannot be deleted.", m.FullName, plural(docs, "document")), nil
	}
	return fmt.Sprintf("Delete %s? Their ministry assignments are removed too. This cannot be undone.", m.FullName), nil
}

// MemberMinistries returns the ministries the member serves in.
func (s *Service) MemberMinistries(ctx context.Context, orgID, memberID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.stores.Members.ListMinistries(ctx, orgID, memberID)
	return ids, apperr.FromStore(err)
}

// SetMemberMinistries replaces the member's ministries with ministryIDs.
// Duplicates are ignored.
func (s *Service) SetMemberMinistries(ctx context.Context, orgID, memberID uuid.UUID, ministryIDs []uuid.UUID) error {
	ids := slices.Clone(ministryIDs)
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })
	ids = slices.Compact(ids)
	ids = slices.DeleteFunc(ids, func(id uuid.UUID) bool { return id == uuid.Nil })

	err := s.stores.Members.ReplaceMinistries(ctx, orgID, memberID, ids)
	return translate(err, messages{store.CodeForeignKey: "Select valid ministries."})
}

// ListMinistries returns ministries of orgID.
func (s *Service) ListMinistries(ctx context.Context, orgID uuid.UUID, opts store.ListMinistriesOptions) ([]*models.Ministry, error) {
	ministries, err := s.stores.Ministries.List(ctx, orgID, opts)
	return ministries, apperr.FromStore(err)
}

// SaveMinistry creates or updates a ministry. Renaming a ministry renames its cost center.
func (s *Service) SaveMinistry(ctx context.Context, m *models.Ministry) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Description = trimPtr(m.Description)

	if err := s.check(m); err != nil {
		return err
	}

	var err error
	if m.ID == uuid.Nil {
		err = s.stores.Ministries.Create(ctx, m)
	} else {
		err = s.stores.Ministries.Update(ctx, m)
	}
	return translate(err, ministryMessages)
}

// DeleteMinistry deletes a ministry that no cost center is bound to.
func (s *Service) DeleteMinistry(ctx context.Context, orgID, ministryID uuid.UUID) error {
	return translate(s.stores.Ministries.Delete(ctx, orgID, ministryID), ministryMessages)
}

// DescribeMinistryDeletion explains what deleting the ministry does.
func (s *Service) DescribeMinistryDeletion(ctx context.Context, orgID, ministryID uuid.UUID) (string, error) {
	m, err := s.stores.Ministries.Get(ctx, orgID, ministryID)
	if err != nil {
		return "", apperr.FromStore(err)
	}

	if cc, err := s.ministryCostCenter(ctx, orgID, ministryID); err != nil {
		return "", err
	} else if cc != nil {
		return fmt.Sprintf("Ministry %s has the cost center %q and cannot be deleted until it is removed.", m.Name, cc.Name), nil
	}
	return fmt.Sprintf("Delete ministry %s? Members serving in it are unlinked. This cannot be undone.", m.Name), nil
}

func (s *Service) ministryCostCenter(ctx context.Context, orgID, ministryID uuid.UUID) (*models.CostCenter, error) {
	centers, err := s.stores.CostCenters.List(ctx, orgID, store.ListCostCentersOptions{Kind: models.CostCenterMinistry})
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	for _, cc := range centers {
		if cc.MinistryID != nil && *cc.MinistryID == ministryID {
			return cc, nil
		}
	}
	return nil, nil
}

// documentsOf counts the documents of orgID matching keep.
func (s *Service) documentsOf(ctx context.Context, orgID uuid.UUID, keep func(*models.Document) bool) (int, error) {
	docs, err := s.stores.Documents.List(ctx, orgID, store.ListDocumentsOptions{})
	if err != nil {
		return 0, apperr.FromStore(err)
	}
	n := 0
	for _, d := range docs {
		if keep(d) {
			n++
		}
	}
	return n, nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
