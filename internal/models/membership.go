package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the single role an identity holds in an organization.
type Role string

// Stored values match the backend enum.
const (
	RoleOwner      Role = "OWNER"
	RoleAdmin      Role = "ADMIN"
	RoleTreasury   Role = "TESOURARIA"
	RoleSecretary  Role = "SECRETARIA"
	RoleAccountant Role = "CONTADOR"
	RoleReadOnly   Role = "LEITURA"
)

var roleLabels = map[Role]string{
	RoleOwner:      "Owner",
	RoleAdmin:      "Admin",
	RoleTreasury:   "Treasury",
	RoleSecretary:  "Secretary",
	RoleAccountant: "Accountant",
	RoleReadOnly:   "Read only",
}

// IsValid returns true if r is one of the known roles.
func (r Role) IsValid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label returns a display name for the role.
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

// CanInvite reports whether the role may create invites for its organization.
func (r Role) CanInvite() bool {
	return r == RoleOwner || r == RoleAdmin
}

// ParseRole accepts either the stored value or the English label, case-insensitively.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for role, label := range roleLabels {
		if strings.EqualFold(s, string(role)) || strings.EqualFold(s, label) {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Membership binds one identity to one organization with exactly one role.
type Membership struct {
	OrgID      uuid.UUID
	IdentityID uuid.UUID
	Role       Role
	CreatedAt  time.Time
}

// Invite grants a role in an organization to whoever accepts the token first.
type Invite struct {
	Token      uuid.UUID
	OrgID      uuid.UUID
	Role       Role
	CreatedBy  uuid.UUID
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	AcceptedBy *uuid.UUID
	CreatedAt  time.Time
}

// IsExpired returns true if the invite can no longer be accepted.
func (i *Invite) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsAccepted returns true once the invite has been used.
func (i *Invite) IsAccepted() bool {
	return i.AcceptedAt != nil
}
