package models

import (
	"time"

	"github.com/google/uuid"
)

// MemberStatus is the membership status of a church member.
type MemberStatus string

const (
	MemberActive   MemberStatus = "ACTIVE"
	MemberInactive MemberStatus = "INACTIVE"
	MemberVisitor  MemberStatus = "VISITOR"
)

// Member is a person registered in the church.
type Member struct {
	ID        uuid.UUID
	OrgID     uuid.UUID
	FullName  string       `validate:"required,max=200" label:"Full name"`
	Email     *string      `validate:"omitempty,email,max=200" label:"Email"`
	Phone     *string      `validate:"omitempty,max=30" label:"Phone"`
	BirthDate *time.Time   `label:"Birth date"`
	Address   *Address     `label:"Address"`
	Status    MemberStatus `validate:"required,oneof=ACTIVE INACTIVE VISITOR" label:"Status"`
	Notes     *string      `validate:"omitempty,max=2000" label:"Notes"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ministry is a ministry (department) of the church.
type Ministry struct {
	ID          uuid.UUID
	OrgID       uuid.UUID
	Name        string  `validate:"required,max=120" label:"Name"`
	Description *string `validate:"omitempty,max=500" label:"Description"`
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
