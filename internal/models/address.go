package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a structured postal address. Stored as jsonb.
type Address struct {
	Street       string `json:"street,omitempty" validate:"max=200" label:"Street"`
	Number       string `json:"number,omitempty" validate:"max=20" label:"Number"`
	Complement   string `json:"complement,omitempty" validate:"max=100" label:"Complement"`
	Neighborhood string `json:"neighborhood,omitempty" validate:"max=100" label:"Neighborhood"`
	City         string `json:"city,omitempty" validate:"max=100" label:"City"`
	State        string `json:"state,omitempty" validate:"omitempty,len=2,alpha" label:"State"`
	ZipCode      string `json:"zipCode,omitempty" validate:"omitempty,numeric,len=8" label:"ZIP code"`
}

// IsEmpty returns true when no field is filled in.
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// String renders the address on a single line.
func (a Address) String() string {
	var parts []string
	street := strings.TrimSpace(strings.Join(nonEmpty(a.Street, a.Number), ", "))
	if street != "" {
		parts = append(parts, street)
	}
	parts = append(parts, nonEmpty(a.Complement, a.Neighborhood)...)
	city := strings.Join(nonEmpty(a.City, a.State), "/")
	if city != "" {
		parts = append(parts, city)
	}
	if a.ZipCode != "" {
		parts = append(parts, a.ZipCode)
	}
	return strings.Join(parts, " - ")
}

// BankAccountType is the kind of Brazilian bank account.
type BankAccountType string

const (
	BankAccountChecking BankAccountType = "CORRENTE"
	BankAccountSavings  BankAccountType = "POUPANCA"
)

// BankInfo holds the payment details of a supplier. Stored as jsonb.
type BankInfo struct {
	Bank        string          `json:"bank,omitempty" validate:"max=100" label:"Bank"`
	Agency      string          `json:"agency,omitempty" validate:"max=20" label:"Agency"`
	Account     string          `json:"account,omitempty" validate:"max=30" label:"Account"`
	AccountType BankAccountType `json:"accountType,omitempty" validate:"omitempty,oneof=CORRENTE POUPANCA" label:"Account type"`
	PixKey      string          `json:"pixKey,omitempty" validate:"max=140" label:"PIX key"`
}

// IsEmpty returns true when no field is filled in.
func (b BankInfo) IsEmpty() bool {
	return b == BankInfo{}
}

// ParseAddress decodes a JSON address. Blank input yields nil.
func ParseAddress(raw string) (*Address, error) {
	var a Address
	ok, err := parseSubRecord(raw, &a)
	if err != nil || !ok || a.IsEmpty() {
		return nil, err
	}
	a.State = strings.ToUpper(a.State)
	a.ZipCode = digitsOnly(a.ZipCode)
	return &a, nil
}

// ParseBankInfo decodes JSON bank details. Blank input yields nil.
func ParseBankInfo(raw string) (*BankInfo, error) {
	var b BankInfo
	ok, err := parseSubRecord(raw, &b)
	if err != nil || !ok || b.IsEmpty() {
		return nil, err
	}
	b.AccountType = BankAccountType(strings.ToUpper(string(b.AccountType)))
	return &b, nil
}

func parseSubRecord(raw string, v any) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" || raw == "{}" {
		return false, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return false, fmt.Errorf("malformed %T: %w", v, err)
	}
	return true, nil
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
