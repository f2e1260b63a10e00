// Package report totals documents over a period.
package report

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contacerta/contacerta/internal/models"
)

// NoCostCenter labels documents whose cost center is missing or was deleted.
const NoCostCenter = "No cost center"

// Basis selects which date places a document in the period.
type Basis string

const (
	// Accrual uses the issue date.
	Accrual Basis = "accrual"
	// Cash uses the payment date; unpaid documents are left out.
	Cash Basis = "cash"
)

// ParseBasis accepts "accrual" or "cash".
func ParseBasis(s string) (Basis, error) {
	switch b := Basis(strings.ToLower(strings.TrimSpace(s))); b {
	case Accrual, Cash:
		return b, nil
	case "":
		return Accrual, nil
	}
	return "", errors.New("basis must be accrual or cash")
}

// Options bound the report. Zero From or To leave that side open; both are
// inclusive calendar days.
type Options struct {
	Basis Basis
	From  time.Time
	To    time.Time
}

// Totals are the sums of one group of documents.
type Totals struct {
	Payable    decimal.Decimal
	Receivable decimal.Decimal
	Paid       decimal.Decimal
	Open       decimal.Decimal
	Documents  int
}

// Balance is receivable minus payable.
func (t Totals) Balance() decimal.Decimal {
	return t.Receivable.Sub(t.Payable)
}

func (t *Totals) add(doc *models.Document) {
	t.Documents++
	if doc.Type == models.DocumentReceivable {
		t.Receivable = t.Receivable.Add(doc.Amount)
	} else {
		t.Payable = t.Payable.Add(doc.Amount)
	}
	if doc.Status == models.DocumentPaid {
		t.Paid = t.Paid.Add(doc.Amount)
	} else {
		t.Open = t.Open.Add(doc.Amount)
	}
}

// CostCenterTotals groups the documents of one cost center.
// CostCenterID is nil for the NoCostCenter group.
type CostCenterTotals struct {
	CostCenterID *uuid.UUID
	Name         string
	Totals
}

// Summary is the outcome of Aggregate.
type Summary struct {
	Options         Options
	TotalPayable    decimal.Decimal
	TotalReceivable decimal.Decimal
	TotalPaid       decimal.Decimal
	TotalOpen       decimal.Decimal
	Balance         decimal.Decimal
	Documents       []*models.Document
	ByCostCenter    []CostCenterTotals
}

// Aggregate selects the documents inside the period and totals them, overall
// and per cost center. Documents pointing at a cost center absent from centers
// are grouped under NoCostCenter, which sorts last.
func Aggregate(docs []*models.Document, centers []*models.CostCenter, opts Options) Summary {
	if opts.Basis == "" {
		opts.Basis = Accrual
	}

	names := make(map[uuid.UUID]string, len(centers))
	for _, cc := range centers {
		names[cc.ID] = cc.Name
	}

	var total Totals
	groups := make(map[uuid.UUID]*CostCenterTotals)
	var orphans *CostCenterTotals
	selected := make([]*models.Document, 0, len(docs))

	for _, doc := range docs {
		if !opts.includes(doc) {
			continue
		}
		selected = append(selected, doc)
		total.add(doc)

		name, ok := names[doc.CostCenterID]
		if !ok {
			if orphans == nil {
				orphans = &CostCenterTotals{Name: NoCostCenter}
			}
			orphans.add(doc)
			continue
		}
		g, ok := groups[doc.CostCenterID]
		if !ok {
			id := doc.CostCenterID
			g = &CostCenterTotals{CostCenterID: &id, Name: name}
			groups[id] = g
		}
		g.add(doc)
	}

	byCenter := make([]CostCenterTotals, 0, len(groups)+1)
	for _, g := range groups {
		byCenter = append(byCenter, *g)
	}
	slices.SortFunc(byCenter, func(a, b CostCenterTotals) int {
		if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.CostCenterID.String(), b.CostCenterID.String())
	})
	if orphans != nil {
		byCenter = append(byCenter, *orphans)
	}

	return Summary{
		Options:         opts,
		TotalPayable:    total.Payable,
		TotalReceivable: total.Receivable,
		TotalPaid:       total.Paid,
		TotalOpen:       total.Open,
		Balance:         total.Balance(),
		Documents:       selected,
		ByCostCenter:    byCenter,
	}
}

// ReferenceDate is the date that places doc in a report with this basis.
func (b Basis) ReferenceDate(doc *models.Document) (time.Time, bool) {
	if b == Cash {
		if doc.PaymentDate == nil {
			return time.Time{}, false
		}
		return *doc.PaymentDate, true
	}
	return doc.IssueDate, true
}

func (o Options) includes(doc *models.Document) bool {
	if doc == nil {
		return false
	}
	ref, ok := o.Basis.ReferenceDate(doc)
	if !ok {
		return false
	}
	day := dateOnly(ref)
	if !o.From.IsZero() && day.Before(dateOnly(o.From)) {
		return false
	}
	if !o.To.IsZero() && day.After(dateOnly(o.To)) {
		return false
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
