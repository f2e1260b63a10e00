package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/contacerta/contacerta/internal/money"
	"github.com/contacerta/contacerta/internal/report"
)

// ReportCmd prints totals per cost center for a period.
type ReportCmd struct {
	Basis string `help:"accrual (by issue date) or cash (by payment date)" enum:"accrual,cash" default:"accrual"`
	From  string `help:"First day of the period (YYYY-MM-DD)"`
	To    string `help:"Last day of the period (YYYY-MM-DD)"`
}

func (c *ReportCmd) Run(ctx context.Context, globals *Globals) error {
	basis, err := report.ParseBasis(c.Basis)
	if err != nil {
		return err
	}
	from, err := parseDate("--from", c.From)
	if err != nil {
		return err
	}
	to, err := parseDate("--to", c.To)
	if err != nil {
		return err
	}

	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	opts := report.Options{Basis: basis}
	if from != nil {
		opts.From = *from
	}
	if to != nil {
		opts.To = *to
	}

	summary, err := env.App.Report(ctx, opts)
	if err != nil {
		return userError(err)
	}

	fmt.Printf("%s report for %s (%s)\n", strings.ToUpper(string(basis)[:1])+string(basis)[1:], active.Name, period(opts))
	fmt.Println(strings.Repeat("─", 60))
	fmt.Printf("%-20s %20s\n", "Receivable", money.FormatBRL(summary.TotalReceivable))
	fmt.Printf("%-20s %20s\n", "Payable", money.FormatBRL(summary.TotalPayable))
	fmt.Printf("%-20s %20s\n", "Balance", money.FormatBRL(summary.Balance))
	fmt.Printf("%-20s %20s\n", "Paid", money.FormatBRL(summary.TotalPaid))
	fmt.Printf("%-20s %20s\n", "Open", money.FormatBRL(summary.TotalOpen))
	fmt.Printf("%-20s %20d\n", "Documents", len(summary.Documents))

	if len(summary.ByCostCenter) == 0 {
		return nil
	}
	fmt.Println()
	fmt.Printf("%-30s %16s %16s %16s %5s\n", "Cost center", "Receivable", "Payable", "Balance", "Docs")
	fmt.Println(strings.Repeat("─", 88))
	for _, g := range summary.ByCostCenter {
		fmt.Printf("%-30s %16s %16s %16s %5d\n", truncate(g.Name, 30),
			money.FormatBRL(g.Receivable), money.FormatBRL(g.Payable), money.FormatBRL(g.Balance()), g.Documents)
	}
	return nil
}

func period(opts report.Options) string {
	switch {
	case opts.From.IsZero() && opts.To.IsZero():
		return "all dates"
	case opts.To.IsZero():
		return "from " + opts.From.Format(time.DateOnly)
	case opts.From.IsZero():
		return "until " + opts.To.Format(time.DateOnly)
	}
	return opts.From.Format(time.DateOnly) + " to " + opts.To.Format(time.DateOnly)
}
