package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/contacerta/contacerta/internal/catalog"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/money"
	"github.com/contacerta/contacerta/internal/store"
)

// DocumentsCmd groups the payable and receivable commands.
type DocumentsCmd struct {
	List DocumentsListCmd `cmd:"" default:"1" help:"List documents"`
	Add  DocumentsAddCmd  `cmd:"" help:"Register a payable or receivable"`
	Pay  DocumentsPayCmd  `cmd:"" help:"Mark a document as paid"`
	Rm   DocumentsRmCmd   `cmd:"" help:"Delete a document"`
}

type DocumentsListCmd struct {
	Type       string `help:"Filter by type" enum:",PAYABLE,RECEIVABLE" default:""`
	Status     string `help:"Filter by stored status" enum:",OPEN,PAID" default:""`
	CostCenter string `help:"Filter by cost center id" name:"cost-center"`
	Search     string `help:"Match description" short:"s"`
	From       string `help:"Due on or after (YYYY-MM-DD)"`
	To         string `help:"Due on or before (YYYY-MM-DD)"`
	Limit      int    `help:"Maximum number of documents" default:"100"`
}

func (c *DocumentsListCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	costCenterID, err := parseOptionalID("cost center", c.CostCenter)
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

	snap, err := env.App.Documents.Search(ctx, store.ListDocumentsOptions{
		Type:         models.DocumentType(c.Type),
		Status:       models.DocumentStatus(c.Status),
		CostCenterID: costCenterID,
		Search:       c.Search,
		DueFrom:      from,
		DueTo:        to,
		Limit:        c.Limit,
	})
	if err != nil {
		return userError(err)
	}

	fmt.Printf("Documents of %s:\n", active.Name)
	if len(snap.Items) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	now := time.Now()
	fmt.Printf("%-36s %-10s %-34s %16s %-10s %-8s\n", "Document ID", "Type", "Description", "Amount", "Due", "Status")
	fmt.Println(strings.Repeat("─", 120))
	for _, d := range snap.Items {
		fmt.Printf("%-36s %-10s %-34s %16s %-10s %-8s\n",
			d.ID, d.Type, truncate(d.Description, 34), money.FormatBRL(d.Amount),
			d.DueDate.Format(time.DateOnly), d.EffectiveStatus(now))
	}
	return nil
}

type DocumentsAddCmd struct {
	Type        string `arg:"" help:"PAYABLE or RECEIVABLE" enum:"PAYABLE,RECEIVABLE,payable,receivable"`
	Description string `arg:"" help:"Description"`
	Amount      string `arg:"" help:"Amount, e.g. 1.234,56"`
	Due         string `help:"Due date (YYYY-MM-DD)" required:""`
	Issue       string `help:"Issue date (YYYY-MM-DD), defaults to today"`
	CostCenter  string `help:"Cost center id" name:"cost-center" required:""`
	Category    string `help:"Finance category id"`
	Supplier    string `help:"Supplier id (payables)"`
	Member      string `help:"Member id (receivables)"`
	Paid        string `help:"Register as already paid on this date (YYYY-MM-DD)"`
}

func (c *DocumentsAddCmd) Run(ctx context.Context, globals *Globals) error {
	env, _, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	amount, err := money.ParseCents(c.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q", c.Amount)
	}
	due, err := parseDate("due date", c.Due)
	if err != nil {
		return err
	}
	if due == nil {
		return errors.New("--due is required")
	}
	issue, err := parseDate("issue date", c.Issue)
	if err != nil {
		return err
	}
	paid, err := parseDate("payment date", c.Paid)
	if err != nil {
		return err
	}
	costCenterID, err := parseID("cost center", c.CostCenter)
	if err != nil {
		return err
	}
	categoryID, err := parseOptionalID("category", c.Category)
	if err != nil {
		return err
	}
	supplierID, err := parseOptionalID("supplier", c.Supplier)
	if err != nil {
		return err
	}
	memberID, err := parseOptionalID("member", c.Member)
	if err != nil {
		return err
	}

	in := catalog.DocumentInput{
		Type:         models.DocumentType(strings.ToUpper(c.Type)),
		Description:  c.Description,
		Amount:       amount,
		IssueDate:    issue,
		DueDate:      *due,
		CategoryID:   categoryID,
		CostCenterID: costCenterID,
		SupplierID:   supplierID,
		MemberID:     memberID,
	}
	if paid != nil {
		in.Status = models.DocumentPaid
		in.PaymentDate = paid
	}

	doc, err := env.App.SaveDocument(ctx, in)
	if err != nil {
		return userError(err)
	}
	fmt.Printf("Registered %s %s of %s (%s)\n", strings.ToLower(string(doc.Type)), doc.Description, money.FormatBRL(doc.Amount), doc.ID)
	return nil
}

type DocumentsPayCmd struct {
	ID string `arg:"" help:"Document id"`
	On string `help:"Payment date (YYYY-MM-DD), defaults to today"`
}

func (c *DocumentsPayCmd) Run(ctx context.Context, globals *Globals) error {
	env, _, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	id, err := parseID("document", c.ID)
	if err != nil {
		return err
	}
	on, err := parseDate("payment date", c.On)
	if err != nil {
		return err
	}
	paidOn := time.Now()
	if on != nil {
		paidOn = *on
	}

	if err := env.App.MarkPaid(ctx, id, paidOn); err != nil {
		return userError(err)
	}
	fmt.Printf("Document marked as paid on %s.\n", paidOn.Format(time.DateOnly))
	return nil
}

type DocumentsRmCmd struct {
	ID  string `arg:"" help:"Document id"`
	Yes bool   `help:"Confirm the deletion" short:"y"`
}

func (c *DocumentsRmCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	id, err := parseID("document", c.ID)
	if err != nil {
		return err
	}
	desc, err := env.App.Catalog.DescribeDocumentDeletion(env.App.Context(ctx), active.OrgID, id)
	if err != nil {
		return userError(err)
	}
	if err := confirm(desc, c.Yes); err != nil {
		return err
	}
	if err := env.App.DeleteDocument(ctx, id); err != nil {
		return userError(err)
	}
	fmt.Println("Document deleted.")
	return nil
}
