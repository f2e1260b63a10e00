package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/contacerta/contacerta/internal/catalog"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// SuppliersCmd groups the supplier commands.
type SuppliersCmd struct {
	List SuppliersListCmd `cmd:"" default:"1" help:"List suppliers"`
	Add  SuppliersAddCmd  `cmd:"" help:"Register a supplier"`
	Rm   SuppliersRmCmd   `cmd:"" help:"Delete a supplier"`
}

type SuppliersListCmd struct {
	Search     string `help:"Match name or tax id" short:"s"`
	ActiveOnly bool   `help:"Only active suppliers"`
	Limit      int    `help:"Maximum number of suppliers" default:"20"`
}

func (c *SuppliersListCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	limit := c.Limit
	if limit <= 0 {
		limit = catalog.DefaultSupplierLimit
	}
	snap, err := env.App.Suppliers.Search(ctx, store.ListSuppliersOptions{Search: c.Search, ActiveOnly: c.ActiveOnly, Limit: limit})
	if err != nil {
		return userError(err)
	}

	fmt.Printf("Suppliers of %s:\n", active.Name)
	if len(snap.Items) == 0 {
		fmt.Println("No suppliers found.")
		return nil
	}
	fmt.Printf("%-36s %-4s %-32s %-16s %-28s %-8s\n", "Supplier ID", "Type", "Name", "CPF/CNPJ", "Email", "Status")
	fmt.Println(strings.Repeat("─", 130))
	for _, s := range snap.Items {
		fmt.Printf("%-36s %-4s %-32s %-16s %-28s %-8s\n", s.ID, s.Kind, truncate(s.Name, 32), deref(s.TaxID), truncate(deref(s.Email), 28), s.Status)
	}
	return nil
}

type SuppliersAddCmd struct {
	Name     string       `arg:"" help:"Name"`
	Kind     string       `help:"PF (individual) or PJ (company)" enum:"PF,PJ" default:"PJ"`
	TaxID    string       `help:"CPF or CNPJ" name:"tax-id"`
	Email    string       `help:"Email"`
	Phone    string       `help:"Phone"`
	Category string       `help:"Supplier category id"`
	Inactive bool         `help:"Register as inactive"`
	Notes    string       `help:"Notes"`
	Address  AddressFlags `embed:"" prefix:"address-"`
	Bank     string       `help:"Bank"`
	Agency   string       `help:"Bank agency"`
	Account  string       `help:"Bank account"`
	Pix      string       `help:"PIX key"`
}

func (c *SuppliersAddCmd) Run(ctx context.Context, globals *Globals) error {
	env, _, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	categoryID, err := parseOptionalID("category", c.Category)
	if err != nil {
		return err
	}

	sup := &models.Supplier{
		Kind:       models.PersonKind(c.Kind),
		Name:       c.Name,
		TaxID:      optional(c.TaxID),
		Email:      optional(c.Email),
		Phone:      optional(c.Phone),
		CategoryID: categoryID,
		Address:    c.Address.Model(),
		BankInfo: &models.BankInfo{
			Bank:    strings.TrimSpace(c.Bank),
			Agency:  strings.TrimSpace(c.Agency),
			Account: strings.TrimSpace(c.Account),
			PixKey:  strings.TrimSpace(c.Pix),
		},
		Status: models.SupplierActive,
		Notes:  optional(c.Notes),
	}
	if c.Inactive {
		sup.Status = models.SupplierInactive
	}

	if err := env.App.SaveSupplier(ctx, sup); err != nil {
		return userError(err)
	}
	fmt.Printf("Registered supplier %s (%s)\n", sup.Name, sup.ID)
	return nil
}

type SuppliersRmCmd struct {
	ID  string `arg:"" help:"Supplier id"`
	Yes bool   `help:"Confirm the deletion" short:"y"`
}

func (c *SuppliersRmCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	id, err := parseID("supplier", c.ID)
	if err != nil {
		return err
	}
	desc, err := env.App.Catalog.DescribeSupplierDeletion(env.App.Context(ctx), active.OrgID, id)
	if err != nil {
		return userError(err)
	}
	if err := confirm(desc, c.Yes); err != nil {
		return err
	}
	if err := env.App.DeleteSupplier(ctx, id); err != nil {
		return userError(err)
	}
	fmt.Println("Supplier deleted.")
	return nil
}
