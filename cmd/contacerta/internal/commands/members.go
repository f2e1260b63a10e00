package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// MembersCmd groups the member commands.
type MembersCmd struct {
	List       MembersListCmd       `cmd:"" default:"1" help:"List members"`
	Add        MembersAddCmd        `cmd:"" help:"Register a member"`
	Rm         MembersRmCmd         `cmd:"" help:"Delete a member"`
	Ministries MembersMinistriesCmd `cmd:"" help:"Show or replace the ministries a member serves in"`
}

type MembersListCmd struct {
	Search string `help:"Match name or email" short:"s"`
	Status string `help:"Filter by status (ACTIVE, INACTIVE, VISITOR)" enum:",ACTIVE,INACTIVE,VISITOR" default:""`
	Limit  int    `help:"Maximum number of members" default:"50"`
}

func (c *MembersListCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	snap, err := env.App.Members.Search(ctx, store.ListMembersOptions{
		Search: strings.TrimSpace(c.Search),
		Status: models.MemberStatus(c.Status),
		Limit:  c.Limit,
	})
	if err != nil {
		return userError(err)
	}

	fmt.Printf("Members of %s:\n", active.Name)
	if len(snap.Items) == 0 {
		fmt.Println("No members found.")
		return nil
	}
	fmt.Printf("%-36s %-32s %-28s %-16s %-8s\n", "Member ID", "Name", "Email", "Phone", "Status")
	fmt.Println(strings.Repeat("─", 124))
	for _, m := range snap.Items {
		fmt.Printf("%-36s %-32s %-28s %-16s %-8s\n", m.ID, truncate(m.FullName, 32), truncate(deref(m.Email), 28), deref(m.Phone), m.Status)
	}
	return nil
}

type MembersAddCmd struct {
	Name    string       `arg:"" help:"Full name"`
	Email   string       `help:"Email"`
	Phone   string       `help:"Phone"`
	Birth   string       `help:"Birth date (YYYY-MM-DD)"`
	Status  string       `help:"Status (ACTIVE, INACTIVE, VISITOR)" default:"ACTIVE"`
	Notes   string       `help:"Notes"`
	Address AddressFlags `embed:"" prefix:"address-"`
}

func (c *MembersAddCmd) Run(ctx context.Context, globals *Globals) error {
	env, _, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	birth, err := parseDate("birth date", c.Birth)
	if err != nil {
		return err
	}

	m := &models.Member{
		FullName:  c.Name,
		Email:     optional(c.Email),
		Phone:     optional(c.Phone),
		BirthDate: birth,
		Address:   c.Address.Model(),
		Status:    models.MemberStatus(strings.ToUpper(c.Status)),
		Notes:     optional(c.Notes),
	}
	if err := env.App.SaveMember(ctx, m); err != nil {
		return userError(err)
	}

	fmt.Printf("Registered %s (%s)\n", m.FullName, m.ID)
	return nil
}

type MembersRmCmd struct {
	ID  string `arg:"" help:"Member id"`
	Yes bool   `help:"Confirm the deletion" short:"y"`
}

func (c *MembersRmCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	id, err := parseID("member", c.ID)
	if err != nil {
		return err
	}

	desc, err := env.App.Catalog.DescribeMemberDeletion(env.App.Context(ctx), active.OrgID, id)
	if err != nil {
		return userError(err)
	}
	if err := confirm(desc, c.Yes); err != nil {
		return err
	}

	if _, err := env.App.Members.Load(ctx); err != nil {
		return userError(err)
	}
	if err := env.App.DeleteMember(ctx, id); err != nil {
		return userError(err)
	}
	fmt.Println("Member deleted.")
	return nil
}

type MembersMinistriesCmd struct {
	ID         string   `arg:"" help:"Member id"`
	Ministries []string `arg:"" optional:"" help:"Ministry ids to assign (replaces the current set)"`
	Clear      bool     `help:"Remove the member from every ministry"`
}

func (c *MembersMinistriesCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	memberID, err := parseID("member", c.ID)
	if err != nil {
		return err
	}

	if len(c.Ministries) > 0 || c.Clear {
		ids := make([]uuid.UUID, 0, len(c.Ministries))
		for _, s := range c.Ministries {
			id, err := parseID("ministry", s)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if err := env.App.SetMemberMinistries(ctx, memberID, ids); err != nil {
			return userError(err)
		}
	}

	ids, err := env.App.Catalog.MemberMinistries(env.App.Context(ctx), active.OrgID, memberID)
	if err != nil {
		return userError(err)
	}
	ministries, err := env.App.Catalog.ListMinistries(env.App.Context(ctx), active.OrgID, store.ListMinistriesOptions{})
	if err != nil {
		return userError(err)
	}
	names := make(map[uuid.UUID]string, len(ministries))
	for _, m := range ministries {
		names[m.ID] = m.Name
	}

	if len(ids) == 0 {
		fmt.Println("The member serves in no ministry.")
		return nil
	}
	for _, id := range ids {
		fmt.Printf("%-36s %s\n", id, names[id])
	}
	return nil
}
