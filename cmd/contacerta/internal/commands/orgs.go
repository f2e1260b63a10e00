package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/contacerta/contacerta/internal/models"
)

// OrgsCmd groups the organization commands.
type OrgsCmd struct {
	List   OrgsListCmd   `cmd:"" default:"1" help:"List the organizations you belong to"`
	Use    OrgsUseCmd    `cmd:"" help:"Make an organization active"`
	Clear  OrgsClearCmd  `cmd:"" help:"Forget the active organization"`
	Create OrgsCreateCmd `cmd:"" help:"Create an organization and join it as owner"`
	Join   OrgsJoinCmd   `cmd:"" help:"Accept an invite"`
	Invite OrgsInviteCmd `cmd:"" help:"Invite someone to the active organization"`
}

type OrgsListCmd struct{}

func (c *OrgsListCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := globals.Open(ctx)
	if err != nil {
		return userError(err)
	}
	defer env.Close()

	orgs := env.App.Session.Orgs()
	if len(orgs) == 0 {
		fmt.Println("You are not a member of any organization.")
		fmt.Println("Create one with 'contacerta orgs create NAME' or join one with 'contacerta orgs join TOKEN'.")
		return nil
	}

	active, _ := env.App.Session.Active()
	printOrgs(orgs, active)
	return nil
}

func printOrgs(orgs []models.OrgAccess, active models.ActiveOrg) {
	fmt.Printf("  %-36s %-40s %-12s\n", "Organization ID", "Name", "Role")
	fmt.Println(strings.Repeat("─", 92))
	for _, o := range orgs {
		marker := " "
		if o.OrgID == active.OrgID {
			marker = "*"
		}
		fmt.Printf("%s %-36s %-40s %-12s\n", marker, o.OrgID, truncate(o.Name, 40), o.Role.Label())
	}
}

type OrgsUseCmd struct {
	Org string `arg:"" help:"Organization id or name"`
}

func (c *OrgsUseCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := globals.Open(ctx)
	if err != nil {
		return userError(err)
	}
	defer env.Close()

	org, err := findOrg(env.App.Session.Orgs(), c.Org)
	if err != nil {
		return err
	}
	if err := env.App.Session.SwitchOrg(ctx, org.OrgID); err != nil {
		return userError(err)
	}

	fmt.Printf("Active organization: %s (%s)\n", org.Name, org.Role.Label())
	return nil
}

// findOrg matches ref against organization ids, then names ignoring case.
func findOrg(orgs []models.OrgAccess, ref string) (models.OrgAccess, error) {
	ref = strings.TrimSpace(ref)
	var byName []models.OrgAccess
	for _, o := range orgs {
		if strings.EqualFold(o.OrgID.String(), ref) {
			return o, nil
		}
		if strings.EqualFold(o.Name, ref) {
			byName = append(byName, o)
		}
	}
	switch len(byName) {
	case 0:
		return models.OrgAccess{}, fmt.Errorf("you are not a member of %q", ref)
	case 1:
		return byName[0], nil
	}
	return models.OrgAccess{}, fmt.Errorf("%d organizations are named %q, use the id", len(byName), ref)
}

type OrgsClearCmd struct{}

func (c *OrgsClearCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := globals.Open(ctx)
	if err != nil {
		return userError(err)
	}
	defer env.Close()

	if err := env.App.Session.ClearOrg(); err != nil {
		return err
	}
	fmt.Println("No organization is active.")
	return nil
}

type OrgsCreateCmd struct {
	Name  string `arg:"" help:"Organization name (at least 3 characters)"`
	TaxID string `help:"CNPJ of the organization" name:"tax-id"`
}

func (c *OrgsCreateCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := globals.Open(ctx)
	if err != nil {
		return userError(err)
	}
	defer env.Close()

	orgID, err := env.App.Session.CreateOrganization(ctx, c.Name, optional(c.TaxID))
	if err != nil {
		return userError(err)
	}

	fmt.Printf("Created %s (%s). You are its owner and it is now active.\n", strings.TrimSpace(c.Name), orgID)
	return nil
}

type OrgsJoinCmd struct {
	Token string `arg:"" help:"Invite token"`
}

func (c *OrgsJoinCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := globals.Open(ctx)
	if err != nil {
		return userError(err)
	}
	defer env.Close()

	if _, err := env.App.Session.AcceptInvite(ctx, c.Token); err != nil {
		return userError(err)
	}

	active, _ := env.App.Session.Active()
	fmt.Printf("Joined %s. It is now active.\n", active.Name)
	return nil
}

type OrgsInviteCmd struct {
	Role string `help:"Role granted by the invite (owner, admin, treasury, secretary, accountant, read only)" default:"read only"`
}

func (c *OrgsInviteCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := globals.Open(ctx)
	if err != nil {
		return userError(err)
	}
	defer env.Close()

	active, err := env.ActiveOrg()
	if err != nil {
		return err
	}
	role, err := models.ParseRole(c.Role)
	if err != nil {
		return err
	}

	invite, err := env.App.Session.CreateInvite(ctx, active.OrgID, role)
	if err != nil {
		return userError(err)
	}

	fmt.Printf("Invite to %s as %s, valid until %s:\n", active.Name, role.Label(), invite.ExpiresAt.Local().Format("2006-01-02 15:04"))
	fmt.Println(invite.Token)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
