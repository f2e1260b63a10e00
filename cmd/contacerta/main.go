package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/contacerta/contacerta/cmd/contacerta/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		commands.Globals `embed:""`

		Orgs        commands.OrgsCmd        `cmd:"" help:"Manage organizations and the active organization"`
		Members     commands.MembersCmd     `cmd:"" help:"Manage members"`
		Suppliers   commands.SuppliersCmd   `cmd:"" help:"Manage suppliers"`
		Ministries  commands.MinistriesCmd  `cmd:"" help:"Manage ministries"`
		CostCenters commands.CostCentersCmd `cmd:"" name:"cost-centers" help:"Manage cost centers"`
		Categories  commands.CategoriesCmd  `cmd:"" help:"Manage categories"`
		Assets      commands.AssetsCmd      `cmd:"" help:"Manage assets"`
		Documents   commands.DocumentsCmd   `cmd:"" help:"Manage payables and receivables"`
		Report      commands.ReportCmd      `cmd:"" help:"Summarize documents by cost center"`
		Migrate     commands.MigrateCmd     `cmd:"" help:"Apply database migrations"`
		Token       commands.TokenCmd       `cmd:"" help:"Issue a development access token"`
		Version     kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("contacerta"),
		kong.Description("Church administration: members, suppliers, assets and finances per organization."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	globals := cli.Globals
	globals.Version = version
	err := cmd.Run(&globals)
	cmd.FatalIfErrorf(err)
}
