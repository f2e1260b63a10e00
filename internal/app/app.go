// Package app wires the session, the entity operations and one view per entity
// family into the application state handed to a front end.
package app

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/contacerta/contacerta/internal/catalog"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/session"
	"github.com/contacerta/contacerta/internal/store"
	"github.com/contacerta/contacerta/internal/view"
)

// ErrNoActiveOrganization is returned by operations that need an active organization.
var ErrNoActiveOrganization = errors.New("no active organization")

// Config configures an App.
type Config struct {
	Stores    store.Stores
	Persister session.Persister

	// Debounce delays query-driven fetches. Zero uses the view default.
	Debounce time.Duration

	// AutoLoad makes views fetch as soon as the active organization changes.
	AutoLoad bool
}

// App is the application state: the session and one list per entity family,
// every list following the session's active organization.
type App struct {
	Session *session.Session
	Catalog *catalog.Service

	Members     *view.List[*models.Member, store.ListMembersOptions]
	Ministries  *view.List[*models.Ministry, store.ListMinistriesOptions]
	Suppliers   *view.List[*models.Supplier, store.ListSuppliersOptions]
	CostCenters *view.List[*models.CostCenter, store.ListCostCentersOptions]
	Categories  *view.List[*models.Category, store.ListCategoriesOptions]
	Assets      *view.List[*models.Asset, store.ListAssetsOptions]
	Documents   *view.List[*models.Document, store.ListDocumentsOptions]

	views       []orgScoped
	unsubscribe func()
	cancel      context.CancelFunc
}

type orgScoped interface {
	Name() string
	SetOrg(orgID uuid.UUID)
	Close()
}

// New creates an App. Call Close when done.
func New(cfg Config) *App {
	a := &App{
		Session: session.New(cfg.Stores.Organizations, cfg.Persister),
		Catalog: catalog.New(cfg.Stores),
	}

	var opts []view.Option
	if cfg.Debounce > 0 {
		opts = append(opts, view.WithDebounce(cfg.Debounce))
	}
	if cfg.AutoLoad {
		ctx, cancel := context.WithCancel(context.Background())
		a.cancel = cancel
		opts = append(opts, view.WithAutoLoad(ctx))
	}

	a.Members = view.NewList("members", scoped(a, a.Catalog.ListMembers), opts...)
	a.Ministries = view.NewList("ministries", scoped(a, a.Catalog.ListMinistries), opts...)
	a.Suppliers = view.NewList("suppliers", scoped(a, a.Catalog.ListSuppliers), opts...)
	a.CostCenters = view.NewList("cost_centers", scoped(a, a.Catalog.ListCostCenters), opts...)
	a.Categories = view.NewList("categories", scoped(a, a.Catalog.ListCategories), opts...)
	a.Assets = view.NewList("assets", scoped(a, a.Catalog.ListAssets), opts...)
	a.Documents = view.NewList("documents", scoped(a, a.Catalog.ListDocuments), opts...)

	a.views = []orgScoped{a.Members, a.Ministries, a.Suppliers, a.CostCenters, a.Categories, a.Assets, a.Documents}
	a.unsubscribe = a.Session.Subscribe(a.follow)

	return a
}

// scoped binds a list operation to the session identity current at fetch time.
func scoped[T, Q any](a *App, list func(context.Context, uuid.UUID, Q) ([]T, error)) view.Fetcher[T, Q] {
	return func(ctx context.Context, orgID uuid.UUID, query Q) ([]T, error) {
		return list(a.Session.Context(ctx), orgID, query)
	}
}

// follow points every view at the newly active organization.
func (a *App) follow(active models.ActiveOrg) {
	log.Debug().Str("org_id", active.OrgID.String()).Str("org_name", active.Name).Msg("Active organization changed")
	for _, v := range a.views {
		v.SetOrg(active.OrgID)
	}
}

// ActiveOrgID returns the active organization id or ErrNoActiveOrganization.
func (a *App) ActiveOrgID() (uuid.UUID, error) {
	active, ok := a.Session.Active()
	if !ok {
		return uuid.Nil, ErrNoActiveOrganization
	}
	return active.OrgID, nil
}

// Context returns ctx carrying the session identity.
func (a *App) Context(ctx context.Context) context.Context {
	return a.Session.Context(ctx)
}

// ViewNames lists the views in wiring order.
func (a *App) ViewNames() []string {
	names := make([]string, 0, len(a.views))
	for _, v := range a.views {
		names = append(names, v.Name())
	}
	return names
}

// Close detaches the views from the session and stops pending fetches.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	for _, v := range slices.Backward(a.views) {
		v.Close()
	}
	if a.cancel != nil {
		a.cancel()
	}
}
