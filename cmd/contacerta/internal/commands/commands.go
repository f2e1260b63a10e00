package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/contacerta/contacerta/internal/app"
	"github.com/contacerta/contacerta/internal/apperr"
	"github.com/contacerta/contacerta/internal/auth"
	"github.com/contacerta/contacerta/internal/logger"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/prefs"
	"github.com/contacerta/contacerta/internal/session"
	"github.com/contacerta/contacerta/internal/store"
	"github.com/contacerta/contacerta/internal/store/memory"
	"github.com/contacerta/contacerta/internal/store/postgres"
	"github.com/contacerta/contacerta/internal/telemetry"
)

const (
	storePostgres = "postgres"
	storeMemory   = "memory"
)

// Globals are the flags shared by every command. Values left empty fall back to the profile.
type Globals struct {
	Debug       bool   `help:"Enable debug logging."`
	Profile     string `help:"YAML profile with defaults for these flags." default:"~/.contacerta/config.yaml" type:"path" env:"CONTACERTA_PROFILE"`
	Store       string `help:"Backend to use (postgres or memory). The memory backend keeps nothing between runs." env:"CONTACERTA_STORE"`
	PostgresURL string `help:"PostgreSQL connection string." name:"postgres-url" env:"CONTACERTA_POSTGRES_URL"`
	AutoMigrate bool   `help:"Apply pending migrations on connect." env:"CONTACERTA_AUTO_MIGRATE"`
	Token       string `help:"Access token issued by the auth service." env:"CONTACERTA_TOKEN"`
	JWTSecret   string `help:"Secret the access tokens are signed with." name:"jwt-secret" env:"CONTACERTA_JWT_SECRET"`
	JWTAudience string `help:"Expected audience of access tokens." name:"jwt-audience" env:"CONTACERTA_JWT_AUDIENCE"`
	Identity    string `help:"Act as this identity id without a token (development only)." env:"CONTACERTA_IDENTITY"`
	Email       string `help:"Email of --identity." env:"CONTACERTA_EMAIL"`
	PrefsDir    string `help:"Directory for client preferences." type:"path" env:"CONTACERTA_PREFS_DIR"`
	Telemetry   bool   `help:"Export metrics and traces over OTLP." env:"CONTACERTA_TELEMETRY"`

	Version string `kong:"-"`
}

// Env is an opened application for the logged-in identity.
type Env struct {
	App      *app.App
	Identity models.Identity
	Outcome  session.Outcome

	closers []func()
}

// Close releases everything Open acquired, in reverse order.
func (e *Env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// ActiveOrg returns the active organization or explains how to pick one.
func (e *Env) ActiveOrg() (models.ActiveOrg, error) {
	active, ok := e.App.Session.Active()
	if ok {
		return active, nil
	}
	switch e.Outcome {
	case session.NeedsOnboarding:
		return active, errors.New("you are not a member of any organization: run 'contacerta orgs create' or 'contacerta orgs join'")
	case session.DirectoryUnavailable:
		return active, errors.New("could not load your organizations, please try again later")
	default:
		return active, errors.New("no active organization: run 'contacerta orgs list' and 'contacerta orgs use'")
	}
}

// Open loads the profile, sets up logging and telemetry, connects to the
// backend and logs in.
func (g *Globals) Open(ctx context.Context) (*Env, error) {
	if err := g.applyProfile(); err != nil {
		return nil, err
	}
	log.Logger = logger.Setup(g.Debug)

	env := &Env{}
	ok := false
	defer func() {
		if !ok {
			env.Close()
		}
	}()

	if g.Telemetry {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{ServiceName: "contacerta", Version: g.Version})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		} else {
			env.closers = append(env.closers, func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Failed to shutdown telemetry")
				}
			})
		}
	}

	identity, err := g.identity()
	if err != nil {
		return nil, err
	}

	stores, closeStores, err := g.openStores(ctx)
	if err != nil {
		return nil, err
	}
	env.closers = append(env.closers, closeStores)

	prefStore, err := prefs.NewStore(g.PrefsDir)
	if err != nil {
		return nil, err
	}

	env.App = app.New(app.Config{Stores: stores, Persister: prefStore})
	env.closers = append(env.closers, env.App.Close)
	env.Identity = identity

	env.Outcome, err = env.App.Session.Login(ctx, identity)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("identity_id", identity.ID.String()).
		Str("outcome", env.Outcome.String()).
		Msg("Session ready")

	ok = true
	return env, nil
}

func (g *Globals) identity() (models.Identity, error) {
	if g.Token != "" {
		parser, err := auth.NewTokenParser([]byte(g.JWTSecret), g.JWTAudience)
		if err != nil {
			return models.Identity{}, fmt.Errorf("cannot validate --token: %w", err)
		}
		return parser.Parse(g.Token)
	}
	if g.Identity != "" {
		id, err := uuid.Parse(g.Identity)
		if err != nil {
			return models.Identity{}, fmt.Errorf("invalid --identity: %w", err)
		}
		return models.Identity{ID: id, Email: g.Email}, nil
	}
	return models.Identity{}, errors.New("not logged in: pass --token (with --jwt-secret) or --identity")
}

func (g *Globals) openStores(ctx context.Context) (store.Stores, func(), error) {
	switch g.Store {
	case storeMemory:
		log.Warn().Msg("Using the in-memory backend; nothing is kept after this run")
		return memory.NewBackend().Stores(), func() {}, nil

	case storePostgres, "":
		if g.PostgresURL == "" {
			return store.Stores{}, nil, errors.New("PostgreSQL connection string is required (--postgres-url or CONTACERTA_POSTGRES_URL)")
		}
		backend, err := postgres.Open(ctx, &postgres.Config{
			Pool:        postgres.PoolConfig{ConnString: g.PostgresURL},
			AutoMigrate: g.AutoMigrate,
		})
		if err != nil {
			return store.Stores{}, nil, err
		}
		return backend.Stores(), backend.Close, nil
	}
	return store.Stores{}, nil, fmt.Errorf("unknown store %q (want postgres or memory)", g.Store)
}

// confirm prints what a destructive command will do and refuses to go on without --yes.
func confirm(description string, yes bool) error {
	fmt.Println(description)
	if !yes {
		return errors.New("not confirmed: re-run with --yes to proceed")
	}
	return nil
}

// parseID parses a uuid argument named what.
func parseID(what, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

func parseOptionalID(what, s string) (*uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := parseID(what, s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func parseDate(what, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, "02/01/2006"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s %q (use YYYY-MM-DD or DD/MM/YYYY)", what, s)
}

// userError keeps the user-facing message and drops backend detail unless debugging.
func userError(err error) error {
	if err == nil {
		return nil
	}
	if e, ok := apperr.As(err); ok {
		log.Debug().Err(e.Err).Str("kind", e.Kind.String()).Msg("Operation failed")
		return errors.New(e.Message)
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// openOrg opens the environment and requires an active organization.
func (g *Globals) openOrg(ctx context.Context) (*Env, models.ActiveOrg, error) {
	env, err := g.Open(ctx)
	if err != nil {
		return nil, models.ActiveOrg{}, userError(err)
	}
	active, err := env.ActiveOrg()
	if err != nil {
		env.Close()
		return nil, models.ActiveOrg{}, err
	}
	return env, active, nil
}

// AddressFlags are the flags of a structured address.
type AddressFlags struct {
	Street       string `help:"Street"`
	Number       string `help:"Number"`
	Complement   string `help:"Complement"`
	Neighborhood string `help:"Neighborhood"`
	City         string `help:"City"`
	State        string `help:"State (two letters)"`
	Zip          string `help:"ZIP code (8 digits)"`
}

// Model returns the address, or nil when no field was given.
func (f AddressFlags) Model() *models.Address {
	a := models.Address{
		Street:       strings.TrimSpace(f.Street),
		Number:       strings.TrimSpace(f.Number),
		Complement:   strings.TrimSpace(f.Complement),
		Neighborhood: strings.TrimSpace(f.Neighborhood),
		City:         strings.TrimSpace(f.City),
		State:        strings.ToUpper(strings.TrimSpace(f.State)),
		ZipCode:      strings.NewReplacer("-", "", ".", "", " ", "").Replace(f.Zip),
	}
	if a.IsEmpty() {
		return nil
	}
	return &a
}
