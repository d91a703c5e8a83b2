package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-testboard-client/apiclient"
	"github.com/jrsteele09/go-testboard-client/docs"
	"github.com/jrsteele09/go-testboard-client/guard"
	"github.com/jrsteele09/go-testboard-client/internal/config"
	"github.com/jrsteele09/go-testboard-client/session"
	"github.com/jrsteele09/go-testboard-client/session/fakebackend"
	"github.com/jrsteele09/go-testboard-client/session/oidcbackend"
	"github.com/jrsteele09/go-testboard-client/session/restbackend"
	"github.com/jrsteele09/go-testboard-client/stores"
	"github.com/jrsteele09/go-testboard-client/tokenstore"
	"github.com/jrsteele09/go-testboard-client/tokenstore/filestore"
	"github.com/jrsteele09/go-testboard-client/tokenstore/memstore"
	"github.com/jrsteele09/go-testboard-client/tokenstore/sqlitestore"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// app is the wired client: one session, one API client and the stores
// sharing them.
type app struct {
	cfg     config.Config
	tokens  tokenstore.Store
	client  *apiclient.Client
	session *session.Session
	guard   *guard.Guard

	projects   *stores.ProjectStore
	versions   *stores.VersionStore
	tickets    *stores.TicketStore
	bugs       *stores.BugStore
	campaigns  *stores.CampaignStore
	repository *stores.RepositoryStore
	users      *stores.UserStore
	dashboard  *stores.DashboardStore
	docs       *docs.Store
}

// sessionTokens lets the API client read the bearer token from a session
// that is created after the client.
type sessionTokens struct {
	session *session.Session
}

func (st *sessionTokens) Token() string {
	if st.session == nil {
		return ""
	}
	return st.session.Token()
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	tokens, err := newTokenStore(cfg)
	if err != nil {
		return nil, err
	}

	a, err := wire(ctx, cfg, tokens)
	if err != nil {
		_ = tokens.Close()
		return nil, err
	}
	return a, nil
}

func wire(ctx context.Context, cfg config.Config, tokens tokenstore.Store) (*app, error) {
	baseURL, err := cfg.ResolveBaseURL()
	if err != nil {
		return nil, err
	}
	timeout, err := time.ParseDuration(cfg.GetTimeout())
	if err != nil {
		return nil, errors.Wrapf(err, "[newApp] invalid timeout %q", cfg.GetTimeout())
	}

	source := &sessionTokens{}
	client, err := apiclient.New(baseURL, apiclient.WithTimeout(timeout), apiclient.WithTokenSource(source))
	if err != nil {
		return nil, err
	}

	backend, err := newBackend(ctx, cfg, client)
	if err != nil {
		return nil, err
	}
	sess, err := session.New(backend, tokens)
	if err != nil {
		return nil, err
	}
	source.session = sess

	g, err := guard.New(sess)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, tokens: tokens, client: client, session: sess, guard: g}
	if a.projects, err = stores.NewProjectStore(client); err != nil {
		return nil, err
	}
	if a.versions, err = stores.NewVersionStore(client, a.projects); err != nil {
		return nil, err
	}
	if a.tickets, err = stores.NewTicketStore(client); err != nil {
		return nil, err
	}
	if a.bugs, err = stores.NewBugStore(client); err != nil {
		return nil, err
	}
	if a.campaigns, err = stores.NewCampaignStore(client); err != nil {
		return nil, err
	}
	if a.repository, err = stores.NewRepositoryStore(client); err != nil {
		return nil, err
	}
	if a.users, err = stores.NewUserStore(client); err != nil {
		return nil, err
	}
	if a.dashboard, err = stores.NewDashboardStore(client); err != nil {
		return nil, err
	}
	if a.docs, err = docs.New(docs.Default()); err != nil {
		return nil, err
	}

	log.Debug().
		Str("env", cfg.GetEnv()).
		Str("baseURL", baseURL).
		Str("backend", cfg.GetBackend()).
		Str("tokenStore", cfg.GetTokenStore()).
		Msg("Client configured")
	return a, nil
}

func newTokenStore(cfg config.Config) (tokenstore.Store, error) {
	switch kind := cfg.GetTokenStore(); kind {
	case "memory":
		return memstore.New(), nil
	case "file":
		return filestore.New(cfg.GetTokenPath())
	case "sqlite":
		return sqlitestore.New(cfg.GetTokenPath())
	default:
		return nil, fmt.Errorf("[newTokenStore] unknown token store %q", kind)
	}
}

func newBackend(ctx context.Context, cfg config.Config, client *apiclient.Client) (session.Backend, error) {
	switch kind := cfg.GetBackend(); kind {
	case "fake":
		return fakebackend.New()
	case "rest":
		return restbackend.New(client)
	case "oidc":
		return oidcbackend.New(ctx, cfg.GetOIDCIssuer(), cfg.GetOIDCClientID(), cfg.GetOIDCClientSecret())
	default:
		return nil, fmt.Errorf("[newBackend] unknown backend %q", kind)
	}
}

func (a *app) Close() {
	if err := a.tokens.Close(); err != nil {
		log.Err(err).Msg("Failed to close token store")
	}
}

// navigate runs the route guard for a command. A redirect becomes an error
// telling the user what to do.
func (a *app) navigate(ctx context.Context, name string, params map[string]string) error {
	outcome, err := a.guard.Navigate(ctx, name, params)
	if err != nil {
		return err
	}
	switch outcome.Decision {
	case guard.Allow:
		return nil
	case guard.RedirectLogin:
		return fmt.Errorf("not logged in: run 'testboard login' (redirect to %s)", outcome.Target.FullPath())
	default:
		return fmt.Errorf("administrator rights required (redirect to %s)", outcome.Target.FullPath())
	}
}
