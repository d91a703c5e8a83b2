package guard

import (
	"context"
	"errors"
	"net/url"

	"github.com/jrsteele09/go-testboard-client/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Route names the guard redirects to.
const (
	RouteLogin     = "login"
	RouteDashboard = "dashboard"

	// RedirectParam carries the originally requested path on a login redirect.
	RedirectParam = "redirect"
)

// Requirement is the access level a route demands.
type Requirement int

const (
	Public Requirement = iota
	Authenticated
	Admin
)

func (r Requirement) String() string {
	switch r {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	}
	return "invalid"
}

// Route is a navigation target.
type Route struct {
	Name   string
	Path   string
	Params map[string]string
	Query  map[string]string
}

// FullPath returns the path with its query string.
func (r Route) FullPath() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	q := url.Values{}
	for k, v := range r.Query {
		q.Set(k, v)
	}
	return r.Path + "?" + q.Encode()
}

type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectDashboard
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectDashboard:
		return "redirect-dashboard"
	}
	return "invalid"
}

// Outcome is the result of guarding a navigation. Target is the requested
// route when allowed, otherwise the redirect destination.
type Outcome struct {
	Decision Decision
	Target   Route
}

// Evaluate decides a navigation from a settled session snapshot.
func Evaluate(requirement Requirement, target Route, snap session.Snapshot) Outcome {
	if requirement == Public {
		return Outcome{Decision: Allow, Target: target}
	}
	if !snap.IsAuthenticated {
		return Outcome{
			Decision: RedirectLogin,
			Target: Route{
				Name:  RouteLogin,
				Path:  "/login",
				Query: map[string]string{RedirectParam: target.FullPath()},
			},
		}
	}
	if requirement == Admin && (snap.User == nil || !snap.User.IsAdmin) {
		return Outcome{Decision: RedirectDashboard, Target: Route{Name: RouteDashboard, Path: "/"}}
	}
	return Outcome{Decision: Allow, Target: target}
}

// Guard gates navigation on the state of one session, restoring it from the
// persisted token when its state is still unknown.
type Guard struct {
	session *session.Session
	restore singleflight.Group
}

func New(s *session.Session) (*Guard, error) {
	if s == nil {
		return nil, errors.New("[guard.New] session is required")
	}
	return &Guard{session: s}, nil
}

func (g *Guard) RequireAuthenticated(ctx context.Context, target Route) Outcome {
	return g.Check(ctx, Authenticated, target)
}

func (g *Guard) RequireAdmin(ctx context.Context, target Route) Outcome {
	return g.Check(ctx, Admin, target)
}

// Check settles the session if needed and evaluates the requirement.
// Concurrent checks share one restore. The restore does not inherit the
// cancellation of the caller that started it; a caller whose ctx ends
// stops waiting and is evaluated on the state at that point.
func (g *Guard) Check(ctx context.Context, requirement Requirement, target Route) Outcome {
	if requirement != Public && g.unsettled() && g.session.HasPersistedToken() {
		restoreCtx := context.WithoutCancel(ctx)
		done := g.restore.DoChan("restore", func() (any, error) {
			if g.session.State() != session.StateUnknown {
				return nil, nil
			}
			return nil, g.session.CheckAuth(restoreCtx)
		})
		select {
		case res := <-done:
			if res.Err != nil {
				log.Warn().Err(res.Err).Bool("shared", res.Shared).Msg("Session restore failed")
			}
		case <-ctx.Done():
			log.Debug().Err(ctx.Err()).Str("route", target.Name).Msg("Stopped waiting for session restore")
		}
	}

	outcome := Evaluate(requirement, target, g.session.Snapshot())
	log.Debug().
		Str("route", target.Name).
		Str("requirement", requirement.String()).
		Str("decision", outcome.Decision.String()).
		Msg("Navigation guarded")
	return outcome
}

func (g *Guard) unsettled() bool {
	state := g.session.State()
	return state == session.StateUnknown || state == session.StateAuthenticating
}
