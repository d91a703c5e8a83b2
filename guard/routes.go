package guard

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/go-testboard-client/internal/errors"
)

// Named routes of the application
const (
	RouteProjects              = "projects"
	RouteProjectCreate         = "project-create"
	RouteProjectDetails        = "project-details"
	RouteProjectVersions       = "project-versions"
	RouteProjectVersionTickets = "project-version-tickets"
	RouteProjectBugs           = "project-bugs"
	RouteProjectCampaigns      = "project-campaigns"
	RouteProjectCampaignBoard  = "project-campaign-board"
	RouteProjectRepository     = "project-repository"
	RouteUsers                 = "users"
	RouteDocumentation         = "documentation"
)

// RouteDef is an entry of the route table. Pattern segments starting with
// ':' are filled from navigation params. A non-empty RedirectTo forwards
// to another named route with the same params.
type RouteDef struct {
	Name        string
	Pattern     string
	Requirement Requirement
	RedirectTo  string
}

var routeTable = []RouteDef{
	{Name: RouteDashboard, Pattern: "/", Requirement: Authenticated},
	{Name: RouteLogin, Pattern: "/login", Requirement: Public},
	{Name: RouteProjects, Pattern: "/projects", Requirement: Authenticated},
	{Name: RouteProjectCreate, Pattern: "/projects/new", Requirement: Authenticated},
	{Name: RouteProjectDetails, Pattern: "/projects/:id", Requirement: Authenticated, RedirectTo: RouteProjectVersions},
	{Name: RouteProjectVersions, Pattern: "/projects/:id/versions", Requirement: Authenticated},
	{Name: RouteProjectVersionTickets, Pattern: "/projects/:id/versions/:versionId/tickets", Requirement: Authenticated},
	{Name: RouteProjectBugs, Pattern: "/projects/:id/bugs", Requirement: Authenticated},
	{Name: RouteProjectCampaigns, Pattern: "/projects/:id/campaigns", Requirement: Authenticated},
	{Name: RouteProjectCampaignBoard, Pattern: "/projects/:id/campaigns/:campaignId", Requirement: Authenticated},
	{Name: RouteProjectRepository, Pattern: "/projects/:id/repository", Requirement: Authenticated},
	{Name: RouteUsers, Pattern: "/users", Requirement: Admin},
	{Name: RouteDocumentation, Pattern: "/documentation", Requirement: Authenticated},
}

// Routes returns a copy of the route table.
func Routes() []RouteDef {
	return append([]RouteDef(nil), routeTable...)
}

// Lookup finds a route definition by name.
func Lookup(name string) (RouteDef, bool) {
	for _, def := range routeTable {
		if def.Name == name {
			return def, true
		}
	}
	return RouteDef{}, false
}

// Resolve builds the Route for name, following redirects and filling path
// params.
func Resolve(name string, params map[string]string) (Route, RouteDef, error) {
	def, ok := Lookup(name)
	if !ok {
		return Route{}, RouteDef{}, apperrors.Wrapf(apperrors.ErrNotFound, "[guard.Resolve] route %q", name)
	}
	if def.RedirectTo != "" {
		return Resolve(def.RedirectTo, params)
	}

	segments := strings.Split(def.Pattern, "/")
	for i, segment := range segments {
		if !strings.HasPrefix(segment, ":") {
			continue
		}
		key := segment[1:]
		value, ok := params[key]
		if !ok || value == "" {
			return Route{}, RouteDef{}, fmt.Errorf("[guard.Resolve] route %q requires param %q", name, key)
		}
		segments[i] = url.PathEscape(value)
	}

	return Route{Name: def.Name, Path: strings.Join(segments, "/"), Params: params}, def, nil
}

// Navigate resolves a named route and applies its requirement.
func (g *Guard) Navigate(ctx context.Context, name string, params map[string]string) (Outcome, error) {
	target, def, err := Resolve(name, params)
	if err != nil {
		return Outcome{}, err
	}
	return g.Check(ctx, def.Requirement, target), nil
}
