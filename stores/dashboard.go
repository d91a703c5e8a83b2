package stores

import (
	"context"
	"errors"
)

// DashboardStore caches the per-project summary shown on the dashboard.
type DashboardStore struct {
	api API
	cache[DashboardProject]
}

func NewDashboardStore(api API) (*DashboardStore, error) {
	if api == nil {
		return nil, errors.New("[stores.NewDashboardStore] api is required")
	}
	return &DashboardStore{api: api}, nil
}

func (s *DashboardStore) State() State[DashboardProject] {
	return s.snapshot()
}

func (s *DashboardStore) FetchDashboard(ctx context.Context) error {
	s.begin()
	defer s.settle()

	res, err := s.api.Get(ctx, "/dashboard", nil)
	if err == nil {
		var projects []DashboardProject
		if projects, err = normalizeDashboard(res); err == nil {
			s.replace(projects)
			return nil
		}
	}
	s.fail("dashboard", err, "Failed to fetch dashboard data.")
	return err
}
