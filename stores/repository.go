package stores

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strconv"

	"github.com/jrsteele09/go-testboard-client/apiclient"
)

// RepositoryState is a copy of the test repository cache.
type RepositoryState struct {
	Epics     []Epic
	Features  []Feature
	Scenarios []Scenario
	IsLoading bool
	Error     string
}

// RepositoryStore caches the epic/feature/scenario drill-down of one
// project. Loading a level clears the levels below it.
type RepositoryStore struct {
	api API
	cache[Epic]
	features  []Feature
	scenarios []Scenario
}

func NewRepositoryStore(api API) (*RepositoryStore, error) {
	if api == nil {
		return nil, errors.New("[stores.NewRepositoryStore] api is required")
	}
	return &RepositoryStore{api: api}, nil
}

func (s *RepositoryStore) State() RepositoryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return RepositoryState{
		Epics:     slices.Clone(s.items),
		Features:  slices.Clone(s.features),
		Scenarios: slices.Clone(s.scenarios),
		IsLoading: s.loading,
		Error:     s.err,
	}
}

func (s *RepositoryStore) FetchEpics(ctx context.Context, projectID ID) error {
	s.begin()
	defer s.settle()
	return s.fetchEpics(ctx, projectID)
}

func (s *RepositoryStore) fetchEpics(ctx context.Context, projectID ID) error {
	res, err := s.api.Get(ctx, epicsPath(projectID), nil)
	if err == nil {
		var epics []Epic
		if epics, err = normalizeEpics(res); err == nil {
			s.mu.Lock()
			s.items = epics
			s.features = nil
			s.scenarios = nil
			s.mu.Unlock()
			return nil
		}
	}
	s.fail("repository", err, fmt.Sprintf("Failed to fetch epics for project %s.", projectID))
	return err
}

func (s *RepositoryStore) FetchFeatures(ctx context.Context, projectID, epicID ID) error {
	s.begin()
	defer s.settle()

	res, err := s.api.Get(ctx, featuresPath(projectID, epicID), nil)
	if err == nil {
		var features []Feature
		if features, err = normalizeFeatures(res); err == nil {
			s.mu.Lock()
			s.features = features
			s.scenarios = nil
			s.mu.Unlock()
			return nil
		}
	}
	s.fail("repository", err, fmt.Sprintf("Failed to fetch features for epic %s.", epicID))
	return err
}

func (s *RepositoryStore) FetchScenarios(ctx context.Context, projectID, epicID, featureID ID, page ScenarioPage) error {
	s.begin()
	defer s.settle()

	var query url.Values
	if page.Limit > 0 || page.Skip > 0 {
		query = url.Values{}
		if page.Limit > 0 {
			query.Set("limit", strconv.Itoa(page.Limit))
		}
		if page.Skip > 0 {
			query.Set("skip", strconv.Itoa(page.Skip))
		}
	}

	res, err := s.api.Get(ctx, scenariosPath(projectID, epicID, featureID), query)
	if err == nil {
		var scenarios []Scenario
		if scenarios, err = normalizeScenarios(res); err == nil {
			s.mu.Lock()
			s.scenarios = scenarios
			s.mu.Unlock()
			return nil
		}
	}
	s.fail("repository", err, fmt.Sprintf("Failed to fetch scenarios for feature %s.", featureID))
	return err
}

// ImportCSV uploads a repository export as the "file" form field and then
// reloads the epics.
func (s *RepositoryStore) ImportCSV(ctx context.Context, projectID ID, filename string, content io.Reader) error {
	s.begin()
	defer s.settle()

	form := &apiclient.Multipart{Files: []apiclient.FormFile{{
		Field:    "file",
		Filename: filename,
		Content:  content,
	}}}
	if _, err := s.api.PostMultipart(ctx, importCSVPath(projectID), form); err != nil {
		s.fail("repository", err, "Failed to import repository CSV.")
		return err
	}
	return s.fetchEpics(ctx, projectID)
}
