package stores

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// BugStore caches the bugs of one project. New bugs are listed first.
type BugStore struct {
	api API
	cache[Bug]
}

func NewBugStore(api API) (*BugStore, error) {
	if api == nil {
		return nil, errors.New("[stores.NewBugStore] api is required")
	}
	return &BugStore{api: api}, nil
}

func (s *BugStore) State() State[Bug] {
	return s.snapshot()
}

func (s *BugStore) FetchBugs(ctx context.Context, projectID ID, filters BugFilters) error {
	s.begin()
	defer s.settle()

	var query url.Values
	for k, v := range filters {
		if v == "" {
			continue
		}
		if query == nil {
			query = url.Values{}
		}
		query.Set(k, v)
	}

	res, err := s.api.Get(ctx, bugsPath(projectID), query)
	if err == nil {
		var bugs []Bug
		if bugs, err = normalizeBugs(res); err == nil {
			s.replace(bugs)
			return nil
		}
	}
	s.fail("bugs", err, fmt.Sprintf("Failed to fetch bugs for project %s.", projectID))
	return err
}

func (s *BugStore) CreateBug(ctx context.Context, projectID ID, input BugInput) (Bug, error) {
	s.begin()
	defer s.settle()

	res, err := s.api.Post(ctx, bugsPath(projectID), input)
	if err != nil {
		s.fail("bugs", err, "Failed to create bug.")
		return Bug{}, err
	}
	bug, ok, err := decodeOne[Bug](res)
	if err != nil {
		s.fail("bugs", err, "Failed to create bug.")
		return Bug{}, err
	}
	if ok {
		s.prepend(bug)
	}
	return bug, nil
}

func (s *BugStore) UpdateBug(ctx context.Context, projectID, bugID ID, update BugUpdate) (Bug, error) {
	s.begin()
	defer s.settle()

	res, err := s.api.Put(ctx, bugsPath(projectID)+"/"+escape(bugID), update)
	if err != nil {
		s.fail("bugs", err, fmt.Sprintf("Failed to update bug %s.", bugID))
		return Bug{}, err
	}
	bug, ok, err := decodeOne[Bug](res)
	if err != nil {
		s.fail("bugs", err, fmt.Sprintf("Failed to update bug %s.", bugID))
		return Bug{}, err
	}
	if ok {
		s.splice(bugID, bug)
	}
	return bug, nil
}
