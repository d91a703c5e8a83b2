package stores

import (
	"context"
	"errors"
	"fmt"
)

// VersionStore caches the versions of one project at a time.
type VersionStore struct {
	api      API
	projects *ProjectStore
	cache[Version]
	projectID ID
}

// NewVersionStore builds the store. projects may be nil; when set, created
// versions are attached to the matching cached project.
func NewVersionStore(api API, projects *ProjectStore) (*VersionStore, error) {
	if api == nil {
		return nil, errors.New("[stores.NewVersionStore] api is required")
	}
	return &VersionStore{api: api, projects: projects}, nil
}

func (s *VersionStore) State() State[Version] {
	return s.snapshot()
}

// ProjectID is the project the cached versions belong to.
func (s *VersionStore) ProjectID() ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectID
}

// FetchVersions loads the versions of a project. A non-empty cache for the
// same project is reused unless force is set.
func (s *VersionStore) FetchVersions(ctx context.Context, projectID ID, force bool) error {
	s.mu.RLock()
	cached := s.projectID == projectID && len(s.items) > 0
	s.mu.RUnlock()
	if cached && !force {
		return nil
	}

	s.begin()
	defer s.settle()

	res, err := s.api.Get(ctx, versionsPath(projectID), nil)
	if err == nil {
		var versions []Version
		if versions, err = normalizeVersions(res); err == nil {
			s.mu.Lock()
			s.items = versions
			s.projectID = projectID
			s.mu.Unlock()
			return nil
		}
	}
	s.fail("versions", err, fmt.Sprintf("Failed to fetch versions for project %s.", projectID))
	return err
}

func (s *VersionStore) CreateVersion(ctx context.Context, projectID ID, input VersionInput) (Version, error) {
	s.begin()
	defer s.settle()

	res, err := s.api.Post(ctx, versionsPath(projectID), input)
	if err != nil {
		s.fail("versions", err, "Failed to create version.")
		return Version{}, err
	}
	version, ok, err := decodeOne[Version](res)
	if err != nil {
		s.fail("versions", err, "Failed to create version.")
		return Version{}, err
	}
	if !ok {
		return version, nil
	}

	if s.ProjectID() == projectID {
		s.append(version)
	}
	if s.projects != nil {
		s.projects.attachVersion(projectID, version)
	}
	return version, nil
}
