package stores

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// ProjectStore caches the project list and the currently opened project.
type ProjectStore struct {
	api API
	cache[Project]
	current *Project
}

func NewProjectStore(api API) (*ProjectStore, error) {
	if api == nil {
		return nil, errors.New("[stores.NewProjectStore] api is required")
	}
	return &ProjectStore{api: api}, nil
}

func (s *ProjectStore) State() State[Project] {
	return s.snapshot()
}

// Current returns a copy of the project loaded by FetchProjectDetails.
func (s *ProjectStore) Current() (Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Project{}, false
	}
	p := *s.current
	p.Versions = slices.Clone(p.Versions)
	return p, true
}

func (s *ProjectStore) FetchProjects(ctx context.Context) error {
	s.begin()
	defer s.settle()

	res, err := s.api.Get(ctx, "/projects", nil)
	if err == nil {
		var projects []Project
		if projects, err = normalizeProjects(res); err == nil {
			s.replace(projects)
			return nil
		}
	}
	s.fail("projects", err, "Failed to fetch projects.")
	return err
}

// FetchProjectDetails loads one project. Versions already known for the
// same project are kept when the response carries none.
func (s *ProjectStore) FetchProjectDetails(ctx context.Context, projectID ID) (Project, error) {
	s.begin()
	defer s.settle()

	res, err := s.api.Get(ctx, projectPath(projectID), nil)
	if err != nil {
		s.fail("projects", err, fmt.Sprintf("Failed to fetch project %s.", projectID))
		return Project{}, err
	}
	project, ok, err := decodeOne[Project](res)
	if err != nil {
		s.fail("projects", err, fmt.Sprintf("Failed to fetch project %s.", projectID))
		return Project{}, err
	}
	if !ok {
		project.ID = projectID
	}

	s.mu.Lock()
	if project.Versions == nil && s.current != nil && s.current.ID == projectID {
		project.Versions = s.current.Versions
	}
	s.current = &project
	s.mu.Unlock()

	current, _ := s.Current()
	return current, nil
}

func (s *ProjectStore) CreateProject(ctx context.Context, input ProjectInput) (Project, error) {
	s.begin()
	defer s.settle()

	res, err := s.api.Post(ctx, "/projects", input)
	if err != nil {
		s.fail("projects", err, "Failed to create project.")
		return Project{}, err
	}
	project, ok, err := decodeOne[Project](res)
	if err != nil {
		s.fail("projects", err, "Failed to create project.")
		return Project{}, err
	}
	if ok {
		s.append(project)
	}
	return project, nil
}

// attachVersion records a new version on the current project and on the
// matching project of the list, unless already present.
func (s *ProjectStore) attachVersion(projectID ID, version Version) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hasVersion := func(v Version) bool { return v.ID == version.ID }
	if s.current != nil && s.current.ID == projectID && !slices.ContainsFunc(s.current.Versions, hasVersion) {
		s.current.Versions = append(s.current.Versions, version)
	}
	for i := range s.items {
		if s.items[i].ID == projectID && !slices.ContainsFunc(s.items[i].Versions, hasVersion) {
			s.items[i].Versions = append(slices.Clone(s.items[i].Versions), version)
		}
	}
}

func projectPath(projectID ID) string {
	return "/projects/" + escape(projectID)
}
