package docs_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/jrsteele09/go-testboard-client/docs"
	apperrors "github.com/jrsteele09/go-testboard-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresFS(t *testing.T) {
	_, err := docs.New(nil)
	require.Error(t, err)
}

func TestDefault_ListsShippedDocuments(t *testing.T) {
	s, err := docs.New(docs.Default())
	require.NoError(t, err)
	require.NoError(t, s.FetchFiles(context.Background()))

	state := s.State()
	require.False(t, state.IsLoading)
	require.Equal(t, []docs.File{
		{Name: "index.md", Title: "Overview"},
		{Name: "00-how_to.md", Title: "How To Guides"},
		{Name: "00-monitoring.md", Title: "Monitoring"},
		{Name: "project_setup.md", Title: "Project Setup"},
		{Name: "bug_tracking.md", Title: "Bug Tracking Process"},
	}, state.Files)

	for _, file := range state.Files {
		require.NoError(t, s.FetchContent(context.Background(), file.Name), file.Name)
		require.Contains(t, s.State().CurrentHTML, "<h1>", file.Name)
	}
}

func TestFetchContent_RendersGFM(t *testing.T) {
	fsys := fstest.MapFS{
		"index.yaml": {Data: []byte("- name: guide.md\n  title: Guide\n")},
		"guide.md":   {Data: []byte("# Guide\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n~~old~~\n")},
	}
	s, err := docs.New(fsys)
	require.NoError(t, err)

	require.NoError(t, s.FetchContent(context.Background(), "guide.md"))
	state := s.State()
	require.Equal(t, "guide.md", state.CurrentName)
	require.Contains(t, state.CurrentHTML, "<h1>Guide</h1>")
	require.Contains(t, state.CurrentHTML, "<table>")
	require.Contains(t, state.CurrentHTML, "<del>old</del>")
	require.Empty(t, state.Error)
}

func TestFetchContent_UnknownDocument(t *testing.T) {
	s, err := docs.New(docs.Default())
	require.NoError(t, err)
	require.NoError(t, s.FetchContent(context.Background(), "index.md"))

	for _, name := range []string{"missing.md", "../secret.md", "index.yaml", ""} {
		err = s.FetchContent(context.Background(), name)
		require.ErrorIs(t, err, apperrors.ErrNotFound, name)

		state := s.State()
		require.Empty(t, state.CurrentHTML, "previous content is cleared")
		require.NotEmpty(t, state.Error)
		require.False(t, state.IsLoading)
	}
}

func TestFetchFiles_BrokenIndexKeepsList(t *testing.T) {
	fsys := fstest.MapFS{
		"index.yaml": {Data: []byte("- name: a.md\n  title: A\n")},
	}
	s, err := docs.New(fsys)
	require.NoError(t, err)
	require.NoError(t, s.FetchFiles(context.Background()))

	fsys["index.yaml"] = &fstest.MapFile{Data: []byte("- name: [broken")}
	require.Error(t, s.FetchFiles(context.Background()))
	require.Equal(t, []docs.File{{Name: "a.md", Title: "A"}}, s.State().Files)
	require.NotEmpty(t, s.State().Error)
}
