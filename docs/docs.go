package docs

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"io/fs"
	"path"
	"sync"

	apperrors "github.com/jrsteele09/go-testboard-client/internal/errors"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

// IndexFile lists the documents of a docs tree in display order.
const IndexFile = "index.yaml"

//go:embed content
var content embed.FS

// Default returns the documentation shipped with the client.
func Default() fs.FS {
	sub, err := fs.Sub(content, "content")
	if err != nil {
		panic(err)
	}
	return sub
}

// File is one entry of the documentation index.
type File struct {
	Name  string `yaml:"name"`
	Title string `yaml:"title"`
}

// State is a copy of the store at one point in time.
type State struct {
	Files       []File
	CurrentName string
	CurrentHTML string
	IsLoading   bool
	Error       string
}

// Store lists markdown documents and renders the selected one to HTML.
type Store struct {
	fsys     fs.FS
	markdown goldmark.Markdown

	mu          sync.RWMutex
	files       []File
	currentName string
	currentHTML string
	loading     bool
	err         string
}

func New(fsys fs.FS) (*Store, error) {
	if fsys == nil {
		return nil, errors.New("[docs.New] file system is required")
	}
	return &Store{
		fsys:     fsys,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Files:       append([]File(nil), s.files...),
		CurrentName: s.currentName,
		CurrentHTML: s.currentHTML,
		IsLoading:   s.loading,
		Error:       s.err,
	}
}

// FetchFiles reads the index. On failure the previous list is kept.
func (s *Store) FetchFiles(ctx context.Context) error {
	s.begin()
	defer s.settle()

	files, err := s.readIndex(ctx)
	if err != nil {
		s.fail(err, "Failed to fetch documentation file list.")
		return err
	}

	s.mu.Lock()
	s.files = files
	s.mu.Unlock()
	return nil
}

// FetchContent renders one document. The previous document is cleared
// before loading.
func (s *Store) FetchContent(ctx context.Context, name string) error {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.currentName = name
	s.currentHTML = ""
	s.mu.Unlock()
	defer s.settle()

	html, err := s.render(ctx, name)
	if err != nil {
		s.fail(err, "Failed to fetch documentation content for "+name+".")
		return err
	}

	s.mu.Lock()
	s.currentHTML = html
	s.mu.Unlock()
	return nil
}

func (s *Store) readIndex(ctx context.Context) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.fsys, IndexFile)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Store.FetchFiles] read %s", IndexFile)
	}
	var files []File
	if err := yaml.Unmarshal(data, &files); err != nil {
		return nil, apperrors.Wrapf(err, "[Store.FetchFiles] parse %s", IndexFile)
	}
	return files, nil
}

func (s *Store) render(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || path.Clean(name) != name || path.Ext(name) != ".md" || !fs.ValidPath(name) {
		return "", apperrors.Wrapf(apperrors.ErrNotFound, "document %q", name)
	}

	source, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperrors.Wrapf(apperrors.ErrNotFound, "document %q", name)
		}
		return "", err
	}

	var buf bytes.Buffer
	if err := s.markdown.Convert(source, &buf); err != nil {
		return "", apperrors.Wrapf(err, "render %s", name)
	}
	return buf.String(), nil
}

func (s *Store) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.err = ""
}

func (s *Store) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
}

func (s *Store) fail(err error, fallback string) {
	log.Warn().Err(err).Str("store", "docs").Msg(fallback)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = apperrors.Message(err, fallback)
}
