package definition

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/option"
	"github.com/viant/shift/model/graph"
	"github.com/viant/shift/service/dao"
	"github.com/viant/shift/service/dao/store"
	"gopkg.in/yaml.v3"
)

// Service is a registry of initialised process definitions that can also load
// YAML definitions from any afs supported location.
type Service struct {
	fs    afs.Service
	store *store.MemoryStore[string, graph.Definition]
}

// DecodeYAML decodes and initialises a definition
func (s *Service) DecodeYAML(encoded []byte) (*graph.Definition, error) {
	ret := &graph.Definition{}
	if err := yaml.Unmarshal(encoded, ret); err != nil {
		return nil, fmt.Errorf("failed to decode definition: %w", err)
	}
	if err := ret.Init(); err != nil {
		return nil, fmt.Errorf("invalid definition %q: %w", ret.ID, err)
	}
	return ret, nil
}

// Load reads, registers and returns the definition stored at URL. The file
// name (without extension) is used as id when the document declares none.
func (s *Service) Load(ctx context.Context, URL string) (*graph.Definition, error) {
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download definition %v: %w", URL, err)
	}
	ret := &graph.Definition{}
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode definition %v: %w", URL, err)
	}
	if ret.ID == "" {
		ret.ID = nameFromURL(URL)
	}
	if err = ret.Init(); err != nil {
		return nil, fmt.Errorf("invalid definition %v: %w", URL, err)
	}
	if err = s.store.Save(ctx, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// LoadAll registers every yaml definition found under baseURL
func (s *Service) LoadAll(ctx context.Context, baseURL string) ([]*graph.Definition, error) {
	objects, err := s.fs.List(ctx, baseURL, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions %v: %w", baseURL, err)
	}
	var ret []*graph.Definition
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		ext := path.Ext(object.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		definition, err := s.Load(ctx, object.URL())
		if err != nil {
			return nil, err
		}
		ret = append(ret, definition)
	}
	return ret, nil
}

// Save registers an already built definition, initialising it when needed
func (s *Service) Save(ctx context.Context, definition *graph.Definition) error {
	if definition == nil {
		return dao.ErrNilEntity
	}
	if err := definition.Init(); err != nil {
		return err
	}
	return s.store.Save(ctx, definition)
}

// Lookup returns a registered definition
func (s *Service) Lookup(ctx context.Context, id string) (*graph.Definition, error) {
	return s.store.Load(ctx, id)
}

// Delete removes a registered definition
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// List returns registered definitions
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*graph.Definition, error) {
	return s.store.List(ctx, parameters...)
}

func nameFromURL(URL string) string {
	name := path.Base(URL)
	return strings.TrimSuffix(name, path.Ext(name))
}

// New creates a definition registry
func New(fs afs.Service) *Service {
	if fs == nil {
		fs = afs.New()
	}
	return &Service{
		fs:    fs,
		store: store.NewMemoryStore[string, graph.Definition](func(d *graph.Definition) string { return d.ID }, nil),
	}
}
