package fs

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/dao"
	"github.com/viant/shift/service/dao/process"
)

// Service implements a filesystem-based process storage, one JSON document per process
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.RWMutex
}

var _ dao.Service[string, execution.Process] = (*Service)(nil)

// Save persists a process to the filesystem
func (s *Service) Save(ctx context.Context, p *execution.Process) error {
	data, err := process.Encode(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	filePath := s.processPath(p.ID)
	if err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save process to file %s: %w", filePath, err)
	}
	return nil
}

// Load retrieves a process from the filesystem
func (s *Service) Load(ctx context.Context, id string) (*execution.Process, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	filePath := s.processPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check if process exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("process %v: %w", id, dao.ErrNotFound)
	}
	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read process file: %w", err)
	}
	return process.Decode(data)
}

// Delete removes a process from the filesystem
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	filePath := s.processPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check if process exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("process %v: %w", id, dao.ErrNotFound)
	}
	if err := s.fs.Delete(ctx, filePath); err != nil {
		return fmt.Errorf("failed to delete process file: %w", err)
	}
	return nil
}

// List returns processes matching the parameters, ordered by id
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list process files: %w", err)
	}
	var processes []*execution.Process
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			return nil, fmt.Errorf("failed to read process file %s: %w", object.URL(), err)
		}
		p, err := process.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", object.URL(), err)
		}
		if process.Matches(p, parameters) {
			processes = append(processes, p)
		}
	}
	process.SortByID(processes)
	return processes, nil
}

func (s *Service) processPath(id string) string {
	return url.Join(s.basePath, id+".json")
}

// New creates a filesystem process store rooted at basePath; fs defaults to afs.New()
func New(ctx context.Context, basePath string, fs afs.Service) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	basePath = url.Normalize(basePath, file.Scheme)
	exists, _ := fs.Exists(ctx, basePath)
	if !exists {
		if err := fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	return &Service{basePath: basePath, fs: fs}, nil
}
