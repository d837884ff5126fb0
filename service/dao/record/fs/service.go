package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/jobflow/runtime/execution"
	"github.com/viant/jobflow/service/dao"
	"github.com/viant/jobflow/service/dao/criteria"
)

// Service stores process records as JSON files under any afs URL
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.RWMutex
}

var _ dao.Service[string, execution.Record] = (*Service)(nil)

// Save persists a record
func (s *Service) Save(ctx context.Context, record *execution.Record) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	if record.ID == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	filePath := s.recordPath(record.ID)
	if err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save record to %s: %w", filePath, err)
	}
	return nil
}

// Load reads a record
func (s *Service) Load(ctx context.Context, id string) (*execution.Record, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	filePath := s.recordPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check record %v: %w", id, err)
	}
	if !exists {
		return nil, fmt.Errorf("record %v: %w", id, dao.ErrNotFound)
	}
	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}
	record := &execution.Record{}
	if err = json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return record, nil
}

// Delete removes a record
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	filePath := s.recordPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check record %v: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("record %v: %w", id, dao.ErrNotFound)
	}
	return s.fs.Delete(ctx, filePath)
}

// List returns records matching the State parameter, newest first
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	var records []*execution.Record
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			slog.Warn("failed to read record", "url", object.URL(), "error", err)
			continue
		}
		record := &execution.Record{}
		if err = json.Unmarshal(data, record); err != nil {
			slog.Warn("failed to unmarshal record", "url", object.URL(), "error", err)
			continue
		}
		if criteria.FilterByState(record.State, parameters) {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
	return records, nil
}

func (s *Service) recordPath(id string) string {
	return url.Join(s.basePath, path.Base(id)+".json")
}

// New creates a file record store rooted at basePath
func New(ctx context.Context, basePath string) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	fs := afs.New()
	basePath = url.Normalize(basePath, file.Scheme)
	exists, _ := fs.Exists(ctx, basePath)
	if !exists {
		if err := fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	return &Service{basePath: basePath, fs: fs}, nil
}
