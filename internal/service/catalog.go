package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Strob0t/TrailBench/internal/domain"
	"github.com/Strob0t/TrailBench/internal/domain/testcase"
	"github.com/Strob0t/TrailBench/internal/port/database"
)

// CatalogService manages the test-case catalog.
type CatalogService struct {
	store    database.Store
	seedsDir string
}

// NewCatalogService creates a catalog service. seedsDir may be empty to
// disable seed import.
func NewCatalogService(store database.Store, seedsDir string) *CatalogService {
	return &CatalogService{store: store, seedsDir: seedsDir}
}

// Create validates and persists a new test case.
func (s *CatalogService) Create(ctx context.Context, req *testcase.CreateRequest) (*testcase.TestCase, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	tc := &testcase.TestCase{
		ID:               uuid.New().String(),
		Name:             req.Name,
		Labels:           req.Labels,
		InitialPrompt:    req.InitialPrompt,
		ExpectedOutcomes: req.ExpectedOutcomes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateTestCase(ctx, tc); err != nil {
		return nil, err
	}
	return tc, nil
}

// Get retrieves a test case by ID.
func (s *CatalogService) Get(ctx context.Context, id string) (*testcase.TestCase, error) {
	return s.store.GetTestCase(ctx, id)
}

// List returns all test cases.
func (s *CatalogService) List(ctx context.Context) ([]testcase.TestCase, error) {
	return s.store.ListTestCases(ctx)
}

// Update applies metadata edits to a test case. The ID never changes.
func (s *CatalogService) Update(ctx context.Context, id string, req *testcase.UpdateRequest) (*testcase.TestCase, error) {
	tc, err := s.store.GetTestCase(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		tc.Name = req.Name
	}
	tc.Labels = req.Labels
	if req.InitialPrompt != "" {
		tc.InitialPrompt = req.InitialPrompt
	}
	if len(req.ExpectedOutcomes) > 0 {
		tc.ExpectedOutcomes = req.ExpectedOutcomes
	}
	tc.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateTestCase(ctx, tc); err != nil {
		return nil, err
	}
	return tc, nil
}

// Delete removes a test case from the catalog. Benchmark version snapshots
// referencing it keep the stale ID; runs pinned to those snapshots fail that
// case at execution time.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteTestCase(ctx, id)
}

// seedFile is the YAML structure of a test-case seed file.
type seedFile struct {
	Name      string `yaml:"name"`
	TestCases []struct {
		ID               string   `yaml:"id"`
		Name             string   `yaml:"name"`
		Labels           []string `yaml:"labels"`
		InitialPrompt    string   `yaml:"initial_prompt"`
		ExpectedOutcomes []string `yaml:"expected_outcomes"`
	} `yaml:"test_cases"`
}

// ImportSeeds scans the seeds directory for YAML files and inserts any test
// case not already in the catalog. Existing IDs are left untouched so local
// edits survive a restart. Returns the number of imported cases.
func (s *CatalogService) ImportSeeds(ctx context.Context) (int, error) {
	if s.seedsDir == "" {
		return 0, nil
	}

	imported := 0
	err := filepath.WalkDir(s.seedsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible files
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, err := os.ReadFile(filepath.Clean(path)) //nolint:gosec // path is from WalkDir within seedsDir
		if err != nil {
			return nil // skip unreadable files
		}
		var sf seedFile
		if err := yaml.Unmarshal(data, &sf); err != nil {
			slog.Warn("invalid seed file", "path", path, "error", err)
			return nil
		}

		now := time.Now().UTC()
		for _, entry := range sf.TestCases {
			if entry.Name == "" || entry.InitialPrompt == "" {
				continue
			}
			id := entry.ID
			if id == "" {
				id = uuid.New().String()
			} else if _, err := s.store.GetTestCase(ctx, id); err == nil {
				continue
			} else if !errors.Is(err, domain.ErrNotFound) {
				return err
			}

			tc := &testcase.TestCase{
				ID:               id,
				Name:             entry.Name,
				Labels:           entry.Labels,
				InitialPrompt:    entry.InitialPrompt,
				ExpectedOutcomes: entry.ExpectedOutcomes,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := s.store.CreateTestCase(ctx, tc); err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return imported, fmt.Errorf("walk seeds dir: %w", err)
	}

	if imported > 0 {
		slog.Info("test case seeds imported", "count", imported, "dir", s.seedsDir)
	}
	return imported, nil
}
