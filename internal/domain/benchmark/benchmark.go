// Package benchmark defines the Benchmark aggregate: a named collection of
// test cases with an append-only history of immutable version snapshots.
// A version is created only when the test-case set actually changes;
// metadata edits never bump the version.
package benchmark

import (
	"fmt"
	"sort"
	"time"

	"github.com/Strob0t/TrailBench/internal/domain"
)

// Version is an immutable snapshot of a benchmark's test-case set.
// Versions are numbered from 1 with no gaps and are never mutated after
// creation, even if referenced test cases are later deleted from the catalog.
type Version struct {
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	TestCaseIDs []string  `json:"test_case_ids"`
}

// Benchmark is a named, versioned set of test cases. TestCaseIDs mirrors the
// latest version's snapshot for convenience.
type Benchmark struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Versions    []Version `json:"versions"`
	TestCaseIDs []string  `json:"test_case_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CurrentVersion returns the highest version number present, or 0 when no
// version has been created yet.
func (b *Benchmark) CurrentVersion() int {
	if len(b.Versions) == 0 {
		return 0
	}
	return b.Versions[len(b.Versions)-1].Version
}

// Snapshot returns the version snapshot with the given number.
func (b *Benchmark) Snapshot(version int) (Version, bool) {
	for _, v := range b.Versions {
		if v.Version == version {
			return v, true
		}
	}
	return Version{}, false
}

// AppendVersion appends a new snapshot numbered CurrentVersion+1 and updates
// the mirrored TestCaseIDs. The caller is responsible for checking that the
// set actually changed first.
func (b *Benchmark) AppendVersion(testCaseIDs []string, now time.Time) Version {
	v := Version{
		Version:     b.CurrentVersion() + 1,
		CreatedAt:   now,
		TestCaseIDs: append([]string(nil), testCaseIDs...),
	}
	b.Versions = append(b.Versions, v)
	b.TestCaseIDs = append([]string(nil), testCaseIDs...)
	return v
}

// SameSet reports whether two id slices contain the same ids, ignoring order
// and duplicates. Version comparison is set-based: reordering the test cases
// of a benchmark must not create a new version.
func SameSet(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, id := range a {
		as[id] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, id := range b {
		bs[id] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for id := range as {
		if _, ok := bs[id]; !ok {
			return false
		}
	}
	return true
}

// Diff computes the test cases added and removed between two snapshots.
// Results are sorted for stable output.
func Diff(prev, next []string) (added, removed []string) {
	prevSet := make(map[string]struct{}, len(prev))
	for _, id := range prev {
		prevSet[id] = struct{}{}
	}
	nextSet := make(map[string]struct{}, len(next))
	for _, id := range next {
		nextSet[id] = struct{}{}
	}
	for id := range nextSet {
		if _, ok := prevSet[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range prevSet {
		if _, ok := nextSet[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

// CreateRequest is the payload for creating a new benchmark.
type CreateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	TestCaseIDs []string `json:"test_case_ids"`
}

// Validate checks required fields on a CreateRequest.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	return nil
}

// UpdateRequest is the payload for updating a benchmark. Name and description
// are always applied; TestCaseIDs triggers a version bump only when the set
// differs from the current snapshot.
type UpdateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	TestCaseIDs []string `json:"test_case_ids"`
}

// VersionDiff is the result of comparing a version against its predecessor.
type VersionDiff struct {
	Version int      `json:"version"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}
