// Package scope manages the repository scope file: the persistent set of
// repositories an analysis searches when the request does not name its own.
package scope

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"depmap/internal/githost"
)

const scopeFile = "repos.toml"

// Scope is the repository scope stored in repos.toml
type Scope struct {
	// Name is an optional scope label shown in CLI output
	Name string `toml:"name,omitempty"`

	// CreatedAt is when the scope was created
	CreatedAt time.Time `toml:"created_at"`

	// UpdatedAt is when the scope was last modified
	UpdatedAt time.Time `toml:"updated_at"`

	// Repos is the ordered repository list; order is the resolution
	// search order
	Repos []RepoEntry `toml:"repos"`
}

// RepoEntry is one repository in the scope
type RepoEntry struct {
	// UID is the immutable identifier for this entry (never changes)
	UID string `toml:"uid"`

	// Spec is the repository in org/name[@branch] form
	Spec string `toml:"spec"`

	// Tags are optional labels for categorization
	Tags []string `toml:"tags,omitempty"`

	// AddedAt is when the repo was added to the scope
	AddedAt time.Time `toml:"added_at"`
}

// New creates an empty scope
func New(name string) *Scope {
	now := time.Now().UTC()
	return &Scope{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Repos:     []RepoEntry{},
	}
}

// Add appends a repository to the scope. The spec must parse as
// org/name[@branch] and must not duplicate an existing entry.
func (s *Scope) Add(spec string, tags []string) (*RepoEntry, error) {
	if _, err := githost.ParseRepository(spec); err != nil {
		return nil, err
	}
	for _, r := range s.Repos {
		if r.Spec == spec {
			return nil, fmt.Errorf("repository %q already in scope", spec)
		}
	}

	entry := RepoEntry{
		UID:     uuid.New().String(),
		Spec:    spec,
		Tags:    tags,
		AddedAt: time.Now().UTC(),
	}

	s.Repos = append(s.Repos, entry)
	s.UpdatedAt = time.Now().UTC()

	return &entry, nil
}

// Remove deletes a repository from the scope by spec
func (s *Scope) Remove(spec string) error {
	for i, r := range s.Repos {
		if r.Spec == spec {
			s.Repos = append(s.Repos[:i], s.Repos[i+1:]...)
			s.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("repository %q not in scope", spec)
}

// Get returns the entry for a spec, or nil
func (s *Scope) Get(spec string) *RepoEntry {
	for i := range s.Repos {
		if s.Repos[i].Spec == spec {
			return &s.Repos[i]
		}
	}
	return nil
}

// Repositories parses every entry into repository coordinates, preserving
// scope order.
func (s *Scope) Repositories() ([]githost.Repository, error) {
	repos := make([]githost.Repository, 0, len(s.Repos))
	for _, r := range s.Repos {
		repo, err := githost.ParseRepository(r.Spec)
		if err != nil {
			return nil, fmt.Errorf("scope entry %q: %w", r.Spec, err)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func path(root string) string {
	return filepath.Join(root, ".depmap", scopeFile)
}

// Load reads the scope file under root. A missing file yields an empty
// scope, not an error.
func Load(root string) (*Scope, error) {
	if _, err := os.Stat(path(root)); os.IsNotExist(err) {
		return New(""), nil
	}

	var s Scope
	if _, err := toml.DecodeFile(path(root), &s); err != nil {
		return nil, fmt.Errorf("failed to parse scope file: %w", err)
	}
	return &s, nil
}

// Save writes the scope file under root, creating .depmap if needed
func (s *Scope) Save(root string) error {
	if err := os.MkdirAll(filepath.Join(root, ".depmap"), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path(root))
	if err != nil {
		return fmt.Errorf("failed to create scope file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("failed to encode scope file: %w", err)
	}

	return nil
}
