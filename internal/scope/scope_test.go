package scope

import (
	"testing"
)

func TestAddAndGet(t *testing.T) {
	s := New("platform")

	entry, err := s.Add("acme/api@develop", []string{"backend"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if entry.UID == "" {
		t.Error("entry should get a uid")
	}
	if got := s.Get("acme/api@develop"); got == nil || got.UID != entry.UID {
		t.Error("Get should return the added entry")
	}
}

func TestAddRejectsDuplicatesAndBadSpecs(t *testing.T) {
	s := New("")
	if _, err := s.Add("acme/api", nil); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := s.Add("acme/api", nil); err == nil {
		t.Error("duplicate spec should be rejected")
	}
	if _, err := s.Add("not-a-repo-spec", nil); err == nil {
		t.Error("malformed spec should be rejected")
	}
	if len(s.Repos) != 1 {
		t.Errorf("repos = %d, want 1", len(s.Repos))
	}
}

func TestRemove(t *testing.T) {
	s := New("")
	s.Add("acme/api", nil)
	s.Add("acme/shared", nil)

	if err := s.Remove("acme/api"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s.Get("acme/api") != nil {
		t.Error("removed entry still present")
	}
	if err := s.Remove("acme/api"); err == nil {
		t.Error("removing an absent entry should fail")
	}
}

func TestRepositoriesPreservesOrder(t *testing.T) {
	s := New("")
	s.Add("acme/api", nil)
	s.Add("acme/shared@main", nil)

	repos, err := s.Repositories()
	if err != nil {
		t.Fatalf("Repositories: %v", err)
	}
	if len(repos) != 2 {
		t.Fatalf("repos = %d, want 2", len(repos))
	}
	if repos[0].FullName() != "acme/api" || repos[1].FullName() != "acme/shared" {
		t.Errorf("order not preserved: %v", repos)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	root := t.TempDir()

	s := New("platform")
	s.Add("acme/api@develop", []string{"backend"})
	s.Add("acme/shared", nil)
	if err := s.Save(root); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "platform" {
		t.Errorf("name = %q", loaded.Name)
	}
	if len(loaded.Repos) != 2 {
		t.Fatalf("repos = %d, want 2", len(loaded.Repos))
	}
	if loaded.Repos[0].Spec != "acme/api@develop" {
		t.Errorf("spec = %q", loaded.Repos[0].Spec)
	}
	if len(loaded.Repos[0].Tags) != 1 || loaded.Repos[0].Tags[0] != "backend" {
		t.Errorf("tags = %v", loaded.Repos[0].Tags)
	}
}

func TestLoadMissingFileYieldsEmptyScope(t *testing.T) {
	s, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Repos) != 0 {
		t.Errorf("repos = %d, want 0", len(s.Repos))
	}
}
