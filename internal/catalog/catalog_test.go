package catalog

import (
	"context"
	"errors"
	"testing"

	"depmap/internal/githost"
	"depmap/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Level: logging.ErrorLevel})
}

type fakeLister struct {
	tree *githost.Tree
	err  error
}

func (f *fakeLister) ListTree(ctx context.Context, repo githost.Repository) (*githost.Tree, error) {
	return f.tree, f.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want Kind
	}{
		{"src/FooController.java", KindPrimaryClass},
		{"force-app/classes/BarHelper.cls", KindPrimaryClass},
		{"internal/server.go", KindPrimaryClass},
		{"lib/util.py", KindPrimaryClass},
		{"app/models/user.rb", KindPrimaryClass},
		{"src/Widget.tsx", KindComponent},
		{"src/Button.jsx", KindComponent},
		{"components/Nav.vue", KindComponent},
		{"aura/helper.cmp", KindComponent},
		{"src/FooControllerTest.java", KindTest},
		{"classes/TestDataFactory.cls", KindTest},
		{"internal/server_test.go", KindTest},
		{"src/FooController.test.js", KindTest},
		{"src/FooController.spec.ts", KindTest},
		{"__tests__/helpers.js", KindTest},
		{"src/__tests__/helpers.js", KindTest},
		{"tests/fixtures.py", KindTest},
		{"README.md", KindOther},
		{"config.yaml", KindOther},
		{"Makefile", KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := Classify(tt.path); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestSymbolName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"src/FooController.java", "FooController"},
		{"a/b/BarHelper.cls", "BarHelper"},
		{"src/FooController.test.js", "FooController"},
		{"Makefile", "Makefile"},
	}
	for _, tt := range tests {
		if got := SymbolName(tt.path); got != tt.want {
			t.Errorf("SymbolName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestListFiles(t *testing.T) {
	repo := githost.Repository{Org: "acme", Name: "api"}
	lister := &fakeLister{tree: &githost.Tree{
		Entries: []githost.TreeEntry{
			{Path: "src", Type: "tree", SHA: "t1"},
			{Path: "src/FooController.java", Type: "blob", Size: 900, SHA: "a"},
			{Path: "src/FooControllerTest.java", Type: "blob", Size: 400, SHA: "b"},
			{Path: "web/App.tsx", Type: "blob", Size: 300, SHA: "c"},
			{Path: "README.md", Type: "blob", Size: 100, SHA: "d"},
		},
	}}

	cat, err := NewBuilder(lister, testLogger()).ListFiles(context.Background(), repo)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}

	if cat.TotalCount != 4 {
		t.Errorf("totalCount = %d, want 4 (trees excluded)", cat.TotalCount)
	}
	if cat.Truncated {
		t.Error("truncated should be false")
	}

	kinds := map[string]Kind{}
	for _, e := range cat.Entries {
		kinds[e.Path] = e.Kind
		if e.Repository != repo {
			t.Errorf("entry %s missing repository", e.Path)
		}
	}
	if kinds["src/FooController.java"] != KindPrimaryClass {
		t.Error("controller should be primary-class")
	}
	if kinds["src/FooControllerTest.java"] != KindTest {
		t.Error("test file should be test")
	}
	if kinds["web/App.tsx"] != KindComponent {
		t.Error("tsx should be component")
	}
	if kinds["README.md"] != KindOther {
		t.Error("readme should be other")
	}
}

func TestListFilesTruncated(t *testing.T) {
	lister := &fakeLister{tree: &githost.Tree{Truncated: true}}
	cat, err := NewBuilder(lister, testLogger()).ListFiles(context.Background(), githost.Repository{Org: "big", Name: "mono"})
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if !cat.Truncated {
		t.Error("catalog should carry the upstream truncated flag")
	}
}

func TestListFilesError(t *testing.T) {
	wantErr := errors.New("boom")
	lister := &fakeLister{err: wantErr}
	_, err := NewBuilder(lister, testLogger()).ListFiles(context.Background(), githost.Repository{Org: "a", Name: "b"})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}
