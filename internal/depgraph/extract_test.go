package depgraph

import (
	"testing"
)

func findRef(refs []Reference, symbol string, relation RelationKind) *Reference {
	for i := range refs {
		if refs[i].Symbol == symbol && refs[i].Relation == relation {
			return &refs[i]
		}
	}
	return nil
}

func TestHeuristicExtractPatterns(t *testing.T) {
	e := NewHeuristicExtractor()

	src := []byte(`public class FooController extends BaseController {
    public void handle() {
        BarHelper helper = new BarHelper();
        AuditLog.record("handled");
    }
}`)
	refs := e.Extract("src/FooController.java", src, false)

	if r := findRef(refs, "BaseController", RelationExtends); r == nil {
		t.Error("missing extends BaseController")
	}
	if r := findRef(refs, "BarHelper", RelationReferences); r == nil {
		t.Error("missing new BarHelper reference")
	}
	r := findRef(refs, "AuditLog", RelationCalls)
	if r == nil {
		t.Fatal("missing AuditLog call")
	}
	if r.Member != "record" {
		t.Errorf("member = %q, want record", r.Member)
	}
}

func TestHeuristicExtractSkipsSelfReferences(t *testing.T) {
	e := NewHeuristicExtractor()

	src := []byte("FooController x = new FooController();")
	refs := e.Extract("src/FooController.java", src, false)

	if findRef(refs, "FooController", RelationReferences) != nil {
		t.Error("self reference should be dropped")
	}
}

func TestHeuristicExtractSkipsComments(t *testing.T) {
	e := NewHeuristicExtractor()

	src := []byte(`// uses BarHelper for everything
# new LegacyThing()
BarHelper helper = new BarHelper();`)
	refs := e.Extract("src/Foo.java", src, false)

	if findRef(refs, "LegacyThing", RelationReferences) != nil {
		t.Error("commented reference should be dropped")
	}
	if findRef(refs, "BarHelper", RelationReferences) == nil {
		t.Error("real reference should survive")
	}
}

func TestHeuristicExtractDeduplicates(t *testing.T) {
	e := NewHeuristicExtractor()

	src := []byte(`BarHelper a = new BarHelper();
BarHelper b = new BarHelper();`)
	refs := e.Extract("src/Foo.java", src, false)

	count := 0
	for _, r := range refs {
		if r.Symbol == "BarHelper" && r.Relation == RelationReferences {
			count++
		}
	}
	if count != 1 {
		t.Errorf("BarHelper references = %d, want 1", count)
	}
}

func TestHeuristicExtractContainerAttribution(t *testing.T) {
	e := NewHeuristicExtractor()

	src := []byte(`public class Foo {
    public void first() {
        BarHelper.run();
    }
    public void second() {
        BazHelper.run();
    }
}`)
	refs := e.Extract("src/Foo.java", src, true)

	bar := findRef(refs, "BarHelper", RelationCalls)
	if bar == nil || bar.Container != "first" {
		t.Errorf("BarHelper container = %v, want first", bar)
	}
	baz := findRef(refs, "BazHelper", RelationCalls)
	if baz == nil || baz.Container != "second" {
		t.Errorf("BazHelper container = %v, want second", baz)
	}
}

func TestHeuristicExtractContainerOmittedAtFileLevel(t *testing.T) {
	e := NewHeuristicExtractor()

	src := []byte(`public void handle() {
    BarHelper.run();
}`)
	refs := e.Extract("src/Foo.java", src, false)

	r := findRef(refs, "BarHelper", RelationCalls)
	if r == nil {
		t.Fatal("missing call reference")
	}
	if r.Container != "" {
		t.Errorf("container = %q, want empty at file level", r.Container)
	}
}

func TestHeuristicExtractImports(t *testing.T) {
	e := NewHeuristicExtractor()

	src := []byte(`import BarHelper from './helpers/BarHelper';
import { something } from "../components/BazWidget";`)
	refs := e.Extract("src/foo.ts", src, false)

	if findRef(refs, "BarHelper", RelationReferences) == nil {
		t.Error("missing default import reference")
	}
	if findRef(refs, "BazWidget", RelationReferences) == nil {
		t.Error("missing path import reference")
	}
}

func TestHeuristicExtractTestFileRelation(t *testing.T) {
	e := NewHeuristicExtractor()

	refs := e.Extract("test/FooControllerTest.java", []byte("class FooControllerTest {}"), false)

	r := findRef(refs, "FooController", RelationTests)
	if r == nil {
		t.Fatal("test file should reference its unit under test")
	}
}

func TestTestTarget(t *testing.T) {
	cases := []struct {
		symbol string
		want   string
	}{
		{"FooControllerTest", "FooController"},
		{"FooControllerTests", "FooController"},
		{"TestFoo", "Foo"},
		{"FooSpec", "Foo"},
		{"foo_test", "foo"},
		{"Test", ""},
		{"Foo", ""},
	}
	for _, tc := range cases {
		if got := testTarget(tc.symbol); got != tc.want {
			t.Errorf("testTarget(%q) = %q, want %q", tc.symbol, got, tc.want)
		}
	}
}
