package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	apperr "github.com/matzehuels/multilevel/pkg/errors"
	"github.com/matzehuels/multilevel/pkg/hierarchy"
	mlio "github.com/matzehuels/multilevel/pkg/io"
	"github.com/matzehuels/multilevel/pkg/render/text"
)

func TestBuildText(t *testing.T) {
	dir := isolate(t)
	doc := writeFile(t, dir, "g.yaml", scenarioYAML)

	out, err := execute(t, "build", doc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, want := range []string{"1 levels, 4 nodes, 4 edges", "level 0 (team)", "P  [a b]  a -> b", "Q  [c d]  c -> d"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBuildJSONWithStrategies(t *testing.T) {
	dir := isolate(t)
	doc := writeFile(t, dir, "g.yaml", scenarioYAML)

	var groups [][]text.Group
	for _, args := range [][]string{
		{"build", doc, "--format", "json"},
		{"build", doc, "--format", "json", "--strategy", "rescan", "--verify"},
		{"build", doc, "-f", "json", "--parallel", "4"},
	} {
		out, err := execute(t, args...)
		if err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		var sum text.Summary
		if err := json.Unmarshal([]byte(out), &sum); err != nil {
			t.Fatalf("%v: decode summary: %v", args, err)
		}
		if len(sum.Levels) != 1 {
			t.Fatalf("%v: levels = %d", args, len(sum.Levels))
		}
		groups = append(groups, sum.Levels[0].Groups)
	}
	for i := 1; i < len(groups); i++ {
		if !slices.EqualFunc(groups[0], groups[i], func(a, b text.Group) bool {
			return a.Parent == b.Parent && slices.Equal(a.Nodes, b.Nodes) && slices.Equal(a.Edges, b.Edges)
		}) {
			t.Errorf("run %d groups differ: %+v vs %+v", i, groups[0], groups[i])
		}
	}
}

func TestBuildConfigDefaults(t *testing.T) {
	dir := isolate(t)
	doc := writeFile(t, dir, "g.yaml", scenarioYAML)
	writeFile(t, dir, configFileName, "[build]\nstrategy = \"rescan\"\n")

	out, err := execute(t, "build", doc, "-f", "json")
	if err != nil {
		t.Fatal(err)
	}
	var sum text.Summary
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Strategy != "rescan" {
		t.Errorf("strategy = %q, want rescan from config", sum.Strategy)
	}

	out, err = execute(t, "build", doc, "-f", "json", "--strategy", "indexed")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"strategy": "indexed"`) {
		t.Error("--strategy should override the config file")
	}
}

func TestBuildOutputAndExport(t *testing.T) {
	dir := isolate(t)
	doc := writeFile(t, dir, "g.yaml", scenarioYAML)
	outPath := filepath.Join(dir, "summary.txt")
	exportPath := filepath.Join(dir, "g.toml")

	stdout, err := execute(t, "build", doc, "-o", outPath, "--export", exportPath)
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "" {
		t.Errorf("stdout should be empty with -o, got %q", stdout)
	}
	data, err := os.ReadFile(outPath)
	if err != nil || !bytes.Contains(data, []byte("P  [a b]")) {
		t.Errorf("summary file = %q, %v", data, err)
	}

	src, _ := mlio.ImportDocument(doc)
	exported, err := mlio.ImportDocument(exportPath)
	if err != nil {
		t.Fatalf("import exported document: %v", err)
	}
	want, _ := mlio.Canonical(src)
	got, _ := mlio.Canonical(exported)
	if !bytes.Equal(want, got) {
		t.Errorf("exported document differs:\n got %s\nwant %s", got, want)
	}
}

func TestBuildErrors(t *testing.T) {
	dir := isolate(t)
	good := writeFile(t, dir, "g.yaml", scenarioYAML)
	bad := writeFile(t, dir, "bad.json", `{"nodes": [{"id": "a"}], "levels": [{"members": {"a": "P", "ghost": "P"}}]}`)

	if _, err := execute(t, "build", bad); !errors.Is(err, hierarchy.ErrInvalidMembership) {
		t.Errorf("undeclared member error = %v, want ErrInvalidMembership", err)
	}
	if _, err := execute(t, "build", good, "--format", "dot"); !apperr.Is(err, apperr.ErrCodeInvalidFormat) {
		t.Errorf("dot format error = %v, want INVALID_FORMAT", err)
	}
	if _, err := execute(t, "build", good, "--strategy", "magic"); !apperr.Is(err, apperr.ErrCodeInvalidInput) {
		t.Errorf("unknown strategy error = %v, want INVALID_INPUT", err)
	}
	if _, err := execute(t, "build", filepath.Join(dir, "missing.yaml")); !apperr.Is(err, apperr.ErrCodeFileNotFound) {
		t.Errorf("missing document error = %v, want FILE_NOT_FOUND", err)
	}
	if _, err := execute(t, "build"); err == nil {
		t.Error("build without a document should fail")
	}
}
