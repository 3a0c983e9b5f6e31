package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const seedYAML = `
personal:
  name: Ada Lovelace
  email: ada@example.com
education:
  - degree: Mathematics
    institute: University of London
    year: "1835"
experience:
  - title: Analyst
    company: Babbage & Co
    duration: 1842-1843
    responsibilities: |
      Wrote the first program
      Annotated the engine notes
skills:
  technical: Analytical engines
`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("CVWIZARD_DOWNLOAD_DIR", filepath.Join(t.TempDir(), "downloads"))
	t.Setenv("CVWIZARD_PDF_ENABLED", "false")
	t.Setenv("CVWIZARD_LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := cmd.Execute()
	return out.String(), err
}

func TestRender_PrintsOutline(t *testing.T) {
	isolate(t)
	out, err := execute(t, "render", "--seed", writeSeed(t))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Ada Lovelace", "== Education ==", "Mathematics", "- Wrote the first program"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in outline:\n%s", want, out)
		}
	}
}

func TestRender_HTML(t *testing.T) {
	isolate(t)
	out, err := execute(t, "render", "--seed", writeSeed(t), "--html")
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	if !strings.Contains(out, "<html") || !strings.Contains(out, "Ada Lovelace") {
		t.Fatalf("unexpected html output:\n%s", out)
	}
}

func TestExport_WritesNamedFiles(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	out, err := execute(t, "export", "--seed", writeSeed(t), "--format", "html,xlsx", "--out", dir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, name := range []string{"Ada_Lovelace_CV.html", "Ada_Lovelace_CV.xlsx"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected %s to have content", name)
		}
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s to be reported, got %q", name, out)
		}
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	isolate(t)
	_, err := execute(t, "export", "--seed", writeSeed(t), "--format", "docx", "--out", t.TempDir())
	if err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestBatch_RequiresFile(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "batch"); err == nil {
		t.Fatalf("expected missing batch file error")
	}
}

func TestBatch_ExportsFromFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "batch.yaml")
	content := `
- profile:
    personal:
      name: Ada Lovelace
  formats: [html]
- profile:
    personal:
      name: Grace Hopper
  formats: [html, xlsx]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	out, err := execute(t, "batch", "--from", path)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if !strings.Contains(out, "exported 3 documents") {
		t.Fatalf("unexpected batch output %q", out)
	}
}

func TestHistory_EmptyList(t *testing.T) {
	isolate(t)
	out, err := execute(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var records []map[string]any
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode history: %v (%q)", err, out)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestCleanup_ReportsRemoved(t *testing.T) {
	isolate(t)
	out, err := execute(t, "cleanup", "--older-than", "1h")
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if !strings.Contains(out, "removed 0 downloads") {
		t.Fatalf("unexpected cleanup output %q", out)
	}
}
