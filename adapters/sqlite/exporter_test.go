package exportsqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-cvwizard/cv"
)

func sampleDocument() cv.Document {
	return cv.Render(cv.Profile{
		Personal: cv.Personal{Name: "Ada Lovelace", Email: "ada@example.com"},
		Education: []cv.EducationEntry{
			{Degree: "BSc Mathematics", Institute: "London", Year: "1835"},
		},
		Experience: []cv.ExperienceEntry{
			{Title: "Analyst", Company: "Engines", Duration: "1842", Responsibilities: "Notes\nLoops"},
		},
	})
}

func openArtifact(t *testing.T, data []byte) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cv.sqlite")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestExporter_Disabled(t *testing.T) {
	_, err := Exporter{}.Export(context.Background(), sampleDocument(), cv.DefaultExportConfig())
	if !cv.IsKind(err, cv.KindNotImpl) {
		t.Fatalf("expected not implemented, got %v", err)
	}
}

func TestExporter_WritesBlocks(t *testing.T) {
	cfg := cv.DefaultExportConfig()
	cfg.Format = cv.FormatSQLite
	cfg.Filename = cv.Filename("Ada Lovelace", cv.FormatSQLite)

	artifact, err := Exporter{Enabled: true}.Export(context.Background(), sampleDocument(), cfg)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if artifact.Filename != "Ada_Lovelace_CV.sqlite" || artifact.ContentType != ContentType {
		t.Fatalf("unexpected artifact %q %q", artifact.Filename, artifact.ContentType)
	}

	db := openArtifact(t, artifact.Data)
	var name string
	var sections int
	if err := db.QueryRow(`SELECT "name", "sections" FROM "document"`).Scan(&name, &sections); err != nil {
		t.Fatalf("query document: %v", err)
	}
	if name != "Ada Lovelace" || sections != 3 {
		t.Fatalf("unexpected document row %q %d", name, sections)
	}

	rows, err := db.Query(`SELECT "section_id", "kind", COALESCE("heading", ''), COALESCE("text", '') FROM "cv_blocks" ORDER BY "section_position", "block_position"`)
	if err != nil {
		t.Fatalf("query blocks: %v", err)
	}
	defer rows.Close()

	type row struct{ section, kind, heading, text string }
	var got []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.section, &r.kind, &r.heading, &r.text); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}

	want := []row{
		{"personal", "paragraph", "", "Ada Lovelace | ada@example.com"},
		{"education", "heading", "BSc Mathematics", ""},
		{"experience", "heading", "Analyst", ""},
		{"experience", "bullets", "", "Notes\nLoops"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestExporter_CustomTableAndLimit(t *testing.T) {
	artifact, err := Exporter{Enabled: true, TableName: "2024 cv"}.Export(context.Background(), sampleDocument(), cv.DefaultExportConfig())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	db := openArtifact(t, artifact.Data)
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "_2024_cv"`).Scan(&count); err != nil {
		t.Fatalf("query custom table: %v", err)
	}
	if count == 0 {
		t.Fatalf("expected rows in custom table")
	}

	_, err = Exporter{Enabled: true, MaxBytes: 16}.Export(context.Background(), sampleDocument(), cv.DefaultExportConfig())
	if !cv.IsKind(err, cv.KindExport) {
		t.Fatalf("expected export error, got %v", err)
	}
	var cause *cv.Error
	if !errors.As(errors.Unwrap(err), &cause) || cause.Kind != cv.KindValidation {
		t.Fatalf("expected validation cause, got %v", err)
	}
}

func TestExporter_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Exporter{Enabled: true}.Export(ctx, sampleDocument(), cv.DefaultExportConfig())
	if err == nil {
		t.Fatalf("expected error for canceled context")
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	cases := map[string]string{
		"":          "fallback",
		"cv_blocks": "cv_blocks",
		"my table":  "my_table",
		"9lives":    "_9lives",
		"!!!":       "fallback",
	}
	for in, want := range cases {
		if got := sanitizeIdentifier(in, "fallback"); got != want {
			t.Fatalf("sanitizeIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}
