package exportsqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-cvwizard/cv"
)

// ContentType is the media type of SQLite artifacts.
const ContentType = "application/vnd.sqlite3"

const defaultTableName = "cv_blocks"

// Exporter writes document blocks into a SQLite database file.
type Exporter struct {
	Enabled   bool
	TableName string
	MaxBytes  int64
}

var _ cv.Exporter = Exporter{}

var columns = []string{
	"section_position",
	"section_id",
	"section_title",
	"block_position",
	"kind",
	"heading",
	"subtext",
	"label",
	"text",
}

// Export builds the database in a temp file and returns its bytes.
func (e Exporter) Export(ctx context.Context, doc cv.Document, cfg cv.ExportConfig) (cv.Artifact, error) {
	if !e.Enabled {
		return cv.Artifact{}, cv.NewError(cv.KindNotImpl, "sqlite exporter is disabled", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	tableName := sanitizeIdentifier(e.TableName, defaultTableName)

	tempFile, err := os.CreateTemp("", "cvwizard-*.sqlite")
	if err != nil {
		return cv.Artifact{}, cv.ExportFailed("sqlite temp file create failed", err)
	}
	path := tempFile.Name()
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(path)
		return cv.Artifact{}, cv.ExportFailed("sqlite temp file close failed", err)
	}
	defer func() {
		_ = os.Remove(path)
	}()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return cv.Artifact{}, cv.ExportFailed("sqlite open failed", err)
	}
	if err := writeDocument(ctx, db, tableName, doc); err != nil {
		_ = db.Close()
		return cv.Artifact{}, cv.ExportFailed("sqlite write failed", err)
	}
	if err := db.Close(); err != nil {
		return cv.Artifact{}, cv.ExportFailed("sqlite close failed", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return cv.Artifact{}, cv.ExportFailed("sqlite stat failed", err)
	}
	if e.MaxBytes > 0 && info.Size() > e.MaxBytes {
		return cv.Artifact{}, cv.ExportFailed("sqlite export too large",
			cv.NewError(cv.KindValidation, fmt.Sprintf("database is %d bytes, limit %d", info.Size(), e.MaxBytes), nil))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cv.Artifact{}, cv.ExportFailed("sqlite read failed", err)
	}
	return cv.Artifact{
		Filename:    cfg.Filename,
		ContentType: ContentType,
		Data:        data,
	}, nil
}

func writeDocument(ctx context.Context, db *sql.DB, tableName string, doc cv.Document) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, createTableSQL(tableName)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE "document" ("name" TEXT, "sections" INTEGER)`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO "document" ("name", "sections") VALUES (?, ?)`, doc.Name, len(doc.Sections)); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(tableName))
	if err != nil {
		return err
	}
	defer func() {
		_ = stmt.Close()
	}()

	for si, section := range doc.Sections {
		for bi, block := range section.Blocks {
			if err := ctx.Err(); err != nil {
				return err
			}
			text := block.Text
			if block.Kind == cv.BlockBullets && len(block.Lines) > 0 {
				text = strings.Join(block.Lines, "\n")
			}
			if _, err := stmt.ExecContext(ctx,
				si+1,
				string(section.ID),
				section.Title,
				bi+1,
				string(block.Kind),
				nullable(block.Heading),
				nullable(block.Subtext),
				nullable(block.Label),
				nullable(text),
			); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func createTableSQL(tableName string) string {
	return fmt.Sprintf(`CREATE TABLE %s (
	"section_position" INTEGER NOT NULL,
	"section_id" TEXT NOT NULL,
	"section_title" TEXT NOT NULL,
	"block_position" INTEGER NOT NULL,
	"kind" TEXT NOT NULL,
	"heading" TEXT,
	"subtext" TEXT,
	"label" TEXT,
	"text" TEXT
)`, quoteIdentifier(tableName))
}

func insertSQL(tableName string) string {
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdentifier(col)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdentifier(tableName), strings.Join(quoted, ", "), strings.Join(marks, ", "))
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sanitizeIdentifier keeps letters, digits and underscores. Names that start
// with a digit get a leading underscore.
func sanitizeIdentifier(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if strings.Trim(out, "_") == "" {
		return fallback
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}
