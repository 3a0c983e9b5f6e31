// Package exportxlsx exports cv documents as a single-sheet workbook.
package exportxlsx

import (
	"bytes"
	"context"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-cvwizard/cv"
)

const (
	// ContentType is the media type of XLSX artifacts.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	DefaultSheetName = "CV"

	labelColumnWidth  = 28
	detailColumnWidth = 80
	mmPerInch         = 25.4
)

// Excel paper size codes.
var paperSizes = map[string]int{
	"LETTER": 1,
	"LEGAL":  5,
	"A3":     8,
	"A4":     9,
	"A5":     11,
	"B5":     13,
}

// Exporter writes the document as label/detail rows.
type Exporter struct {
	SheetName string
	MaxBytes  int64
}

var _ cv.Exporter = Exporter{}

// Export builds the workbook for doc.
func (e Exporter) Export(ctx context.Context, doc cv.Document, cfg cv.ExportConfig) (cv.Artifact, error) {
	data, err := e.build(ctx, doc, cfg)
	if err != nil {
		return cv.Artifact{}, cv.ExportFailed("xlsx export failed", err)
	}
	return cv.Artifact{
		Filename:    cfg.Filename,
		ContentType: ContentType,
		Data:        data,
	}, nil
}

func (e Exporter) build(ctx context.Context, doc cv.Document, cfg cv.ExportConfig) ([]byte, error) {
	file := excelize.NewFile()
	defer func() {
		_ = file.Close()
	}()

	sheet := e.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}
	if current := file.GetSheetName(0); current != sheet {
		file.SetSheetName(current, sheet)
	}

	styles, err := buildStyles(file)
	if err != nil {
		return nil, err
	}
	if err := file.SetColWidth(sheet, "A", "A", labelColumnWidth); err != nil {
		return nil, err
	}
	if err := file.SetColWidth(sheet, "B", "B", detailColumnWidth); err != nil {
		return nil, err
	}
	if err := applyPageSetup(file, sheet, cfg); err != nil {
		return nil, err
	}

	w := &sheetWriter{file: file, sheet: sheet, row: 1}
	if name := strings.TrimSpace(doc.Name); name != "" {
		if err := w.write(styles.title, name, ""); err != nil {
			return nil, err
		}
		w.row++
	}

	for i, section := range doc.Sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 {
			w.row++
		}
		if err := w.write(styles.section, section.Title, ""); err != nil {
			return nil, err
		}
		for _, block := range section.Blocks {
			if err := w.block(styles, block); err != nil {
				return nil, err
			}
		}
	}

	buf := &bytes.Buffer{}
	lw := newLimitedWriter(buf, e.MaxBytes)
	if _, err := file.WriteTo(lw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type sheetWriter struct {
	file  *excelize.File
	sheet string
	row   int
}

func (w *sheetWriter) block(styles cellStyles, block cv.Block) error {
	switch block.Kind {
	case cv.BlockHeading:
		return w.write(styles.heading, block.Heading, block.Subtext)
	case cv.BlockBullets:
		for _, line := range block.Lines {
			if err := w.write(0, "", line); err != nil {
				return err
			}
		}
		return nil
	default:
		label := block.Label
		if label == "" {
			return w.write(0, block.Text, "")
		}
		return w.write(styles.label, label, block.Text)
	}
}

func (w *sheetWriter) write(styleID int, label, detail string) error {
	labelCell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	detailCell, err := excelize.CoordinatesToCellName(2, w.row)
	if err != nil {
		return err
	}
	if err := w.file.SetCellStr(w.sheet, labelCell, label); err != nil {
		return err
	}
	if detail != "" {
		if err := w.file.SetCellStr(w.sheet, detailCell, detail); err != nil {
			return err
		}
	}
	if styleID != 0 {
		if err := w.file.SetCellStyle(w.sheet, labelCell, labelCell, styleID); err != nil {
			return err
		}
	}
	w.row++
	return nil
}

type cellStyles struct {
	title   int
	section int
	heading int
	label   int
}

func buildStyles(file *excelize.File) (cellStyles, error) {
	title, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return cellStyles{}, err
	}
	section, err := file.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 13},
		Border: []excelize.Border{{Type: "bottom", Color: "2F5D8A", Style: 1}},
	})
	if err != nil {
		return cellStyles{}, err
	}
	heading, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return cellStyles{}, err
	}
	label, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true}})
	if err != nil {
		return cellStyles{}, err
	}
	return cellStyles{title: title, section: section, heading: heading, label: label}, nil
}

func applyPageSetup(file *excelize.File, sheet string, cfg cv.ExportConfig) error {
	orientation := string(cv.OrientationPortrait)
	if cfg.Landscape() {
		orientation = string(cv.OrientationLandscape)
	}
	layout := &excelize.PageLayoutOptions{Orientation: &orientation}
	if size, ok := paperSizes[strings.ToUpper(cfg.PageSize)]; ok {
		layout.Size = &size
	}
	if err := file.SetPageLayout(sheet, layout); err != nil {
		return err
	}

	top := cfg.Margins.Top / mmPerInch
	right := cfg.Margins.Right / mmPerInch
	bottom := cfg.Margins.Bottom / mmPerInch
	left := cfg.Margins.Left / mmPerInch
	return file.SetPageMargins(sheet, &excelize.PageLayoutMarginsOptions{
		Top:    &top,
		Right:  &right,
		Bottom: &bottom,
		Left:   &left,
	})
}
