package cv

import (
	"strings"
	"testing"
)

func TestFilename(t *testing.T) {
	cases := []struct {
		name   string
		format Format
		want   string
	}{
		{"Ada Lovelace", FormatPDF, "Ada_Lovelace_CV.pdf"},
		{"  José   María ", FormatPDF, "José_María_CV.pdf"},
		{"../../etc/passwd", FormatHTML, "etcpasswd_CV.html"},
		{"a/b\\c:d*e?f", FormatPDF, "abcdef_CV.pdf"},
		{"", FormatPDF, "Resume_CV.pdf"},
		{"***", FormatXLSX, "Resume_CV.xlsx"},
		{"Jane_ _Doe", "", "Jane_Doe_CV.pdf"},
	}
	for _, tc := range cases {
		if got := Filename(tc.name, tc.format); got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestSanitizeFilename_Length(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("é", 200))
	if len(got) > maxFilenameBase {
		t.Fatalf("expected at most %d bytes, got %d", maxFilenameBase, len(got))
	}
	if !strings.HasPrefix(got, "é") || strings.ContainsRune(got, '�') {
		t.Fatalf("truncation split a rune: %q", got)
	}
}

func TestRenderFilename_Pattern(t *testing.T) {
	got, err := RenderFilename("{{.Name}}-{{.Format}}", "Ada", FormatPDF)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Ada-pdf.pdf" {
		t.Fatalf("unexpected filename %q", got)
	}

	if _, err := RenderFilename("{{.Missing", "Ada", FormatPDF); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSafeFilename(t *testing.T) {
	cases := []struct {
		name   string
		format Format
		want   string
	}{
		{"..", FormatHTML, "Resume.html"},
		{"a:b*?<>|.html", FormatHTML, "ab.html"},
		{"ok\x00.html", FormatHTML, "ok.html"},
		{"../../secret.pdf", FormatPDF, "secret.pdf"},
		{"Report.PDF", FormatPDF, "Report.pdf"},
		{"cv.pdf", FormatHTML, "cv.pdf.html"},
		{"Ada_Lovelace_CV.xlsx", FormatXLSX, "Ada_Lovelace_CV.xlsx"},
	}
	for _, tc := range cases {
		if got := SafeFilename(tc.name, tc.format); got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
