package cv

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode"
)

// DefaultFilenamePattern renders "{name}_CV".
const DefaultFilenamePattern = "{{.Name}}_CV"

// FallbackFilenameBase replaces names that sanitize to nothing.
const FallbackFilenameBase = "Resume"

const maxFilenameBase = 96

type filenameData struct {
	Name   string
	Format string
}

// Filename builds "{sanitized name}_CV.{ext}".
func Filename(profileName string, format Format) string {
	name, err := RenderFilename(DefaultFilenamePattern, profileName, format)
	if err != nil {
		return FallbackFilenameBase + "_CV." + extension(format)
	}
	return name
}

// RenderFilename renders a filename pattern with the sanitized profile name and
// appends the format extension when missing.
func RenderFilename(pattern, profileName string, format Format) (string, error) {
	if pattern == "" {
		pattern = DefaultFilenamePattern
	}

	tmpl, err := template.New("filename").Parse(pattern)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, filenameData{
		Name:   SanitizeFilename(profileName),
		Format: string(format),
	}); err != nil {
		return "", err
	}

	result := SanitizeFilename(buf.String())
	if result == FallbackFilenameBase && strings.TrimSpace(buf.String()) == "" {
		return "", fmt.Errorf("empty filename")
	}

	ext := extension(format)
	if !strings.HasSuffix(strings.ToLower(result), "."+ext) {
		result = result + "." + ext
	}
	return result, nil
}

// SanitizeFilename maps a display name to a filesystem-safe base name. Letters,
// digits, '-', '_' and '.' are kept, whitespace becomes '_', everything else is
// dropped. Empty results fall back to FallbackFilenameBase.
func SanitizeFilename(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.':
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_' || unicode.IsSpace(r):
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}

	out := strings.Trim(b.String(), "._-")
	if len(out) > maxFilenameBase {
		out = strings.Trim(truncateRunes(out, maxFilenameBase), "._-")
	}
	if out == "" {
		return FallbackFilenameBase
	}
	return out
}

func truncateRunes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := 0
	for i := range s {
		if i > maxBytes {
			break
		}
		cut = i
	}
	return s[:cut]
}

// SafeFilename makes a caller-supplied filename safe to hand to exporters and
// deliverers: the base goes through SanitizeFilename and the extension is
// forced to the format's.
func SafeFilename(name string, format Format) string {
	ext := "." + extension(format)
	base := strings.TrimSpace(name)
	if len(base) >= len(ext) && strings.EqualFold(base[len(base)-len(ext):], ext) {
		base = base[:len(base)-len(ext)]
	}
	return SanitizeFilename(base) + ext
}

func extension(format Format) string {
	if format == "" {
		return string(FormatPDF)
	}
	return strings.ToLower(string(format))
}
