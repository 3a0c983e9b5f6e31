package cv

import (
	"context"
	"strings"
)

// PersonalSeparator joins contact fields and entry details.
const PersonalSeparator = " | "

// Section titles.
const (
	TitlePersonal   = "Personal Information"
	TitleEducation  = "Education"
	TitleExperience = "Work Experience"
	TitleSkills     = "Skills"
)

// Skill labels.
const (
	LabelTechnical = "Technical Skills"
	LabelSoft      = "Soft Skills"
	LabelLanguages = "Languages"
)

// Render maps a profile snapshot to a document. Sections without data are omitted.
func Render(p Profile) Document {
	doc := Document{Name: strings.TrimSpace(p.Personal.Name)}

	if section, ok := renderPersonal(p.Personal); ok {
		doc.Sections = append(doc.Sections, section)
	}
	if section, ok := renderEducation(p.Education); ok {
		doc.Sections = append(doc.Sections, section)
	}
	if section, ok := renderExperience(p.Experience); ok {
		doc.Sections = append(doc.Sections, section)
	}
	if section, ok := renderSkills(p.Skills); ok {
		doc.Sections = append(doc.Sections, section)
	}
	return doc
}

// RenderResult carries the outcome of RenderAsync.
type RenderResult struct {
	Document Document
	Err      error
}

// RenderAsync renders off the caller's goroutine. The channel receives exactly one
// result and is then closed.
func RenderAsync(ctx context.Context, snapshot Profile) <-chan RenderResult {
	if ctx == nil {
		ctx = context.Background()
	}
	out := make(chan RenderResult, 1)
	go func() {
		defer close(out)
		if err := ctx.Err(); err != nil {
			out <- RenderResult{Err: err}
			return
		}
		out <- RenderResult{Document: Render(snapshot)}
	}()
	return out
}

func renderPersonal(p Personal) (DocumentSection, bool) {
	line := joinPresent(PersonalSeparator, p.Name, p.Email, p.Phone, p.Location)
	if line == "" {
		return DocumentSection{}, false
	}
	return DocumentSection{
		ID:     SectionPersonal,
		Title:  TitlePersonal,
		Blocks: []Block{{Kind: BlockParagraph, Text: line}},
	}, true
}

func renderEducation(entries []EducationEntry) (DocumentSection, bool) {
	if len(entries) == 0 {
		return DocumentSection{}, false
	}
	blocks := make([]Block, 0, len(entries))
	for _, entry := range entries {
		grade := ""
		if present(entry.Grade) {
			grade = "Grade: " + strings.TrimSpace(entry.Grade)
		}
		blocks = append(blocks, Block{
			Kind:    BlockHeading,
			Heading: strings.TrimSpace(entry.Degree),
			Subtext: joinPresent(PersonalSeparator, entry.Institute, entry.Year, grade),
		})
	}
	return DocumentSection{ID: SectionEducation, Title: TitleEducation, Blocks: blocks}, true
}

func renderExperience(entries []ExperienceEntry) (DocumentSection, bool) {
	if len(entries) == 0 {
		return DocumentSection{}, false
	}
	blocks := make([]Block, 0, len(entries)*2)
	for _, entry := range entries {
		blocks = append(blocks, Block{
			Kind:    BlockHeading,
			Heading: strings.TrimSpace(entry.Title),
			Subtext: joinPresent(PersonalSeparator, entry.Company, entry.Duration),
		})
		if entry.Responsibilities == "" {
			continue
		}
		blocks = append(blocks, Block{
			Kind:  BlockBullets,
			Text:  entry.Responsibilities,
			Lines: SplitLines(entry.Responsibilities),
		})
	}
	return DocumentSection{ID: SectionExperience, Title: TitleExperience, Blocks: blocks}, true
}

func renderSkills(s Skills) (DocumentSection, bool) {
	var blocks []Block
	for _, item := range []struct{ label, value string }{
		{LabelTechnical, s.Technical},
		{LabelSoft, s.Soft},
		{LabelLanguages, s.Languages},
	} {
		if !present(item.value) {
			continue
		}
		blocks = append(blocks, Block{Kind: BlockParagraph, Label: item.label, Text: item.value})
	}
	if len(blocks) == 0 {
		return DocumentSection{}, false
	}
	return DocumentSection{ID: SectionSkills, Title: TitleSkills, Blocks: blocks}, true
}

// SplitLines splits newline-delimited text into lines. Lines are kept verbatim;
// only CRLF and CR line endings are normalized. A single trailing line break
// terminates the last line and does not start an empty one.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

func joinPresent(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		if present(value) {
			parts = append(parts, strings.TrimSpace(value))
		}
	}
	return strings.Join(parts, sep)
}

func present(value string) bool {
	return strings.TrimSpace(value) != ""
}
