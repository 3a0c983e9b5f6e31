package exporttemplate

import "github.com/goliatone/go-cvwizard/cv"

// DocumentView flattens a cv.Document for template engines that cannot compare
// named types.
type DocumentView struct {
	Name         string
	PersonalLine string
	Sections     []SectionView
}

// SectionView is a template-friendly section.
type SectionView struct {
	ID         string
	Title      string
	IsPersonal bool
	Blocks     []BlockView
}

// BlockView is a template-friendly block.
type BlockView struct {
	Kind        string
	IsHeading   bool
	IsParagraph bool
	IsBullets   bool
	Heading     string
	Subtext     string
	Label       string
	Text        string
	Lines       []string
}

// NewDocumentView projects doc into its template view.
func NewDocumentView(doc cv.Document) DocumentView {
	view := DocumentView{
		Name:         doc.Name,
		PersonalLine: doc.PersonalLine(),
		Sections:     make([]SectionView, 0, len(doc.Sections)),
	}
	for _, section := range doc.Sections {
		sv := SectionView{
			ID:         string(section.ID),
			Title:      section.Title,
			IsPersonal: section.ID == cv.SectionPersonal,
			Blocks:     make([]BlockView, 0, len(section.Blocks)),
		}
		for _, block := range section.Blocks {
			sv.Blocks = append(sv.Blocks, BlockView{
				Kind:        string(block.Kind),
				IsHeading:   block.Kind == cv.BlockHeading,
				IsParagraph: block.Kind == cv.BlockParagraph,
				IsBullets:   block.Kind == cv.BlockBullets,
				Heading:     block.Heading,
				Subtext:     block.Subtext,
				Label:       block.Label,
				Text:        block.Text,
				Lines:       append([]string(nil), block.Lines...),
			})
		}
		view.Sections = append(view.Sections, sv)
	}
	return view
}
