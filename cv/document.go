package cv

// BlockKind identifies the shape of a document block.
type BlockKind string

const (
	// BlockHeading carries Heading and Subtext.
	BlockHeading BlockKind = "heading"
	// BlockParagraph carries an optional Label and Text.
	BlockParagraph BlockKind = "paragraph"
	// BlockBullets carries Text and its line split in Lines.
	BlockBullets BlockKind = "bullets"
)

// Block is a single unit of content inside a section.
type Block struct {
	Kind    BlockKind `json:"kind"`
	Heading string    `json:"heading,omitempty"`
	Subtext string    `json:"subtext,omitempty"`
	Label   string    `json:"label,omitempty"`
	Text    string    `json:"text,omitempty"`
	Lines   []string  `json:"lines,omitempty"`
}

// DocumentSection is a titled, ordered group of blocks.
type DocumentSection struct {
	ID     Section `json:"id"`
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
}

// Document is the style-free rendering of a profile snapshot.
type Document struct {
	Name     string            `json:"name,omitempty"`
	Sections []DocumentSection `json:"sections"`
}

// Section returns the section with the given id.
func (d Document) Section(id Section) (DocumentSection, bool) {
	for _, section := range d.Sections {
		if section.ID == id {
			return section, true
		}
	}
	return DocumentSection{}, false
}

// PersonalLine returns the joined contact line, or "" when no personal data exists.
func (d Document) PersonalLine() string {
	section, ok := d.Section(SectionPersonal)
	if !ok {
		return ""
	}
	for _, block := range section.Blocks {
		if block.Kind == BlockParagraph {
			return block.Text
		}
	}
	return ""
}
