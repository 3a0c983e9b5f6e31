package cv

// Section names a scalar field group of the profile.
type Section string

const (
	SectionPersonal   Section = "personal"
	SectionEducation  Section = "education"
	SectionExperience Section = "experience"
	SectionSkills     Section = "skills"
)

// Scalar field keys.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldLocation = "location"

	FieldTechnical = "technical"
	FieldSoft      = "soft"
	FieldLanguages = "languages"
)

// Personal holds contact details.
type Personal struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone    string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

// EducationEntry is a single education record.
type EducationEntry struct {
	Degree    string `json:"degree" yaml:"degree"`
	Institute string `json:"institute" yaml:"institute"`
	Year      string `json:"year" yaml:"year"`
	Grade     string `json:"grade,omitempty" yaml:"grade,omitempty"`
}

// ExperienceEntry is a single work experience record. Responsibilities is a
// newline-delimited list.
type ExperienceEntry struct {
	Title            string `json:"title" yaml:"title"`
	Company          string `json:"company" yaml:"company"`
	Duration         string `json:"duration" yaml:"duration"`
	Responsibilities string `json:"responsibilities" yaml:"responsibilities"`
}

// Skills holds free-text skill lists.
type Skills struct {
	Technical string `json:"technical,omitempty" yaml:"technical,omitempty"`
	Soft      string `json:"soft,omitempty" yaml:"soft,omitempty"`
	Languages string `json:"languages,omitempty" yaml:"languages,omitempty"`
}

// Profile is the data collected by the wizard.
type Profile struct {
	Personal   Personal          `json:"personal" yaml:"personal"`
	Education  []EducationEntry  `json:"education,omitempty" yaml:"education,omitempty"`
	Experience []ExperienceEntry `json:"experience,omitempty" yaml:"experience,omitempty"`
	Skills     Skills            `json:"skills" yaml:"skills"`
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	out := p
	if p.Education != nil {
		out.Education = append([]EducationEntry(nil), p.Education...)
	}
	if p.Experience != nil {
		out.Experience = append([]ExperienceEntry(nil), p.Experience...)
	}
	return out
}

// Logger provides logging hooks.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger is a no-op logger.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}
