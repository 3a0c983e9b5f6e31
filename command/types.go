package command

import (
	"strings"
	"time"

	"github.com/goliatone/go-cvwizard/cv"
	"github.com/goliatone/go-errors"
)

// SetField assigns a scalar profile field.
type SetField struct {
	Section cv.Section
	Key     string
	Value   string
}

func (SetField) Type() string { return "cv:profile:set_field" }

func (msg SetField) Validate() error {
	if msg.Section == "" {
		return errors.New("section is required", errors.CategoryValidation).
			WithTextCode("SECTION_REQUIRED")
	}
	if strings.TrimSpace(msg.Key) == "" {
		return errors.New("field key is required", errors.CategoryValidation).
			WithTextCode("FIELD_REQUIRED")
	}
	return nil
}

// AppendEducation appends an education entry. Result receives the new count.
type AppendEducation struct {
	Entry  cv.EducationEntry
	Result *int
}

func (AppendEducation) Type() string { return "cv:profile:append_education" }

func (AppendEducation) Validate() error { return nil }

// AppendExperience appends an experience entry. Result receives the new count.
type AppendExperience struct {
	Entry  cv.ExperienceEntry
	Result *int
}

func (AppendExperience) Type() string { return "cv:profile:append_experience" }

func (AppendExperience) Validate() error { return nil }

// RemoveEducation removes the education entry at Index.
type RemoveEducation struct {
	Index int
}

func (RemoveEducation) Type() string { return "cv:profile:remove_education" }

func (msg RemoveEducation) Validate() error {
	return validateIndex(msg.Index)
}

// RemoveExperience removes the experience entry at Index.
type RemoveExperience struct {
	Index int
}

func (RemoveExperience) Type() string { return "cv:profile:remove_experience" }

func (msg RemoveExperience) Validate() error {
	return validateIndex(msg.Index)
}

// ResetProfile restores the seed profile.
type ResetProfile struct{}

func (ResetProfile) Type() string { return "cv:profile:reset" }

func (ResetProfile) Validate() error { return nil }

// StepResult reports the wizard position after a navigation command.
type StepResult struct {
	State cv.StepState `json:"state"`
	Moved bool         `json:"moved"`
}

// NextStep advances the wizard.
type NextStep struct {
	Result *StepResult
}

func (NextStep) Type() string { return "cv:wizard:next" }

func (NextStep) Validate() error { return nil }

// PreviousStep retreats the wizard.
type PreviousStep struct {
	Result *StepResult
}

func (PreviousStep) Type() string { return "cv:wizard:previous" }

func (PreviousStep) Validate() error { return nil }

// JumpToStep moves the wizard to a 1-based step.
type JumpToStep struct {
	Step   int
	Result *StepResult
}

func (JumpToStep) Type() string { return "cv:wizard:jump" }

func (msg JumpToStep) Validate() error {
	if msg.Step < 1 {
		return errors.New("step must be positive", errors.CategoryValidation).
			WithTextCode("STEP_INVALID")
	}
	return nil
}

// SelectTemplate records the preferred presentation template.
type SelectTemplate struct {
	Name string
}

func (SelectTemplate) Type() string { return "cv:template:select" }

func (msg SelectTemplate) Validate() error {
	if strings.TrimSpace(msg.Name) == "" {
		return errors.New("template name is required", errors.CategoryValidation).
			WithTextCode("TEMPLATE_REQUIRED")
	}
	return nil
}

// ExportDocument renders and exports the current profile. Config, when set,
// replaces the session defaults for this export.
type ExportDocument struct {
	Format cv.Format
	Config *cv.ExportConfig
	Result *cv.ExportOutcome
}

func (ExportDocument) Type() string { return "cv:export" }

func (msg ExportDocument) Validate() error {
	if msg.Format == "" && msg.Config == nil {
		return errors.New("export format is required", errors.CategoryValidation).
			WithTextCode("FORMAT_REQUIRED")
	}
	if msg.Config != nil {
		if err := msg.Config.Validate(); err != nil {
			return errors.Wrap(err, errors.CategoryValidation, "export config invalid").
				WithTextCode("EXPORT_CONFIG_INVALID")
		}
	}
	return nil
}

// ConnectivityChanged reports a change in network availability.
type ConnectivityChanged struct {
	Online bool
}

func (ConnectivityChanged) Type() string { return "cv:connectivity" }

func (ConnectivityChanged) Validate() error { return nil }

// CleanupDownloads removes delivered files older than the retention window.
type CleanupDownloads struct {
	Now    time.Time
	Result *int
}

func (CleanupDownloads) Type() string { return "cv:downloads:cleanup" }

func (CleanupDownloads) Validate() error { return nil }

func validateIndex(index int) error {
	if index < 0 {
		return errors.New("index must not be negative", errors.CategoryValidation).
			WithTextCode("INDEX_INVALID")
	}
	return nil
}
