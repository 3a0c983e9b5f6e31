package cv

import "sync"

// ProfileStore owns the profile of a session. All mutations are serialized; readers
// receive deep copies through Snapshot.
type ProfileStore struct {
	mu      sync.RWMutex
	profile Profile
}

// NewProfileStore creates a store seeded with a copy of seed.
func NewProfileStore(seed Profile) *ProfileStore {
	return &ProfileStore{profile: seed.Clone()}
}

// SetField overwrites a scalar field of the personal or skills section.
func (s *ProfileStore) SetField(section Section, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	field := s.field(section, key)
	if field == nil {
		return unknownField(section, key)
	}
	*field = value
	return nil
}

// Field reads a scalar field of the personal or skills section.
func (s *ProfileStore) Field(section Section, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	field := s.field(section, key)
	if field == nil {
		return "", unknownField(section, key)
	}
	return *field, nil
}

// field resolves a schema field. Callers must hold the lock.
func (s *ProfileStore) field(section Section, key string) *string {
	switch section {
	case SectionPersonal:
		switch key {
		case FieldName:
			return &s.profile.Personal.Name
		case FieldEmail:
			return &s.profile.Personal.Email
		case FieldPhone:
			return &s.profile.Personal.Phone
		case FieldLocation:
			return &s.profile.Personal.Location
		}
	case SectionSkills:
		switch key {
		case FieldTechnical:
			return &s.profile.Skills.Technical
		case FieldSoft:
			return &s.profile.Skills.Soft
		case FieldLanguages:
			return &s.profile.Skills.Languages
		}
	}
	return nil
}

// AppendEducation appends an entry and returns the new length.
func (s *ProfileStore) AppendEducation(entry EducationEntry) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.Education = append(s.profile.Education, entry)
	return len(s.profile.Education)
}

// AppendExperience appends an entry and returns the new length.
func (s *ProfileStore) AppendExperience(entry ExperienceEntry) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.Experience = append(s.profile.Experience, entry)
	return len(s.profile.Experience)
}

// RemoveEducation removes the entry at index, keeping the order of the rest.
func (s *ProfileStore) RemoveEducation(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.profile.Education) {
		return indexOutOfRange("education", index, len(s.profile.Education))
	}
	s.profile.Education = removeAt(s.profile.Education, index)
	return nil
}

// RemoveExperience removes the entry at index, keeping the order of the rest.
func (s *ProfileStore) RemoveExperience(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.profile.Experience) {
		return indexOutOfRange("experience", index, len(s.profile.Experience))
	}
	s.profile.Experience = removeAt(s.profile.Experience, index)
	return nil
}

// Snapshot returns a point-in-time deep copy of the profile.
func (s *ProfileStore) Snapshot() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}

// Reset clears the profile.
func (s *ProfileStore) Reset() {
	s.mu.Lock()
	s.profile = Profile{}
	s.mu.Unlock()
}

func removeAt[T any](items []T, index int) []T {
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:index]...)
	return append(out, items[index+1:]...)
}
