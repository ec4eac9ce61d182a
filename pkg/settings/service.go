package settings

import (
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Service holds credential values for every registered section.
// Values from the environment override stored values and cannot be changed through Update.
type Service struct {
	store     Store
	logger    *zerolog.Logger
	overrides map[string]string

	mu       sync.RWMutex
	sections []Section
	values   map[string]string
}

func NewService(store Store, overrides map[string]string, logger *zerolog.Logger) *Service {
	o := make(map[string]string)
	for k, v := range overrides {
		if v != "" {
			o[k] = v
		}
	}

	return &Service{
		store:     store,
		logger:    logger,
		overrides: o,
		values:    make(map[string]string),
	}
}

// Initialize loads the persisted values.
func (s *Service) Initialize() error {
	values, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()

	s.logger.Debug().Int("count", len(values)).Msg("Loaded settings")
	return nil
}

func (s *Service) Register(section Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections = append(s.sections, section)
}

func (s *Service) Sections() []Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Section(nil), s.sections...)
}

// Get implements the credential lookup used by sources.
func (s *Service) Get(key string) string {
	if v, ok := s.overrides[key]; ok {
		return v
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

func (s *Service) Overridden(key string) bool {
	_, ok := s.overrides[key]
	return ok
}

// FieldValue is the current state of one form field.
type FieldValue struct {
	Field
	Value      string `json:"value"`
	Overridden bool   `json:"overridden"`
}

type SectionView struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Fields      []FieldValue `json:"fields"`
}

// View renders every section with its current values. Password fields are masked.
func (s *Service) View() []SectionView {
	sections := s.Sections()
	out := make([]SectionView, 0, len(sections))

	for _, sec := range sections {
		view := SectionView{ID: sec.ID, Title: sec.Title, Description: sec.Description}
		for _, f := range sec.Fields {
			value := s.Get(f.Key)
			if f.Kind == FieldKindPassword {
				value = mask(value)
			}
			view.Fields = append(view.Fields, FieldValue{
				Field:      f,
				Value:      value,
				Overridden: s.Overridden(f.Key),
			})
		}
		out = append(out, view)
	}

	return out
}

// Update sanitizes submitted values for known fields and persists them.
// Unknown keys are ignored.
func (s *Service) Update(submitted map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.values)
	if next == nil {
		next = make(map[string]string)
	}

	changed := 0
	for _, sec := range s.sections {
		for _, f := range sec.Fields {
			raw, ok := submitted[f.Key]
			if !ok {
				continue
			}
			if _, overridden := s.overrides[f.Key]; overridden {
				s.logger.Debug().Str("key", f.Key).Msg("Ignoring update of overridden setting")
				continue
			}

			value := SanitizeText(raw)
			if value == "" && !sec.KeepEmpty {
				continue
			}
			if f.Kind == FieldKindPassword && value != "" && value == mask(next[f.Key]) {
				// The masked placeholder was submitted back unchanged.
				continue
			}

			next[f.Key] = value
			changed++
		}
	}

	if err := s.store.Save(next); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.values = next

	s.logger.Info().Int("changed", changed).Msg("Updated settings")
	return nil
}

func mask(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return strings.Repeat("*", len(v)-4) + v[len(v)-4:]
}
