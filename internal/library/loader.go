// Package library loads authored cutscene definitions, keeps them in a
// registry and turns them into playable actions.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/OCAP2/cutscene/pkg/core"
)

var (
	// ErrInvalidDefinition wraps every validation failure.
	ErrInvalidDefinition = errors.New("invalid cutscene definition")
	// ErrNotFound is returned for unknown cutscene names.
	ErrNotFound = errors.New("cutscene not found")
)

// IsDefinitionFile reports whether path has a definition file extension.
func IsDefinitionFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Parse decodes and validates one YAML definition.
func Parse(data []byte) (core.Definition, error) {
	var def core.Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return core.Definition{}, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := Validate(def); err != nil {
		return core.Definition{}, err
	}
	return def, nil
}

// LoadFile reads and validates the definition stored at path.
func LoadFile(path string) (core.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Definition{}, fmt.Errorf("read %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return core.Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// LoadDir loads every definition file directly inside dir. Files that fail
// to load are skipped and reported in the joined error; the rest are
// returned.
func LoadDir(dir string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read definitions dir: %w", err)
	}

	var (
		entries []Entry
		errs    []error
		seen    = map[string]string{}
	)
	for _, f := range files {
		if f.IsDir() || !IsDefinitionFile(f.Name()) {
			continue
		}
		path := filepath.Join(dir, f.Name())
		def, err := LoadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, dup := seen[def.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: %w: name %q already defined in %s", path, ErrInvalidDefinition, def.Name, prev))
			continue
		}
		seen[def.Name] = path
		entries = append(entries, Entry{Definition: def, Source: path})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Definition.Name, b.Definition.Name)
	})
	return entries, errors.Join(errs...)
}

// Validate checks a definition for values playback cannot handle.
func Validate(def core.Definition) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if len(def.Steps) == 0 {
		return fmt.Errorf("%w: %s: at least one step is required", ErrInvalidDefinition, def.Name)
	}
	for i, s := range def.Steps {
		if err := validateStep(s); err != nil {
			return fmt.Errorf("%w: %s: step %d: %v", ErrInvalidDefinition, def.Name, i, err)
		}
	}
	for i, s := range def.Subtitles {
		if s.End < s.Start {
			return fmt.Errorf("%w: %s: subtitle %d ends before it starts", ErrInvalidDefinition, def.Name, i)
		}
	}
	return nil
}

func validateStep(s core.Step) error {
	switch s.Kind {
	case core.StepSmooth:
		if len(s.Markers) == 0 {
			return errors.New("smooth step needs at least one marker")
		}
		if s.SecondsPerMarker < 0 {
			return errors.New("secondsPerMarker must be positive")
		}
		if s.DelayBefore < 0 || s.DelayAfter < 0 {
			return errors.New("delays must not be negative")
		}
	case core.StepTrack:
		if s.Duration < 0 {
			return errors.New("track duration must not be negative")
		}
	case core.StepWait:
		if s.Seconds < 0 {
			return errors.New("wait seconds must not be negative")
		}
	default:
		return fmt.Errorf("unknown step kind %q", s.Kind)
	}
	return nil
}
