package importer

import (
	"fmt"

	"go.uber.org/multierr"

	"relink/element"
)

// Failure is a reference which could not be translated during import.
type Failure struct {
	Source element.Ref `json:"source" yaml:"source"`
	Target element.Ref `json:"target" yaml:"target"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s references %s which is neither imported nor present", f.Source, f.Target)
}

// IDMapper translates ids of exporting system to new ones and collects
// references it was unable to translate.
type IDMapper struct {
	// IgnoreFailures makes Err always succeed, failures are still recorded.
	IgnoreFailures bool

	mapping  element.Mapping
	failures []Failure
}

func NewIDMapper(m element.Mapping) *IDMapper {
	if m == nil {
		m = element.NewMapping()
	}
	return &IDMapper{mapping: m}
}

// Mapping is the underlying translation table.
func (m *IDMapper) Mapping() element.Mapping {
	return m.mapping
}

// MappedID returns translated id, or the original one when there is no
// translation.
func (m *IDMapper) MappedID(t element.Type, id int64) int64 {
	to, _ := m.mapping.Lookup(t, id)
	return to
}

func (m *IDMapper) RecordFailure(srcType element.Type, srcID int64, targetType element.Type, targetID int64) {
	m.failures = append(m.failures, Failure{
		Source: element.NewRef(srcType, srcID),
		Target: element.NewRef(targetType, targetID),
	})
}

func (m *IDMapper) Failures() []Failure {
	return m.failures
}

// Err combines all recorded failures.
func (m *IDMapper) Err() error {
	if m.IgnoreFailures {
		return nil
	}
	var err error
	for _, f := range m.failures {
		err = multierr.Append(err, f)
	}
	return err
}
