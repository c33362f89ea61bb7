package models

import (
	"encoding/json"
	"time"
)

// Classification is the expiry tier of an expertise record.
type Classification string

const (
	Foundational  Classification = "foundational"  // never expires
	Tactical      Classification = "tactical"      // ages out after the tactical shelf life
	Observational Classification = "observational" // ages out after the observational shelf life
)

// Classifications lists the known tiers in display order.
var Classifications = []Classification{Foundational, Tactical, Observational}

// Valid reports whether c is one of the known tiers.
func (c Classification) Valid() bool {
	for _, known := range Classifications {
		if c == known {
			return true
		}
	}
	return false
}

// RecordType is the discriminant of the record union.
type RecordType string

const (
	TypeConvention RecordType = "convention"
	TypePattern    RecordType = "pattern"
	TypeFailure    RecordType = "failure"
	TypeDecision   RecordType = "decision"
	TypeReference  RecordType = "reference"
	TypeGuide      RecordType = "guide"
)

// RecordTypes lists every legal record type.
var RecordTypes = []RecordType{TypeConvention, TypePattern, TypeFailure, TypeDecision, TypeReference, TypeGuide}

// Evidence is free-form provenance attached to a record. Keys other than
// the named ones are kept in Extra and written back unchanged.
type Evidence struct {
	Commit string `json:"commit,omitempty"`
	Date   string `json:"date,omitempty"`
	Issue  string `json:"issue,omitempty"`
	File   string `json:"file,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// evidenceFields is Evidence without its JSON methods.
type evidenceFields Evidence

var evidenceKeys = []string{"commit", "date", "issue", "file"}

// IsZero reports whether no provenance is set.
func (e Evidence) IsZero() bool {
	return e.Commit == "" && e.Date == "" && e.Issue == "" && e.File == "" && len(e.Extra) == 0
}

// UnmarshalJSON decodes the named keys and keeps the rest in Extra.
func (e *Evidence) UnmarshalJSON(data []byte) error {
	var known evidenceFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range evidenceKeys {
		delete(all, k)
	}
	known.Extra = nil
	if len(all) > 0 {
		known.Extra = all
	}
	*e = Evidence(known)
	return nil
}

// MarshalJSON writes the named keys plus Extra. Named keys win on conflict.
func (e Evidence) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(evidenceFields(e))
	if err != nil || len(e.Extra) == 0 {
		return data, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, v := range e.Extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

// Envelope holds the fields shared by every record type. Top-level keys
// that belong to neither the envelope nor the body are kept in Extra so a
// rewrite never drops fields written by other tools.
type Envelope struct {
	ID             string         `json:"id,omitempty"`
	Classification Classification `json:"classification" validate:"required"`
	RecordedAt     time.Time      `json:"recorded_at"`
	Evidence       *Evidence      `json:"evidence,omitempty"`
	Tags           []string       `json:"tags,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Body is the type-specific half of a record. The set of implementations is
// closed: only the variants in this file satisfy it.
type Body interface {
	Type() RecordType
	// TextFields returns the searchable text of the variant, including
	// declared file paths.
	TextFields() []string
	// Summary is a one-line label used when listing records.
	Summary() string
	body()
}

// Record is one expertise record: a shared envelope plus exactly one body variant.
type Record struct {
	Envelope
	Body Body
}

// Type returns the record's discriminant, or "" if the body is unset.
func (r Record) Type() RecordType {
	if r.Body == nil {
		return ""
	}
	return r.Body.Type()
}

// Files returns the declared file paths of pattern and reference records.
// Other variants have none.
func (r Record) Files() []string {
	switch b := r.Body.(type) {
	case Pattern:
		return b.Files
	case Reference:
		return b.Files
	}
	return nil
}

// Summary returns the body's one-line label.
func (r Record) Summary() string {
	if r.Body == nil {
		return ""
	}
	return r.Body.Summary()
}

type Convention struct {
	Content string `json:"content" validate:"required"`
}

type Pattern struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Files       []string `json:"files,omitempty"`
}

type Failure struct {
	Description string `json:"description" validate:"required"`
	Resolution  string `json:"resolution" validate:"required"`
}

type Decision struct {
	Title     string `json:"title" validate:"required"`
	Rationale string `json:"rationale" validate:"required"`
	Date      string `json:"date,omitempty"`
}

type Reference struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Files       []string `json:"files,omitempty"`
}

type Guide struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

func (Convention) Type() RecordType { return TypeConvention }
func (Pattern) Type() RecordType    { return TypePattern }
func (Failure) Type() RecordType    { return TypeFailure }
func (Decision) Type() RecordType   { return TypeDecision }
func (Reference) Type() RecordType  { return TypeReference }
func (Guide) Type() RecordType      { return TypeGuide }

func (b Convention) TextFields() []string { return []string{b.Content} }
func (b Pattern) TextFields() []string {
	return append([]string{b.Name, b.Description}, b.Files...)
}
func (b Failure) TextFields() []string  { return []string{b.Description, b.Resolution} }
func (b Decision) TextFields() []string { return []string{b.Title, b.Rationale} }
func (b Reference) TextFields() []string {
	return append([]string{b.Name, b.Description}, b.Files...)
}
func (b Guide) TextFields() []string { return []string{b.Name, b.Description} }

func (b Convention) Summary() string { return b.Content }
func (b Pattern) Summary() string    { return b.Name + ": " + b.Description }
func (b Failure) Summary() string    { return b.Description + " -> " + b.Resolution }
func (b Decision) Summary() string   { return b.Title + ": " + b.Rationale }
func (b Reference) Summary() string  { return b.Name + ": " + b.Description }
func (b Guide) Summary() string      { return b.Name + ": " + b.Description }

func (Convention) body() {}
func (Pattern) body()    {}
func (Failure) body()    {}
func (Decision) body()   {}
func (Reference) body()  {}
func (Guide) body()      {}
