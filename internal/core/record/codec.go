// Package record contains the pure codec for expertise records.
// One record maps to one JSON object on one line; all per-type validation
// happens here so consumers never re-check required fields.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/mulch/internal/models"
)

var (
	// ErrDecode is matched by every error returned from Decode.
	ErrDecode = errors.New("record decode failed")
	// ErrInvalid is matched by every error returned from Validate.
	ErrInvalid = errors.New("invalid record")
	// ErrInvalidDomain is returned for domain names that cannot own a file.
	ErrInvalidDomain = errors.New("invalid domain name")
)

var domainNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names, not Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeError describes a line that could not be decoded into a record.
// Line is 1-based when the error came from a file read and 0 otherwise.
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes every DecodeError match ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Decode parses one line into a record. Unknown types and missing required
// fields are decode errors. Unknown extra keys are kept in Envelope.Extra.
func Decode(line []byte) (models.Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return models.Record{}, &DecodeError{Err: err}
	}

	var typ models.RecordType
	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &typ); err != nil {
			return models.Record{}, &DecodeError{Err: fmt.Errorf("invalid record type: %w", err)}
		}
	}

	body, err := decodeBody(typ, line)
	if err != nil {
		return models.Record{}, &DecodeError{Err: err}
	}

	env, err := decodeEnvelope(fields)
	if err != nil {
		return models.Record{}, &DecodeError{Err: err}
	}
	env.Extra = extraFields(fields, body)

	rec := models.Record{Envelope: env, Body: body}
	if err := Validate(rec); err != nil {
		return models.Record{}, &DecodeError{Err: err}
	}
	return rec, nil
}

// decodeEnvelope reads the shared fields. recorded_at is parsed separately
// so date-only and zone-less ISO 8601 forms are accepted.
func decodeEnvelope(fields map[string]json.RawMessage) (models.Envelope, error) {
	rest := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		if k != "recorded_at" {
			rest[k] = v
		}
	}
	data, err := json.Marshal(rest)
	if err != nil {
		return models.Envelope{}, err
	}
	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return models.Envelope{}, err
	}

	env.RecordedAt, err = parseRecordedAt(fields["recorded_at"])
	if err != nil {
		return models.Envelope{}, err
	}
	return env, nil
}

// timestampLayouts are tried in order. Values without a zone are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseRecordedAt returns the zero time for an absent or null value;
// Validate reports it as missing.
func parseRecordedAt(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("invalid recorded_at: %w", err)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid recorded_at %q: want an ISO 8601 date or timestamp", s)
}

var envelopeKeys = jsonKeys(reflect.TypeOf(models.Envelope{}))

// extraFields returns the keys owned by neither the envelope nor the body.
func extraFields(fields map[string]json.RawMessage, body models.Body) map[string]json.RawMessage {
	bodyKeys := jsonKeys(reflect.TypeOf(body))
	var extra map[string]json.RawMessage
	for k, v := range fields {
		if k == "type" || envelopeKeys[k] || bodyKeys[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra
}

// jsonKeys lists the JSON names of a struct's fields.
func jsonKeys(t reflect.Type) map[string]bool {
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		keys[name] = true
	}
	return keys
}

func decodeBody(t models.RecordType, line []byte) (models.Body, error) {
	switch t {
	case models.TypeConvention:
		return unmarshalBody[models.Convention](line)
	case models.TypePattern:
		return unmarshalBody[models.Pattern](line)
	case models.TypeFailure:
		return unmarshalBody[models.Failure](line)
	case models.TypeDecision:
		return unmarshalBody[models.Decision](line)
	case models.TypeReference:
		return unmarshalBody[models.Reference](line)
	case models.TypeGuide:
		return unmarshalBody[models.Guide](line)
	case "":
		return nil, fmt.Errorf("missing record type")
	default:
		return nil, fmt.Errorf("unknown record type %q", t)
	}
}

func unmarshalBody[T models.Body](line []byte) (models.Body, error) {
	var b T
	if err := json.Unmarshal(line, &b); err != nil {
		return nil, err
	}
	return b, nil
}

// Encode renders a record as a single line of JSON without a trailing newline.
// The record is validated first, so nothing invalid is ever written. Extra
// keys are written back; a known key always wins over an extra one.
func Encode(r models.Record) ([]byte, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage, len(r.Extra)+8)
	for k, v := range r.Extra {
		fields[k] = v
	}
	if err := mergeFields(fields, r.Body); err != nil {
		return nil, err
	}
	if err := mergeFields(fields, r.Envelope); err != nil {
		return nil, err
	}
	typ, err := json.Marshal(r.Body.Type())
	if err != nil {
		return nil, err
	}
	fields["type"] = typ

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func mergeFields(dst map[string]json.RawMessage, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	var part map[string]json.RawMessage
	if err := json.Unmarshal(raw, &part); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	for k, val := range part {
		dst[k] = val
	}
	return nil
}

// Validate checks the envelope and the required fields of the body variant.
func Validate(r models.Record) error {
	if r.Body == nil {
		return fmt.Errorf("%w: missing record type", ErrInvalid)
	}
	if err := validate.Struct(r.Body); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, describe(r.Body.Type(), err))
	}
	if err := validate.Struct(r.Envelope); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, describe(r.Body.Type(), err))
	}
	if r.RecordedAt.IsZero() {
		return fmt.Errorf("%w: %s record missing required field \"recorded_at\"", ErrInvalid, r.Body.Type())
	}
	return nil
}

func describe(t models.RecordType, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fmt.Sprintf("%q", fe.Field()))
	}
	if len(missing) == 1 {
		return fmt.Sprintf("%s record missing required field %s", t, missing[0])
	}
	return fmt.Sprintf("%s record missing required fields %s", t, strings.Join(missing, ", "))
}

// ValidateDomainName checks that a domain name can own a record file.
func ValidateDomainName(name string) error {
	if !domainNamePattern.MatchString(name) {
		return fmt.Errorf("%w %q: must start with a letter or digit and contain only letters, digits, '_' or '-'", ErrInvalidDomain, name)
	}
	return nil
}
