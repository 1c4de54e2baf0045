package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

type ValidatorParams struct {
	Field string
	Unit  string
	Clock Clock
}

func (v *ValidatorParams) EnsureDefaults() {
	if v.Field == "" {
		v.Field = DefaultField
	}

	if v.Unit == "" {
		v.Unit = DefaultUnit
	}
}

// Validator turns raw telemetry payloads into readings.
type Validator struct {
	params ValidatorParams
}

func NewValidator(params ValidatorParams) *Validator {
	params.EnsureDefaults()
	return &Validator{params: params}
}

// Validate parses payload as a JSON object and extracts the configured
// numeric field. The reading is stamped with the validator's clock, or the
// bridge's clock when the validator has none.
func (v *Validator) Validate(payload []byte) (Reading, error) {
	if !utf8.Valid(payload) {
		return Reading{}, &DecodeError{Err: fmt.Errorf("payload is not valid utf-8")}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return Reading{}, &DecodeError{Err: err}
	}

	raw, ok := fields[v.params.Field]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return Reading{}, &ValidationError{Field: v.params.Field, Reason: "is missing"}
	}

	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return Reading{}, &ValidationError{Field: v.params.Field, Reason: "is not a number"}
	}

	return Reading{
		Value:     value,
		Unit:      v.params.Unit,
		Timestamp: v.now().Format(TimestampLayout),
	}, nil
}

func (v *Validator) now() time.Time {
	if v.params.Clock == nil {
		return time.Now()
	}
	return v.params.Clock()
}

// withClock returns a copy of v stamping readings with clock.
func (v *Validator) withClock(clock Clock) *Validator {
	params := v.params
	params.Clock = clock
	return &Validator{params: params}
}
