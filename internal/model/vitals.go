package model

import (
	"fmt"
	"strings"
)

// VitalSignsInput is the raw triage submission. Blood pressure arrives as a
// single "systolic/diastolic" string because that is how it is measured and
// recorded at the bedside.
type VitalSignsInput struct {
	Temperature      float64  `json:"temperature"`
	Pulse            float64  `json:"pulse"`
	RespiratoryRate  float64  `json:"respiratory_rate"`
	BloodPressure    string   `json:"blood_pressure"`
	Height           float64  `json:"height"`
	Weight           float64  `json:"weight"`
	OxygenSaturation float64  `json:"oxygen_saturation"`
	MUAC             *float64 `json:"muac,omitempty"`
	Urgency          Priority `json:"urgency"`
}

// VitalSigns is a validated triage record. BMI is derived from height and
// weight, never accepted as input.
type VitalSigns struct {
	Temperature      float64  `json:"temperature"`
	Pulse            float64  `json:"pulse"`
	RespiratoryRate  float64  `json:"respiratory_rate"`
	Systolic         int      `json:"systolic"`
	Diastolic        int      `json:"diastolic"`
	Height           float64  `json:"height"`
	Weight           float64  `json:"weight"`
	BMI              float64  `json:"bmi"`
	OxygenSaturation float64  `json:"oxygen_saturation"`
	MUAC             *float64 `json:"muac,omitempty"`
	Urgency          Priority `json:"urgency"`
}

func (v *VitalSigns) BloodPressure() string {
	return fmt.Sprintf("%d/%d", v.Systolic, v.Diastolic)
}

// FieldError reports a single invalid or missing vitals field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors collects every problem in a submission so the caller can
// surface them in one pass.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid vital signs: " + strings.Join(parts, "; ")
}

// HasField reports whether a specific field failed.
func (e FieldErrors) HasField(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}
