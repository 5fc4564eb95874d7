package vitals

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/careflow/hospital-api/internal/model"
)

// Accepted ranges are inclusive and deliberately wide: they reject entry
// mistakes (a pulse of 250 is a typo), not clinically abnormal readings.
const (
	MinTemperature = 30.0
	MaxTemperature = 45.0
	MinPulse       = 30.0
	MaxPulse       = 200.0
	MinRespRate    = 5.0
	MaxRespRate    = 60.0
	MinHeight      = 30.0
	MaxHeight      = 250.0
	MinWeight      = 1.0
	MaxWeight      = 300.0
	MinO2Sat       = 50.0
	MaxO2Sat       = 100.0
)

var bloodPressurePattern = regexp.MustCompile(`^\d+/\d+$`)

// Validate checks a triage submission against the plausible ranges and
// returns a validated record with derived BMI. All problems are collected
// so the nurse sees the full list in one pass; zero numeric values are
// treated as missing fields.
func Validate(in *model.VitalSignsInput) (*model.VitalSigns, model.FieldErrors) {
	var ferrs model.FieldErrors

	check := func(field string, value interface{}, rules ...validation.Rule) {
		if err := validation.Validate(value, rules...); err != nil {
			ferrs = append(ferrs, model.FieldError{Field: field, Message: err.Error()})
		}
	}

	check("temperature", in.Temperature,
		validation.Required.Error("temperature is required"),
		validation.Min(MinTemperature), validation.Max(MaxTemperature))
	check("pulse", in.Pulse,
		validation.Required.Error("pulse is required"),
		validation.Min(MinPulse), validation.Max(MaxPulse))
	check("respiratory_rate", in.RespiratoryRate,
		validation.Required.Error("respiratory rate is required"),
		validation.Min(MinRespRate), validation.Max(MaxRespRate))
	check("height", in.Height,
		validation.Required.Error("height is required"),
		validation.Min(MinHeight), validation.Max(MaxHeight))
	check("weight", in.Weight,
		validation.Required.Error("weight is required"),
		validation.Min(MinWeight), validation.Max(MaxWeight))
	check("oxygen_saturation", in.OxygenSaturation,
		validation.Required.Error("oxygen saturation is required"),
		validation.Min(MinO2Sat), validation.Max(MaxO2Sat))
	check("blood_pressure", in.BloodPressure,
		validation.Required.Error("blood pressure is required"),
		validation.Match(bloodPressurePattern).Error("must be systolic/diastolic, e.g. 120/80"))

	systolic, diastolic, err := parseBloodPressure(in.BloodPressure)
	if err != nil && !ferrs.HasField("blood_pressure") {
		ferrs = append(ferrs, model.FieldError{Field: "blood_pressure", Message: "readings out of range"})
	}

	if in.MUAC != nil && *in.MUAC <= 0 {
		ferrs = append(ferrs, model.FieldError{Field: "muac", Message: "must be a positive number"})
	}

	urgency := in.Urgency
	if urgency == "" {
		urgency = model.PriorityNormal
	}
	if !urgency.Valid() {
		ferrs = append(ferrs, model.FieldError{Field: "urgency", Message: "must be one of normal, urgent, emergency"})
	}

	if len(ferrs) > 0 {
		return nil, ferrs
	}

	return &model.VitalSigns{
		Temperature:      in.Temperature,
		Pulse:            in.Pulse,
		RespiratoryRate:  in.RespiratoryRate,
		Systolic:         systolic,
		Diastolic:        diastolic,
		Height:           in.Height,
		Weight:           in.Weight,
		BMI:              computeBMI(in.Weight, in.Height),
		OxygenSaturation: in.OxygenSaturation,
		MUAC:             in.MUAC,
		Urgency:          urgency,
	}, nil
}

func parseBloodPressure(bp string) (systolic, diastolic int, err error) {
	if !bloodPressurePattern.MatchString(bp) {
		return 0, 0, nil
	}
	parts := strings.SplitN(bp, "/", 2)
	// The regex only admits digits, so Atoi can still fail on overflow.
	systolic, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	diastolic, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return systolic, diastolic, nil
}

// computeBMI returns weight(kg) / height(m)^2, rounded to one decimal.
func computeBMI(weightKg, heightCm float64) float64 {
	meters := heightCm / 100
	return math.Round(weightKg/(meters*meters)*10) / 10
}
