// Package usecase defines the application's business logic interfaces and
// the data transfer objects crossing them.
package usecase

import (
	"reflect"
	"strings"
	"time"

	"puffsocial/internal/domain/entity"
	domainerrors "puffsocial/internal/domain/errors"

	"github.com/go-playground/validator/v10"
)

// knownModels is the fixed set of model identifiers shipped devices report.
var knownModels = map[string]struct{}{
	"0":          {},
	"1":          {},
	"2":          {},
	"4":          {},
	"21":         {},
	"22":         {},
	"4294967295": {},
}

// TrackingDevice is the device block of a tracking report.
type TrackingDevice struct {
	ID           string   `json:"id" validate:"omitempty,max=64"`
	UID          string   `json:"uid" validate:"omitempty,max=64"`
	Name         string   `json:"name" validate:"required,max=128"`
	TotalDabs    int64    `json:"totalDabs" validate:"min=0"`
	DabsPerDay   float64  `json:"dabsPerDay" validate:"min=0"`
	Model        string   `json:"model" validate:"required,devicemodel"`
	Firmware     string   `json:"firmware" validate:"required,max=16"`
	Hardware     int64    `json:"hardware" validate:"min=0"`
	GitHash      string   `json:"gitHash" validate:"required,len=7"`
	LastDabAt    *int64   `json:"lastDabAt" validate:"omitempty,min=0"`
	DOB          int64    `json:"dob" validate:"required,devicedob"`
	Serial       *string  `json:"serial" validate:"omitempty,max=64"`
	MAC          string   `json:"mac" validate:"required,devicemac"`
}

// TrackingPayload is a decrypted firmware usage report.
type TrackingPayload struct {
	Name   string         `json:"name" validate:"required,max=128"`
	Device TrackingDevice `json:"device" validate:"required"`
}

// DiagService describes one BLE service the device exposed.
type DiagService struct {
	UUID                string `json:"uuid" validate:"required,max=64"`
	CharacteristicCount int    `json:"characteristicCount" validate:"min=0"`
}

// DiagParameters is the device-parameters block of a diagnostics report.
type DiagParameters struct {
	Name            string   `json:"name" validate:"required,max=128"`
	Model           string   `json:"model" validate:"required"`
	Firmware        string   `json:"firmware" validate:"required,max=16"`
	Hash            *string  `json:"hash" validate:"omitempty,max=64"`
	Uptime          *int64   `json:"uptime" validate:"omitempty,min=0"`
	UTC             *int64   `json:"utc" validate:"omitempty,min=0"`
	BatteryCapacity *int64   `json:"batteryCapacity" validate:"omitempty,min=0"`
	UID             *string  `json:"uid" validate:"omitempty,max=64"`
	DOB             *int64   `json:"dob"`
	ChamberType     *int64   `json:"chamberType"`
	Authenticated   *bool    `json:"authenticated"`
	PupService      *bool    `json:"pupService"`
	LoraxService    *bool    `json:"loraxService"`
	MAC             *string  `json:"mac" validate:"omitempty,devicemac"`
	SerialNumber    *string  `json:"serialNumber" validate:"omitempty,max=64"`
	HardwareVersion *int64   `json:"hardwareVersion"`
}

// DiagPayload is a decrypted device diagnostics report.
type DiagPayload struct {
	SessionID      string                        `json:"session_id" validate:"required,max=128"`
	DeviceServices []DiagService                 `json:"device_services" validate:"required,dive"`
	DeviceProfiles map[string]entity.HeatProfile `json:"device_profiles" validate:"omitempty,max=4"`
	DeviceParams   DiagParameters                `json:"device_parameters" validate:"required"`
}

// FeedbackPayload is a decrypted site feedback submission.
type FeedbackPayload struct {
	Message string `json:"message" validate:"required,max=1024"`
}

var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report violations by json field name so issue paths match the wire.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("devicemac", validateMAC)
	_ = v.RegisterValidation("devicemodel", validateModel)
	_ = v.RegisterValidation("devicedob", validateDOB)

	return v
}

// validateMAC enforces the colon-separated hex address devices report.
func validateMAC(fl validator.FieldLevel) bool {
	mac := fl.Field().String()
	parts := strings.Split(mac, ":")
	if len(parts) != 6 {
		return false
	}

	for _, part := range parts {
		if len(part) != 2 {
			return false
		}
		for _, r := range part {
			if !isHexDigit(r) {
				return false
			}
		}
	}

	return true
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func validateModel(fl validator.FieldLevel) bool {
	_, ok := knownModels[fl.Field().String()]

	return ok
}

// validateDOB rejects birth timestamps that do not form a plausible date.
// The value arrives as seconds since epoch; anything non-positive or beyond
// the representable range is a corrupt report, not a real manufacture date.
func validateDOB(fl validator.FieldLevel) bool {
	dob := fl.Field().Int()
	if dob <= 0 {
		return false
	}

	date := time.Unix(dob, 0)

	return date.Year() >= 1970 && date.Year() <= 9999
}

// validatePayload runs the schema and converts violations into the full
// issue list, never just the first failure.
func validatePayload(payload any) error {
	err := payloadValidator.Struct(payload)
	if err == nil {
		return nil
	}

	violations, ok := err.(validator.ValidationErrors)
	if !ok {
		return domainerrors.NewValidationError([]domainerrors.Issue{
			{Path: "", Code: "invalid_payload", Message: err.Error()},
		})
	}

	issues := make([]domainerrors.Issue, 0, len(violations))
	for _, violation := range violations {
		// Strip the root struct name from the namespace path.
		path := violation.Namespace()
		if idx := strings.Index(path, "."); idx >= 0 {
			path = path[idx+1:]
		}

		issues = append(issues, domainerrors.Issue{
			Path:    path,
			Code:    violation.Tag(),
			Message: violationMessage(violation),
		})
	}

	return domainerrors.NewValidationError(issues)
}

func violationMessage(violation validator.FieldError) string {
	switch violation.Tag() {
	case "required":
		return "field is required"
	case "max":
		return "value exceeds the maximum of " + violation.Param()
	case "min":
		return "value is below the minimum of " + violation.Param()
	case "len":
		return "value must be exactly " + violation.Param() + " characters"
	case "devicemac":
		return "value is not a valid hardware address"
	case "devicemodel":
		return "value is not a known device model"
	case "devicedob":
		return "value does not form a valid date"
	default:
		return "field is invalid"
	}
}

// ValidateTracking checks a tracking payload, returning every violation.
func ValidateTracking(payload *TrackingPayload) error {
	return validatePayload(payload)
}

// ValidateDiag checks a diagnostics payload, returning every violation.
func ValidateDiag(payload *DiagPayload) error {
	return validatePayload(payload)
}

// ValidateFeedback checks a feedback payload, returning every violation.
func ValidateFeedback(payload *FeedbackPayload) error {
	return validatePayload(payload)
}
