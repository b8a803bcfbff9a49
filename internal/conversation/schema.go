package conversation

import (
	"math"
	"strconv"
	"strings"

	"github.com/m3rciful/estatebot/internal/domain"
)

// Canonical field names shared by the creation flow, the edit flow,
// and the listings repository column whitelist.
const (
	FieldTitle       = "title"
	FieldLocation    = "location"
	FieldDescription = "description"
	FieldCondition   = "condition"
	FieldParking     = "parking"
	FieldBathrooms   = "bathrooms"
	FieldAdditions   = "additions"
	FieldPrice       = "price"
	FieldStatus      = "status"
	FieldMedia       = "media"
)

// FieldSpec declares one collectable field: its prompt, optional reply
// keyboard suggestions, and the validator applied to raw user input.
// The schema is pure data so it can be tested without the engine.
type FieldSpec struct {
	Name    string
	Prompt  string
	Choices [][]string
	// Validate returns the canonical value to store, or a
	// *domain.ValidationError naming the field.
	Validate func(raw string) (string, error)
}

// creationSteps is the fixed order of the creation flow. The media step sits
// between location and description and is handled by the engine rather than
// a single-value FieldSpec.
var creationSteps = []Step{
	StepLocation,
	StepMedia,
	StepDescription,
	StepCondition,
	StepParking,
	StepBathrooms,
	StepAdditions,
	StepPrice,
	StepConfirm,
}

var fieldSpecs = map[string]FieldSpec{
	FieldTitle: {
		Name:     FieldTitle,
		Prompt:   "🏷 Enter the listing title:",
		Validate: nonEmpty(FieldTitle),
	},
	FieldLocation: {
		Name:     FieldLocation,
		Prompt:   "📍 Enter the location:",
		Validate: nonEmpty(FieldLocation),
	},
	FieldDescription: {
		Name:     FieldDescription,
		Prompt:   "🛏 Enter rooms / floor / storeys:",
		Validate: nonEmpty(FieldDescription),
	},
	FieldCondition: {
		Name:     FieldCondition,
		Prompt:   "🧱 Select the condition:",
		Choices:  [][]string{{"Renovated"}, {"Needs renovation"}, {"Shell"}},
		Validate: nonEmpty(FieldCondition),
	},
	FieldParking: {
		Name:     FieldParking,
		Prompt:   "🚗 Parking:",
		Choices:  [][]string{{"Underground"}, {"Surface"}, {"None"}},
		Validate: nonEmpty(FieldParking),
	},
	FieldBathrooms: {
		Name:     FieldBathrooms,
		Prompt:   "🚽 Number of bathrooms:",
		Choices:  [][]string{{"1"}, {"2"}, {"3"}, {"4"}, {"5"}},
		Validate: validateBathrooms,
	},
	FieldAdditions: {
		Name:     FieldAdditions,
		Prompt:   "✏️ Extras:",
		Validate: nonEmpty(FieldAdditions),
	},
	FieldPrice: {
		Name:     FieldPrice,
		Prompt:   "💰 Price:",
		Validate: validatePrice,
	},
	FieldStatus: {
		Name:   FieldStatus,
		Prompt: "📌 Select the new status:",
		Choices: [][]string{
			{string(domain.StatusAvailable), string(domain.StatusSold)},
			{string(domain.StatusPriceChanged), string(domain.StatusRemoved)},
		},
		Validate: validateStatus,
	},
}

// stepField maps creation steps to the field they collect.
var stepField = map[Step]string{
	StepLocation:    FieldLocation,
	StepDescription: FieldDescription,
	StepCondition:   FieldCondition,
	StepParking:     FieldParking,
	StepBathrooms:   FieldBathrooms,
	StepAdditions:   FieldAdditions,
	StepPrice:       FieldPrice,
}

// editableFields lists the fields a field-level edit may target, in the
// order the field-choice menu presents them.
var editableFields = []string{
	FieldTitle,
	FieldLocation,
	FieldDescription,
	FieldCondition,
	FieldParking,
	FieldBathrooms,
	FieldAdditions,
	FieldPrice,
	FieldStatus,
}

// FieldLabel maps canonical field names to menu button labels.
var FieldLabel = map[string]string{
	FieldTitle:       "🏷 Title",
	FieldLocation:    "📍 Location",
	FieldDescription: "🛏 Description",
	FieldCondition:   "🧱 Condition",
	FieldParking:     "🚗 Parking",
	FieldBathrooms:   "🚽 Bathrooms",
	FieldAdditions:   "✏️ Extras",
	FieldPrice:       "💰 Price",
	FieldStatus:      "📌 Status",
	FieldMedia:       "🖼 Media",
}

// Field returns the spec for a canonical field name.
func Field(name string) (FieldSpec, bool) {
	spec, ok := fieldSpecs[name]
	return spec, ok
}

// EditableFields returns the ordered field names available to the edit flow.
func EditableFields() []string {
	return append([]string(nil), editableFields...)
}

// Editable reports whether name may be targeted by the edit flow.
func Editable(name string) bool {
	for _, f := range editableFields {
		if f == name {
			return true
		}
	}
	return false
}

func nonEmpty(field string) func(string) (string, error) {
	return func(raw string) (string, error) {
		v := strings.TrimSpace(raw)
		if v == "" {
			return "", &domain.ValidationError{Field: field, Reason: "value must not be empty"}
		}
		return v, nil
	}
}

func validateBathrooms(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return "", &domain.ValidationError{
			Field:  FieldBathrooms,
			Reason: "bathrooms must be a non-negative whole number",
		}
	}
	return strconv.Itoa(n), nil
}

func validatePrice(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	p, err := strconv.ParseFloat(v, 64)
	// ParseFloat also accepts "NaN" and "Inf"; neither is a price.
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return "", &domain.ValidationError{
			Field:  FieldPrice,
			Reason: "price must be a positive number",
		}
	}
	return strconv.FormatFloat(p, 'f', -1, 64), nil
}

func validateStatus(raw string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if !domain.ValidStatus(v) {
		return "", &domain.ValidationError{
			Field:  FieldStatus,
			Reason: "status must be one of: available, sold, price_changed, removed",
		}
	}
	return v, nil
}
