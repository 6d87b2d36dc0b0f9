package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/resource-api/internal/domain"
)

// UpdateEnvelope is the body of a partial update request.
type UpdateEnvelope struct {
	Data *UpdateData `json:"data" validate:"required"`
}

// UpdateData carries the target id and the attributes to change.
// Attributes use external field names; relationships may be given either
// inside Attributes or as JSON:API relationship objects.
type UpdateData struct {
	ID            string                  `json:"id"                      validate:"required"`
	Type          string                  `json:"type,omitempty"`
	Attributes    map[string]any          `json:"attributes"              validate:"required"`
	Relationships map[string]Relationship `json:"relationships,omitempty" validate:"omitempty,dive"`
	Meta          map[string]any          `json:"meta,omitempty"`
}

// Relationship is a JSON:API relationship member: {"data": {"type", "id"}}.
// A nil Data clears the relationship.
type Relationship struct {
	Data *ResourceIdentifier `json:"data"`
}

// ResourceIdentifier names a related record.
type ResourceIdentifier struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id"              validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateEnvelope checks the structural requirements of an update body.
// Failures are reported as *domain.ValidationError naming the JSON path of
// the first offending member, e.g. "data.attributes".
func ValidateEnvelope(env *UpdateEnvelope) error {
	if env == nil {
		return domain.NewValidationError("data", "is required", nil)
	}
	if err := validate.Struct(env); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return domain.NewValidationError(jsonPath(fe.Namespace()), tagMessage(fe.Tag()), nil)
		}
		return domain.NewValidationError("", "invalid request body", nil)
	}
	return nil
}

// jsonPath drops the root struct name from a validator namespace.
func jsonPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func tagMessage(tag string) string {
	switch tag {
	case "required":
		return "is required"
	default:
		return "is invalid"
	}
}

// Validate implements the request validation hook used by the HTTP layer.
func (e *UpdateEnvelope) Validate() error {
	return ValidateEnvelope(e)
}
