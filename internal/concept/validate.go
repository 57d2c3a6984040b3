package concept

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/jeanpaul/studentmodel/internal/model"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("field"), ",", 2)[0]
		if name == "" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	_ = v.RegisterValidation("utf8", func(fl validator.FieldLevel) bool {
		return utf8.ValidString(fl.Field().String())
	})
	return v
}

type addInput struct {
	Name       string           `field:"name" validate:"required,utf8"`
	Mastery    int              `field:"mastery" validate:"min=0,max=100"`
	Confidence model.Confidence `field:"confidence" validate:"oneof=low medium high"`
}

type noteInput struct {
	Description string `field:"description" validate:"required,utf8"`
}

type misconceptionInput struct {
	Belief     string `field:"belief" validate:"required,utf8"`
	Correction string `field:"correction" validate:"required,utf8"`
}

// check validates s and converts the first violation into a
// *model.ValidationError.
func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &model.ValidationError{Reason: err.Error()}
	}
	fe := verrs[0]
	return &model.ValidationError{Field: fe.Field(), Reason: reason(fe)}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "utf8":
		return "is not valid UTF-8"
	case "min", "max":
		return fmt.Sprintf("must be between %d and %d, got %v", model.MinMastery, model.MaxMastery, fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of %s, got %q", strings.ReplaceAll(fe.Param(), " ", ", "), fmt.Sprint(fe.Value()))
	}
	return fmt.Sprintf("failed %q check", fe.Tag())
}
