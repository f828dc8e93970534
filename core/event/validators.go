package event

import (
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
)

var (
	typeTag  = "event_type"
	typeText = fmt.Sprintf("type must be one of %v", AllTypes)
)

// InitValidators registers the event package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(typeTag, typeValidation)
	core.RegisterCustomTranslation(validate, translator, typeTag, typeText)
}

func typeValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, t := range AllTypes {
		if val == t {
			return true
		}
	}
	return false
}
