package core

import (
	"reflect"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const requiredText = "this field is required"

// overridden default messages; {0} is the field, {1} the tag param
var messages = map[string]string{
	"required":      requiredText,
	"required_with": requiredText,
	"oneof":         "{0} must be one of: {1}",
}

// Rule is a validation tag with its translated error message.
type Rule struct {
	Tag  string
	Text string
	Func validator.Func
}

// InitValidators registers the english translations and reports fields by their JSON name.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)
	validate.RegisterTagNameFunc(jsonFieldName)

	for tag, text := range messages {
		translate(validate, translator, tag, text, true)
	}
}

// RegisterRules registers custom validation tags and their messages.
func RegisterRules(validate *validator.Validate, translator ut.Translator, rules ...Rule) {
	for _, r := range rules {
		_ = validate.RegisterValidation(r.Tag, r.Func)
		translate(validate, translator, r.Tag, r.Text, false)
	}
}

func translate(validate *validator.Validate, translator ut.Translator, tag, text string, override bool) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, err := t.T(tag, fe.Field(), fe.Param())
			if err != nil {
				return fe.Error()
			}
			return s
		},
	)
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}
