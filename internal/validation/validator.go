// Package validation holds the per-stage payload predicates. Field rules live
// in struct tags on the domain payloads; cross-stage rules live here.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/alexanderramin/caseflow/internal/domain"
)

// custom enumeration tags used by the payload structs
var enumTags = map[string]map[string]bool{
	"activity_type":   domain.ValidActivityTypes,
	"frequency":       domain.ValidFrequencies,
	"difficulty":      domain.ValidDifficulties,
	"target_audience": domain.ValidTargetAudiences,
	"progress_status": domain.ValidProgressStatus,
	"priority":        domain.ValidPriorities,
	"diagnosis":       domain.ValidDiagnoses,
}

const enumText = "{0} has an unsupported value"

// Validator checks stage payloads. It is safe for concurrent use.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New builds a Validator with English messages and JSON field names.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v := &Validator{validate: validate, translator: translator}
	for tag, set := range enumTags {
		_ = validate.RegisterValidation(tag, oneOf(set))
		v.registerTranslation(tag, enumText)
	}
	return v
}

func (v *Validator) registerTranslation(tag, text string) {
	_ = v.validate.RegisterTranslation(
		tag, v.translator,
		func(t ut.Translator) error { return t.Add(tag, text, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func oneOf(set map[string]bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return set[fl.Field().String()]
	}
}

// Struct runs the tag rules on s and reports the first failure as a
// VALIDATION_ERROR naming the offending field path.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.Validationf(err.Error())
	}
	fe := fieldErrs[0]
	msg := fe.Translate(v.translator)
	if path := fieldPath(fe.Namespace()); path != "" {
		msg = strings.Replace(msg, fe.Field(), path, 1)
	}
	return domain.Validationf(msg)
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
