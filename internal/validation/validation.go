// Package validation wires gin's validator engine with the portal's custom
// tags and English/Arabic error translations.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/ar"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	ar_translations "github.com/go-playground/validator/v10/translations/ar"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/abodd44/hashdocker-document-hub/internal/i18n"
	"github.com/abodd44/hashdocker-document-hub/internal/models"
)

// custom validation tags and the message keys describing them
var customTags = []struct {
	tag string
	key string
	fn  validator.Func
}{
	{"universityid", "validationUniversityId", func(fl validator.FieldLevel) bool { return models.IsUniversityID(fl.Field().String()) }},
	{"doctype", "validationDocumentType", func(fl validator.FieldLevel) bool { return validDocType(fl.Field().String()) }},
	{"role", "validationRole", func(fl validator.FieldLevel) bool { return models.Role(fl.Field().String()).Valid() }},
	{"theme", "validationTheme", func(fl validator.FieldLevel) bool { return i18n.ValidTheme(fl.Field().String()) }},
	{"lang", "validationLanguage", func(fl validator.FieldLevel) bool { return i18n.Supported(fl.Field().String()) }},
	{"decision", "validationReviewDecision", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "approved" || s == "rejected"
	}},
}

// kept in sync with document.Type values; the document package depends on this one
func validDocType(s string) bool {
	switch s {
	case "homework", "absence", "grade_review", "other":
		return true
	}
	return false
}

// Validator validates structs with the `binding` tags used by gin and
// translates failures to the request language.
type Validator struct {
	validate *validator.Validate
	uni      *ut.UniversalTranslator
}

var (
	defaultOnce sync.Once
	defaultV    *Validator
	defaultErr  error
)

// Default returns the validator bound to gin's default engine, so that
// ShouldBind and Struct share tags and translations.
func Default() *Validator {
	defaultOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			v = validator.New()
			v.SetTagName("binding")
		}
		defaultV, defaultErr = New(v)
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultV
}

// New registers tag names, custom validations and translations on v.
func New(v *validator.Validate) (*Validator, error) {
	enLoc, arLoc := en.New(), ar.New()
	uni := ut.New(enLoc, enLoc, arLoc)

	// Use JSON (or form) tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tagName := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tagName), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	enTrans, _ := uni.GetTranslator(i18n.English)
	arTrans, _ := uni.GetTranslator(i18n.Arabic)
	if err := en_translations.RegisterDefaultTranslations(v, enTrans); err != nil {
		return nil, err
	}
	if err := ar_translations.RegisterDefaultTranslations(v, arTrans); err != nil {
		return nil, err
	}

	for _, ct := range customTags {
		if err := v.RegisterValidation(ct.tag, ct.fn); err != nil {
			return nil, err
		}
		for lang, trans := range map[string]ut.Translator{i18n.English: enTrans, i18n.Arabic: arTrans} {
			registerTranslation(v, trans, ct.tag, i18n.T(lang, ct.key))
		}
	}
	return &Validator{validate: v, uni: uni}, nil
}

// registerTranslation registers a custom translation for the specified validation tag.
func registerTranslation(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(
		tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s using the `binding` tags.
func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

// Translate maps field names to messages in lang. ok is false when err is
// not a validation error.
func (v *Validator) Translate(err error, lang string) (fields map[string]string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	trans, found := v.uni.GetTranslator(i18n.Normalize(lang))
	if !found {
		trans, _ = v.uni.GetTranslator(i18n.English)
	}
	fields = make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Translate(trans)
	}
	return fields, true
}
