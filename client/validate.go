package client

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// fieldValidator checks credentials and failure envelopes. Fields are
// named by their json tag so messages refer to the wire name.
type fieldValidator struct {
	validate *validator.Validate
	trans    ut.Translator
}

var structValidator = sync.OnceValue(func() fieldValidator {
	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator(locale.Locale())

	v := validator.New()
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(fmt.Sprintf("client: registering validation messages: %v", err))
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})

	return fieldValidator{validate: v, trans: trans}
})

// validateStruct reports every failed tag on val as [FieldErrors].
func validateStruct(val any) error {
	fv := structValidator()

	err := fv.validate.Struct(val)
	verrs, ok := errors.AsType[validator.ValidationErrors](err)
	if !ok {
		return err
	}

	fields := make(FieldErrors, 0, len(verrs))
	for _, verr := range verrs {
		msg := verr.Translate(fv.trans)
		if verr.Tag() == "required" {
			msg = "This field is required"
		}
		fields = append(fields, FieldError{Field: verr.Field(), Err: msg})
	}

	return fields
}

// FieldError is a failed validation rule on a single field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors is returned by [WithCredential] for an invalid [Credential].
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}

	return strings.Join(parts, "; ")
}
