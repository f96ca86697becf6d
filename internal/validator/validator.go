// Package validator wires go-playground/validator into Gin's binding
// engine with English translations.
package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var trans ut.Translator

// Setup registers JSON tag names and English translations on Gin's
// binding validator. Call once during application startup.
func Setup() {
	v, ok := binding.Validator.Engine().(*govalidator.Validate)
	if !ok {
		return
	}

	// Error messages name fields by their JSON tag, matching what the
	// client actually sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	trans, _ = ut.New(enLocale, enLocale).GetTranslator("en")
	en_translations.RegisterDefaultTranslations(v, trans)
}

// TranslateErrors maps a binding error to per-field messages. A
// non-validation error (JSON syntax, wrong types) collapses to a single
// "detail" entry.
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst. Returns nil on
// success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
