package middleware

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// bdMobilePattern matches Bangladeshi mobile numbers in local format
var bdMobilePattern = regexp.MustCompile(`^01[3-9]\d{8}$`)

// SetupValidator configures the binding validator with custom tags
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	return v.RegisterValidation("bd_mobile", func(fl validator.FieldLevel) bool {
		return bdMobilePattern.MatchString(fl.Field().String())
	})
}
