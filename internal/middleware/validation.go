package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidation configures gin's binding validator: custom rule
// functions, and json tag names in place of Go field names so binding
// errors match the wire format. Call once at router construction.
func RegisterValidation(custom map[string]validator.Func) {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})
}
