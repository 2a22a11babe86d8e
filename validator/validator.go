package validator

import (
	"net/url"
	"reflect"
	"sync"

	"github.com/NethermindEth/fanout/utils"
	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

// validateInput accepts http(s) URLs with a host and any other non empty string as a
// file path.
func validateInput(fl validator.FieldLevel) bool {
	input, ok := fl.Field().Interface().(string)
	if !ok || input == "" {
		return false
	}
	u, err := url.Parse(input)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return true
	}
	return u.Host != ""
}

// Validator returns a singleton that can be used to validate various objects
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New()

		if err := v.RegisterValidation("input", validateInput); err != nil {
			panic("failed to register validation: " + err.Error())
		}

		// Log levels are validated by their name.
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			switch l := field.Interface().(type) {
			case utils.LogLevel:
				return l.String()
			case *utils.LogLevel:
				return l.String()
			}
			panic("not a utils.LogLevel")
		}, utils.LogLevel{}, &utils.LogLevel{})
	})
	return v
}
