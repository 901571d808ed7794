package upbit

import (
	"github.com/go-playground/validator/v10"

	"upbit/pkg/core"
)

var validate = validator.New()

// validateStruct runs tag validation and maps failures onto the client
// error taxonomy.
func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return core.NewClientError(core.ErrorTypeValidation, err.Error())
	}
	return nil
}
