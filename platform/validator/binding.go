package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register installs the domain validation rules on gin's binding engine so
// `binding:"postcode"` tags work in request structs. Call once at startup.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("postcode", validatePostcode)
	}
}
