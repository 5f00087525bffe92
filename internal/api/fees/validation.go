package feesapi

import (
	"sync"

	"getpay-backend/internal/domain/fees"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the fee_category binding rule to gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("fee_category", func(fl validator.FieldLevel) bool {
			_, ok := fees.ParseCategory(fl.Field().String())
			return ok
		})
	})
}
