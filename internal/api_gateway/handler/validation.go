package handler

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ledger-posting-engine/internal/domain/shared"
)

// RegisterValidators adds the ledger binding tags to gin's validator
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	return v.RegisterValidation("ledger_env", func(fl validator.FieldLevel) bool {
		return shared.Environment(fl.Field().String()).IsValid()
	})
}

// bindingMessage flattens validator errors into one readable line
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body: " + err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "ledger_env":
		return fe.Field() + " must be one of sandbox, production"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "len":
		return fe.Field() + " must be " + fe.Param() + " characters"
	case "uppercase":
		return fe.Field() + " must be uppercase"
	}
	return fe.Field() + " failed " + fe.Tag() + " validation"
}
