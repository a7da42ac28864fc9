package utils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

type validationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Value string `json:"value,omitempty"`
}

// HandleValidationErrors turns ReadJSON/validator failures into a 400 with
// per-field details when the error carries them.
func HandleValidationErrors(err error, ctx iris.Context) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		out := make([]validationError, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			out = append(out, validationError{
				Field: fieldErr.Field(),
				Tag:   fieldErr.Tag(),
				Value: fieldErr.Param(),
			})
		}
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"validationErrors": out})
		return
	}

	ctx.StatusCode(iris.StatusBadRequest)
	ctx.JSON(iris.Map{"error": "bad_request", "message": err.Error()})
}
