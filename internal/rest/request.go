package rest

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"borlette/domain"
	"borlette/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// NewValidator returns a validator that reports JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindAndValidate decodes the request body into req and runs the struct
// validation rules. Both failures are reported as *domain.ValidationError.
func bindAndValidate(c echo.Context, v *validator.Validate, req any) error {
	if err := c.Bind(req); err != nil {
		return &domain.ValidationError{Message: "malformed request body"}
	}

	if err := v.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &domain.ValidationError{Field: fe.Field(), Message: "failed rule '" + fe.Tag() + "'"}
		}
		return &domain.ValidationError{Message: err.Error()}
	}

	return nil
}

func currentPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.Principal{}, &domain.AuthError{Message: "user not authenticated"}
	}
	return p, nil
}

func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &domain.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return uint(id), nil
}
