package handlers

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func detail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"detail": message})
}

func notFound(c *fiber.Ctx) error {
	return detail(c, fiber.StatusNotFound, "Not found.")
}

func serverError(c *fiber.Ctx, action string, err error) error {
	log.Printf("🔥 Failed to %s: %v", action, err)
	return detail(c, fiber.StatusInternalServerError, fmt.Sprintf("Failed to %s.", action))
}

// lookupError maps a gorm lookup failure to 404 or 500.
func lookupError(c *fiber.Ctx, action string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(c)
	}
	return serverError(c, action, err)
}

// fieldErrors renders validator failures as {"field": ["message"]}.
func fieldErrors(err error) fiber.Map {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fiber.Map{"non_field_errors": []string{err.Error()}}
	}
	out := fiber.Map{}
	for _, fe := range verrs {
		out[fe.Field()] = []string{fieldMessage(fe)}
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	}
	return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
}

func fieldError(field, message string) fiber.Map {
	return fiber.Map{field: []string{message}}
}

// idParam reads a positive integer route parameter.
func idParam(c *fiber.Ctx, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// uintQuery reads an optional positive integer query parameter. ok is false
// when the parameter is present but malformed.
func uintQuery(c *fiber.Ctx, name string) (value uint, present bool, ok bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, true, false
	}
	return uint(n), true, true
}
