package validate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"smartmenu/constants"
	"smartmenu/utils"
)

var validate = validator.New()

func GetById(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := utils.ParamUint(c, key)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("params invalid"))
		}

		c.Locals("inputId", id)
		return c.Next()
	}
}

func check(c *fiber.Ctx, input any) error {
	if err := validate.Struct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, err)
	}
	c.Locals("input", input)
	return c.Next()
}

// Body parses a JSON or form body into T and stores *T under "input".
func Body[T any]() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input := new(T)
		if err := c.BodyParser(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, fmt.Sprintf("%s: %s", constants.INVALID_INPUT, err.Error()), err)
		}
		return check(c, input)
	}
}

// Nested parses a JSON body of the form {key: {...}} into T. A flat body is
// accepted too.
func Nested[T any](key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var outer map[string]json.RawMessage
		if err := json.Unmarshal(c.Body(), &outer); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, err)
		}
		raw := c.Body()
		if inner, ok := outer[key]; ok {
			raw = inner
		}
		input := new(T)
		if err := json.Unmarshal(raw, input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, err)
		}
		return check(c, input)
	}
}

// Input returns the value stored by Body or Nested.
func Input[T any](c *fiber.Ctx) *T {
	v, _ := c.Locals("input").(*T)
	return v
}
