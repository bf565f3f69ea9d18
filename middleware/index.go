package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"smartmenu/constants"
	"smartmenu/helper"
	"smartmenu/utils"
)

func bearer(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// Protected verifies the staff token from the Authorization header or the
// access_token cookie and stores its claim under "claim".
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearer(c)
		if token == "" {
			token = c.Cookies("access_token")
		}

		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", errors.New("no token"))
		}

		jwtToken, err := helper.ParseToken(token)
		if err != nil || !jwtToken.Valid {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid token", err)
		}
		claim, err := helper.ClaimFromToken(jwtToken)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid token", err)
		}

		c.Locals("claim", claim)
		return c.Next()
	}
}

// SameRestaurant rejects staff whose token is scoped to another restaurant
// than the :rid route param. Unscoped tokens pass.
func SameRestaurant(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, ok := helper.GetClaim(c)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", errors.New("no claim"))
		}
		rid, ok := utils.ParamUint(c, param)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("params invalid"))
		}
		if claim.RestaurantId != 0 && claim.RestaurantId != rid {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Forbidden", errors.New("token is scoped to another restaurant"))
		}
		return c.Next()
	}
}

func safeMethod(m string) bool {
	switch m {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return true
	}
	return false
}

// CSRF requires the smartmenu session token on mutating requests. Requests
// authenticated with a bearer token are not cookie-driven and pass through.
func CSRF() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if safeMethod(c.Method()) || bearer(c) != "" {
			return c.Next()
		}
		sid, err := helper.VerifyCSRFToken(c.Get(constants.CSRFHeader))
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusForbidden, constants.INVALID_CSRF, err)
		}
		c.Locals("sessionId", sid)
		return c.Next()
	}
}
