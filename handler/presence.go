package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"smartmenu/constants"
	"smartmenu/helper"
	"smartmenu/model"
	"smartmenu/utils"
	"smartmenu/validate"
)

// TrackPresence records a staff heartbeat for a resource.
func TrackPresence(c *fiber.Ctx) error {
	if presenceStore == nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, constants.INTERNAL_ERROR, errRedisUnavailable)
	}
	claim, ok := helper.GetClaim(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", errors.New("no claim"))
	}
	input := validate.Input[model.PresenceInput](c)

	p, err := presenceStore.Record(c.Context(), claim, *input, time.Now())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, p)
}

func GetPresence(c *fiber.Ctx) error {
	if presenceStore == nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, constants.INTERNAL_ERROR, errRedisUnavailable)
	}
	id, ok := utils.ParamUint(c, "id")
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("params invalid"))
	}
	list, err := presenceStore.List(c.Context(), c.Params("resource"), id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, list)
}
