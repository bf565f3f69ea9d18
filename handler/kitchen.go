package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"smartmenu/board"
	"smartmenu/constants"
	"smartmenu/database"
	"smartmenu/helper"
	"smartmenu/logger"
	"smartmenu/model"
	"smartmenu/utils"
	"smartmenu/validate"
)

func restaurantParam(c *fiber.Ctx) (uint, error) {
	rid, ok := utils.ParamUint(c, "rid")
	if !ok {
		return 0, utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("restaurant id invalid"))
	}
	return rid, nil
}

// pageParam reads ?limit=&page=.
func pageParam(c *fiber.Ctx) (model.Pagination, error) {
	var p model.Pagination
	if err := c.QueryParser(&p); err != nil {
		return p, utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, err)
	}
	return p, nil
}

// GetKitchenOrders lists the orders on the kitchen board, oldest first. The
// full count is sent in X-Total-Count when a page is asked for.
func GetKitchenOrders(c *fiber.Ctx) error {
	rid, err := restaurantParam(c)
	if rid == 0 {
		return err
	}
	page, err := pageParam(c)
	if err != nil {
		return err
	}
	orders, total, err := helper.ActiveOrdersPage(database.DB, rid, page)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	cards := make([]board.OrderCard, 0, len(orders))
	for _, o := range orders {
		cards = append(cards, helper.OrderCardFor(o))
	}
	c.Set(constants.TotalCountHeader, strconv.FormatInt(total, 10))
	return utils.SuccessResponse(c, fiber.StatusOK, cards)
}

func UpdateKitchenOrderStatus(c *fiber.Ctx) error {
	rid, id, err := routeIds(c)
	if rid == 0 {
		return err
	}
	input := validate.Input[model.UpdateKitchenStatusInput](c)
	status, ok := model.ParseOrderStatus(input.Status)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, errors.New("unknown status"))
	}

	o, res, err := applyOrderChange(c.Context(), rid, id, orderChange{status: &status})
	if err != nil {
		return lifecycleError(c, err)
	}
	appLog.Info("kitchen_status", logger.Fields{"order_id": o.ID, "from": res.Old, "to": res.New})
	return utils.SuccessResponse(c, fiber.StatusOK, helper.OrderCardFor(*o))
}

// AssignStaff puts a staff member on an order and tells the kitchen board.
func AssignStaff(c *fiber.Ctx) error {
	rid, id, err := routeIds(c)
	if rid == 0 {
		return err
	}
	input := validate.Input[model.AssignStaffInput](c)
	email := input.Email
	if email == "" {
		if claim, ok := helper.GetClaim(c); ok && claim.UserId == input.StaffId {
			email = claim.Email
		}
	}

	o, _, err := applyOrderChange(c.Context(), rid, id, orderChange{employee: &input.StaffId, staffEmail: email})
	if err != nil {
		return lifecycleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, helper.OrderCardFor(*o))
}

func CreateInventoryAlert(c *fiber.Ctx) error {
	rid, err := restaurantParam(c)
	if rid == 0 {
		return err
	}
	input := validate.Input[model.InventoryAlertInput](c)
	helper.BroadcastInventoryAlert(c.Context(), rid, input.ItemName, input.CurrentLevel, input.Threshold)
	appLog.Info("inventory_alert", logger.Fields{"restaurant_id": rid, "item": input.ItemName, "level": input.CurrentLevel})
	return utils.SuccessResponse(c, fiber.StatusAccepted, fiber.Map{"severity": helper.AlertSeverity(input.CurrentLevel)})
}

// GetKitchenMetrics computes the board metrics now and pushes them to the
// kitchen channel as well.
func GetKitchenMetrics(c *fiber.Ctx) error {
	rid, err := restaurantParam(c)
	if rid == 0 {
		return err
	}
	orders, err := helper.ActiveOrders(database.DB, rid)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	metrics := helper.KitchenMetrics(orders, time.Now())
	helper.BroadcastMetrics(c.Context(), rid, metrics)
	return utils.SuccessResponse(c, fiber.StatusOK, metrics)
}
