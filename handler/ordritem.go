package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"smartmenu/constants"
	"smartmenu/database"
	"smartmenu/helper"
	"smartmenu/logger"
	"smartmenu/model"
	"smartmenu/utils"
	"smartmenu/validate"
)

func CreateOrdritem(c *fiber.Ctx) error {
	input := validate.Input[model.CreateOrdritemInput](c)
	rid, ok := utils.ParamUint(c, "rid")
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("restaurant id invalid"))
	}

	tx := database.DB.Begin()
	o, err := lockOrder(tx, rid, input.OrdrId)
	if err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}
	if !o.StatusName().AcceptsItems() {
		tx.Rollback()
		return lifecycleError(c, helper.ErrOrderClosed)
	}
	var mi model.Menuitem
	if err := tx.Where("id = ? AND menu_id = ? AND hidden = ?", input.MenuitemId, o.MenuId, false).First(&mi).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND, err)
	}

	price := float64(input.Ordritemprice)
	if price <= 0 {
		price = mi.Price
	}
	item := model.Ordritem{
		OrdrId:        o.ID,
		MenuitemId:    mi.ID,
		Ordritemprice: price,
		Status:        input.Status,
	}
	if input.Note != "" {
		item.Notes = []model.OrdritemNote{{Note: input.Note}}
	}
	if err := tx.Create(&item).Error; err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}
	item.Menuitem = mi
	o.Ordritems = append(o.Ordritems, item)
	if err := helper.RecalculateTotals(tx, o); err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}
	if err := tx.Commit().Error; err != nil {
		return lifecycleError(c, err)
	}

	appLog.Info("ordritem_added", logger.Fields{"order_id": o.ID, "menuitem_id": mi.ID, "price": price})
	helper.PublishOrderState(c.Context(), database.DB, o)
	return utils.SuccessResponse(c, fiber.StatusCreated, item)
}

func UpdateOrdritem(c *fiber.Ctx) error {
	rid, id, err := routeIds(c)
	if rid == 0 {
		return err
	}
	input := validate.Input[model.UpdateOrdritemInput](c)

	db := database.DB
	var item model.Ordritem
	if err := db.Joins("JOIN ordrs ON ordrs.id = ordritems.ordr_id").
		Where("ordritems.id = ? AND ordrs.restaurant_id = ?", id, rid).
		First(&item).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_ITEM_NOT_FOUND, err)
	}

	tx := db.Begin()
	o, err := lockOrder(tx, rid, item.OrdrId)
	if err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}
	if !o.StatusName().AcceptsItems() {
		tx.Rollback()
		return lifecycleError(c, helper.ErrOrderClosed)
	}

	updates := map[string]any{}
	if input.Status != nil {
		updates["status"] = *input.Status
		if *input.Status == model.ItemRemoved {
			updates["ordritemprice"] = 0
		}
	}
	if input.Ordritemprice != nil && (input.Status == nil || *input.Status != model.ItemRemoved) {
		updates["ordritemprice"] = float64(*input.Ordritemprice)
	}
	if len(updates) > 0 {
		if err := tx.Model(&model.Ordritem{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
			tx.Rollback()
			return lifecycleError(c, err)
		}
	}
	if o, err = helper.LoadOrder(tx, rid, o.ID); err == nil {
		err = helper.RecalculateTotals(tx, o)
	}
	if err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}
	if err := tx.Commit().Error; err != nil {
		return lifecycleError(c, err)
	}

	for _, it := range o.Ordritems {
		if it.ID == item.ID {
			item = it
		}
	}
	helper.PublishOrderState(c.Context(), db, o)
	return utils.SuccessResponse(c, fiber.StatusOK, item)
}
