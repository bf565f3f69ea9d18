package handler

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartmenu/board"
	"smartmenu/constants"
	"smartmenu/database"
	"smartmenu/helper"
	"smartmenu/logger"
	"smartmenu/model"
	"smartmenu/utils"
	"smartmenu/validate"
)

func ticketQuery(db *gorm.DB) *gorm.DB {
	return db.Preload("Ordr.Tablesetting").
		Preload("Ordritems", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Ordritems.Menuitem").Preload("Ordritems.Notes")
}

func GetStationTickets(c *fiber.Ctx) error {
	rid, err := restaurantParam(c)
	if rid == 0 {
		return err
	}
	station := c.Params("station")
	if station != model.StationKitchen && station != model.StationBar {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, fmt.Errorf("unknown station %q", station))
	}

	page, err := pageParam(c)
	if err != nil {
		return err
	}

	open := func() *gorm.DB {
		return database.DB.Model(&model.StationTicket{}).
			Where("restaurant_id = ? AND station = ? AND status <> ?", rid, station, model.TicketCollected)
	}
	var total int64
	if err := open().Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	var tickets []model.StationTicket
	if err := ticketQuery(utils.ApplyPagination(open(), page.Limit, page.Page)).
		Order("submitted_at, sequence").
		Find(&tickets).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	cards := make([]board.TicketCard, 0, len(tickets))
	for _, t := range tickets {
		cards = append(cards, helper.TicketCardFor(t, t.Ordr.Tablesetting.Name))
	}
	c.Set(constants.TotalCountHeader, strconv.FormatInt(total, 10))
	return utils.SuccessResponse(c, fiber.StatusOK, cards)
}

func GetStationTicket(c *fiber.Ctx) error {
	rid, id, err := routeIds(c)
	if rid == 0 {
		return err
	}
	var t model.StationTicket
	if err := ticketQuery(database.DB).Where("id = ? AND restaurant_id = ?", id, rid).First(&t).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.TICKET_NOT_FOUND, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, helper.TicketCardFor(t, t.Ordr.Tablesetting.Name))
}

// UpdateStationTicketStatus moves a ticket one step forward. Starting a ticket
// puts an ordered order into preparing; the last ready ticket makes the order
// ready.
func UpdateStationTicketStatus(c *fiber.Ctx) error {
	rid, id, err := routeIds(c)
	if rid == 0 {
		return err
	}
	input := validate.Input[model.UpdateTicketStatusInput](c)
	now := time.Now()

	tx := database.DB.Begin()
	var t model.StationTicket
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND restaurant_id = ?", id, rid).First(&t).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.TICKET_NOT_FOUND, err)
	}
	oldStatus := t.Status
	if next, ok := model.NextTicketStatus(t.Status); !ok || next != input.Status {
		tx.Rollback()
		return lifecycleError(c, fmt.Errorf("ticket %s -> %s: %w", t.Status, input.Status, helper.ErrInvalidTransition))
	}
	if err := tx.Model(&t).Update("status", input.Status).Error; err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}

	o, err := lockOrder(tx, rid, t.OrdrId)
	if err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}
	res := helper.StatusChange{Old: o.StatusName(), New: o.StatusName(), Noop: true}
	switch input.Status {
	case model.TicketPreparing:
		if o.StatusName() == model.OrderOrdered {
			res, err = helper.ChangeOrderStatus(tx, o, model.OrderPreparing, now)
		}
	case model.TicketReady, model.TicketCollected:
		res, err = helper.RollupOrderStatus(tx, o, now)
	}
	if err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}
	if err := tx.Commit().Error; err != nil {
		return lifecycleError(c, err)
	}

	if err := ticketQuery(database.DB).First(&t, t.ID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		appLog.Warn("ticket_reload", err, logger.Fields{"ticket_id": t.ID})
	}
	table := o.Tablesetting.Name
	helper.BroadcastTicketStatus(c.Context(), t, table, oldStatus)
	if !res.Noop {
		helper.AnnounceStatusChange(c.Context(), database.DB, o, res)
	}
	appLog.Info("ticket_status", logger.Fields{"ticket_id": t.ID, "station": t.Station, "from": oldStatus, "to": t.Status, "order_status": res.New})
	return utils.SuccessResponse(c, fiber.StatusOK, helper.TicketCardFor(t, table))
}
