package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
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

// lockOrder takes the row lock and loads the order with its lines.
func lockOrder(tx *gorm.DB, rid, id uint) (*model.Ordr, error) {
	var row model.Ordr
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").
		Where("id = ? AND restaurant_id = ?", id, rid).First(&row).Error; err != nil {
		return nil, err
	}
	return helper.LoadOrder(tx, rid, id)
}

func routeIds(c *fiber.Ctx) (rid, id uint, err error) {
	var ok bool
	if rid, ok = utils.ParamUint(c, "rid"); !ok {
		return 0, 0, utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("restaurant id invalid"))
	}
	if id, ok = utils.ParamUint(c, "id"); !ok {
		return 0, 0, utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("id invalid"))
	}
	return rid, id, nil
}

func CreateOrdr(c *fiber.Ctx) error {
	input := validate.Input[model.CreateOrdrInput](c)
	rid, ok := utils.ParamUint(c, "rid")
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("restaurant id invalid"))
	}
	if input.RestaurantId != rid {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, errors.New("restaurant_id does not match the route"))
	}

	db := database.DB
	var table model.Tablesetting
	if err := db.Where("id = ? AND restaurant_id = ?", input.TablesettingId, rid).First(&table).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND, err)
	}
	var menu model.Menu
	if err := db.Where("id = ? AND restaurant_id = ?", input.MenuId, rid).First(&menu).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND, err)
	}

	// One open order per table: starting again returns the current one.
	var existing model.Ordr
	err := db.Where("restaurant_id = ? AND tablesetting_id = ? AND status < ?", rid, table.ID, model.OrderCodePaid).
		Order("id DESC").First(&existing).Error
	if err == nil {
		o, err := helper.LoadOrder(db, rid, existing.ID)
		if err != nil {
			return lifecycleError(c, err)
		}
		return utils.SuccessResponse(c, fiber.StatusOK, o)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return lifecycleError(c, err)
	}

	var order model.Ordr
	if err := copier.Copy(&order, input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, err)
	}
	if order.Ordercapacity <= 0 {
		order.Ordercapacity = 1
	}
	order.Status = model.OrderCodeOpened

	tx := db.Begin()
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}
	o, err := helper.LoadOrder(tx, rid, order.ID)
	if err == nil {
		err = helper.RecalculateTotals(tx, o)
	}
	if err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}
	if err := tx.Commit().Error; err != nil {
		return lifecycleError(c, err)
	}

	appLog.Info("order_created", logger.Fields{"order_id": o.ID, "restaurant_id": rid, "table_id": table.ID})
	helper.PublishOrderState(c.Context(), db, o)
	return utils.SuccessResponse(c, fiber.StatusCreated, o)
}

// GetOrdr answers with the kitchen card of an order.
func GetOrdr(c *fiber.Ctx) error {
	rid, id, err := routeIds(c)
	if rid == 0 {
		return err
	}
	o, err := helper.LoadOrder(database.DB, rid, id)
	if err != nil {
		return lifecycleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, helper.OrderCardFor(*o))
}

// orderChange is one PATCH of an order: field updates plus an optional
// status change.
type orderChange struct {
	status   *model.OrderStatus
	tip      *float64
	email    string
	employee *uint
	// staffEmail rides along on the staff_assignment broadcast.
	staffEmail string
}

func applyOrderChange(ctx context.Context, rid, id uint, ch orderChange) (*model.Ordr, helper.StatusChange, error) {
	var res helper.StatusChange
	tx := database.DB.Begin()
	o, err := lockOrder(tx, rid, id)
	if err != nil {
		tx.Rollback()
		return nil, res, err
	}
	res.Old, res.New = o.StatusName(), o.StatusName()

	assigned := ch.employee != nil && (o.EmployeeId == nil || *o.EmployeeId != *ch.employee)
	if ch.tip != nil {
		o.Tip = *ch.tip
	}
	if ch.email != "" {
		o.ReceiptEmail = ch.email
	}
	if ch.employee != nil {
		o.EmployeeId = ch.employee
	}
	if err := tx.Model(o).Select("tip", "receipt_email", "employee_id").Updates(o).Error; err != nil {
		tx.Rollback()
		return nil, res, err
	}

	if ch.status != nil {
		if res, err = helper.ChangeOrderStatus(tx, o, *ch.status, time.Now()); err != nil {
			tx.Rollback()
			return nil, res, err
		}
	}
	if err := helper.RecalculateTotals(tx, o); err != nil {
		tx.Rollback()
		return nil, res, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, res, err
	}

	if assigned {
		helper.BroadcastStaffAssignment(ctx, rid, o.ID, board.Staff{ID: *o.EmployeeId, Email: ch.staffEmail})
	}
	helper.AnnounceStatusChange(ctx, database.DB, o, res)
	if !res.Noop && (res.New == model.OrderPaid || res.New == model.OrderClosed) && res.Old != model.OrderPaid {
		sendReceipt(o)
	}
	return o, res, nil
}

func UpdateOrdr(c *fiber.Ctx) error {
	rid, id, err := routeIds(c)
	if rid == 0 {
		return err
	}
	input := validate.Input[model.UpdateOrdrInput](c)
	ch := orderChange{tip: input.Tip, email: input.ReceiptEmail, employee: input.EmployeeId}
	if input.Status != nil {
		s, _ := model.OrderStatusFromCode(*input.Status)
		ch.status = &s
	}

	o, res, err := applyOrderChange(c.Context(), rid, id, ch)
	if err != nil {
		return lifecycleError(c, err)
	}
	appLog.Info("order_updated", logger.Fields{"order_id": o.ID, "from": res.Old, "to": res.New, "tickets": len(res.Tickets)})
	return utils.SuccessResponse(c, fiber.StatusOK, o)
}

// RequestBill submits what is still pending and asks for the bill. It is a
// no-op once the bill was requested.
func RequestBill(c *fiber.Ctx) error {
	rid, id, err := routeIds(c)
	if rid == 0 {
		return err
	}
	s := model.OrderBillRequested
	o, _, err := applyOrderChange(c.Context(), rid, id, orderChange{status: &s})
	if err != nil {
		return lifecycleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, o)
}

func sendReceipt(o *model.Ordr) {
	if o.ReceiptEmail == "" {
		return
	}
	cur := o.Restaurant.Currency
	data := utils.ReceiptData{
		Restaurant:  o.Restaurant.Name,
		OrderID:     o.ID,
		Table:       o.Tablesetting.Name,
		Nett:        model.FormatPrice(o.Nett),
		Covercharge: model.FormatPrice(o.Covercharge),
		Service:     model.FormatPrice(o.Service),
		Tax:         model.FormatPrice(o.Tax),
		Tip:         model.FormatPrice(o.Tip),
		Gross:       model.FormatPrice(o.Gross),
		Currency:    cur + " ",
	}
	for _, it := range o.Ordritems {
		if it.Status == model.ItemRemoved {
			continue
		}
		data.Lines = append(data.Lines, utils.ReceiptLine{Name: it.Menuitem.Name, Price: model.FormatPrice(it.Ordritemprice)})
	}
	utils.SendReceiptEmail(settings, o.ReceiptEmail, data)
}
