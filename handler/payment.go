package handler

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"smartmenu/constants"
	"smartmenu/database"
	"smartmenu/helper"
	"smartmenu/logger"
	"smartmenu/model"
	"smartmenu/utils"
	"smartmenu/validate"
)

type checkoutRequest struct {
	successURL string
	cancelURL  string
	tip        *float64
}

// startCheckout prices a billrequested order, records the attempt and
// returns the signed provider URL.
func startCheckout(c *fiber.Ctx, g *helper.PaymentGateway, rid, oid uint, req checkoutRequest) error {
	if !g.Configured() {
		return lifecycleError(c, helper.ErrPaymentNotConfigured)
	}

	tx := database.DB.Begin()
	o, err := lockOrder(tx, rid, oid)
	if err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}
	if o.StatusName() != model.OrderBillRequested {
		tx.Rollback()
		return lifecycleError(c, helper.ErrMustBeBillRequested)
	}
	if req.tip != nil {
		o.Tip = *req.tip
	}
	if err := helper.RecalculateTotals(tx, o); err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}
	if o.Gross <= 0 {
		tx.Rollback()
		return lifecycleError(c, helper.ErrOrderTotalZero)
	}

	attempt := model.PaymentAttempt{
		OrdrId:     o.ID,
		Reference:  uuid.NewString(),
		Amount:     o.Gross,
		Tip:        o.Tip,
		Currency:   o.Restaurant.Currency,
		Status:     model.PaymentPending,
		SuccessURL: req.successURL,
		CancelURL:  req.cancelURL,
	}
	if err := tx.Create(&attempt).Error; err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}
	checkoutURL, err := g.BuildPaymentURL(model.PaymentRequest{
		Amount:    attempt.Amount,
		Currency:  attempt.Currency,
		OrderInfo: fmt.Sprintf("%s order %d", o.Restaurant.Name, o.ID),
		Reference: attempt.Reference,
		IPAddr:    c.IP(),
	})
	if err != nil {
		tx.Rollback()
		return lifecycleError(c, err)
	}
	if err := tx.Commit().Error; err != nil {
		return lifecycleError(c, err)
	}

	appLog.Info("payment_started", logger.Fields{"order_id": o.ID, "reference": attempt.Reference, "amount": attempt.Amount})
	helper.PublishOrderState(c.Context(), database.DB, o)
	return utils.SuccessResponse(c, fiber.StatusCreated, fiber.Map{
		"checkout_url": checkoutURL,
		"reference":    attempt.Reference,
		"amount":       attempt.Amount,
	})
}

func CreatePaymentAttempt(c *fiber.Ctx) error {
	input := validate.Input[model.CreatePaymentAttemptInput](c)
	var o model.Ordr
	if err := database.DB.Select("id", "restaurant_id").First(&o, input.OrdrId).Error; err != nil {
		return lifecycleError(c, err)
	}
	return startCheckout(c, attemptGateway, o.RestaurantId, o.ID, checkoutRequest{
		successURL: input.SuccessURL, cancelURL: input.CancelURL, tip: input.Tip,
	})
}

func CreateCheckoutSession(c *fiber.Ctx) error {
	rid, id, err := routeIds(c)
	if rid == 0 {
		return err
	}
	input := validate.Input[model.CheckoutSessionInput](c)
	return startCheckout(c, sessionGateway, rid, id, checkoutRequest{
		successURL: input.SuccessURL, cancelURL: input.CancelURL, tip: input.Tip,
	})
}

// PaymentReturn is where the provider sends the guest back. A verified
// success marks the order paid.
func PaymentReturn(c *fiber.Ctx) error {
	query, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, err)
	}
	result := attemptGateway.VerifyReturn(query)

	db := database.DB
	var attempt model.PaymentAttempt
	if result.Reference == "" || db.Where("reference = ?", result.Reference).First(&attempt).Error != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, result.Message, fmt.Errorf("unknown payment reference %q", result.Reference))
	}
	if attempt.Status != model.PaymentPending {
		return c.Redirect(returnTarget(attempt, attempt.Status == model.PaymentSucceeded), fiber.StatusSeeOther)
	}

	if !result.IsSuccess {
		db.Model(&attempt).Update("status", model.PaymentFailed)
		appLog.Warn("payment_failed", fmt.Errorf("%s", result.Message), logger.Fields{"reference": attempt.Reference})
		return c.Redirect(returnTarget(attempt, false), fiber.StatusSeeOther)
	}

	var o model.Ordr
	if err := db.Select("id", "restaurant_id").First(&o, attempt.OrdrId).Error; err != nil {
		return lifecycleError(c, err)
	}
	paid := model.OrderPaid
	if _, _, err := applyOrderChange(c.Context(), o.RestaurantId, o.ID, orderChange{status: &paid}); err != nil {
		return lifecycleError(c, err)
	}
	db.Model(&attempt).Updates(map[string]any{"status": model.PaymentSucceeded, "updated_at": time.Now()})
	appLog.Info("payment_succeeded", logger.Fields{"order_id": o.ID, "reference": attempt.Reference, "amount": result.Amount})
	return c.Redirect(returnTarget(attempt, true), fiber.StatusSeeOther)
}

func returnTarget(a model.PaymentAttempt, ok bool) string {
	if ok && a.SuccessURL != "" {
		return a.SuccessURL
	}
	if !ok && a.CancelURL != "" {
		return a.CancelURL
	}
	if ok {
		return settings.PublicBaseURL + "/payments/success"
	}
	return settings.PublicBaseURL + "/payments/cancel"
}
