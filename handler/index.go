package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"smartmenu/config"
	"smartmenu/constants"
	"smartmenu/helper"
	"smartmenu/logger"
	"smartmenu/model"
	"smartmenu/utils"
)

var (
	appLog   = logger.New("smartmenu")
	settings config.Settings

	attemptGateway *helper.PaymentGateway
	sessionGateway *helper.PaymentGateway
	presenceStore  *helper.PresenceStore

	errRedisUnavailable = errors.New("redis is not connected")
)

// Setup wires the handlers to the process settings. presence may be nil
// when Redis is not available.
func Setup(s config.Settings, presence *helper.PresenceStore) {
	settings = s
	presenceStore = presence

	returnURL := s.PublicBaseURL + "/payments/return"
	attemptGateway = helper.NewPaymentGateway(model.PaymentConfig{
		Merchant: s.PaymentMerchant, HashSecret: s.PaymentSecret, BaseURL: s.PaymentAttemptURL, ReturnURL: returnURL,
	})
	sessionBase := s.CheckoutSessionURL
	if sessionBase == "" {
		sessionBase = s.PaymentAttemptURL
	}
	sessionGateway = helper.NewPaymentGateway(model.PaymentConfig{
		Merchant: s.PaymentMerchant, HashSecret: s.PaymentSecret, BaseURL: sessionBase, ReturnURL: returnURL,
	})
}

// lifecycleError maps order lifecycle errors to HTTP answers.
func lifecycleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, err)
	case errors.Is(err, helper.ErrItemsStillOpen):
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, constants.ITEMS_STILL_OPEN, err)
	case errors.Is(err, helper.ErrNoSubmittedItems):
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, constants.NO_SUBMITTED_ITEMS, err)
	case errors.Is(err, helper.ErrMustBeBillRequested):
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, constants.MUST_BE_BILLREQUESTED, err)
	case errors.Is(err, helper.ErrOrderTotalZero):
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, constants.ORDER_TOTAL_ZERO, err)
	case errors.Is(err, helper.ErrOrderClosed):
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, constants.ORDER_CLOSED, err)
	case errors.Is(err, helper.ErrInvalidTransition):
		return utils.ErrorResponse(c, fiber.StatusConflict, constants.INVALID_TRANSITION, err)
	case errors.Is(err, helper.ErrPaymentNotConfigured):
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, constants.PAYMENT_NOT_CONFIGURED, err)
	}
	appLog.Error("order_lifecycle", err, logger.Fields{"path": c.Path()})
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
}
