package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"smartmenu/constants"
	"smartmenu/database"
	"smartmenu/helper"
	"smartmenu/model"
	"smartmenu/utils"
)

func findSmartmenu(slug string) (model.Smartmenu, error) {
	var sm model.Smartmenu
	err := database.DB.Preload("Restaurant").Preload("Tablesetting").
		Where("slug = ?", strings.TrimSuffix(slug, ".json")).
		First(&sm).Error
	return sm, err
}

// GetSmartmenuState answers GET /smartmenus/:slug(.json) with the page state
// and a fresh CSRF token for this session.
func GetSmartmenuState(c *fiber.Ctx) error {
	sm, err := findSmartmenu(c.Params("slug"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.SMARTMENU_NOT_FOUND, err)
	}
	o, err := helper.OpenOrderForTable(database.DB, sm)
	if err != nil {
		return lifecycleError(c, err)
	}

	sid, token, err := helper.IssueCSRFToken()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     constants.CSRFCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(12 * time.Hour),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	st := helper.BuildState(helper.StateInput{
		Smartmenu: sm,
		Order:     o,
		SessionID: sid,
		CSRFToken: token,
		Now:       time.Now(),
	})
	return c.JSON(helper.StateEnvelope(st))
}

// GetSmartmenuQR renders the table QR code pointing at the smartmenu page.
func GetSmartmenuQR(c *fiber.Ctx) error {
	sm, err := findSmartmenu(c.Params("slug"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.SMARTMENU_NOT_FOUND, err)
	}
	size := c.QueryInt("size", 256)
	if size < 64 || size > 1024 {
		size = 256
	}
	png, err := utils.GenerateQRCode(utils.SmartmenuURL(settings.PublicBaseURL, sm.Slug), size)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

type menuitemRow struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Itemtype    string  `json:"itemtype"`
}

// GetSmartmenuMenuitems lists the visible items of the smartmenu's menu.
func GetSmartmenuMenuitems(c *fiber.Ctx) error {
	sm, err := findSmartmenu(c.Params("slug"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.SMARTMENU_NOT_FOUND, err)
	}
	var items []model.Menuitem
	if err := database.DB.Where("menu_id = ? AND hidden = ?", sm.MenuId, false).
		Order("sequence, id").Find(&items).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	rows := make([]menuitemRow, 0, len(items))
	for _, m := range items {
		rows = append(rows, menuitemRow{ID: m.ID, Name: m.Name, Description: m.Description, Price: m.Price, Itemtype: m.Itemtype})
	}
	return utils.SuccessResponse(c, fiber.StatusOK, rows)
}
