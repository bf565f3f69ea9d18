package handler

import (
	"errors"
	"io"
	"strings"

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

const maxVoiceAudio = 10 << 20

var errEmptyVoiceCommand = errors.New("transcript or audio is required")

// CreateVoiceCommand queues a transcript or an audio upload for the voice
// worker. The client polls GET .../voice_commands/:id for the result.
func CreateVoiceCommand(c *fiber.Ctx) error {
	if !settings.Voice.Enabled {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.VOICE_DISABLED, errors.New("voice disabled"))
	}
	sm, err := findSmartmenu(c.Params("slug"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.SMARTMENU_NOT_FOUND, err)
	}
	input := validate.Input[model.CreateVoiceCommandInput](c)

	cmd := model.VoiceCommand{
		ID:            uuid.NewString(),
		SmartmenuSlug: sm.Slug,
		RestaurantId:  sm.RestaurantId,
		MenuId:        sm.MenuId,
		Locale:        strings.ToLower(input.Locale),
		Transcript:    strings.TrimSpace(input.Transcript),
		Status:        model.VoicePending,
	}
	if cmd.Locale == "" {
		cmd.Locale = "en"
	}
	if input.MenuId != 0 {
		cmd.MenuId = input.MenuId
	}
	if input.OrdrId != 0 {
		cmd.OrdrId = &input.OrdrId
	} else if o, err := helper.OpenOrderForTable(database.DB, sm); err == nil && o != nil {
		cmd.OrdrId = &o.ID
	}

	if fh, err := c.FormFile("audio"); err == nil {
		if fh.Size > maxVoiceAudio {
			return utils.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, constants.INVALID_INPUT, errors.New("audio too large"))
		}
		f, err := fh.Open()
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, err)
		}
		cmd.Audio, err = io.ReadAll(f)
		f.Close()
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, err)
		}
		cmd.AudioContentType = fh.Header.Get(fiber.HeaderContentType)
	}
	if cmd.Transcript == "" && len(cmd.Audio) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, errEmptyVoiceCommand)
	}

	if err := database.DB.Create(&cmd).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	appLog.Info("voice_command_queued", logger.Fields{"voice_command_id": cmd.ID, "slug": sm.Slug, "audio": len(cmd.Audio) > 0})
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": cmd.ID, "status": cmd.Status})
}

func GetVoiceCommand(c *fiber.Ctx) error {
	var cmd model.VoiceCommand
	err := database.DB.Where("id = ? AND smartmenu_slug = ?", c.Params("id"), c.Params("slug")).First(&cmd).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.VOICE_COMMAND_NOT_FOUND, err)
	}
	return c.JSON(cmd)
}
