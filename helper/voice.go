package helper

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"smartmenu/intent"
	"smartmenu/logger"
	"smartmenu/model"
)

var ErrNoTranscriber = errors.New("speech recognition is not configured")

// Transcriber turns uploaded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType, locale string) (string, error)
}

// VoiceProcessor turns pending voice commands into intents.
type VoiceProcessor struct {
	Matcher     *intent.Matcher
	Transcriber Transcriber
}

// Interpret classifies a transcript and, for item intents, resolves the
// spoken item against the menu.
func (p VoiceProcessor) Interpret(transcript, locale string, catalog []intent.Item) intent.Intent {
	in := intent.Parse(transcript, locale)
	if in.Type != intent.AddItem && in.Type != intent.RemoveItem {
		return in
	}
	if m := p.Matcher.BestMatch(in.Query, catalog, intent.Options{}); m != nil {
		in.MenuitemID = m.ID
		in.Confidence = round2(m.Score)
	}
	return in
}

// MenuCatalog lists the orderable items of a menu.
func MenuCatalog(tx *gorm.DB, menuID uint) ([]intent.Item, error) {
	var rows []model.Menuitem
	if err := tx.Where("menu_id = ? AND hidden = ?", menuID, false).Order("sequence, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]intent.Item, 0, len(rows))
	for _, m := range rows {
		items = append(items, intent.Item{ID: m.ID, Name: m.Name, Description: m.Description, Price: m.Price, Visible: true})
	}
	return items, nil
}

func (p VoiceProcessor) transcript(ctx context.Context, cmd *model.VoiceCommand) (string, error) {
	if t := strings.TrimSpace(cmd.Transcript); t != "" || len(cmd.Audio) == 0 {
		return t, nil
	}
	if p.Transcriber == nil {
		return "", ErrNoTranscriber
	}
	return p.Transcriber.Transcribe(ctx, cmd.Audio, cmd.AudioContentType, cmd.Locale)
}

// Process fills in the intent of one command. Failures are recorded on the
// command rather than returned.
func (p VoiceProcessor) Process(ctx context.Context, tx *gorm.DB, cmd *model.VoiceCommand) {
	text, err := p.transcript(ctx, cmd)
	if err != nil {
		cmd.Status = model.VoiceFailed
		cmd.ErrorMessage = err.Error()
		return
	}
	cmd.Transcript = text

	catalog, err := MenuCatalog(tx, cmd.MenuId)
	if err != nil {
		cmd.Status = model.VoiceFailed
		cmd.ErrorMessage = err.Error()
		return
	}
	raw, err := json.Marshal(p.Interpret(text, cmd.Locale, catalog))
	if err != nil {
		cmd.Status = model.VoiceFailed
		cmd.ErrorMessage = err.Error()
		return
	}
	cmd.Intent = datatypes.JSON(raw)
	cmd.Status = model.VoiceCompleted
	cmd.ErrorMessage = ""
}

// ProcessPendingVoiceCommands claims up to batch pending commands and
// processes them. A command claimed by another worker is skipped.
func ProcessPendingVoiceCommands(ctx context.Context, db *gorm.DB, p VoiceProcessor, batch int) int {
	var pending []model.VoiceCommand
	if err := db.Where("status = ?", model.VoicePending).Order("created_at").Limit(batch).Find(&pending).Error; err != nil {
		appLog.Error("voice_pending", err, nil)
		return 0
	}
	done := 0
	for i := range pending {
		cmd := &pending[i]
		claim := db.Model(&model.VoiceCommand{}).
			Where("id = ? AND status = ?", cmd.ID, model.VoicePending).
			Update("status", model.VoiceProcessing)
		if claim.Error != nil || claim.RowsAffected == 0 {
			continue
		}
		p.Process(ctx, db, cmd)
		if err := db.Model(cmd).Select("transcript", "status", "intent", "error_message").Updates(cmd).Error; err != nil {
			appLog.Error("voice_save", err, logger.Fields{"voice_command_id": cmd.ID})
			failVoiceCommand(db, cmd.ID, err)
			continue
		}
		appLog.Info("voice_processed", logger.Fields{"voice_command_id": cmd.ID, "status": cmd.Status})
		done++
	}
	return done
}

// failVoiceCommand moves a claimed command whose result could not be saved
// to failed, so pollers do not wait on it forever.
func failVoiceCommand(db *gorm.DB, id string, cause error) {
	err := db.Model(&model.VoiceCommand{}).
		Where("id = ? AND status = ?", id, model.VoiceProcessing).
		Updates(map[string]any{"status": model.VoiceFailed, "error_message": cause.Error()}).Error
	if err != nil {
		appLog.Error("voice_fail", err, logger.Fields{"voice_command_id": id})
	}
}
