package helper

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"smartmenu/database/dbtest"
	"smartmenu/intent"
	"smartmenu/model"
)

func TestSubmitUnsubmittedItemsGroupsByStation(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	o := f.Order(t, db, model.OrderCodeOpened, 2)
	pizza := f.Item(t, db, o, f.Pizza, model.ItemAdded)
	salad := f.Item(t, db, o, f.Salad, model.ItemAdded)
	water := f.Item(t, db, o, f.Water, model.ItemAdded)
	removed := f.Item(t, db, o, f.Pizza, model.ItemRemoved)

	tickets, err := SubmitUnsubmittedItems(db, &o)
	require.NoError(t, err)

	require.Len(t, tickets, 2)
	assert.Equal(t, model.StationKitchen, tickets[0].Station)
	assert.Equal(t, 1, tickets[0].Sequence)
	assert.Equal(t, model.TicketOrdered, tickets[0].Status)
	require.Len(t, tickets[0].Ordritems, 2)
	assert.Equal(t, pizza.ID, tickets[0].Ordritems[0].ID)
	assert.Equal(t, salad.ID, tickets[0].Ordritems[1].ID)
	assert.Equal(t, model.StationBar, tickets[1].Station)
	assert.Equal(t, 1, tickets[1].Sequence)
	require.Len(t, tickets[1].Ordritems, 1)
	assert.Equal(t, water.ID, tickets[1].Ordritems[0].ID)

	var stored model.Ordr
	require.NoError(t, db.First(&stored, o.ID).Error)
	assert.Equal(t, model.OrderCodeOrdered, stored.Status)
	assert.NotNil(t, stored.OrderedAt)

	var items []model.Ordritem
	require.NoError(t, db.Where("ordr_id = ?", o.ID).Order("id").Find(&items).Error)
	for _, it := range items {
		if it.ID == removed.ID {
			assert.Equal(t, model.ItemRemoved, it.Status)
			assert.Nil(t, it.StationTicketId, "removed lines never reach a station")
			continue
		}
		assert.Equal(t, model.ItemOrdered, it.Status)
		require.NotNil(t, it.StationTicketId)
	}
}

func TestSubmitUnsubmittedItemsSequencePerStation(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	o := f.Order(t, db, model.OrderCodeOpened, 1)
	f.Item(t, db, o, f.Pizza, model.ItemAdded)

	first, err := SubmitUnsubmittedItems(db, &o)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, first[0].Sequence)

	again, err := SubmitUnsubmittedItems(db, &o)
	require.NoError(t, err)
	assert.Empty(t, again, "lines already on a ticket are not resent")

	f.Item(t, db, o, f.Salad, model.ItemAdded)
	f.Item(t, db, o, f.Water, model.ItemOrdered)
	second, err := SubmitUnsubmittedItems(db, &o)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, model.StationKitchen, second[0].Station)
	assert.Equal(t, 2, second[0].Sequence)
	assert.Equal(t, model.StationBar, second[1].Station)
	assert.Equal(t, 1, second[1].Sequence)

	var count int64
	require.NoError(t, db.Model(&model.StationTicket{}).Where("ordr_id = ?", o.ID).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestActiveOrdersPage(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	base := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	var ids []uint
	for i := 0; i < 3; i++ {
		o := f.Order(t, db, model.OrderCodeOrdered, 1)
		at := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.Model(&o).Update("ordered_at", at).Error)
		ids = append(ids, o.ID)
	}
	f.Order(t, db, model.OrderCodeOpened, 1)

	all, total, err := ActiveOrdersPage(db, f.Restaurant.ID, model.Pagination{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, all, 3)

	limit, page := 2, 2
	rest, total, err := ActiveOrdersPage(db, f.Restaurant.ID, model.Pagination{Limit: &limit, Page: &page})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, rest, 1)
	assert.Equal(t, ids[2], rest[0].ID)
}

func voiceCommand(t *testing.T, db *gorm.DB, f dbtest.Fixture, transcript string) model.VoiceCommand {
	t.Helper()
	cmd := model.VoiceCommand{
		ID:            uuid.NewString(),
		SmartmenuSlug: f.Smartmenu.Slug,
		RestaurantId:  f.Restaurant.ID,
		MenuId:        f.Menu.ID,
		Locale:        "en",
		Transcript:    transcript,
		Status:        model.VoicePending,
	}
	require.NoError(t, db.Create(&cmd).Error)
	return cmd
}

func TestProcessPendingVoiceCommands(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	cmd := voiceCommand(t, db, f, "add two margherita pizza please")
	p := VoiceProcessor{Matcher: intent.NewMatcher(intent.DefaultThresholds())}

	assert.Equal(t, 1, ProcessPendingVoiceCommands(context.Background(), db, p, 10))

	var stored model.VoiceCommand
	require.NoError(t, db.First(&stored, "id = ?", cmd.ID).Error)
	assert.Equal(t, model.VoiceCompleted, stored.Status)
	var in intent.Intent
	require.NoError(t, json.Unmarshal(stored.Intent, &in))
	assert.Equal(t, intent.AddItem, in.Type)
	assert.Equal(t, 2, in.Qty)
	assert.Equal(t, f.Pizza.ID, in.MenuitemID)

	assert.Zero(t, ProcessPendingVoiceCommands(context.Background(), db, p, 10), "completed commands are not picked up again")
}

func TestProcessPendingVoiceCommandsFailsWhenSaveFails(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	cmd := voiceCommand(t, db, f, "add a caesar salad")
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:reject_voice_result", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*model.VoiceCommand); ok {
			tx.AddError(errors.New("disk full"))
		}
	}))
	p := VoiceProcessor{Matcher: intent.NewMatcher(intent.DefaultThresholds())}

	assert.Zero(t, ProcessPendingVoiceCommands(context.Background(), db, p, 10))

	var stored model.VoiceCommand
	require.NoError(t, db.First(&stored, "id = ?", cmd.ID).Error)
	assert.Equal(t, model.VoiceFailed, stored.Status, "a claimed command must not stay in processing")
	assert.Contains(t, stored.ErrorMessage, "disk full")
	assert.True(t, stored.Terminal())
}
