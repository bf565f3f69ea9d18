package helper

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"smartmenu/logger"
	"smartmenu/model"
	"smartmenu/utils"
)

var (
	jobScheduler  gocron.Scheduler
	queueSchedule *cron.Cron
)

// KitchenStatusCodes are the order statuses shown on the kitchen board.
var KitchenStatusCodes = []int{model.OrderCodeOrdered, model.OrderCodePreparing, model.OrderCodeReady}

// ActiveOrders lists a restaurant's kitchen orders, oldest first, with the
// associations order cards need.
func ActiveOrders(db *gorm.DB, rid uint) ([]model.Ordr, error) {
	var orders []model.Ordr
	err := orderCards(activeOrders(db, rid)).Find(&orders).Error
	return orders, err
}

// ActiveOrdersPage is one page of ActiveOrders plus the total count. An
// empty pagination returns every order.
func ActiveOrdersPage(db *gorm.DB, rid uint, p model.Pagination) ([]model.Ordr, int64, error) {
	var total int64
	if err := activeOrders(db, rid).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []model.Ordr
	q := utils.ApplyPagination(activeOrders(db, rid), p.Limit, p.Page)
	if err := orderCards(q).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func activeOrders(db *gorm.DB, rid uint) *gorm.DB {
	return db.Model(&model.Ordr{}).Where("restaurant_id = ? AND status IN ?", rid, KitchenStatusCodes)
}

func orderCards(q *gorm.DB) *gorm.DB {
	return q.Preload("Tablesetting").Preload("Ordritems.Menuitem").Preload("Ordritems.Notes").
		Order("ordered_at NULLS LAST, id")
}

// PublishKitchenQueues sends queue_update and metrics_update to every
// restaurant with orders in the kitchen.
func PublishKitchenQueues(ctx context.Context, db *gorm.DB, now time.Time) {
	var rids []uint
	if err := db.Model(&model.Ordr{}).Distinct().Where("status IN ?", KitchenStatusCodes).Pluck("restaurant_id", &rids).Error; err != nil {
		appLog.Error("kitchen_queue", err, nil)
		return
	}
	for _, rid := range rids {
		orders, err := ActiveOrders(db, rid)
		if err != nil {
			appLog.Error("kitchen_queue", err, logger.Fields{"restaurant_id": rid})
			continue
		}
		pending := orders[:0:0]
		for _, o := range orders {
			if o.StatusName() == model.OrderOrdered {
				pending = append(pending, o)
			}
		}
		BroadcastQueueUpdate(ctx, rid, pending)
		BroadcastMetrics(ctx, rid, KitchenMetrics(orders, now))
	}
}

// StartSchedulers runs the voice worker and presence sweep on gocron and the
// kitchen queue broadcast on cron.
func StartSchedulers(db *gorm.DB, voice VoiceProcessor, presence *PresenceStore, staleAfter time.Duration) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	jobScheduler = s

	_, err = s.NewJob(
		gocron.DurationJob(time.Second),
		gocron.NewTask(func() {
			ProcessPendingVoiceCommands(context.Background(), db, voice, 20)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}
	if presence != nil {
		_, err = s.NewJob(
			gocron.DurationJob(time.Minute),
			gocron.NewTask(func() {
				presence.Sweep(context.Background(), time.Now(), staleAfter)
			}),
		)
		if err != nil {
			return err
		}
	}
	s.Start()

	queueSchedule = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	if _, err := queueSchedule.AddFunc("@every 30s", func() {
		PublishKitchenQueues(context.Background(), db, time.Now())
	}); err != nil {
		return err
	}
	queueSchedule.Start()

	appLog.Info("schedulers_started", logger.Fields{"stale_after": staleAfter.String()})
	return nil
}

func StopSchedulers() {
	if jobScheduler != nil {
		if err := jobScheduler.Shutdown(); err != nil {
			appLog.Warn("scheduler_shutdown", err, nil)
		}
	}
	if queueSchedule != nil {
		<-queueSchedule.Stop().Done()
	}
}
