package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"smartmenu/config"
	"smartmenu/constants"
	"smartmenu/database"
	"smartmenu/handler"
	"smartmenu/helper"
	"smartmenu/intent"
	"smartmenu/router"
)

func main() {
	settings := config.Load()

	app := fiber.New(fiber.Config{
		BodyLimit: 16 * 1024 * 1024, // voice uploads
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     settings.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, " + constants.CSRFHeader,
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie, " + constants.TotalCountHeader,
		MaxAge:           600,
	}))

	database.ConnectDB()

	var presence *helper.PresenceStore
	rdb := helper.ConnectRedis(settings.RedisAddr)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Println("redis unavailable, broadcasts and presence are disabled:", err)
	} else {
		presence = &helper.PresenceStore{Client: rdb, TTL: settings.PresenceTTL}
	}
	handler.Setup(settings, presence)

	voice := helper.VoiceProcessor{
		Matcher: intent.NewMatcher(intent.Thresholds{
			Reject:        settings.Matching.Reject,
			VisibleAccept: settings.Matching.VisibleAccept,
			VisibleBonus:  settings.Matching.VisibleBonus,
		}),
	}
	if t := helper.NewWhisperTranscriber(settings.TranscribeURL, settings.TranscribeAPIKey, settings.TranscribeModel); t != nil {
		voice.Transcriber = t
	}
	if err := helper.StartSchedulers(database.DB, voice, presence, settings.PresenceStaleAfter); err != nil {
		log.Fatal("failed to start schedulers: ", err)
	}
	defer helper.StopSchedulers()

	router.SetupRoutes(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		handler.CloseRooms()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Println("shutdown:", err)
		}
	}()

	if err := app.Listen(":" + settings.Port); err != nil {
		log.Println(err)
	}
}
