// tablet is the terminal client for the smartmenu backend. It runs a kitchen
// or station display, or acts as a customer tablet for a single smartmenu:
//
//	tablet kitchen --restaurant 7 --token $JWT
//	tablet station bar --restaurant 7 --token $JWT
//	tablet start --slug tbl-1 --capacity 2
//	tablet say --slug tbl-1 "two margherita pizzas please"
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"smartmenu/config"
	"smartmenu/logger"
)

type options struct {
	base       string
	token      string
	restaurant uint
	slug       string
	locale     string
	capacity   int
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	var o options
	settings := config.Load()

	flagSet := pflag.NewFlagSet("tablet", pflag.ContinueOnError)
	flagSet.StringVar(&o.base, "base-url", settings.PublicBaseURL, "backend base URL")
	flagSet.StringVar(&o.token, "token", config.Config("TABLET_TOKEN"), "staff JWT for kitchen and station displays")
	flagSet.UintVar(&o.restaurant, "restaurant", 0, "restaurant id for kitchen and station displays")
	flagSet.StringVar(&o.slug, "slug", "", "smartmenu slug of the table")
	flagSet.StringVar(&o.locale, "locale", "en", "language for voice replies (en, fr, it, es)")
	flagSet.IntVar(&o.capacity, "capacity", 1, "number of guests when starting an order")
	flagSet.Usage = func() { printHelp(flagSet) }

	if err := flagSet.Parse(argv); err != nil {
		return err
	}
	args := flagSet.Args()
	if len(args) == 0 {
		printHelp(flagSet)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.New("tablet")

	switch args[0] {
	case "kitchen":
		return runBoard(ctx, o, "", settings, log)
	case "station":
		if len(args) < 2 {
			return errors.New("station: missing station name (kitchen or bar)")
		}
		return runBoard(ctx, o, args[1], settings, log)
	case "start":
		return runStart(ctx, o, settings, log)
	case "say":
		if len(args) < 2 {
			return errors.New("say: missing transcript")
		}
		return runSay(ctx, o, strings.Join(args[1:], " "), settings, log)
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func printHelp(fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Usage: tablet [flags] <command> [args]

Commands:
  kitchen              run the kitchen display
  station <name>       run a station display
  start                start an order for --slug
  say <transcript>     send a voice command for --slug

Flags:
%s`, fs.FlagUsages())
}
