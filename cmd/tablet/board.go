package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"smartmenu/board"
	"smartmenu/config"
	"smartmenu/logger"
	"smartmenu/presence"
	"smartmenu/session"
)

// terminalNotifier rings the bell and prints desktop notifications inline.
type terminalNotifier struct{ out io.Writer }

func (n terminalNotifier) Chime() { fmt.Fprint(n.out, "\a") }

func (n terminalNotifier) Desktop(title, body string) {
	fmt.Fprintf(n.out, "[%s] %s: %s\n", time.Now().Format("15:04:05"), title, body)
}

func runBoard(ctx context.Context, o options, station string, settings config.Settings, log *logger.Logger) error {
	if o.restaurant == 0 {
		return fmt.Errorf("--restaurant is required")
	}
	s, err := session.NewBoard(session.BoardOptions{
		BaseURL:      o.base,
		Token:        o.token,
		RestaurantID: o.restaurant,
		Station:      station,
		Notifier:     terminalNotifier{out: os.Stdout},
		Render: func(count int, badges []presence.Badge) {
			labels := make([]string, 0, len(badges))
			for _, b := range badges {
				labels = append(labels, b.Label+"("+b.Status+")")
			}
			fmt.Fprintf(os.Stdout, "online %d: %s\n", count, strings.Join(labels, ", "))
		},
		Settings: settings,
		Log:      log,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	go func() {
		t := time.NewTicker(5 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				render(os.Stdout, s.Board)
			}
		}
	}()
	return s.Run(ctx)
}

func render(w io.Writer, b *board.Board) {
	fmt.Fprintf(w, "\n== %s ==\n", time.Now().Format("15:04:05"))
	for _, col := range board.Columns {
		fmt.Fprintf(w, "%-10s [%d]\n", strings.ToUpper(string(col)), b.Badge(col))
		if b.EmptyVisible(col) {
			fmt.Fprintln(w, "  (empty)")
			continue
		}
		for _, c := range b.Cards(col) {
			fmt.Fprintf(w, "  #%-5d %-6s %-10s %d item(s)  -> %s\n",
				c.ID, c.Table, c.CreatedAt.Format("15:04"), len(c.Items), c.Action.Label)
		}
	}
}
