package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/laporkota/laporkit/pkg/notify"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live notifications until interrupted",
	Long: `Subscribe to the notification service and print every event as it
arrives. Status changes also show the report's new canonical status.
The stream reconnects automatically when it drops.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	sess, err := cli.currentSession()
	if err != nil {
		return err
	}

	sub := notify.New(notify.Config{
		BaseURL:        cli.cfg.NotificationURL,
		UserID:         sess.User.ID,
		Token:          sess.Token,
		AccessRole:     sess.User.AccessRole,
		Department:     sess.User.Department,
		ReconnectDelay: cli.cfg.ReconnectDelay,
	}, cli.logger)
	defer sub.Close()

	sub.SetToastHandler(func(t notify.Toast) {
		fmt.Println(toastLine(t.Level, t.Title, t.Message))
	})
	sub.SetStatusHandler(func(u notify.StatusUpdate) {
		fmt.Printf("%s %s\n", statusBadge(string(u.Status)), dimStyle.Render("report "+u.ReportID))
	})

	sub.Start()
	fmt.Println(dimStyle.Render("Watching for notifications. Ctrl-C to stop."))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case <-cmd.Context().Done():
	}
	fmt.Println(dimStyle.Render("Stopped."))
	return nil
}
