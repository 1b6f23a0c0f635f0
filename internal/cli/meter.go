package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberquiz/voicecapture/internal/audio"
	"github.com/emberquiz/voicecapture/internal/recorder"
)

var meterCmd = &cobra.Command{
	Use:   "meter",
	Short: "Show the live input level without recording",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureMicAccess(); err != nil {
			return err
		}

		capture, err := audio.NewCapture(cfg.Audio.Backend)
		if err != nil {
			return err
		}

		ctrl := recorder.New(capture, nil, controllerConfig(), log)
		defer ctrl.Close()

		if err := ctrl.EnableMonitor(); err != nil {
			return err
		}

		fmt.Println("Monitoring input level, press Ctrl+C to stop")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				fmt.Printf("\r%7.1f dBFS   ", ctrl.Level())
			case <-sigChan:
				fmt.Println()
				return nil
			}
		}
	},
}
