package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberquiz/voicecapture/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available capture devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureMicAccess(); err != nil {
			return err
		}

		capture, err := audio.NewCapture(cfg.Audio.Backend)
		if err != nil {
			return err
		}
		defer capture.Close()

		devices, err := capture.ListDevices()
		if err != nil {
			return fmt.Errorf("failed to list devices: %w", err)
		}

		if len(devices) == 0 {
			fmt.Println("No capture devices found")
			return nil
		}

		for i, d := range devices {
			marker := " "
			if d.Default {
				marker = "*"
			}
			fmt.Printf("%s %d. %s\n", marker, i+1, d.Label)
		}
		return nil
	},
}
