package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberquiz/voicecapture/internal/audio"
	"github.com/emberquiz/voicecapture/internal/recorder"
)

var (
	recordOutput   string
	recordDuration float64
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from the microphone to a WAV file",
	Long: `Record captures microphone audio until interrupted (or until --duration
elapses) and writes a 16-bit PCM mono WAV file along with a summary of the
measured true peak and loudness.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureMicAccess(); err != nil {
			return err
		}

		capture, err := audio.NewCapture(cfg.Audio.Backend)
		if err != nil {
			return err
		}

		sink := &cliSink{results: make(chan *recorder.AudioRecording, 1)}
		ctrl := recorder.New(capture, sink, controllerConfig(), log)
		defer ctrl.Close()

		if err := ctrl.Start(); err != nil {
			return err
		}
		fmt.Println("Recording, press Ctrl+C to stop")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		var timeout <-chan time.Time
		if recordDuration > 0 {
			timeout = time.After(time.Duration(recordDuration * float64(time.Second)))
		}

		var rec *recorder.AudioRecording
		select {
		case <-sigChan:
			rec, err = ctrl.Stop()
		case <-timeout:
			rec, err = ctrl.Stop()
		case rec = <-sink.results:
			// The configured maximum duration stopped the take for us.
		}
		if err != nil {
			if errors.Is(err, recorder.ErrEmptyCapture) {
				return fmt.Errorf("nothing was recorded")
			}
			return err
		}

		return writeRecording(rec)
	},
}

func init() {
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "output WAV path (default <output dir>/take-<id>.wav)")
	recordCmd.Flags().Float64VarP(&recordDuration, "duration", "d", 0, "stop automatically after this many seconds")
}

func writeRecording(rec *recorder.AudioRecording) error {
	path := recordOutput
	if path == "" {
		path = filepath.Join(cfg.Output.Directory, fmt.Sprintf("take-%s.wav", rec.TakeID))
	}
	if err := os.WriteFile(path, rec.Bytes, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Printf("Saved %s\n", path)
	fmt.Printf("  device:    %s\n", rec.Meta.MicName)
	fmt.Printf("  duration:  %.2fs\n", rec.Meta.DurationSec)
	fmt.Printf("  true peak: %.2f dBFS\n", rec.Meta.TruePeakDb)
	fmt.Printf("  loudness:  %.2f dB\n", rec.Meta.IntegratedLoudnessDb)
	return nil
}

// controllerConfig maps the loaded file config onto the recorder.
func controllerConfig() recorder.Config {
	return recorder.Config{
		DeviceID:    cfg.Audio.Device,
		SampleRate:  cfg.Audio.SampleRate,
		ChunkFrames: cfg.Audio.ChunkFrames,
		MaxDuration: time.Duration(cfg.Recording.MaxDurationSeconds * float64(time.Second)),
		MinDuration: time.Duration(cfg.Recording.MinDurationSeconds * float64(time.Second)),
	}
}

// cliSink surfaces controller events on the terminal and hands auto-stopped
// takes back to the command.
type cliSink struct {
	results chan *recorder.AudioRecording
}

func (s *cliSink) StateChanged(old, next recorder.State) {
	log.Debug().Stringer("from", old).Stringer("to", next).Msg("State changed")
}

func (s *cliSink) RecordingReady(rec *recorder.AudioRecording) {
	select {
	case s.results <- rec:
	default:
	}
}

func (s *cliSink) Warning(w recorder.Warning) {
	log.Warn().Str("code", string(w.Code)).Msg(w.Message)
}
