package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/ponto/internal/app"
	"github.com/saturnino-fabrica-de-software/ponto/internal/recognition"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Run recognition in the foreground",
	Long: `Start the recognition cycle and print its events until Ctrl+C or until
the camera fails. Recognized faces are logged to the attendance store.

Example:
  ponto recognize`,
	Args: cobra.NoArgs,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
	recognizeCmd.Flags().Bool("quiet", false, "Only print matches and errors")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	quiet := mustGetBool(cmd, "quiet")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return withApp(ctx, func(ctx context.Context, a *app.App) error {
		a.Scheduler.Start()

		if err := a.Recognition.Start(ctx); err != nil {
			return err
		}
		infoColor.Printf("Recognizing %d registered face(s), Ctrl+C to stop\n", a.Recognition.Status().GallerySize)

		events := a.Recognition.Events()
		for {
			select {
			case <-ctx.Done():
				if err := a.Recognition.Stop(); err != nil {
					return err
				}
				st := a.Recognition.Status()
				infoColor.Printf("Stopped after %d frame(s)\n", st.FramesProcessed)
				return nil
			case ev := <-events:
				if !quiet || isNotable(ev.Type) {
					fmt.Println(formatEvent(ev))
				}
				if ev.Type == recognition.EventStopped {
					return fmt.Errorf("recognition stopped: %s", ev.Error)
				}
			}
		}
	})
}
