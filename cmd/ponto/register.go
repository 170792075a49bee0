package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/ponto/internal/app"
)

var registerCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Register a face from the camera or an image file",
	Long: `Capture one frame and register the first face found under the given name.

The frame comes from the configured camera unless --image is given. A
registration is refused when the face already belongs to someone else.

Examples:
  ponto register "Alice"
  ponto register "Bob" --image bob.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().String("image", "", "Register from an image file instead of the camera")
}

func runRegister(cmd *cobra.Command, args []string) error {
	name := args[0]
	imagePath := mustGetString(cmd, "image")

	return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
		if imagePath != "" {
			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			face, err := a.Faces.RegisterImage(ctx, name, data)
			if err != nil {
				return err
			}
			successColor.Printf("Registered %s (id %d)\n", face.Name, face.ID)
			return nil
		}

		if d := a.Config.RegisterCountdown; d > 0 {
			infoColor.Printf("Look at the camera, capturing in %s...\n", d)
		}
		face, err := a.Faces.Register(ctx, name)
		if err != nil {
			return err
		}
		successColor.Printf("Registered %s (id %d)\n", face.Name, face.ID)
		if ref := face.PhotoRef(); ref != "" {
			dimColor.Printf("Photo saved to %s\n", ref)
		}
		return nil
	})
}
