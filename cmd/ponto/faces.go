package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/ponto/internal/app"
)

var facesCmd = &cobra.Command{
	Use:   "faces",
	Short: "Manage registered faces",
}

var facesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered faces",
	Args:  cobra.NoArgs,
	RunE:  runFacesList,
}

var facesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a registered face and its photo",
	Long: `Delete a registered face. Its attendance records are kept.

Example:
  ponto faces delete 3`,
	Args: cobra.ExactArgs(1),
	RunE: runFacesDelete,
}

var facesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the gallery as YAML",
	Long: `Write every registered face (name, descriptor, photo path) as YAML, to
stdout or to --output.

Example:
  ponto faces export -o gallery.yaml`,
	Args: cobra.NoArgs,
	RunE: runFacesExport,
}

var facesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import faces from a YAML export",
	Long: `Register the faces of a gallery export. Faces whose name is taken or whose
descriptor matches someone already registered are skipped and reported.

Example:
  ponto faces import gallery.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runFacesImport,
}

func init() {
	rootCmd.AddCommand(facesCmd)
	facesCmd.AddCommand(facesListCmd, facesDeleteCmd, facesExportCmd, facesImportCmd)

	facesExportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
}

func runFacesList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
		faces, err := a.Faces.List(ctx)
		if err != nil {
			return err
		}
		if len(faces) == 0 {
			warnColor.Println("No faces registered")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPHOTO\tREGISTERED")
		for _, f := range faces {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", f.ID, f.Name, a.Photos.Resolve(f.PhotoRef()), f.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	})
}

func runFacesDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid face id: %s", args[0])
	}

	return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
		if err := a.Faces.Delete(ctx, id); err != nil {
			return err
		}
		successColor.Printf("Deleted face %d\n", id)
		return nil
	})
}

func runFacesExport(cmd *cobra.Command, args []string) error {
	output := mustGetString(cmd, "output")

	return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
		faces, err := a.Store.Faces.ListStoredFaces(ctx)
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer f.Close()
			w = f
		}

		if err := encodeGallery(w, faces); err != nil {
			return err
		}
		if output != "" {
			successColor.Printf("Exported %d face(s) to %s\n", len(faces), output)
		}
		return nil
	})
}

func runFacesImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open gallery file: %w", err)
	}
	defer f.Close()

	faces, parseErrs, err := decodeGallery(f)
	if err != nil {
		return err
	}
	for _, perr := range parseErrs {
		warnColor.Printf("skipped: %v\n", perr)
	}

	return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
		imported := 0
		for _, face := range faces {
			if _, err := a.Faces.Import(ctx, face.Name, face.Descriptor, face.Photo); err != nil {
				warnColor.Printf("skipped %s: %v\n", face.Name, err)
				continue
			}
			imported++
		}
		successColor.Printf("Imported %d of %d face(s)\n", imported, len(faces)+len(parseErrs))
		return nil
	})
}
