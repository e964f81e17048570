package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jyoonje/collabview-plugin/internal/files"
	"github.com/jyoonje/collabview-plugin/internal/progress"
)

var (
	fileAddID    string
	fileListMax  int
	importRoot   string
	importNoBar  bool
	importGlobEx []string
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage the catalog of viewable files",
}

var filesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a file to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		f := &files.File{ID: fileAddID, Name: args[0]}
		if err := files.NewStore(database).Create(cmd.Context(), f); err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", f.ID, f.Name)
		return nil
	},
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		list, err := files.NewStore(database).List(cmd.Context(), fileListMax)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tEXT\tSIZE\tPATH")
		for _, f := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", f.ID, f.Name, f.Extension, f.Size, f.Path)
		}
		return tw.Flush()
	},
}

var filesImportCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Catalogue every file under a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		root := importRoot
		if len(args) == 1 {
			root = args[0]
		}
		root, err = filepath.Abs(root)
		if err != nil {
			return err
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		var reporter progress.Reporter = progress.Nop{}
		if !importNoBar {
			reporter = progress.NewReporter("Importing")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		res, err := files.NewStore(database).Import(ctx, files.ImportOptions{
			Root:        root,
			Include:     cfg.Import.Include,
			Exclude:     append(append([]string{}, cfg.Import.Exclude...), importGlobEx...),
			MaxFileSize: int64(cfg.Import.MaxFileSizeMB) * 1024 * 1024,
			Reporter:    reporter,
			Logger:      log,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d files (%d already catalogued) from %s\n", res.Added, res.Skipped, root)
		return nil
	},
}

func init() {
	filesAddCmd.Flags().StringVar(&fileAddID, "id", "", "file id (generated when empty)")
	filesListCmd.Flags().IntVar(&fileListMax, "limit", 0, "maximum number of files to list (0 for all)")
	filesImportCmd.Flags().StringVar(&importRoot, "root", ".", "directory to import")
	filesImportCmd.Flags().BoolVar(&importNoBar, "no-progress", false, "disable the progress bar")
	filesImportCmd.Flags().StringSliceVar(&importGlobEx, "exclude", nil, "extra exclude globs")

	filesCmd.AddCommand(filesAddCmd, filesListCmd, filesImportCmd)
	rootCmd.AddCommand(filesCmd)
}
