// Package cli implements the command-line interface. Commands talk to
// the core through the driving ports; wiring of the concrete services
// happens once, lazily, before the first command runs.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	configfile "github.com/margine-labs/margine-cli/internal/adapters/driven/config/file"
	"github.com/margine-labs/margine-cli/internal/adapters/driven/render/textfile"
	"github.com/margine-labs/margine-cli/internal/adapters/driven/storage/sqlite"
	"github.com/margine-labs/margine-cli/internal/core/ports/driven"
	"github.com/margine-labs/margine-cli/internal/core/ports/driving"
	"github.com/margine-labs/margine-cli/internal/core/services"
	"github.com/margine-labs/margine-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services used by the commands. Wired by initServices, replaced by
// mocks in tests.
var (
	documentService   driving.DocumentService
	annotationService driving.AnnotationService
	transferService   driving.TransferService
	configStore       driven.ConfigStore
	renderProvider    driven.RenderProvider
	storageHealth     driven.HealthChecker
)

// Persistent flags.
var (
	verbose   bool
	dataDir   string
	renderDir string
)

var rootCmd = &cobra.Command{
	Use:   "margine",
	Short: "Annotate PDF and EPUB documents from the terminal",
	Long: `Margine manages document annotations: anchored text selections with
tags, colors, notes and voice memos, plus portable JSON export/import.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		logger.SetOutput(cmd.ErrOrStderr())

		// Help and version need no storage.
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}
		return initServices()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default ~/.margine/data)")
	rootCmd.PersistentFlags().StringVar(&renderDir, "render-dir", "", "Rendered text directory (default <data-dir>/render)")
}

// initServices wires the concrete adapters behind the driving ports.
// Idempotent: tests pre-populate the service vars and wiring is skipped.
func initServices() error {
	if documentService != nil {
		return nil
	}

	cfg, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	configStore = cfg

	dir := dataDir
	if dir == "" {
		dir = cfg.GetString("storage.data_dir")
	}

	store, err := sqlite.NewStore(dir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	documents := store.DocumentStore()
	annotations := store.AnnotationStore()
	audio := store.AudioStore()

	documentService = services.NewDocumentService(documents, annotations, audio)
	annotationService = services.NewAnnotationService(annotations, audio)
	transferService = services.NewTransferService(documents, annotations, audio)
	storageHealth = store

	rdir := renderDir
	if rdir == "" {
		rdir = cfg.GetString("render.dir")
	}
	if rdir == "" {
		rdir = filepath.Join(filepath.Dir(store.Path()), "render")
	}
	renderProvider = textfile.NewProvider(rdir)

	logger.Debug("storage ready at %s", store.Path())
	return nil
}
