// Package cli wires the dukas command tree: download, ingest, list.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rustyeddy/dukas/config"
	"github.com/rustyeddy/dukas/journal"
	"github.com/rustyeddy/dukas/pkg/slogx"
	"github.com/spf13/cobra"
)

// rootOptions carries the persistent flags shared by every subcommand.
// resolve() folds them over the config file, flags winning.
type rootOptions struct {
	ConfigPath  string
	DownloadDir string
	StoreDir    string
	JournalPath string
	LogLevel    string

	cfg *config.Config
	log *slog.Logger
}

func (rc *rootOptions) resolve() error {
	cfg := config.Default()
	if rc.ConfigPath != "" {
		loaded, err := config.LoadFromFile(rc.ConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if rc.DownloadDir != "" {
		cfg.Download.Dir = rc.DownloadDir
	}
	if rc.StoreDir != "" {
		cfg.Store.Dir = rc.StoreDir
	}
	if rc.JournalPath != "" {
		cfg.Journal.DBPath = rc.JournalPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rc.cfg = cfg
	rc.log = slogx.New(rc.LogLevel)
	return nil
}

// openJournal returns the configured journal, or a no-op one when no path is
// set. Caller closes it.
func (rc *rootOptions) openJournal() (journal.Journal, error) {
	if rc.cfg.Journal.DBPath == "" {
		return journal.Noop{}, nil
	}
	return journal.NewSQLite(rc.cfg.Journal.DBPath)
}

func NewRootCmd() *cobra.Command {
	rc := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "dukas",
		Short:         "Dukascopy tick downloader and OHLCV bar builder",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.DownloadDir, "download-dir", "", "Hour-file download root (overrides config)")
	cmd.PersistentFlags().StringVar(&rc.StoreDir, "store-dir", "", "Bar store root (overrides config)")
	cmd.PersistentFlags().StringVar(&rc.JournalPath, "journal", "", "SQLite journal database (overrides config)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return rc.resolve()
	}

	cmd.AddCommand(
		newDownloadCmd(rc),
		newIngestCmd(rc),
		newListCmd(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("dukas (dev)")
		},
	})

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
