package cli

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/dukas/journal"
	"github.com/rustyeddy/dukas/store"
	"github.com/spf13/cobra"
)

func newListCmd(rc *rootOptions) *cobra.Command {
	var (
		asset    string
		showRuns bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored assets, timeframes, or ingest runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showRuns {
				return listRuns(cmd, rc, asset)
			}

			s := store.New(rc.cfg.Store.Dir, store.Options{
				Compression:   rc.cfg.Store.Compression,
				MaxScanMonths: rc.cfg.Store.MaxScanMonths,
			})

			if asset != "" {
				tfs, err := s.Timeframes(asset)
				if err != nil {
					return err
				}
				for _, tf := range tfs {
					fmt.Println(tf)
				}
				return nil
			}

			assets, err := s.Assets()
			if err != nil {
				return err
			}
			for _, a := range assets {
				tfs, err := s.Timeframes(a)
				if err != nil {
					return err
				}
				names := make([]string, len(tfs))
				for i, tf := range tfs {
					names[i] = tf.String()
				}
				fmt.Printf("%s\t%s\n", a, strings.Join(names, ","))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&asset, "asset", "", "Limit to one asset")
	cmd.Flags().BoolVar(&showRuns, "runs", false, "List ingest runs from the journal instead")

	return cmd
}

func listRuns(cmd *cobra.Command, rc *rootOptions, asset string) error {
	if rc.cfg.Journal.DBPath == "" {
		return fmt.Errorf("no journal configured: set --journal or journal.db_path")
	}
	jnl, err := journal.NewSQLite(rc.cfg.Journal.DBPath)
	if err != nil {
		return err
	}
	defer jnl.Close()

	runs, err := jnl.ListRuns(cmd.Context(), asset)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s\t%s\t%s\t[%s .. %s]\tbars_1m=%d resampled=%d gaps=%d warnings=%d\n",
			r.ID, r.Asset, r.Timeframes,
			r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"),
			r.Bars1m, r.BarsResampled, r.Gaps, r.Warnings)
	}
	return nil
}
