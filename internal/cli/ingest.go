package cli

import (
	"fmt"

	"github.com/rustyeddy/dukas/ingest"
	"github.com/rustyeddy/dukas/market"
	"github.com/rustyeddy/dukas/store"
	"github.com/spf13/cobra"
)

func newIngestCmd(rc *rootOptions) *cobra.Command {
	var (
		asset   string
		fromStr string
		toStr   string
		tfStrs  []string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Build OHLCV bars from downloaded tick files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if asset == "" {
				return fmt.Errorf("--asset is required")
			}
			from, to, err := parseRange(fromStr, toStr)
			if err != nil {
				return err
			}

			// --tf overrides the config set. Either way the grammar is
			// checked before any file is touched.
			var tfs []market.Timeframe
			if len(tfStrs) > 0 {
				for _, s := range tfStrs {
					tf, err := market.ParseTimeframe(s)
					if err != nil {
						return err
					}
					tfs = append(tfs, tf)
				}
			} else if tfs, err = rc.cfg.Timeframes(); err != nil {
				return err
			}

			jnl, err := rc.openJournal()
			if err != nil {
				return err
			}
			defer jnl.Close()

			r := &ingest.Runner{
				Store: store.New(rc.cfg.Store.Dir, store.Options{
					Compression:   rc.cfg.Store.Compression,
					MaxScanMonths: rc.cfg.Store.MaxScanMonths,
				}),
				Journal:     jnl,
				Log:         rc.log,
				DownloadDir: rc.cfg.Download.Dir,
			}

			st, err := r.Run(cmd.Context(), asset, from, to, tfs)
			if err != nil {
				return err
			}

			fmt.Printf("run=%s bars_1m=%d bars_resampled=%d gaps=%d warnings=%d\n",
				st.RunID, st.Bars1m, st.BarsResampled, st.Gaps, st.Warnings)
			return nil
		},
	}

	cmd.Flags().StringVar(&asset, "asset", "", "Asset symbol (e.g. EURUSD)")
	cmd.Flags().StringVar(&fromStr, "from", "", "Range start (2006-01-02 or RFC3339)")
	cmd.Flags().StringVar(&toStr, "to", "", "Range end, inclusive (defaults to now)")
	cmd.Flags().StringSliceVar(&tfStrs, "tf", nil, "Timeframes to build (e.g. 1m,1h,100t); defaults to config")

	return cmd
}
