package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rustyeddy/dukas/fetch"
	"github.com/spf13/cobra"
)

func newDownloadCmd(rc *rootOptions) *cobra.Command {
	var (
		asset   string
		fromStr string
		toStr   string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download hourly tick files for an asset over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			if asset == "" {
				return fmt.Errorf("--asset is required")
			}
			from, to, err := parseRange(fromStr, toStr)
			if err != nil {
				return err
			}

			dl := rc.cfg.Download
			c := &fetch.Client{
				BaseURL: dl.BaseURL,
				HTTP:    &http.Client{Timeout: dl.Timeout()},
				Workers: dl.Workers,
				Sleep:   dl.Sleep(),
				Log:     rc.log,
			}

			st, err := c.Fetch(cmd.Context(), dl.Dir, asset, from, to)
			if err != nil {
				return err
			}

			fmt.Printf("fetched=%d skipped=%d missing=%d failed=%d\n",
				st.Fetched, st.Skipped, st.Missing, st.Failed)
			if st.Failed > 0 {
				return fmt.Errorf("%d hours failed to download", st.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&asset, "asset", "", "Asset symbol (e.g. EURUSD)")
	cmd.Flags().StringVar(&fromStr, "from", "", "Range start (2006-01-02 or RFC3339)")
	cmd.Flags().StringVar(&toStr, "to", "", "Range end, inclusive (defaults to now)")

	return cmd
}

// parseRange accepts date-only or RFC3339 stamps. An empty --to means now.
func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	if fromStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--from is required")
	}
	from, err := parseStamp(fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad --from: %w", err)
	}

	to := time.Now().UTC()
	if toStr != "" {
		to, err = parseStamp(toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad --to: %w", err)
		}
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from must not be after --to")
	}
	return from, to, nil
}

func parseStamp(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
