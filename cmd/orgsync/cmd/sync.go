package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/oppnadata/orgsync/internal/config"
	"github.com/oppnadata/orgsync/pkg/ckan"
	"github.com/oppnadata/orgsync/pkg/feed"
	"github.com/oppnadata/orgsync/pkg/logging"
	"github.com/oppnadata/orgsync/pkg/sync"
)

var (
	syncHardDelete bool
	syncDryRun     bool
	syncTimeout    time.Duration
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the organization feed against the backend",
	Long: `Sync fetches the organization feed and converges the backend toward it.

The command will:
1. Fetch the feed with bounded retry and exponential backoff
2. Validate and normalize every entry, skipping malformed records
3. Classify each organization as create or update by probing the backend
4. Create missing organizations with their harvest sources and a queued job
5. Patch changed organizations, detected via content fingerprints
6. Delete organizations that this run did not refresh
7. Write a YAML run report into the log directory

A feed fetch or parse failure aborts the run with a non-zero exit;
individual organization failures are logged and the run continues.`,
	Example: `  orgsync sync
  orgsync sync --dry-run
  orgsync sync --hard-delete
  orgsync sync --timeout 60s`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&syncHardDelete, "hard-delete", false, "Purge removed organizations and their datasets instead of deactivating them")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Show what would change without making modifications")
	syncCmd.Flags().DurationVar(&syncTimeout, "timeout", config.DefaultHTTPTimeout, "Per-call HTTP timeout for feed and backend requests")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	cfg.HardDelete = syncHardDelete
	cfg.DryRun = syncDryRun
	cfg.HTTPTimeout = syncTimeout

	logger, closer, err := logging.NewRunLogger(cfg.LogPath, time.Now())
	if err != nil {
		logging.Warn().Err(err).Str("dir", cfg.LogPath).Msg("unable to open run log file, logging to stderr only")
		logger = *logging.Default()
	} else {
		defer closer.Close()
	}
	ctx := logging.WithLogger(cmd.Context(), &logger)

	client := ckan.New(cfg.SiteURL, cfg.APIKey, cfg.HTTPTimeout)
	fetcher := feed.NewFetcher(cfg.HTTPTimeout, cfg.FetchRetries)

	_, err = sync.New(cfg, client, fetcher).Run(ctx)
	return err
}
