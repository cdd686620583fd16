package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/hudoc-downloader/internal/dispatcher"
	"github.com/JakeFAU/hudoc-downloader/internal/feed"
)

type downloadOptions struct {
	subsite string
	rssFile string
	link    string
	full    bool
}

func newDownloadCmd() *cobra.Command {
	var opts downloadOptions

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the documents listed in an RSS feed or a link",
		Long: `Fetches every document announced by an RSS export (--rss-file) or a
single document link (--link), extracts its text and writes it to the
output directory. A link pointing at /app/transform/rss is fetched and
processed as a feed. The subsite is detected from the hostname unless
--type is given.`,
		Example: `  hudoc download --rss-file echr.xml --limit 0 --evid
  hudoc download --type grevio --link 'https://hudoc.grevio.coe.int/eng#{"greviosectionid":["TEST-2023-1"]}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDownload(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.subsite, "type", "", "subsite name (detected from the feed or link when empty)")
	flags.StringVar(&opts.rssFile, "rss-file", "", "path to an RSS export")
	flags.StringVar(&opts.link, "link", "", "document link or RSS transform URL")
	flags.BoolVar(&opts.full, "full", false, "download every item in the feed (same as --limit 0)")
	flags.String("output-dir", "data", "output directory")
	flags.Int("limit", 3, "maximum number of feed items to download (0 for all)")
	flags.Int("threads", 10, "number of concurrent downloads")
	flags.Duration("conversion-delay", 2*time.Second, "wait after triggering server-side conversion")
	flags.Bool("evid", false, "write evid annotation bundles instead of plain text")
	flags.String("markup", "typst", "evid markup format (typst or latex)")
	flags.String("metrics-file", "", "write Prometheus metrics to this textfile on exit")

	cmd.MarkFlagsMutuallyExclusive("rss-file", "link")
	cmd.MarkFlagsOneRequired("rss-file", "link")

	return cmd
}

func runDownload(cmd *cobra.Command, opts downloadOptions) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	if opts.subsite != "" {
		if _, err := appInstance.GetSites().Lookup(opts.subsite); err != nil {
			return err
		}
	}

	cfg := appInstance.GetConfig()
	batch := dispatcher.Batch{
		RSSFile: opts.rssFile,
		Subsite: opts.subsite,
		Limit:   cfg.Download.Limit,
		Threads: cfg.Download.Threads,
	}
	if opts.full {
		batch.Limit = 0
	}

	d := appInstance.GetDispatcher()
	ctx := cmd.Context()
	switch {
	case opts.link != "" && feed.IsFeedURL(opts.link):
		err = d.RunFeedURL(ctx, batch, opts.link)
	case opts.link != "":
		err = d.RunLink(ctx, opts.subsite, opts.link)
	default:
		err = d.RunBatch(ctx, batch)
	}
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	appInstance.GetLogger().Info("download command finished", zap.String("output_dir", cfg.Download.OutputDir))
	return nil
}
