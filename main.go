// Command hudoc-downloader fetches documents from the HUDOC databases.
//
// Architecture overview:
//   - Input: an RSS export (file or /app/transform/rss URL) or a single document link. internal/feed parses
//     items with gofeed and internal/identifier pulls the document id out of each link's JSON fragment.
//   - Fetch pipeline: internal/dispatcher fans items out to a bounded errgroup pool. Each internal/worker task
//     asks internal/fetcher for the document text, which GETs the subsite's conversion endpoint through the
//     Colly-based getter, hits the original link to trigger conversion when the body is empty, waits, and retries.
//   - Output: internal/writer saves plain text files or evid bundles (Typst or LaTeX markup plus info.yml) in
//     a directory named by a UUIDv5 of subsite and id, so reruns skip complete bundles.
//   - Configuration & plumbing: Viper merges defaults, an optional config file, HUDOC_* env vars and CLI flags;
//     zap provides structured logging; Prometheus counters can be dumped to a node-exporter textfile on exit.
//
// Quick checklist:
//   - List subsites: hudoc-downloader subsites
//   - Download a feed: hudoc-downloader download --rss-file echr.xml --limit 0 --evid
//   - Point a subsite elsewhere: HUDOC_SUBSITES or a config file with subsites.<name>.base_url.
package main

import "github.com/JakeFAU/hudoc-downloader/cmd"

func main() {
	cmd.Execute()
}
