// Package hudoc defines the core types and collaborator interfaces shared by
// the feed parser, fetcher, writer, and orchestrator.
package hudoc
