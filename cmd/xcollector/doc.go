// Package main hosts the collector service entrypoint.
//
// Architecture overview:
//   - Discovery: internal/discovery renders the mirror's search page per term
//     with headless Chrome (chromedp), parses the result cards with goquery,
//     applies the language filter, and hands back candidate posts plus the
//     browser session identity (user agent and cookies).
//   - Pipeline: internal/collector runs each new post through a state
//     machine. The fetch gate downloads every attachment (Colly for images,
//     yt-dlp for videos) with bounded retries on blocking responses, the
//     classifier probes media with ffprobe, and images are OCR'd with
//     Tesseract while videos with an audio stream are transcribed with
//     Whisper. Commit is all-or-nothing: a record reaches the sink only when
//     every mandatory enrichment succeeded.
//   - Dedup: internal/ledger records committed post ids (SQLite or a plain
//     file). The ledger is advanced only after the sink write is durable, so
//     a crash between the two replays the post in a later cycle and the sink
//     overwrite keeps both sides consistent.
//   - Persistence: internal/sink writes one JSON file per post under a
//     date-grouped directory via temp-write-and-rename.
//   - Configuration & plumbing: Viper populates config from file/env
//     (XCOLLECTOR_* prefix); zap provides structured logging; Prometheus
//     counters are exported on /metrics next to /healthz and /status.
//
// Operational notes:
//   - Posts run sequentially within a cycle because the browser session and
//     cookie identity are stateful; attachments within a post fetch in
//     parallel.
//   - A preflight check fails fast when ffprobe, tesseract, whisper, or
//     yt-dlp are absent from PATH.
//   - Run locally: go run ./cmd/xcollector run --config config.yaml, or
//     xcollector run --once for a single cycle.
package main
