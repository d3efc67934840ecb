// Package tasks reconciles a song list against a playlist with real-time progress reporting.
//
// # Pipeline
//
// [Engine.Run] executes the stages in order:
//
//  1. Load and normalize the song list (see the songs package). Input errors end the run before any
//     remote call is made.
//  2. [EnsurePlaylist] finds the playlist by exact title or creates it.
//  3. [Resolver.ResolveAll] maps each song to a video through a [SearchCache] with a bounded worker pool.
//  4. [Reconciler.Reconcile] reads the playlist's membership snapshot and inserts missing videos.
//  5. [Summarize] counts outcomes and reads the quota ledger's final state.
//
// # Quota
//
// Search and insert are independent cancellation domains. A quota rejection in one stops new work of that
// kind; calls already in flight finish and everything not yet dispatched is classified as quota exhausted.
// The ledger itself stays exhausted, so the other domain fails fast on its next reservation.
//
// # Outcomes
//
// Every song gets exactly one [models.Outcome]. Outcomes are stored write-once by song, so concurrent
// workers can record them in any order without changing the summary.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data. Updates use
// select with default so a slow reader never blocks a run.
//
// # Caching
//
// [MemoryCache] lives for one run. [PersistentCache] writes through to a [CacheStore] so searches are
// reused across runs; store errors are logged and ignored.
package tasks
