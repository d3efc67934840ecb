// Package models defines the entities that flow through a reconciliation run.
//
// Remote state:
//   - [Playlist] : a playlist owned by the authenticated account
//
// Per-song results, keyed by canonical song name:
//   - [Resolution] : outcome of the search stage (video, explicit no-match, or unresolved)
//   - [Outcome] : terminal classification after reconciliation (added, already present, no match, failed)
//
// Derived and persisted data:
//   - [RunSummary] : counts per [OutcomeKind] plus quota spend
//   - [CacheEntry] : a search result stored for reuse across runs
//   - [RunRecord] : run history row
package models
