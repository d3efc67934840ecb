// Package repositories implements SQLite persistence for the search cache and run history.
//
// Key Implementations:
//   - [SearchCacheRepository] : write-once search results keyed by canonical song name, including
//     searches that found nothing
//   - [RunRepository] : one row per reconciliation run with its summary counts and quota spend
//
// Runs carry a sequence number from [NextSequence], which atomically increments a per-table counter in a
// dedicated sequence table.
package repositories
