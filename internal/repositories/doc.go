// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository owns one table and wraps every mutation in its own
// transaction-scoped statement, so a crash mid-run never leaves a partially
// written row.
//
// Key Implementations:
//   - [PlaylistRepository] : monitored playlist records and check bookkeeping
//   - [TrackRepository] : per-playlist track snapshots with insert-if-absent discovery
//   - [DownloadRepository] : download status machine with a sticky completed state
//
// Write failures wrap [shared.ErrStore]; callers treat them as fatal to the
// current run but not to the process.
package repositories
