// Package services defines the external collaborator boundaries of the
// monitor: the read-only TIDAL data source and the download executor.
//
// [Source] fetches playlist metadata and full track snapshots from the TIDAL
// API, transparently paginating. [Executor] hands a track locator to the
// tidal-dl-ng subprocess under a bounded timeout. Both are interfaces so the
// reconciliation and orchestration cores can be tested against doubles.
package services
