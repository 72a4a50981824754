// Package models defines the persisted entities of the playlist monitor.
//
// A [Playlist] is a remote playlist under watch. A [Track] is one entry of a
// playlist's stored snapshot, keyed by (playlist_id, track_id). A [Download]
// records the delivery state of a single track through the
// pending → downloading → completed/failed → retrying state machine.
package models
