// Package tasks implements the change-detection and download-orchestration
// core of the monitor.
//
// [Monitor] reconciles remote playlist snapshots against the stored track
// sets to find newly added tracks. [Downloader] sequences download attempts,
// paces them, and drives the retry state machine for failed tracks.
// [Pipeline] ties the two together with best-effort notifications; it is the
// single callback both the scheduler and the manual check command invoke.
package tasks
