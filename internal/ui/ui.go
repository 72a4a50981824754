// Package ui styles CLI output with [lipgloss].
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/tidalwatch/internal/models"
)

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// Title renders a section heading.
func Title(s string) string { return styles.title.Render(s) }

// OK renders success text.
func OK(s string) string { return styles.ok.Render(s) }

// Err renders failure text.
func Err(s string) string { return styles.err.Render(s) }

// Warn renders cautionary text.
func Warn(s string) string { return styles.warn.Render(s) }

// Help renders secondary hint text.
func Help(s string) string { return styles.help.Render(s) }

// PlaylistTable renders monitored playlists as a bordered table.
func PlaylistTable(playlists []models.Playlist) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "TRACKS", "LAST CHECKED", "STATUS")

	for _, p := range playlists {
		lastChecked := "Never"
		if p.LastChecked != nil {
			lastChecked = p.LastChecked.Format("2006-01-02 15:04")
		}

		status := styles.err.Render("disabled")
		if p.Enabled {
			status = styles.ok.Render("enabled")
		}

		t.Row(shortID(p.PlaylistID), p.Name, fmt.Sprintf("%d", p.TrackCount), lastChecked, status)
	}

	return t.Render()
}

// DownloadStatsTable renders download counts per status.
func DownloadStatsTable(stats map[models.DownloadStatus]int) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STATUS", "COUNT")

	for _, s := range models.AllDownloadStatuses {
		t.Row(string(s), fmt.Sprintf("%d", stats[s]))
	}

	return t.Render()
}

// NextRun formats a next scheduled fire time for status output.
func NextRun(ts *time.Time) string {
	if ts == nil {
		return styles.help.Render("not scheduled")
	}
	return ts.Format(time.RFC1123)
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
