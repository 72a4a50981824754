// TIDAL API implementation of [Source]
//
// Response types based on the api.tidal.com/v1 playlist endpoints.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/tidalwatch/internal/models"
	"github.com/desertthunder/tidalwatch/internal/shared"
	"golang.org/x/time/rate"
)

const (
	tidalBaseURL       = "https://api.tidal.com/v1"
	tidalBrowseURL     = "https://tidal.com/browse/track"
	tidalPageLimit     = 100
	defaultCountryCode = "US"

	// Requests per second against the TIDAL API.
	tidalRateLimit = 2
)

type tidalCreator struct {
	Name string `json:"name"`
}

type tidalAlbum struct {
	Title string `json:"title"`
}

// tidalPlaylist represents a TIDAL playlist resource.
type tidalPlaylist struct {
	UUID           string       `json:"uuid"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Creator        tidalCreator `json:"creator"`
	NumberOfTracks int          `json:"numberOfTracks"`
}

// tidalTrack represents a TIDAL track resource within a playlist item.
type tidalTrack struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	Duration  int            `json:"duration"`
	Artist    tidalCreator   `json:"artist"`
	Artists   []tidalCreator `json:"artists"`
	Album     tidalAlbum     `json:"album"`
	DateAdded string         `json:"dateAdded"`
}

type tidalItem struct {
	Type string     `json:"type"` // "track" or "video"
	Item tidalTrack `json:"item"`
}

// tidalItemsPage represents one page of the playlist items endpoint.
type tidalItemsPage struct {
	Limit              int         `json:"limit"`
	Offset             int         `json:"offset"`
	TotalNumberOfItems int         `json:"totalNumberOfItems"`
	Items              []tidalItem `json:"items"`
}

// TidalSource implements the [Source] interface against the TIDAL API.
// Requests are paced with a [rate.Limiter] to respect upstream limits.
type TidalSource struct {
	baseURL     string
	countryCode string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// TidalSourceOpts contains optional settings for a [TidalSource].
type TidalSourceOpts struct {
	BaseURL     string       // defaults to the public TIDAL v1 API
	CountryCode string       // defaults to "US"
	HTTPClient  *http.Client // should be an authenticated oauth2 client
}

// NewTidalSource creates a TIDAL API source with the provided options.
func NewTidalSource(opts TidalSourceOpts) *TidalSource {
	if opts.BaseURL == "" {
		opts.BaseURL = tidalBaseURL
	}
	if opts.CountryCode == "" {
		opts.CountryCode = defaultCountryCode
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &TidalSource{
		baseURL:     opts.BaseURL,
		countryCode: opts.CountryCode,
		httpClient:  opts.HTTPClient,
		limiter:     rate.NewLimiter(rate.Limit(tidalRateLimit), 1),
	}
}

// FetchPlaylist retrieves playlist metadata by ID.
func (s *TidalSource) FetchPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	var p tidalPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))
	if err := s.getJSON(ctx, endpoint, nil, &p); err != nil {
		return nil, err
	}

	return &models.Playlist{
		PlaylistID:  p.UUID,
		Name:        p.Title,
		Description: p.Description,
		Owner:       p.Creator.Name,
		TrackCount:  p.NumberOfTracks,
		Enabled:     true,
	}, nil
}

// FetchTracks retrieves the complete current track list of a playlist,
// following offset pagination until the snapshot is exhausted. Non-track
// items (videos) are skipped.
func (s *TidalSource) FetchTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	endpoint := fmt.Sprintf("/playlists/%s/items", url.PathEscape(playlistID))

	var tracks []models.Track
	offset := 0

	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(tidalPageLimit))
		params.Set("offset", strconv.Itoa(offset))

		var page tidalItemsPage
		if err := s.getJSON(ctx, endpoint, params, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Type != "track" {
				continue
			}

			track := models.Track{
				PlaylistID: playlistID,
				TrackID:    strconv.FormatInt(item.Item.ID, 10),
				Title:      item.Item.Title,
				Artist:     item.Item.Artist.Name,
				Album:      item.Item.Album.Title,
				Duration:   item.Item.Duration,
				URL:        fmt.Sprintf("%s/%d", tidalBrowseURL, item.Item.ID),
			}
			if ts, err := time.Parse(time.RFC3339, item.Item.DateAdded); err == nil {
				track.AddedAt = &ts
			}
			tracks = append(tracks, track)
		}

		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.TotalNumberOfItems {
			break
		}
	}

	return tracks, nil
}

// getJSON performs a rate-limited GET against the TIDAL API and decodes the
// JSON response into result.
func (s *TidalSource) getJSON(ctx context.Context, endpoint string, params url.Values, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrFetch, err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("countryCode", s.countryCode)

	apiURL := s.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", shared.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, endpoint)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d from %s", shared.ErrFetch, resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrFetch, err)
	}

	return nil
}
