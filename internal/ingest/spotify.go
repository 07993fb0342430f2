package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/tasteline/tasteline/internal/analytics"
)

const (
	recentlyPlayedLimit = 50
	artistBatchSize     = 50
)

// spotifyAPI is the subset of the Spotify client the source uses.
type spotifyAPI interface {
	PlayerRecentlyPlayedOpt(ctx context.Context, opt *spotify.RecentlyPlayedOptions) ([]spotify.RecentlyPlayedItem, error)
	GetArtists(ctx context.Context, ids ...spotify.ID) ([]*spotify.FullArtist, error)
}

// SpotifySource fetches recently played tracks from the Spotify Web
// API and annotates them with the primary artist's first listed genre.
type SpotifySource struct {
	api     spotifyAPI
	limiter *rate.Limiter
}

// NewSpotifySource creates a source over an authenticated Spotify
// client. Requests are rate limited to one per second.
func NewSpotifySource(api *spotify.Client) *SpotifySource {
	return newSpotifySource(api)
}

func newSpotifySource(api spotifyAPI) *SpotifySource {
	return &SpotifySource{
		api:     api,
		limiter: rate.NewLimiter(rate.Every(1*time.Second), 1),
	}
}

// ClientFromToken builds an authenticated Spotify client from a stored
// OAuth token. The token is refreshed automatically when expired.
func ClientFromToken(ctx context.Context, clientID, clientSecret string, token *oauth2.Token) *spotify.Client {
	auth := spotifyauth.New(
		spotifyauth.WithClientID(clientID),
		spotifyauth.WithClientSecret(clientSecret),
		spotifyauth.WithScopes(spotifyauth.ScopeUserReadRecentlyPlayed),
	)
	return spotify.New(auth.Client(ctx, token))
}

// RecentlyPlayed returns the user's recently played tracks as
// listening events. The UserID field is left empty for the caller to
// fill in.
func (s *SpotifySource) RecentlyPlayed(ctx context.Context) ([]analytics.ListeningEvent, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var items []spotify.RecentlyPlayedItem
	err := retry.Do(
		func() error {
			var err error
			items, err = s.api.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{Limit: recentlyPlayedLimit})
			return err
		},
		retry.RetryIf(retryableSpotifyError),
		retry.Attempts(3),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching recently played: %w", err)
	}

	genres, err := s.artistGenres(ctx, items)
	if err != nil {
		return nil, err
	}

	events := make([]analytics.ListeningEvent, 0, len(items))
	for _, item := range items {
		if len(item.Track.Artists) == 0 {
			continue
		}
		primary := item.Track.Artists[0]
		events = append(events, analytics.ListeningEvent{
			Artist:   primary.Name,
			Title:    item.Track.Name,
			Genre:    genres[primary.ID],
			PlayedAt: item.PlayedAt.UTC(),
		})
	}
	return events, nil
}

// artistGenres resolves the first listed genre for every primary
// artist across the played items.
func (s *SpotifySource) artistGenres(ctx context.Context, items []spotify.RecentlyPlayedItem) (map[spotify.ID]string, error) {
	seen := make(map[spotify.ID]bool)
	var ids []spotify.ID
	for _, item := range items {
		if len(item.Track.Artists) == 0 {
			continue
		}
		id := item.Track.Artists[0].ID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	genres := make(map[spotify.ID]string, len(ids))
	for start := 0; start < len(ids); start += artistBatchSize {
		end := min(start+artistBatchSize, len(ids))

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var artists []*spotify.FullArtist
		err := retry.Do(
			func() error {
				var err error
				artists, err = s.api.GetArtists(ctx, ids[start:end]...)
				return err
			},
			retry.RetryIf(retryableSpotifyError),
			retry.Attempts(3),
			retry.Context(ctx),
		)
		if err != nil {
			return nil, fmt.Errorf("fetching artist genres: %w", err)
		}

		for _, artist := range artists {
			if artist == nil || len(artist.Genres) == 0 {
				continue
			}
			genres[artist.ID] = artist.Genres[0]
		}
	}
	return genres, nil
}

// retryableSpotifyError retries server-side failures and rate limit
// responses, not client errors.
func retryableSpotifyError(err error) bool {
	var spotifyErr spotify.Error
	if errors.As(err, &spotifyErr) {
		return spotifyErr.Status == 429 || spotifyErr.Status/100 == 5
	}
	return strings.Contains(err.Error(), "timeout")
}
