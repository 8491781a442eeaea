// Package lyricsovh adapts the lyrics.ovh API to ports.LyricsProvider.
package lyricsovh

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ttuhina/MuseMe/internal/adapters/upstream"
	"github.com/ttuhina/MuseMe/internal/core/ports"
)

// DefaultBaseURL is the public lyrics.ovh endpoint.
const DefaultBaseURL = "https://api.lyrics.ovh"

// Fetcher is the subset of upstream.Client used here.
type Fetcher interface {
	FetchJSON(ctx context.Context, url string) (upstream.Response, error)
}

// Client looks up lyrics by artist and song.
type Client struct {
	fetcher Fetcher
	baseURL string
	logger  logrus.FieldLogger
}

// compile-time interface assertion
var _ ports.LyricsProvider = (*Client)(nil)

type lyricsResponse struct {
	Lyrics string `json:"lyrics"`
	Error  string `json:"error,omitempty"`
}

// NewClient constructs a lyrics.ovh client. An empty baseURL uses DefaultBaseURL.
func NewClient(fetcher Fetcher, baseURL string, logger logrus.FieldLogger) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		fetcher: fetcher,
		baseURL: baseURL,
		logger:  logger.WithField("provider", "lyricsovh"),
	}
}

// URL returns the lookup URL for (artist, song). Each part is escaped on its own.
func (c *Client) URL(artist, song string) string {
	return fmt.Sprintf("%s/v1/%s/%s", c.baseURL, url.PathEscape(artist), url.PathEscape(song))
}

// FetchLyrics returns the lyrics for a song, or false when none could be
// obtained. Failures are logged and absorbed.
func (c *Client) FetchLyrics(ctx context.Context, artist, song string) (string, bool) {
	log := c.logger.WithFields(logrus.Fields{"artist": artist, "song": song})

	resp, err := c.fetcher.FetchJSON(ctx, c.URL(artist, song))
	if err != nil {
		fields := logrus.Fields{"reason": err.Error()}
		var fe *upstream.FetchError
		if errors.As(err, &fe) {
			fields["kind"] = fe.Kind
		}
		log.WithFields(fields).Info("lyrics fetch failed")
		return "", false
	}

	var body lyricsResponse
	if err := resp.Decode(&body); err != nil {
		log.WithField("reason", err.Error()).Info("lyrics response not usable")
		return "", false
	}
	if body.Lyrics == "" {
		log.WithField("reason", "no lyrics field").Info("lyrics not found")
		return "", false
	}

	log.WithField("length", len(body.Lyrics)).Debug("lyrics found")
	return body.Lyrics, true
}
