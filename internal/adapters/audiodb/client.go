// Package audiodb adapts TheAudioDB artist search to ports.ArtistInfoProvider.
package audiodb

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ttuhina/MuseMe/internal/adapters/upstream"
	"github.com/ttuhina/MuseMe/internal/core/domain"
	"github.com/ttuhina/MuseMe/internal/core/ports"
)

// DefaultBaseURL is the free-tier V1 endpoint with the public test key.
const DefaultBaseURL = "https://theaudiodb.com/api/v1/json/1"

// Fetcher is the subset of upstream.Client used here.
type Fetcher interface {
	FetchJSON(ctx context.Context, url string) (upstream.Response, error)
}

// Client looks up artist metadata by name.
type Client struct {
	fetcher Fetcher
	baseURL string
	logger  logrus.FieldLogger
}

// compile-time interface assertion
var _ ports.ArtistInfoProvider = (*Client)(nil)

// NewClient constructs a TheAudioDB client. An empty baseURL uses DefaultBaseURL.
func NewClient(fetcher Fetcher, baseURL string, logger logrus.FieldLogger) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		fetcher: fetcher,
		baseURL: baseURL,
		logger:  logger.WithField("provider", "audiodb"),
	}
}

// URL returns the artist search URL.
func (c *Client) URL(artist string) string {
	return c.baseURL + "/search.php?" + url.Values{"s": {artist}}.Encode()
}

// FetchArtistInfo returns normalized metadata for the first artist matching
// the name, or false when there is no usable match. Failures are logged and
// absorbed.
func (c *Client) FetchArtistInfo(ctx context.Context, artist string) (*domain.ArtistInfo, bool) {
	log := c.logger.WithField("artist", artist)

	resp, err := c.fetcher.FetchJSON(ctx, c.URL(artist))
	if err != nil {
		fields := logrus.Fields{"reason": err.Error()}
		var fe *upstream.FetchError
		if errors.As(err, &fe) {
			fields["kind"] = fe.Kind
		}
		log.WithFields(fields).Info("artist info fetch failed")
		return nil, false
	}

	var body searchResponse
	if err := resp.Decode(&body); err != nil {
		log.WithField("reason", err.Error()).Info("artist info response not usable")
		return nil, false
	}
	if len(body.Artists) == 0 {
		log.WithField("reason", "no artist match").Info("artist info not found")
		return nil, false
	}

	// Name collisions are not disambiguated; the first match wins.
	info := normalizeArtist(body.Artists[0], artist)
	log.WithField("match", info.Name).Debug("artist info found")
	return &info, true
}

func normalizeArtist(a audioDBArtist, queried string) domain.ArtistInfo {
	return domain.ArtistInfo{
		Name:       firstNonEmpty(a.Artist, queried),
		Biography:  firstNonEmpty(a.BiographyEN, a.Biography, domain.DefaultBiography),
		Image:      firstNonEmpty(a.ArtistThumb, a.ArtistLogo),
		Genre:      firstNonEmpty(a.Genre),
		Country:    firstNonEmpty(a.Country),
		FormedYear: firstNonEmpty(string(a.FormedYear)),
		Website:    firstNonEmpty(a.Website),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
