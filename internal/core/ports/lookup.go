package ports

import (
	"context"

	"github.com/ttuhina/MuseMe/internal/core/domain"
)

// LyricsProvider looks up lyrics for a song. A false second return means no
// lyrics could be obtained, for whatever reason; providers never surface errors.
type LyricsProvider interface {
	FetchLyrics(ctx context.Context, artist, song string) (string, bool)
}

// ArtistInfoProvider looks up normalized artist metadata by name.
type ArtistInfoProvider interface {
	FetchArtistInfo(ctx context.Context, artist string) (*domain.ArtistInfo, bool)
}
