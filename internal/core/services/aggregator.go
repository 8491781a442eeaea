package services

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ttuhina/MuseMe/internal/core/domain"
	"github.com/ttuhina/MuseMe/internal/core/ports"
)

// Aggregator combines lyrics and artist info for a query into one result.
type Aggregator struct {
	lyrics  ports.LyricsProvider
	artists ports.ArtistInfoProvider
	logger  logrus.FieldLogger
}

// NewAggregator constructs an Aggregator.
func NewAggregator(lyrics ports.LyricsProvider, artists ports.ArtistInfoProvider, logger logrus.FieldLogger) *Aggregator {
	return &Aggregator{
		lyrics:  lyrics,
		artists: artists,
		logger:  logger,
	}
}

// Aggregate runs both lookups concurrently and merges whatever succeeded.
// It has no failure path: missing data leaves the corresponding field nil.
func (a *Aggregator) Aggregate(ctx context.Context, q domain.LookupQuery) domain.AggregateResult {
	log := a.logger.WithFields(logrus.Fields{"artist": q.Artist, "song": q.Song})
	log.Info("searching")

	var (
		wg         sync.WaitGroup
		lyrics     string
		haveLyrics bool
		info       *domain.ArtistInfo
		haveInfo   bool
	)

	// Each goroutine writes only its own variables; wg.Wait publishes them.
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer recoverLookup(log, "lyrics")
		lyrics, haveLyrics = a.lyrics.FetchLyrics(ctx, q.Artist, q.Song)
	}()
	go func() {
		defer wg.Done()
		defer recoverLookup(log, "artist_info")
		info, haveInfo = a.artists.FetchArtistInfo(ctx, q.Artist)
	}()
	wg.Wait()

	result := domain.NewAggregateResult(q)
	if haveLyrics {
		result.SetLyrics(lyrics)
	}
	if haveInfo && info != nil {
		result.ArtistInfo = info
	}

	log.WithFields(logrus.Fields{
		"lyrics":      result.Lyrics != nil,
		"artist_info": result.ArtistInfo != nil,
	}).Info("search complete")

	return result
}

// recoverLookup keeps a panicking provider from taking down the process; the
// lookup is then simply absent from the result.
func recoverLookup(log logrus.FieldLogger, lookup string) {
	if p := recover(); p != nil {
		log.WithFields(logrus.Fields{"lookup": lookup, "panic": p}).Error("lookup panicked")
	}
}
