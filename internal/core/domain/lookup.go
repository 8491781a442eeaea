package domain

import (
	"errors"
	"strings"
)

// ErrInvalidQuery is returned when an artist or song is missing.
var ErrInvalidQuery = errors.New("domain: artist and song are required")

// DefaultBiography is used when the upstream has no biography in any language.
const DefaultBiography = "No biography available."

// LookupQuery identifies one (artist, song) pair to aggregate data for.
type LookupQuery struct {
	Artist string
	Song   string
}

// NewLookupQuery validates and builds a LookupQuery from already-decoded parts.
func NewLookupQuery(artist, song string) (LookupQuery, error) {
	if strings.TrimSpace(artist) == "" || strings.TrimSpace(song) == "" {
		return LookupQuery{}, ErrInvalidQuery
	}
	return LookupQuery{Artist: artist, Song: song}, nil
}

// ArtistInfo is the normalized subset of artist metadata returned to clients.
// Optional fields are omitted rather than sent as empty strings.
type ArtistInfo struct {
	Name       string `json:"name"`
	Biography  string `json:"biography"`
	Image      string `json:"image,omitempty"`
	Genre      string `json:"genre,omitempty"`
	Country    string `json:"country,omitempty"`
	FormedYear string `json:"formedYear,omitempty"`
	Website    string `json:"website,omitempty"`
}

// AggregateResult is the composite response for one LookupQuery.
// Success is always true; missing upstream data shows up as null fields.
type AggregateResult struct {
	Success    bool        `json:"success"`
	Artist     string      `json:"artist"`
	Song       string      `json:"song"`
	Lyrics     *string     `json:"lyrics"`
	ArtistInfo *ArtistInfo `json:"artistInfo"`
}

// NewAggregateResult returns an empty, successful result for q.
func NewAggregateResult(q LookupQuery) AggregateResult {
	return AggregateResult{
		Success: true,
		Artist:  q.Artist,
		Song:    q.Song,
	}
}

// SetLyrics records lyrics on the result. Empty lyrics are treated as absent.
func (r *AggregateResult) SetLyrics(lyrics string) {
	if lyrics == "" {
		r.Lyrics = nil
		return
	}
	r.Lyrics = &lyrics
}
