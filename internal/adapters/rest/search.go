package rest

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ttuhina/MuseMe/internal/core/domain"
)

const errInvalidAPIPath = "Invalid API path"

var errMalformedSearchPath = errors.New("rest: malformed search path")

// Search handles GET /api/search/{artist}/{song}.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchPath(r.URL.EscapedPath())
	if err != nil {
		loggerFrom(r.Context(), h.logger).WithError(err).Debug("rejecting search path")
		writeError(w, http.StatusBadRequest, errInvalidAPIPath)
		return
	}

	// Aggregate has no failure path; missing upstream data comes back as null fields.
	result := h.svc.Aggregate(r.Context(), q)
	writeJSON(w, http.StatusOK, result)
}

// parseSearchPath extracts (artist, song) from the escaped request path. The
// segments are split before decoding so an encoded slash stays part of its
// segment. Segments after the song are ignored.
func parseSearchPath(escaped string) (domain.LookupQuery, error) {
	rest, ok := strings.CutPrefix(escaped, searchPrefix)
	if !ok {
		return domain.LookupQuery{}, errMalformedSearchPath
	}
	parts := strings.Split(rest, "/")
	if len(parts) < 2 {
		return domain.LookupQuery{}, errMalformedSearchPath
	}

	artist, err := url.PathUnescape(parts[0])
	if err != nil {
		return domain.LookupQuery{}, errors.Join(errMalformedSearchPath, err)
	}
	song, err := url.PathUnescape(parts[1])
	if err != nil {
		return domain.LookupQuery{}, errors.Join(errMalformedSearchPath, err)
	}

	return domain.NewLookupQuery(artist, song)
}
