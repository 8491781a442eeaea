package audiodb

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// searchResponse is the body of search.php. Artists is null when nothing matched.
type searchResponse struct {
	Artists []audioDBArtist `json:"artists"`
}

// audioDBArtist holds the TheAudioDB artist fields we normalize.
type audioDBArtist struct {
	Artist      string     `json:"strArtist"`
	BiographyEN string     `json:"strBiographyEN"`
	Biography   string     `json:"strBiography"`
	ArtistThumb string     `json:"strArtistThumb"`
	ArtistLogo  string     `json:"strArtistLogo"`
	Genre       string     `json:"strGenre"`
	Country     string     `json:"strCountry"`
	FormedYear  flexString `json:"intFormedYear"`
	Website     string     `json:"strWebsite"`
}

// flexString accepts a JSON string, number, or null. TheAudioDB sends its
// "int" fields as strings but not consistently.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*f = flexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexString(n.String())
	return nil
}
