package models

import "time"

// Title represents a tracked anime with its declared final position
type Title struct {
	ID     uint64 `boltholdKey:"ID" json:"animeId"`
	Name   string `json:"title"`
	Notes  string `json:"notes"`
	Review string `json:"review"`

	Rating      *int   `json:"rating"`      // Ordinal rating, nil when unrated
	ReleaseDate string `json:"releaseDate"` // YYYY-MM-DD

	// Final position the completion tier is measured against
	FinalSeason  int `json:"lastSeason"`
	FinalEpisode int `json:"lastEpisode"`

	SourceID uint64 `boltholdIndex:"SourceID" json:"source"`
	Priority int    `json:"priority"`
	SeriesID uint64 `boltholdIndex:"SeriesID" json:"seriesId,omitempty"` // 0 when standalone

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tag is a label that can be attached to titles
type Tag struct {
	ID   uint64 `boltholdKey:"ID" json:"tagId"`
	Name string `json:"name"`
}

// Source is where a title originates from (manga, light novel, original...)
type Source struct {
	ID   uint64 `boltholdKey:"ID" json:"sourceId"`
	Name string `json:"name"`
}

// Series groups related titles
type Series struct {
	ID    uint64 `boltholdKey:"ID" json:"seriesId"`
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

// WatchPartner is a viewer whose progress is tracked independently
type WatchPartner struct {
	ID   uint64 `boltholdKey:"ID" json:"watchPartnerId"`
	Name string `json:"name"`
}

// TitleTag associates a tag with a title
type TitleTag struct {
	ID      uint64 `boltholdKey:"ID" json:"-"`
	TitleID uint64 `boltholdIndex:"TitleID" json:"animeId"`
	TagID   uint64 `boltholdIndex:"TagID" json:"tagId"`
}

// Extra is bonus material (OVA, special, movie) attached to a title
type Extra struct {
	ID          uint64 `boltholdKey:"ID" json:"animeExtraId"`
	TitleID     uint64 `boltholdIndex:"TitleID" json:"animeId"`
	Description string `json:"description"`
}
