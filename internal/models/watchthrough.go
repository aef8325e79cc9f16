package models

import "time"

// Watchthrough is one partner's recorded progress through a title
type Watchthrough struct {
	ID        uint64 `boltholdKey:"ID" json:"watchthroughId"`
	TitleID   uint64 `boltholdIndex:"TitleID" json:"animeId"`
	PartnerID uint64 `boltholdIndex:"PartnerID" json:"watchPartnerId"`

	Season  int `json:"season"`
	Episode int `json:"episode"`

	IsActive      bool `json:"isActive"`
	ForceComplete bool `json:"forceComplete"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ExtraCompletion marks an extra as watched within a watchthrough
type ExtraCompletion struct {
	ID             uint64 `boltholdKey:"ID"`
	WatchthroughID uint64 `boltholdIndex:"WatchthroughID"`
	ExtraID        uint64 `boltholdIndex:"ExtraID"`
}
