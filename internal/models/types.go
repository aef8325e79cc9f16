package models

import (
	"errors"
	"fmt"
)

// MaxPosition is the largest season or episode number accepted by the store.
// The completion key packs season and episode into three decimal digits each.
const MaxPosition = 999

var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidPosition = errors.New("invalid season/episode position")
	ErrInvalidExtra    = errors.New("extra does not belong to title")
	ErrStoreNotEmpty   = errors.New("store is not empty")
)

// Kind names an entity type for id allocation
type Kind string

const (
	KindTitle           Kind = "title"
	KindTag             Kind = "tag"
	KindSource          Kind = "source"
	KindSeries          Kind = "series"
	KindWatchPartner    Kind = "watchpartner"
	KindTitleTag        Kind = "titletag"
	KindExtra           Kind = "extra"
	KindWatchthrough    Kind = "watchthrough"
	KindExtraCompletion Kind = "extracompletion"
)

// ValidatePosition rejects negative positions and positions that would overflow the completion key
func ValidatePosition(season, episode int) error {
	if season < 0 || season > MaxPosition {
		return fmt.Errorf("season %d: %w", season, ErrInvalidPosition)
	}
	if episode < 0 || episode > MaxPosition {
		return fmt.Errorf("episode %d: %w", episode, ErrInvalidPosition)
	}
	return nil
}
