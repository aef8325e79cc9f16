package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Tx exposes store operations bound to a single bbolt transaction
type Tx struct {
	store *bolthold.Store
	tx    *bbolt.Tx
}

// assignID allocates the next id for kind when *id is zero. A preset id
// (imports) is kept and the sequence is raised so later inserts never reuse it.
func (t *Tx) assignID(kind Kind, id *uint64) error {
	bucket, err := t.tx.CreateBucketIfNotExists([]byte("sequence:" + string(kind)))
	if err != nil {
		return fmt.Errorf("failed to open %s sequence: %w", kind, err)
	}

	if *id == 0 {
		next, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate %s id: %w", kind, err)
		}
		*id = next
		return nil
	}

	if bucket.Sequence() < *id {
		return bucket.SetSequence(*id)
	}
	return nil
}

func (t *Tx) insert(kind Kind, id *uint64, data interface{}) error {
	if err := t.assignID(kind, id); err != nil {
		return err
	}
	if err := t.store.TxInsert(t.tx, *id, data); err != nil {
		return fmt.Errorf("failed to insert %s %d: %w", kind, *id, err)
	}
	return nil
}

func (t *Tx) update(kind Kind, id uint64, data interface{}) error {
	err := t.store.TxUpdate(t.tx, id, data)
	if errors.Is(err, bolthold.ErrNotFound) {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update %s %d: %w", kind, id, err)
	}
	return nil
}

func (t *Tx) get(kind Kind, id uint64, result interface{}) error {
	err := t.store.TxGet(t.tx, id, result)
	if errors.Is(err, bolthold.ErrNotFound) {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get %s %d: %w", kind, id, err)
	}
	return nil
}

// Title operations

// InsertTitle creates a new title
func (t *Tx) InsertTitle(title *Title) error {
	title.CreatedAt = time.Now()
	title.UpdatedAt = title.CreatedAt
	return t.insert(KindTitle, &title.ID, title)
}

// UpdateTitle updates an existing title
func (t *Tx) UpdateTitle(title *Title) error {
	title.UpdatedAt = time.Now()
	return t.update(KindTitle, title.ID, title)
}

// GetTitle retrieves a title by ID
func (t *Tx) GetTitle(id uint64) (*Title, error) {
	var title Title
	if err := t.get(KindTitle, id, &title); err != nil {
		return nil, err
	}
	title.ID = id
	return &title, nil
}

// FindTitles retrieves all titles ordered by ID
func (t *Tx) FindTitles() ([]*Title, error) {
	var titles []*Title
	if err := t.store.TxFind(t.tx, &titles, nil); err != nil {
		return nil, fmt.Errorf("failed to find titles: %w", err)
	}
	sortByID(titles, func(v *Title) uint64 { return v.ID })
	return titles, nil
}

// FindTitlesBySeries retrieves the titles belonging to a series
func (t *Tx) FindTitlesBySeries(seriesID uint64) ([]*Title, error) {
	var titles []*Title
	if err := t.store.TxFind(t.tx, &titles, bolthold.Where("SeriesID").Eq(seriesID).Index("SeriesID")); err != nil {
		return nil, fmt.Errorf("failed to find titles for series %d: %w", seriesID, err)
	}
	sortByID(titles, func(v *Title) uint64 { return v.ID })
	return titles, nil
}

// Lookup tables

// InsertTag creates a new tag
func (t *Tx) InsertTag(tag *Tag) error {
	return t.insert(KindTag, &tag.ID, tag)
}

// UpdateTag updates an existing tag
func (t *Tx) UpdateTag(tag *Tag) error {
	return t.update(KindTag, tag.ID, tag)
}

// GetTag retrieves a tag by ID
func (t *Tx) GetTag(id uint64) (*Tag, error) {
	var tag Tag
	if err := t.get(KindTag, id, &tag); err != nil {
		return nil, err
	}
	tag.ID = id
	return &tag, nil
}

// FindTags retrieves all tags
func (t *Tx) FindTags() ([]*Tag, error) {
	var tags []*Tag
	if err := t.store.TxFind(t.tx, &tags, nil); err != nil {
		return nil, fmt.Errorf("failed to find tags: %w", err)
	}
	sortByID(tags, func(v *Tag) uint64 { return v.ID })
	return tags, nil
}

// InsertSource creates a new source
func (t *Tx) InsertSource(source *Source) error {
	return t.insert(KindSource, &source.ID, source)
}

// UpdateSource updates an existing source
func (t *Tx) UpdateSource(source *Source) error {
	return t.update(KindSource, source.ID, source)
}

// GetSource retrieves a source by ID
func (t *Tx) GetSource(id uint64) (*Source, error) {
	var source Source
	if err := t.get(KindSource, id, &source); err != nil {
		return nil, err
	}
	source.ID = id
	return &source, nil
}

// FindSources retrieves all sources
func (t *Tx) FindSources() ([]*Source, error) {
	var sources []*Source
	if err := t.store.TxFind(t.tx, &sources, nil); err != nil {
		return nil, fmt.Errorf("failed to find sources: %w", err)
	}
	sortByID(sources, func(v *Source) uint64 { return v.ID })
	return sources, nil
}

// InsertSeries creates a new series
func (t *Tx) InsertSeries(series *Series) error {
	return t.insert(KindSeries, &series.ID, series)
}

// UpdateSeries updates an existing series
func (t *Tx) UpdateSeries(series *Series) error {
	return t.update(KindSeries, series.ID, series)
}

// GetSeries retrieves a series by ID
func (t *Tx) GetSeries(id uint64) (*Series, error) {
	var series Series
	if err := t.get(KindSeries, id, &series); err != nil {
		return nil, err
	}
	series.ID = id
	return &series, nil
}

// FindSeries retrieves all series
func (t *Tx) FindSeries() ([]*Series, error) {
	var series []*Series
	if err := t.store.TxFind(t.tx, &series, nil); err != nil {
		return nil, fmt.Errorf("failed to find series: %w", err)
	}
	sortByID(series, func(v *Series) uint64 { return v.ID })
	return series, nil
}

// InsertWatchPartner creates a new watch partner
func (t *Tx) InsertWatchPartner(partner *WatchPartner) error {
	return t.insert(KindWatchPartner, &partner.ID, partner)
}

// UpdateWatchPartner updates an existing watch partner
func (t *Tx) UpdateWatchPartner(partner *WatchPartner) error {
	return t.update(KindWatchPartner, partner.ID, partner)
}

// GetWatchPartner retrieves a watch partner by ID
func (t *Tx) GetWatchPartner(id uint64) (*WatchPartner, error) {
	var partner WatchPartner
	if err := t.get(KindWatchPartner, id, &partner); err != nil {
		return nil, err
	}
	partner.ID = id
	return &partner, nil
}

// FindWatchPartners retrieves all watch partners
func (t *Tx) FindWatchPartners() ([]*WatchPartner, error) {
	var partners []*WatchPartner
	if err := t.store.TxFind(t.tx, &partners, nil); err != nil {
		return nil, fmt.Errorf("failed to find watch partners: %w", err)
	}
	sortByID(partners, func(v *WatchPartner) uint64 { return v.ID })
	return partners, nil
}

// Title associations

// InsertTitleTag attaches a tag to a title
func (t *Tx) InsertTitleTag(titleID, tagID uint64) error {
	link := &TitleTag{TitleID: titleID, TagID: tagID}
	return t.insert(KindTitleTag, &link.ID, link)
}

// DeleteTitleTag detaches a tag from a title
func (t *Tx) DeleteTitleTag(titleID, tagID uint64) error {
	query := bolthold.Where("TitleID").Eq(titleID).Index("TitleID").And("TagID").Eq(tagID)
	if err := t.store.TxDeleteMatching(t.tx, &TitleTag{}, query); err != nil {
		return fmt.Errorf("failed to delete tag %d from title %d: %w", tagID, titleID, err)
	}
	return nil
}

// FindTitleTags retrieves the tag links of a title
func (t *Tx) FindTitleTags(titleID uint64) ([]*TitleTag, error) {
	var links []*TitleTag
	if err := t.store.TxFind(t.tx, &links, bolthold.Where("TitleID").Eq(titleID).Index("TitleID")); err != nil {
		return nil, fmt.Errorf("failed to find tags for title %d: %w", titleID, err)
	}
	sortByID(links, func(v *TitleTag) uint64 { return v.ID })
	return links, nil
}

// FindAllTitleTags retrieves every tag link
func (t *Tx) FindAllTitleTags() ([]*TitleTag, error) {
	var links []*TitleTag
	if err := t.store.TxFind(t.tx, &links, nil); err != nil {
		return nil, fmt.Errorf("failed to find title tags: %w", err)
	}
	sortByID(links, func(v *TitleTag) uint64 { return v.ID })
	return links, nil
}

// InsertExtra creates a new extra
func (t *Tx) InsertExtra(extra *Extra) error {
	return t.insert(KindExtra, &extra.ID, extra)
}

// UpdateExtra updates an existing extra
func (t *Tx) UpdateExtra(extra *Extra) error {
	return t.update(KindExtra, extra.ID, extra)
}

// GetExtra retrieves an extra by ID
func (t *Tx) GetExtra(id uint64) (*Extra, error) {
	var extra Extra
	if err := t.get(KindExtra, id, &extra); err != nil {
		return nil, err
	}
	extra.ID = id
	return &extra, nil
}

// DeleteExtra deletes an extra together with every completion mark pointing at it
func (t *Tx) DeleteExtra(id uint64) error {
	query := bolthold.Where("ExtraID").Eq(id).Index("ExtraID")
	if err := t.store.TxDeleteMatching(t.tx, &ExtraCompletion{}, query); err != nil {
		return fmt.Errorf("failed to delete completions of extra %d: %w", id, err)
	}
	if err := t.store.TxDelete(t.tx, id, &Extra{}); err != nil {
		return fmt.Errorf("failed to delete extra %d: %w", id, err)
	}
	return nil
}

// FindExtras retrieves the extras of a title
func (t *Tx) FindExtras(titleID uint64) ([]*Extra, error) {
	var extras []*Extra
	if err := t.store.TxFind(t.tx, &extras, bolthold.Where("TitleID").Eq(titleID).Index("TitleID")); err != nil {
		return nil, fmt.Errorf("failed to find extras for title %d: %w", titleID, err)
	}
	sortByID(extras, func(v *Extra) uint64 { return v.ID })
	return extras, nil
}

// FindAllExtras retrieves every extra
func (t *Tx) FindAllExtras() ([]*Extra, error) {
	var extras []*Extra
	if err := t.store.TxFind(t.tx, &extras, nil); err != nil {
		return nil, fmt.Errorf("failed to find extras: %w", err)
	}
	sortByID(extras, func(v *Extra) uint64 { return v.ID })
	return extras, nil
}

// Watchthrough operations

// InsertWatchthrough creates a new watchthrough
func (t *Tx) InsertWatchthrough(w *Watchthrough) error {
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	return t.insert(KindWatchthrough, &w.ID, w)
}

// UpdateWatchthrough updates an existing watchthrough
func (t *Tx) UpdateWatchthrough(w *Watchthrough) error {
	w.UpdatedAt = time.Now()
	return t.update(KindWatchthrough, w.ID, w)
}

// GetWatchthrough retrieves a watchthrough by ID
func (t *Tx) GetWatchthrough(id uint64) (*Watchthrough, error) {
	var w Watchthrough
	if err := t.get(KindWatchthrough, id, &w); err != nil {
		return nil, err
	}
	w.ID = id
	return &w, nil
}

// FindWatchthroughs retrieves every watchthrough of a title, any partner
func (t *Tx) FindWatchthroughs(titleID uint64) ([]*Watchthrough, error) {
	var ws []*Watchthrough
	if err := t.store.TxFind(t.tx, &ws, bolthold.Where("TitleID").Eq(titleID).Index("TitleID")); err != nil {
		return nil, fmt.Errorf("failed to find watchthroughs for title %d: %w", titleID, err)
	}
	sortByID(ws, func(v *Watchthrough) uint64 { return v.ID })
	return ws, nil
}

// FindPartnerWatchthroughs retrieves the watchthroughs of one partner for a title
func (t *Tx) FindPartnerWatchthroughs(titleID, partnerID uint64) ([]*Watchthrough, error) {
	var ws []*Watchthrough
	query := bolthold.Where("TitleID").Eq(titleID).Index("TitleID").And("PartnerID").Eq(partnerID)
	if err := t.store.TxFind(t.tx, &ws, query); err != nil {
		return nil, fmt.Errorf("failed to find watchthroughs for title %d partner %d: %w", titleID, partnerID, err)
	}
	sortByID(ws, func(v *Watchthrough) uint64 { return v.ID })
	return ws, nil
}

// FindAllWatchthroughs retrieves every watchthrough
func (t *Tx) FindAllWatchthroughs() ([]*Watchthrough, error) {
	var ws []*Watchthrough
	if err := t.store.TxFind(t.tx, &ws, nil); err != nil {
		return nil, fmt.Errorf("failed to find watchthroughs: %w", err)
	}
	sortByID(ws, func(v *Watchthrough) uint64 { return v.ID })
	return ws, nil
}

// InsertExtraCompletion marks an extra as watched within a watchthrough
func (t *Tx) InsertExtraCompletion(watchthroughID, extraID uint64) error {
	mark := &ExtraCompletion{WatchthroughID: watchthroughID, ExtraID: extraID}
	return t.insert(KindExtraCompletion, &mark.ID, mark)
}

// DeleteExtraCompletion removes a completion mark
func (t *Tx) DeleteExtraCompletion(watchthroughID, extraID uint64) error {
	query := bolthold.Where("WatchthroughID").Eq(watchthroughID).Index("WatchthroughID").And("ExtraID").Eq(extraID)
	if err := t.store.TxDeleteMatching(t.tx, &ExtraCompletion{}, query); err != nil {
		return fmt.Errorf("failed to delete completion of extra %d: %w", extraID, err)
	}
	return nil
}

// FindExtraCompletions retrieves the completion marks of a watchthrough
func (t *Tx) FindExtraCompletions(watchthroughID uint64) ([]*ExtraCompletion, error) {
	var marks []*ExtraCompletion
	query := bolthold.Where("WatchthroughID").Eq(watchthroughID).Index("WatchthroughID")
	if err := t.store.TxFind(t.tx, &marks, query); err != nil {
		return nil, fmt.Errorf("failed to find completions for watchthrough %d: %w", watchthroughID, err)
	}
	sortByID(marks, func(v *ExtraCompletion) uint64 { return v.ID })
	return marks, nil
}

// FindAllExtraCompletions retrieves every completion mark
func (t *Tx) FindAllExtraCompletions() ([]*ExtraCompletion, error) {
	var marks []*ExtraCompletion
	if err := t.store.TxFind(t.tx, &marks, nil); err != nil {
		return nil, fmt.Errorf("failed to find extra completions: %w", err)
	}
	sortByID(marks, func(v *ExtraCompletion) uint64 { return v.ID })
	return marks, nil
}
