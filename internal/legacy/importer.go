// Package legacy imports the relational anime.db of the earlier service into
// the record store. Row ids are preserved so existing links keep working.
package legacy

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amaumene/animetrack/internal/models"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

type namedRow struct {
	ID   uint64 `db:"id"`
	Name string `db:"name"`
}

type seriesRow struct {
	ID    uint64         `db:"id"`
	Name  string         `db:"name"`
	Notes sql.NullString `db:"notes"`
}

type animeRow struct {
	ID          uint64         `db:"id"`
	Title       string         `db:"title"`
	Notes       sql.NullString `db:"notes"`
	Review      sql.NullString `db:"review"`
	Rating      sql.NullInt64  `db:"rating"`
	ReleaseDate sql.NullString `db:"release_date"`
	LastSeason  int            `db:"last_season"`
	LastEpisode int            `db:"last_episode"`
	SourceID    uint64         `db:"source_id"`
	Priority    sql.NullInt64  `db:"priority"`
	SeriesID    sql.NullInt64  `db:"series_id"`
}

type linkRow struct {
	LeftID  uint64 `db:"left_id"`
	RightID uint64 `db:"right_id"`
}

type extraRow struct {
	ID          uint64         `db:"id"`
	AnimeID     uint64         `db:"anime_id"`
	Description sql.NullString `db:"description"`
}

type watchthroughRow struct {
	ID            uint64 `db:"id"`
	AnimeID       uint64 `db:"anime_id"`
	PartnerID     uint64 `db:"partner_id"`
	Season        int    `db:"season"`
	Episode       int    `db:"episode"`
	IsActive      bool   `db:"is_active"`
	ForceComplete bool   `db:"force_complete"`
}

// Result counts the imported rows per table
type Result struct {
	Sources          int
	Tags             int
	WatchPartners    int
	Series           int
	Titles           int
	TitleTags        int
	Extras           int
	Watchthroughs    int
	ExtraCompletions int
}

// snapshot is every row of the legacy database
type snapshot struct {
	sources       []namedRow
	tags          []namedRow
	partners      []namedRow
	series        []seriesRow
	anime         []animeRow
	animeTags     []linkRow
	extras        []extraRow
	watchthroughs []watchthroughRow
	marks         []linkRow
}

// Importer copies a legacy database into the store
type Importer struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewImporter creates a new importer
func NewImporter(db *models.Database, logger *logrus.Logger) *Importer {
	return &Importer{
		db:     db,
		logger: logger,
	}
}

// Import reads the SQLite file at path and writes every row into the store in
// a single transaction. The store must be empty. Any invalid row aborts the
// whole import.
func (i *Importer) Import(ctx context.Context, path string) (*Result, error) {
	src, err := sqlx.Connect("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy database: %w", err)
	}
	defer src.Close()

	snap, err := readSnapshot(ctx, src)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	err = i.db.Update(func(tx *models.Tx) error {
		if err := ensureEmpty(tx); err != nil {
			return err
		}
		return writeSnapshot(tx, snap, result)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", path, err)
	}

	i.logger.WithFields(logrus.Fields{
		"path":          path,
		"titles":        result.Titles,
		"watchthroughs": result.Watchthroughs,
		"extras":        result.Extras,
	}).Info("Imported legacy database")

	return result, nil
}

func readSnapshot(ctx context.Context, src *sqlx.DB) (*snapshot, error) {
	snap := &snapshot{}
	queries := []struct {
		table string
		dest  any
		query string
	}{
		{"Source", &snap.sources, `SELECT SourceId AS id, Name AS name FROM Source`},
		{"Tag", &snap.tags, `SELECT TagId AS id, Name AS name FROM Tag`},
		{"WatchPartner", &snap.partners, `SELECT WatchPartnerId AS id, Name AS name FROM WatchPartner`},
		{"Series", &snap.series, `SELECT SeriesId AS id, Name AS name, Notes AS notes FROM Series`},
		{"Anime", &snap.anime, `
			SELECT AnimeId AS id, Title AS title, Notes AS notes, Review AS review,
				YuriRatingId AS rating, ReleaseDate AS release_date,
				LastSeason AS last_season, LastEpisode AS last_episode,
				SourceId AS source_id, Priority AS priority, SeriesId AS series_id
			FROM Anime`},
		{"AnimeTag", &snap.animeTags, `SELECT AnimeId AS left_id, TagId AS right_id FROM AnimeTag`},
		{"AnimeExtra", &snap.extras, `SELECT AnimeExtraId AS id, AnimeId AS anime_id, Description AS description FROM AnimeExtra`},
		{"Watchthrough", &snap.watchthroughs, `
			SELECT WatchthroughId AS id, AnimeId AS anime_id, WatchPartnerId AS partner_id,
				Season AS season, Episode AS episode,
				IsActive AS is_active, ForceComplete AS force_complete
			FROM Watchthrough`},
		{"WatchthroughAnimeExtra", &snap.marks, `SELECT WatchthroughId AS left_id, AnimeExtraId AS right_id FROM WatchthroughAnimeExtra`},
	}

	for _, q := range queries {
		if err := src.SelectContext(ctx, q.dest, q.query); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", q.table, err)
		}
	}
	return snap, nil
}

func ensureEmpty(tx *models.Tx) error {
	titles, err := tx.FindTitles()
	if err != nil {
		return err
	}
	sources, err := tx.FindSources()
	if err != nil {
		return err
	}
	partners, err := tx.FindWatchPartners()
	if err != nil {
		return err
	}
	if len(titles)+len(sources)+len(partners) > 0 {
		return models.ErrStoreNotEmpty
	}
	return nil
}

func writeSnapshot(tx *models.Tx, snap *snapshot, result *Result) error {
	for _, row := range snap.sources {
		if err := tx.InsertSource(&models.Source{ID: row.ID, Name: row.Name}); err != nil {
			return err
		}
		result.Sources++
	}
	for _, row := range snap.tags {
		if err := tx.InsertTag(&models.Tag{ID: row.ID, Name: row.Name}); err != nil {
			return err
		}
		result.Tags++
	}
	for _, row := range snap.partners {
		if err := tx.InsertWatchPartner(&models.WatchPartner{ID: row.ID, Name: row.Name}); err != nil {
			return err
		}
		result.WatchPartners++
	}
	for _, row := range snap.series {
		if err := tx.InsertSeries(&models.Series{ID: row.ID, Name: row.Name, Notes: row.Notes.String}); err != nil {
			return err
		}
		result.Series++
	}

	titles := make(map[uint64]bool, len(snap.anime))
	for _, row := range snap.anime {
		title, err := convertAnime(tx, row)
		if err != nil {
			return err
		}
		if err := tx.InsertTitle(title); err != nil {
			return err
		}
		titles[title.ID] = true
		result.Titles++
	}

	for _, link := range snap.animeTags {
		if !titles[link.LeftID] {
			return fmt.Errorf("anime tag references anime %d: %w", link.LeftID, models.ErrInvalidInput)
		}
		if _, err := tx.GetTag(link.RightID); err != nil {
			return fmt.Errorf("tag of anime %d: %w: %v", link.LeftID, models.ErrInvalidInput, err)
		}
		if err := tx.InsertTitleTag(link.LeftID, link.RightID); err != nil {
			return err
		}
		result.TitleTags++
	}

	extraTitle := make(map[uint64]uint64, len(snap.extras))
	for _, row := range snap.extras {
		if !titles[row.AnimeID] {
			return fmt.Errorf("extra %d references anime %d: %w", row.ID, row.AnimeID, models.ErrInvalidInput)
		}
		if err := tx.InsertExtra(&models.Extra{ID: row.ID, TitleID: row.AnimeID, Description: row.Description.String}); err != nil {
			return err
		}
		extraTitle[row.ID] = row.AnimeID
		result.Extras++
	}

	watchthroughTitle := make(map[uint64]uint64, len(snap.watchthroughs))
	for _, row := range snap.watchthroughs {
		if !titles[row.AnimeID] {
			return fmt.Errorf("watchthrough %d references anime %d: %w", row.ID, row.AnimeID, models.ErrInvalidInput)
		}
		if _, err := tx.GetWatchPartner(row.PartnerID); err != nil {
			return fmt.Errorf("watchthrough %d: %w: %v", row.ID, models.ErrInvalidInput, err)
		}
		if err := models.ValidatePosition(row.Season, row.Episode); err != nil {
			return fmt.Errorf("watchthrough %d: %w", row.ID, err)
		}
		w := &models.Watchthrough{
			ID:            row.ID,
			TitleID:       row.AnimeID,
			PartnerID:     row.PartnerID,
			Season:        row.Season,
			Episode:       row.Episode,
			IsActive:      row.IsActive,
			ForceComplete: row.ForceComplete,
		}
		if err := tx.InsertWatchthrough(w); err != nil {
			return err
		}
		watchthroughTitle[row.ID] = row.AnimeID
		result.Watchthroughs++
	}

	for _, link := range snap.marks {
		titleID, ok := watchthroughTitle[link.LeftID]
		if !ok {
			return fmt.Errorf("extra completion references watchthrough %d: %w", link.LeftID, models.ErrInvalidInput)
		}
		if extraTitle[link.RightID] != titleID {
			return fmt.Errorf("extra %d on watchthrough %d: %w", link.RightID, link.LeftID, models.ErrInvalidExtra)
		}
		if err := tx.InsertExtraCompletion(link.LeftID, link.RightID); err != nil {
			return err
		}
		result.ExtraCompletions++
	}

	return nil
}

func convertAnime(tx *models.Tx, row animeRow) (*models.Title, error) {
	if err := models.ValidatePosition(row.LastSeason, row.LastEpisode); err != nil {
		return nil, fmt.Errorf("anime %d: %w", row.ID, err)
	}
	if _, err := tx.GetSource(row.SourceID); err != nil {
		return nil, fmt.Errorf("anime %d: %w: %v", row.ID, models.ErrInvalidInput, err)
	}

	title := &models.Title{
		ID:           row.ID,
		Name:         row.Title,
		Notes:        row.Notes.String,
		Review:       row.Review.String,
		ReleaseDate:  row.ReleaseDate.String,
		FinalSeason:  row.LastSeason,
		FinalEpisode: row.LastEpisode,
		SourceID:     row.SourceID,
		Priority:     int(row.Priority.Int64),
	}
	if row.Rating.Valid {
		rating := int(row.Rating.Int64)
		title.Rating = &rating
	}
	if row.SeriesID.Valid && row.SeriesID.Int64 > 0 {
		seriesID := uint64(row.SeriesID.Int64)
		if _, err := tx.GetSeries(seriesID); err != nil {
			return nil, fmt.Errorf("anime %d: %w: %v", row.ID, models.ErrInvalidInput, err)
		}
		title.SeriesID = seriesID
	}
	return title, nil
}
