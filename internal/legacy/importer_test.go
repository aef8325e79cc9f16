package legacy

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/amaumene/animetrack/internal/completion"
	"github.com/amaumene/animetrack/internal/controllers"
	"github.com/amaumene/animetrack/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const legacySchema = `
CREATE TABLE Source (SourceId INTEGER PRIMARY KEY, Name TEXT NOT NULL);
CREATE TABLE Tag (TagId INTEGER PRIMARY KEY, Name TEXT NOT NULL);
CREATE TABLE WatchPartner (WatchPartnerId INTEGER PRIMARY KEY, Name TEXT NOT NULL);
CREATE TABLE Series (SeriesId INTEGER PRIMARY KEY, Name TEXT NOT NULL, Notes TEXT);
CREATE TABLE Anime (
	AnimeId INTEGER PRIMARY KEY,
	Title TEXT NOT NULL,
	Notes TEXT,
	Review TEXT,
	YuriRatingId INTEGER,
	ReleaseDate TEXT,
	LastSeason INTEGER NOT NULL,
	LastEpisode INTEGER NOT NULL,
	SourceId INTEGER NOT NULL,
	Priority INTEGER,
	SeriesId INTEGER
);
CREATE TABLE AnimeTag (AnimeId INTEGER NOT NULL, TagId INTEGER NOT NULL);
CREATE TABLE AnimeExtra (AnimeExtraId INTEGER PRIMARY KEY, AnimeId INTEGER NOT NULL, Description TEXT);
CREATE TABLE Watchthrough (
	WatchthroughId INTEGER PRIMARY KEY,
	WatchPartnerId INTEGER NOT NULL,
	AnimeId INTEGER NOT NULL,
	Episode INTEGER NOT NULL,
	Season INTEGER NOT NULL,
	IsActive INTEGER NOT NULL,
	ForceComplete INTEGER NOT NULL
);
CREATE TABLE WatchthroughAnimeExtra (WatchthroughId INTEGER NOT NULL, AnimeExtraId INTEGER NOT NULL);
`

const legacyRows = `
INSERT INTO Source VALUES (1, 'Manga'), (4, 'Original');
INSERT INTO Tag VALUES (2, 'Romance'), (5, 'Comedy');
INSERT INTO WatchPartner VALUES (1, 'Me'), (2, 'Friend');
INSERT INTO Series VALUES (3, 'Kaguya-sama', NULL);
INSERT INTO Anime VALUES
	(10, 'Kaguya-sama: Love is War', 'watch dub', NULL, 4, '2019-01-12', 3, 13, 1, 2, 3),
	(11, 'The Tatami Galaxy', NULL, 'great', NULL, '2010-04-22', 1, 11, 4, NULL, NULL);
INSERT INTO AnimeTag VALUES (10, 2), (10, 5), (11, 5);
INSERT INTO AnimeExtra VALUES (20, 10, 'First Kiss Never Ends');
INSERT INTO Watchthrough VALUES
	(30, 2, 10, 13, 3, 1, 0),
	(31, 1, 11, 4, 1, 0, 0);
INSERT INTO WatchthroughAnimeExtra VALUES (30, 20);
`

func writeLegacyDB(t *testing.T, statements ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "anime.db")
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		t.Fatalf("creating legacy database: %v", err)
	}
	defer db.Close()

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seeding legacy database: %v", err)
		}
	}
	return path
}

func setupImporter(t *testing.T) (*Importer, *models.Database, *logrus.Logger) {
	t.Helper()

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewImporter(db, logger), db, logger
}

func TestImportPreservesRowsAndIDs(t *testing.T) {
	path := writeLegacyDB(t, legacySchema, legacyRows)
	importer, db, logger := setupImporter(t)
	ctx := context.Background()

	result, err := importer.Import(ctx, path)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	want := Result{Sources: 2, Tags: 2, WatchPartners: 2, Series: 1, Titles: 2, TitleTags: 3, Extras: 1, Watchthroughs: 2, ExtraCompletions: 1}
	if *result != want {
		t.Errorf("Import() = %+v, want %+v", *result, want)
	}

	kaguya, err := db.GetTitleByID(10)
	if err != nil {
		t.Fatalf("GetTitleByID(10) error = %v", err)
	}
	if kaguya.SeriesID != 3 || kaguya.FinalSeason != 3 || kaguya.FinalEpisode != 13 || kaguya.Notes != "watch dub" {
		t.Errorf("imported title = %+v", kaguya)
	}
	if kaguya.Rating == nil || *kaguya.Rating != 4 {
		t.Errorf("imported rating = %v, want 4", kaguya.Rating)
	}

	resolver := completion.NewResolver(completion.DefaultPrimaryPartnerID)
	completionCtrl := controllers.NewCompletionController(db, resolver, logger)
	tiers := map[uint64]completion.Tier{10: completion.TierComplete, 11: completion.TierStarted}
	for id, want := range tiers {
		got, err := completionCtrl.ResolveTier(ctx, id)
		if err != nil {
			t.Fatalf("ResolveTier(%d) error = %v", id, err)
		}
		if got != want {
			t.Errorf("ResolveTier(%d) = %v, want %v", id, got, want)
		}
	}

	// New rows continue after the imported ids
	titleCtrl := controllers.NewTitleController(db, logger)
	id, err := titleCtrl.Save(ctx, controllers.SaveTitleRequest{Title: "Oshi no Ko", Source: 1})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if id != 12 {
		t.Errorf("new title id = %d, want 12", id)
	}
}

func TestImportRefusesNonEmptyStore(t *testing.T) {
	path := writeLegacyDB(t, legacySchema, legacyRows)
	importer, _, _ := setupImporter(t)
	ctx := context.Background()

	if _, err := importer.Import(ctx, path); err != nil {
		t.Fatalf("first Import() error = %v", err)
	}
	if _, err := importer.Import(ctx, path); !errors.Is(err, models.ErrStoreNotEmpty) {
		t.Errorf("second Import() error = %v, want ErrStoreNotEmpty", err)
	}
}

func TestImportRejectsInvalidRows(t *testing.T) {
	base := `
INSERT INTO Source VALUES (1, 'Manga');
INSERT INTO WatchPartner VALUES (1, 'Me');
INSERT INTO Anime VALUES (1, 'A', NULL, NULL, NULL, NULL, 1, 12, 1, 0, NULL), (2, 'B', NULL, NULL, NULL, NULL, 1, 12, 1, 0, NULL);
INSERT INTO AnimeExtra VALUES (5, 2, 'OVA');
`
	tests := []struct {
		name    string
		rows    string
		wantErr error
	}{
		{"position overflow", `INSERT INTO Watchthrough VALUES (1, 1, 1, 1000, 1, 1, 0);`, models.ErrInvalidPosition},
		{"negative final season", `INSERT INTO Anime VALUES (3, 'C', NULL, NULL, NULL, NULL, -1, 1, 1, 0, NULL);`, models.ErrInvalidPosition},
		{"unknown partner", `INSERT INTO Watchthrough VALUES (1, 9, 1, 1, 1, 1, 0);`, models.ErrInvalidInput},
		{"unknown source", `INSERT INTO Anime VALUES (3, 'C', NULL, NULL, NULL, NULL, 1, 1, 7, 0, NULL);`, models.ErrInvalidInput},
		{"dangling tag", `INSERT INTO AnimeTag VALUES (1, 42);`, models.ErrInvalidInput},
		{"extra of another title", `
INSERT INTO Watchthrough VALUES (1, 1, 1, 1, 1, 1, 0);
INSERT INTO WatchthroughAnimeExtra VALUES (1, 5);`, models.ErrInvalidExtra},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeLegacyDB(t, legacySchema, base, tt.rows)
			importer, db, _ := setupImporter(t)

			_, err := importer.Import(context.Background(), path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Import() error = %v, want %v", err, tt.wantErr)
			}

			titles, err := db.GetAllTitles()
			if err != nil {
				t.Fatalf("GetAllTitles() error = %v", err)
			}
			if len(titles) != 0 {
				t.Errorf("failed import left %d titles", len(titles))
			}
		})
	}
}

func TestImportMissingTable(t *testing.T) {
	path := writeLegacyDB(t, `CREATE TABLE Source (SourceId INTEGER PRIMARY KEY, Name TEXT NOT NULL);`)
	importer, _, _ := setupImporter(t)

	if _, err := importer.Import(context.Background(), path); err == nil {
		t.Fatal("Import() error = nil, want error for missing tables")
	}
}
