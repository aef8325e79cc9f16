package controllers

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/amaumene/animetrack/internal/completion"
	"github.com/amaumene/animetrack/internal/models"
	"github.com/sirupsen/logrus"
)

type testEnv struct {
	db           *models.Database
	titles       *TitleController
	catalog      *CatalogController
	watchthrough *WatchthroughController
	completion   *CompletionController
	ctx          context.Context

	sourceID  uint64
	primaryID uint64
	partnerID uint64
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "controllers.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnv{
		db:           db,
		titles:       NewTitleController(db, logger),
		catalog:      NewCatalogController(db, logger),
		watchthrough: NewWatchthroughController(db, logger),
		completion:   NewCompletionController(db, completion.NewResolver(completion.DefaultPrimaryPartnerID), logger),
		ctx:          context.Background(),
	}

	env.sourceID = env.mustSaveSource(t, "Manga")
	env.primaryID = env.mustSavePartner(t, "Me")
	env.partnerID = env.mustSavePartner(t, "Friend")

	return env
}

func (e *testEnv) mustSaveSource(t *testing.T, name string) uint64 {
	t.Helper()
	id, err := e.catalog.SaveSource(e.ctx, SaveNamedRequest{Name: name})
	if err != nil {
		t.Fatalf("SaveSource(%q) error = %v", name, err)
	}
	return id
}

func (e *testEnv) mustSavePartner(t *testing.T, name string) uint64 {
	t.Helper()
	id, err := e.catalog.SaveWatchPartner(e.ctx, SaveNamedRequest{Name: name})
	if err != nil {
		t.Fatalf("SaveWatchPartner(%q) error = %v", name, err)
	}
	return id
}

func (e *testEnv) mustSaveTag(t *testing.T, name string) uint64 {
	t.Helper()
	id, err := e.catalog.SaveTag(e.ctx, SaveNamedRequest{Name: name})
	if err != nil {
		t.Fatalf("SaveTag(%q) error = %v", name, err)
	}
	return id
}

func (e *testEnv) mustSaveTitle(t *testing.T, req SaveTitleRequest) uint64 {
	t.Helper()
	if req.Source == 0 {
		req.Source = e.sourceID
	}
	id, err := e.titles.Save(e.ctx, req)
	if err != nil {
		t.Fatalf("Save(%q) error = %v", req.Title, err)
	}
	return id
}

func (e *testEnv) mustGetOrCreate(t *testing.T, titleID, partnerID uint64) []WatchthroughView {
	t.Helper()
	views, err := e.watchthrough.GetOrCreate(e.ctx, titleID, partnerID)
	if err != nil {
		t.Fatalf("GetOrCreate(%d, %d) error = %v", titleID, partnerID, err)
	}
	return views
}

func (e *testEnv) mustUpdate(t *testing.T, req UpdateWatchthroughRequest) {
	t.Helper()
	if err := e.watchthrough.Update(e.ctx, req); err != nil {
		t.Fatalf("Update(%+v) error = %v", req, err)
	}
}

func (e *testEnv) mustResolve(t *testing.T, titleID uint64) completion.Tier {
	t.Helper()
	tier, err := e.completion.ResolveTier(e.ctx, titleID)
	if err != nil {
		t.Fatalf("ResolveTier(%d) error = %v", titleID, err)
	}
	return tier
}

func (e *testEnv) extras(t *testing.T, titleID uint64) []*models.Extra {
	t.Helper()
	extras, err := e.catalog.TitleExtras(e.ctx, titleID)
	if err != nil {
		t.Fatalf("TitleExtras(%d) error = %v", titleID, err)
	}
	return extras
}
