package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/franciscosanchezn/partstock/internal/olx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingCleaner struct {
	mu     sync.Mutex
	paths  []string
	failed int
}

func (c *recordingCleaner) Cleanup(_ context.Context, paths []string) (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, paths...)
	return len(paths) - c.failed, c.failed
}

type panickingCleaner struct{}

func (panickingCleaner) Cleanup(context.Context, []string) (int, int) {
	panic("disk gone")
}

type panickingBuilder struct {
	PayloadSource
	panicFor uint
}

func (b panickingBuilder) Build(ctx context.Context, unit *models.Unit, product *models.Product) (*olx.AdvertPayload, error) {
	if unit.ID == b.panicFor {
		panic("corrupt unit")
	}
	return b.PayloadSource.Build(ctx, unit, product)
}

func newPublishFixture(t *testing.T, tokens UserTokenSource) (*gorm.DB, *fakeMarketplace, PublishService, *recordingCleaner) {
	t.Helper()
	db := setupTestDB(t)
	market := newFakeMarketplace(t)
	catalog := NewCatalogService(db)
	cleaner := &recordingCleaner{}
	svc := NewPublishService(db, catalog, tokens, market.client(), testPayloadBuilder(catalog), cleaner)
	return db, market, svc, cleaner
}

func seedDrafts(t *testing.T, db *gorm.DB, titles ...string) []models.OLXDraftAdvert {
	t.Helper()
	drafts := make([]models.OLXDraftAdvert, 0, len(titles))
	for i, title := range titles {
		unit := seedUnit(t, db, unitSeed{
			ProductSKU: "P" + string(rune('A'+i)),
			Title:      title,
			UnitSKU:    "U" + string(rune('A'+i)),
		})
		draft := models.OLXDraftAdvert{UnitID: unit.ID}
		require.NoError(t, db.Create(&draft).Error)
		drafts = append(drafts, draft)
	}
	return drafts
}

func TestProcessAllDraftsRequiresAuthorization(t *testing.T) {
	db, market, svc, _ := newPublishFixture(t, &stubTokens{})
	drafts := seedDrafts(t, db, "Motor")

	summary, err := svc.ProcessAllDrafts(context.Background())
	assert.ErrorIs(t, err, olx.ErrAuthRequired)
	assert.Nil(t, summary)
	assert.Empty(t, market.created)

	var draft models.OLXDraftAdvert
	require.NoError(t, db.First(&draft, drafts[0].ID).Error)
	assert.Nil(t, draft.Error)
}

func TestProcessAllDraftsTokenTransportError(t *testing.T) {
	_, _, svc, _ := newPublishFixture(t, &stubTokens{err: errors.New("token endpoint down")})

	_, err := svc.ProcessAllDrafts(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, olx.ErrAuthRequired)
}

func TestProcessAllDraftsIsolatesFailures(t *testing.T) {
	db, market, svc, _ := newPublishFixture(t, authorized())
	drafts := seedDrafts(t, db, "Motor", "Caixa", "Alternador")
	market.createFn = func(payload olx.AdvertPayload) (int, any) {
		switch payload.Title {
		case "Caixa":
			return http.StatusInternalServerError, map[string]any{"error": "boom"}
		case "Motor":
			return http.StatusOK, map[string]any{"id": 501, "status": "active"}
		default:
			return http.StatusOK, map[string]any{"data": map[string]any{"id": "503"}}
		}
	}

	summary, err := svc.ProcessAllDrafts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Results, 3)

	assert.True(t, summary.Results[0].Success)
	assert.Equal(t, "501", summary.Results[0].OLXAdvertID)
	assert.False(t, summary.Results[1].Success)
	assert.Contains(t, summary.Results[1].Error, "500")
	assert.True(t, summary.Results[2].Success)
	assert.Equal(t, "503", summary.Results[2].OLXAdvertID)

	var remaining []models.OLXDraftAdvert
	require.NoError(t, db.Order("id").Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, drafts[1].ID, remaining[0].ID)
	require.NotNil(t, remaining[0].Error)
	assert.Contains(t, *remaining[0].Error, "500")

	var adverts []models.OLXAdvert
	require.NoError(t, db.Order("id").Find(&adverts).Error)
	require.Len(t, adverts, 2)
	assert.Equal(t, drafts[0].UnitID, adverts[0].UnitID)
	assert.Equal(t, "501", adverts[0].OLXAdvertID)
	assert.Equal(t, models.AdvertStatusActive, adverts[0].Status)
	assert.Equal(t, drafts[2].UnitID, adverts[1].UnitID)
	// no recognised status in the response
	assert.Equal(t, models.AdvertStatusLimited, adverts[1].Status)
}

func TestProcessAllDraftsMissingIDKeepsDraft(t *testing.T) {
	db, market, svc, _ := newPublishFixture(t, authorized())
	seedDrafts(t, db, "Motor")
	market.createFn = func(olx.AdvertPayload) (int, any) {
		return http.StatusOK, map[string]any{"data": map[string]any{"status": "active"}}
	}

	summary, err := svc.ProcessAllDrafts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Results[0].Error, "missing advert id")

	var count int64
	require.NoError(t, db.Model(&models.OLXAdvert{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProcessAllDraftsRecordsMissingUnit(t *testing.T) {
	db, market, svc, _ := newPublishFixture(t, authorized())
	seedDrafts(t, db, "Motor")
	orphan := models.OLXDraftAdvert{UnitID: 9999}
	require.NoError(t, db.Exec("PRAGMA foreign_keys = OFF").Error)
	require.NoError(t, db.Create(&orphan).Error)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)

	summary, err := svc.ProcessAllDrafts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Results[1].Error, "unit 9999 not found")
	assert.Len(t, market.created, 1)
}

func TestProcessAllDraftsRecoversFromPanic(t *testing.T) {
	db := setupTestDB(t)
	market := newFakeMarketplace(t)
	catalog := NewCatalogService(db)
	drafts := seedDrafts(t, db, "Motor", "Caixa")
	builder := panickingBuilder{PayloadSource: testPayloadBuilder(catalog), panicFor: drafts[0].UnitID}
	svc := NewPublishService(db, catalog, authorized(), market.client(), builder, nil)

	summary, err := svc.ProcessAllDrafts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Results[0].Error, "corrupt unit")

	var draft models.OLXDraftAdvert
	require.NoError(t, db.First(&draft, drafts[0].ID).Error)
	require.NotNil(t, draft.Error)
}

func TestProcessAllDraftsCleanupPanicKeepsSuccess(t *testing.T) {
	db := setupTestDB(t)
	market := newFakeMarketplace(t)
	catalog := NewCatalogService(db)
	drafts := seedDrafts(t, db, "Motor")
	require.NoError(t, db.Create(&models.UnitPhoto{UnitID: drafts[0].UnitID, Filename: "UA_PA_1.jpg"}).Error)
	svc := NewPublishService(db, catalog, authorized(), market.client(), testPayloadBuilder(catalog), panickingCleaner{})

	summary, err := svc.ProcessAllDrafts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, summary.Results, 1)
	assert.True(t, summary.Results[0].Success)
	assert.NotEmpty(t, summary.Results[0].OLXAdvertID)
	assert.Empty(t, summary.Results[0].Error)

	var adverts int64
	require.NoError(t, db.Model(&models.OLXAdvert{}).Count(&adverts).Error)
	assert.Equal(t, int64(1), adverts)
	var remaining int64
	require.NoError(t, db.Model(&models.OLXDraftAdvert{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestProcessAllDraftsCleansStagedPhotos(t *testing.T) {
	db, market, svc, cleaner := newPublishFixture(t, authorized())
	drafts := seedDrafts(t, db, "Motor")
	require.NoError(t, db.Create(&models.UnitPhoto{UnitID: drafts[0].UnitID, Filename: "UA_PA_1.jpg"}).Error)
	require.NoError(t, db.Create(&models.UnitPhoto{UnitID: drafts[0].UnitID, Filename: "UA_PA_2.jpg"}).Error)
	cleaner.failed = 1

	summary, err := svc.ProcessAllDrafts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Successful)
	assert.ElementsMatch(t, []string{"KF/PA/UA_PA_1.jpg", "KF/PA/UA_PA_2.jpg"}, cleaner.paths)

	require.Len(t, market.created, 1)
	assert.Equal(t, []olx.AdvertImage{
		{URL: "https://photos.example.com/KF/PA/UA_PA_1.jpg"},
		{URL: "https://photos.example.com/KF/PA/UA_PA_2.jpg"},
	}, market.created[0].Images)
	assert.Equal(t, int64(123), market.created[0].Price.Value)
}

func TestProcessAllDraftsDuplicateRemoteIDFailsDraft(t *testing.T) {
	db, market, svc, _ := newPublishFixture(t, authorized())
	drafts := seedDrafts(t, db, "Motor", "Caixa")
	market.createFn = func(olx.AdvertPayload) (int, any) {
		return http.StatusOK, map[string]any{"id": "777", "status": "active"}
	}

	summary, err := svc.ProcessAllDrafts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, 1, summary.Failed)

	// the failed transaction left the second draft in place
	var draft models.OLXDraftAdvert
	require.NoError(t, db.First(&draft, drafts[1].ID).Error)
	require.NotNil(t, draft.Error)
}
