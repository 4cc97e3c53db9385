//go:build integration

package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/livevlm/vlm-relay/internal/domain"
)

func tempSqliteDb(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	// a single connection keeps all queries on the same in-memory database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db
}

func tempRepo(t *testing.T) *SqlRepo {
	repo, err := NewSqlRepository(tempSqliteDb(t))
	require.NoError(t, err)
	return repo
}

func testEvent(id string, stream string, kind domain.EventKind) *domain.AnalysisEvent {
	return &domain.AnalysisEvent{
		Id:         domain.EventIdentifier(id),
		Stream:     domain.StreamIdentifier(stream),
		Kind:       kind,
		Prompt:     "Is there a person in the frame?",
		Reply:      "Yes, one person near the entrance.",
		ReceivedAt: time.Now().UTC(),
	}
}

func Test_SqlRepo_migrate(t *testing.T) {
	repo := tempRepo(t)

	var stat SysStat
	err := repo.db.First(&stat).Error
	assert.NoError(t, err)
	assert.Equal(t, SchemaVersion, stat.SchemaVersion)
}

func Test_SqlRepo_SaveAndGetEvent(t *testing.T) {
	repo := tempRepo(t)
	ctx := context.Background()

	event := testEvent("evt-1", "cam-entrance", domain.EventKindSingle)
	event.Metrics.InferenceFps = 3.5
	require.NoError(t, repo.SaveEvent(ctx, event))
	assert.NotZero(t, event.UniqueId)

	loaded, err := repo.GetEvent(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StreamIdentifier("cam-entrance"), loaded.Stream)
	assert.Equal(t, domain.EventKindSingle, loaded.Kind)
	assert.Equal(t, 3.5, loaded.Metrics.InferenceFps)

	_, err = repo.GetEvent(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func Test_SqlRepo_GetRecentEvents(t *testing.T) {
	repo := tempRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveEvent(ctx, testEvent("evt-1", "cam-a", domain.EventKindSingle)))
	require.NoError(t, repo.SaveEvent(ctx, testEvent("evt-2", "cam-b", domain.EventKindSingle)))
	require.NoError(t, repo.SaveEvent(ctx, testEvent("evt-3", "cam-a", domain.EventKindMulti)))

	events, err := repo.GetRecentEvents(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventIdentifier("evt-3"), events[0].Id, "events should be returned newest first")

	events, err = repo.GetRecentEvents(ctx, "cam-a", 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = repo.GetRecentEvents(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventIdentifier("evt-3"), events[0].Id)

	counts, err := repo.GetEventCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["cam-a"])
	assert.Equal(t, int64(1), counts["cam-b"])
}

func Test_SqlRepo_PruneEvents(t *testing.T) {
	repo := tempRepo(t)
	ctx := context.Background()

	for _, id := range []string{"evt-1", "evt-2", "evt-3", "evt-4", "evt-5"} {
		require.NoError(t, repo.SaveEvent(ctx, testEvent(id, "cam-a", domain.EventKindSingle)))
	}

	pruned, err := repo.PruneEvents(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, pruned, "pruning should be disabled for keep=0")

	pruned, err = repo.PruneEvents(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pruned)

	events, err := repo.GetRecentEvents(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventIdentifier("evt-5"), events[0].Id)
	assert.Equal(t, domain.EventIdentifier("evt-4"), events[1].Id)
}

func Test_SqlRepo_Deliveries(t *testing.T) {
	repo := tempRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	due := now.Add(-1 * time.Minute)
	later := now.Add(1 * time.Hour)
	deliveries := []*domain.Delivery{
		{
			EventId: "evt-1", Stream: "cam-a", Kind: domain.EventKindSingle,
			Url: "https://receiver/hook", Status: domain.DeliveryStatusRetrying,
			Attempts: 1, MaxAttempts: 3, NextAttemptAt: &due,
		},
		{
			EventId: "evt-2", Stream: "cam-a", Kind: domain.EventKindSingle,
			Url: "https://receiver/hook", Status: domain.DeliveryStatusRetrying,
			Attempts: 1, MaxAttempts: 3, NextAttemptAt: &later,
		},
		{
			EventId: "evt-3", Stream: "cam-b", Kind: domain.EventKindMulti,
			Url: "https://receiver/hook", Status: domain.DeliveryStatusDelivered,
			Attempts: 1, MaxAttempts: 3, ResponseStatus: 200,
		},
	}
	for _, delivery := range deliveries {
		require.NoError(t, repo.SaveDelivery(ctx, delivery))
		assert.NotZero(t, delivery.UniqueId)
	}

	dueDeliveries, err := repo.GetDueDeliveries(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, dueDeliveries, 1)
	assert.Equal(t, domain.EventIdentifier("evt-1"), dueDeliveries[0].EventId)

	// finish the due delivery and save the updated record
	dueDeliveries[0].RecordSuccess(204)
	require.NoError(t, repo.SaveDelivery(ctx, &dueDeliveries[0]))

	updated, err := repo.GetDelivery(ctx, dueDeliveries[0].UniqueId)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusDelivered, updated.Status)
	assert.Equal(t, 204, updated.ResponseStatus)

	byStream, err := repo.GetDeliveries(ctx, "cam-a", "", 0)
	require.NoError(t, err)
	assert.Len(t, byStream, 2)

	byStatus, err := repo.GetDeliveries(ctx, "", domain.DeliveryStatusRetrying, 0)
	require.NoError(t, err)
	assert.Len(t, byStatus, 1)

	counts, err := repo.GetDeliveryCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[domain.DeliveryStatusDelivered])
	assert.Equal(t, int64(1), counts[domain.DeliveryStatusRetrying])

	_, err = repo.GetDelivery(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func Test_SqlRepo_Ping(t *testing.T) {
	repo := tempRepo(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
