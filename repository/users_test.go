package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"learnstack/model"
)

// newTestDatabase connects to MONGO_TEST_URI and returns a throwaway
// database that is dropped when the test ends.
func newTestDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		t.Skipf("mongo not reachable: %v", err)
	}

	db := client.Database("learnstack_test_" + uuid.NewString()[:8])
	require.NoError(t, SetupIndexes(ctx, db))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func TestUserRepo(t *testing.T) {
	db := newTestDatabase(t)
	repo := GetUserRepo(db)
	ctx := context.Background()

	user := &model.User{
		ID:       uuid.NewString(),
		Username: "ada",
		Email:    "ada@example.com",
		Progress: map[string]*model.TopicProgress{},
		Preferences: model.Preferences{
			Privacy: model.Privacy{ShowOnLeaderboard: true},
		},
		Version: 1,
	}

	t.Run("InsertUser", func(t *testing.T) {
		require.NoError(t, repo.InsertUser(ctx, user))
		dup := *user
		dup.ID = uuid.NewString()
		assert.ErrorIs(t, repo.InsertUser(ctx, &dup), ErrDuplicate)
	})

	t.Run("FindUser", func(t *testing.T) {
		found, err := repo.FindUser(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "ada", found.Username)

		missing, err := repo.FindUser(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("ReplaceUser", func(t *testing.T) {
		user.Stats.Rank.Points = 120
		user.Version = 2
		require.NoError(t, repo.ReplaceUser(ctx, user, 1))

		stale := *user
		stale.Version = 2
		assert.ErrorIs(t, repo.ReplaceUser(ctx, &stale, 1), ErrVersionConflict)
	})

	t.Run("TopUsersByPoints", func(t *testing.T) {
		hidden := &model.User{ID: uuid.NewString(), Username: "hidden", Email: "hidden@example.com", Version: 1}
		hidden.Stats.Rank.Points = 9999
		require.NoError(t, repo.InsertUser(ctx, hidden))

		top, err := repo.TopUsersByPoints(ctx, 10)
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, user.ID, top[0].ID)
		assert.Equal(t, 120, top[0].Stats.Rank.Points)

		ids, err := repo.ListUserIDs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{user.ID, hidden.ID}, ids)
	})
}

func TestTopicRepoLocks(t *testing.T) {
	db := newTestDatabase(t)
	repo := GetTopicRepo(db)
	ctx := context.Background()

	for _, topic := range []model.Topic{
		{ID: "t1", Subject: "Algorithms", Order: 1, IsActive: true, Algorithms: []model.AlgorithmDef{{ID: "a1"}}},
		{ID: "t2", Subject: "Algorithms", Order: 2, IsActive: true, Prerequisites: []string{"t1"}},
		{ID: "old", Subject: "Algorithms", Order: 3},
	} {
		topic := topic
		require.NoError(t, repo.UpsertTopic(ctx, &topic))
	}
	require.NoError(t, repo.UpsertSubject(ctx, &model.Subject{Name: "Algorithms", Order: 1}))

	active, err := repo.ActiveTopics(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "t1", active[0].ID)

	require.NoError(t, repo.SetAlgorithmLock(ctx, "t1", "a1", true))
	assert.ErrorIs(t, repo.SetAlgorithmLock(ctx, "t1", "zz", true), ErrNotFound)
	assert.ErrorIs(t, repo.SetTopicLock(ctx, "missing", true), ErrNotFound)

	n, err := repo.SetSubjectLock(ctx, "Algorithms", true)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	t1, err := repo.FindTopic(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, t1.IsGloballyLocked)
	assert.True(t, t1.Algorithms[0].IsGloballyLocked)

	subjects, err := repo.Subjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
}

func TestLeaderboardRepoVersions(t *testing.T) {
	db := newTestDatabase(t)
	repo := GetLeaderboardRepo(db)
	ctx := context.Background()

	lb := &model.Leaderboard{Type: model.LeaderboardWeekly, Version: 1}
	require.NoError(t, repo.SaveLeaderboard(ctx, lb, 0))
	assert.ErrorIs(t, repo.SaveLeaderboard(ctx, lb, 0), ErrVersionConflict)

	lb.Version = 2
	require.NoError(t, repo.SaveLeaderboard(ctx, lb, 1))
	assert.ErrorIs(t, repo.SaveLeaderboard(ctx, lb, 1), ErrVersionConflict)

	stored, err := repo.GetLeaderboard(ctx, model.LeaderboardWeekly)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(2), stored.Version)

	missing, err := repo.GetLeaderboard(ctx, model.LeaderboardDaily)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
