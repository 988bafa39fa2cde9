package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnstack/model"
	"learnstack/test/testutils"
	"learnstack/usecase"
)

func newAdmin(f *fixture) *usecase.AdminService {
	return usecase.NewAdminService(f.engine, f.catalog, f.users, 2)
}

func TestAdminGlobalTopicLock(t *testing.T) {
	f := newFixture(t, testutils.Topics())
	f.register(t, "u1")
	admin := newAdmin(f)
	ctx := context.Background()

	res, err := admin.SetLock(ctx, usecase.LockRequest{Scope: usecase.ScopeTopic, TopicID: testutils.TopicT1, Global: true, Locked: true})
	require.NoError(t, err)
	assert.Equal(t, []string{testutils.TopicT1}, res.Topics)
	assert.Equal(t, 1, f.catalog.Invalidations)

	access, err := f.engine.CheckAccess(ctx, "u1", testutils.TopicT1, "")
	require.NoError(t, err)
	assert.False(t, access.HasAccess)
	assert.Equal(t, usecase.ReasonGlobal, access.Reason)

	_, err = admin.SetLock(ctx, usecase.LockRequest{Scope: usecase.ScopeTopic, TopicID: testutils.TopicT1, Global: true})
	require.NoError(t, err)
	access, err = f.engine.CheckAccess(ctx, "u1", testutils.TopicT1, "")
	require.NoError(t, err)
	assert.True(t, access.HasAccess)
}

func TestAdminGlobalAlgorithmAndSubjectLocks(t *testing.T) {
	f := newFixture(t, testutils.Topics())
	f.register(t, "u1")
	admin := newAdmin(f)
	ctx := context.Background()

	_, err := admin.SetLock(ctx, usecase.LockRequest{
		Scope: usecase.ScopeAlgorithm, TopicID: testutils.TopicT1, AlgorithmID: "a2", Global: true, Locked: true,
	})
	require.NoError(t, err)
	access, err := f.engine.CheckAccess(ctx, "u1", testutils.TopicT1, "a2")
	require.NoError(t, err)
	assert.False(t, access.HasAccess)

	res, err := admin.SetLock(ctx, usecase.LockRequest{
		Scope: usecase.ScopeSubject, Subject: testutils.SubjectAlgorithms, Global: true, Locked: true,
	})
	require.NoError(t, err)
	assert.Len(t, res.Topics, 2)
	ok, err := f.engine.CheckSubjectAccess(ctx, "u1", testutils.SubjectAlgorithms)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminPerUserUnlockOverridesPrerequisites(t *testing.T) {
	f := newFixture(t, testutils.Topics())
	f.register(t, "u1")
	f.register(t, "u2")
	admin := newAdmin(f)
	ctx := context.Background()

	res, err := admin.SetLock(ctx, usecase.LockRequest{Scope: usecase.ScopeTopic, TopicID: testutils.TopicT2, UserIDs: []string{"u1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, res.Updated)

	access, err := f.engine.CheckAccess(ctx, "u1", testutils.TopicT2, "b1")
	require.NoError(t, err)
	assert.True(t, access.HasAccess)

	access, err = f.engine.CheckAccess(ctx, "u2", testutils.TopicT2, "")
	require.NoError(t, err)
	assert.False(t, access.HasAccess, "other users are untouched")

	_, err = admin.SetLock(ctx, usecase.LockRequest{Scope: usecase.ScopeTopic, TopicID: testutils.TopicT2, UserIDs: []string{"u1"}, Locked: true})
	require.NoError(t, err)
	u, err := f.engine.Snapshot(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, u.Progress[testutils.TopicT2].AdminUnlocked)
	assert.Equal(t, model.TopicLocked, u.Progress[testutils.TopicT2].Status)
}

func TestAdminUserScopeAllUsers(t *testing.T) {
	f := newFixture(t, testutils.Topics())
	f.register(t, "u1")
	f.register(t, "u2")
	admin := newAdmin(f)
	ctx := context.Background()

	res, err := admin.SetLock(ctx, usecase.LockRequest{Scope: usecase.ScopeUser, AllUsers: true, Locked: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, res.Updated)
	assert.Empty(t, res.Failed)

	for _, id := range []string{"u1", "u2"} {
		access, err := f.engine.CheckAccess(ctx, id, testutils.TopicT1, "")
		require.NoError(t, err)
		assert.False(t, access.HasAccess)
		assert.Equal(t, usecase.ReasonUser, access.Reason)
	}
}

func TestAdminBatchReportsFailures(t *testing.T) {
	f := newFixture(t, testutils.Topics())
	f.register(t, "u1")
	admin := newAdmin(f)
	ctx := context.Background()

	res, err := admin.SetLock(ctx, usecase.LockRequest{Scope: usecase.ScopeTopic, TopicID: testutils.TopicT1, UserIDs: []string{"u1", "ghost"}, Locked: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, res.Updated)
	assert.Contains(t, res.Failed, "ghost")

	_, err = admin.SetLock(ctx, usecase.LockRequest{Scope: usecase.ScopeTopic, TopicID: testutils.TopicT1, UserIDs: []string{"ghost"}})
	assert.True(t, usecase.IsKind(err, usecase.KindNotFound))
}

func TestAdminLockValidation(t *testing.T) {
	f := newFixture(t, testutils.Topics())
	admin := newAdmin(f)

	tests := []struct {
		name string
		req  usecase.LockRequest
		kind usecase.Kind
	}{
		{"no audience", usecase.LockRequest{Scope: usecase.ScopeTopic, TopicID: testutils.TopicT1}, usecase.KindValidation},
		{"two audiences", usecase.LockRequest{Scope: usecase.ScopeTopic, TopicID: testutils.TopicT1, Global: true, AllUsers: true}, usecase.KindValidation},
		{"topic missing id", usecase.LockRequest{Scope: usecase.ScopeTopic, Global: true}, usecase.KindValidation},
		{"algorithm missing id", usecase.LockRequest{Scope: usecase.ScopeAlgorithm, TopicID: testutils.TopicT1, Global: true}, usecase.KindValidation},
		{"subject missing name", usecase.LockRequest{Scope: usecase.ScopeSubject, Global: true}, usecase.KindValidation},
		{"user scope global", usecase.LockRequest{Scope: usecase.ScopeUser, Global: true}, usecase.KindValidation},
		{"unknown topic", usecase.LockRequest{Scope: usecase.ScopeTopic, TopicID: "graphs", Global: true}, usecase.KindNotFound},
		{"unknown algorithm", usecase.LockRequest{Scope: usecase.ScopeAlgorithm, TopicID: testutils.TopicT1, AlgorithmID: "zz", Global: true}, usecase.KindNotFound},
		{"unknown subject", usecase.LockRequest{Scope: usecase.ScopeSubject, Subject: "Physics", Global: true}, usecase.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := admin.SetLock(context.Background(), tt.req)
			assert.True(t, usecase.IsKind(err, tt.kind), "got %v", err)
		})
	}
}
