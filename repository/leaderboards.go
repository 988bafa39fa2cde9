package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnstack/model"
	"learnstack/utils"
)

func GetLeaderboardRepo(db *mongo.Database) *LeaderboardRepo {
	return &LeaderboardRepo{
		MongoCollection: db.Collection(LeaderboardsCollection),
	}
}

type LeaderboardRepo struct {
	MongoCollection *mongo.Collection
}

// GetLeaderboard returns nil, nil when the board has never been generated.
func (r *LeaderboardRepo) GetLeaderboard(ctx context.Context, typ model.LeaderboardType) (*model.Leaderboard, error) {
	timer := utils.TrackDBOperation("find", LeaderboardsCollection)
	defer timer.ObserveDuration()

	var lb model.Leaderboard
	err := r.MongoCollection.FindOne(ctx, bson.D{{Key: "_id", Value: typ}}).Decode(&lb)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		utils.TrackError("db")
		return nil, fmt.Errorf("find leaderboard %s: %w", typ, err)
	}
	return &lb, nil
}

// ReplaceLeaderboard overwrites the board unconditionally. Used for
// wholesale regeneration.
func (r *LeaderboardRepo) ReplaceLeaderboard(ctx context.Context, lb *model.Leaderboard) error {
	timer := utils.TrackDBOperation("upsert", LeaderboardsCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: lb.Type}}, lb, options.Replace().SetUpsert(true))
	if err != nil {
		utils.TrackError("db")
		return fmt.Errorf("replace leaderboard %s: %w", lb.Type, err)
	}
	return nil
}

// SaveLeaderboard writes the board only if its stored version still equals
// expectedVersion. Version zero means the board must not exist yet.
func (r *LeaderboardRepo) SaveLeaderboard(ctx context.Context, lb *model.Leaderboard, expectedVersion int64) error {
	timer := utils.TrackDBOperation("replace", LeaderboardsCollection)
	defer timer.ObserveDuration()

	if expectedVersion == 0 {
		if _, err := r.MongoCollection.InsertOne(ctx, lb); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrVersionConflict
			}
			utils.TrackError("db")
			return fmt.Errorf("insert leaderboard %s: %w", lb.Type, err)
		}
		return nil
	}

	filter := bson.D{{Key: "_id", Value: lb.Type}, {Key: "version", Value: expectedVersion}}
	result, err := r.MongoCollection.ReplaceOne(ctx, filter, lb)
	if err != nil {
		utils.TrackError("db")
		return fmt.Errorf("save leaderboard %s: %w", lb.Type, err)
	}
	if result.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}
