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

func GetUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{
		MongoCollection: db.Collection(UsersCollection),
	}
}

type UserRepo struct {
	MongoCollection *mongo.Collection
}

// FindUser returns nil, nil when no user has the id.
func (r *UserRepo) FindUser(ctx context.Context, userID string) (*model.User, error) {
	timer := utils.TrackDBOperation("find", UsersCollection)
	defer timer.ObserveDuration()

	var user model.User
	err := r.MongoCollection.FindOne(ctx, bson.D{{Key: "_id", Value: userID}}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		utils.TrackError("db")
		return nil, fmt.Errorf("find user %s: %w", userID, err)
	}
	return &user, nil
}

// InsertUser creates the user document, progress tree included, in a single
// write.
func (r *UserRepo) InsertUser(ctx context.Context, user *model.User) error {
	timer := utils.TrackDBOperation("insert", UsersCollection)
	defer timer.ObserveDuration()

	if _, err := r.MongoCollection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		utils.TrackError("db")
		return fmt.Errorf("insert user %s: %w", user.ID, err)
	}
	return nil
}

// ReplaceUser writes the whole document if its stored version still equals
// expectedVersion. The caller bumps user.Version before calling.
func (r *UserRepo) ReplaceUser(ctx context.Context, user *model.User, expectedVersion int64) error {
	timer := utils.TrackDBOperation("replace", UsersCollection)
	defer timer.ObserveDuration()

	filter := bson.D{
		{Key: "_id", Value: user.ID},
		{Key: "version", Value: expectedVersion},
	}
	result, err := r.MongoCollection.ReplaceOne(ctx, filter, user)
	if err != nil {
		utils.TrackError("db")
		return fmt.Errorf("replace user %s: %w", user.ID, err)
	}
	if result.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

// TopUsersByPoints returns users who opted into leaderboards, highest rank
// points first.
func (r *UserRepo) TopUsersByPoints(ctx context.Context, limit int) ([]model.User, error) {
	timer := utils.TrackDBOperation("find", UsersCollection)
	defer timer.ObserveDuration()

	filter := bson.D{{Key: "preferences.privacy.showOnLeaderboard", Value: true}}
	opts := options.Find().
		SetSort(bson.D{{Key: "stats.rank.points", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.D{
			{Key: "username", Value: 1},
			{Key: "stats", Value: 1},
			{Key: "preferences", Value: 1},
		})

	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.TrackError("db")
		return nil, fmt.Errorf("rank users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode ranked users: %w", err)
	}
	return users, nil
}

// ListUserIDs returns the ids of every user, used by batch admin operations.
func (r *UserRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	timer := utils.TrackDBOperation("find", UsersCollection)
	defer timer.ObserveDuration()

	cursor, err := r.MongoCollection.Find(ctx, bson.D{}, options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		utils.TrackError("db")
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}
