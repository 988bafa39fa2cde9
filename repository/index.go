package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SetupIndexes creates the indexes every collection relies on. Existing
// indexes with the same definition are left alone.
func SetupIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{
				Keys: bson.D{{Key: "username", Value: 1}},
				Options: options.Index().
					SetName("username_unique").
					SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "email", Value: 1}},
				Options: options.Index().
					SetName("email_unique").
					SetUnique(true),
			},
			// Leaderboard generation
			{
				Keys: bson.D{
					{Key: "preferences.privacy.showOnLeaderboard", Value: 1},
					{Key: "stats.rank.points", Value: -1},
				},
				Options: options.Index().
					SetName("leaderboard_points"),
			},
		},
		TopicsCollection: {
			{
				Keys: bson.D{
					{Key: "isActive", Value: 1},
					{Key: "order", Value: 1},
				},
				Options: options.Index().
					SetName("active_topics_order"),
			},
			{
				Keys: bson.D{{Key: "subject", Value: 1}},
				Options: options.Index().
					SetName("topic_subject"),
			},
		},
		AchievementsCollection: {
			{
				Keys: bson.D{{Key: "isActive", Value: 1}},
				Options: options.Index().
					SetName("active_templates"),
			},
		},
		DailyProblemCollection: {
			{
				Keys: bson.D{
					{Key: "subject", Value: 1},
					{Key: "isActive", Value: 1},
					{Key: "createdAt", Value: -1},
				},
				Options: options.Index().
					SetName("subject_active_problem"),
			},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", collection, err)
		}
	}
	return nil
}
