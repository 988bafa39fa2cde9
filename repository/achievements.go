package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnstack/model"
	"learnstack/utils"
)

func GetAchievementRepo(db *mongo.Database) *AchievementRepo {
	return &AchievementRepo{
		MongoCollection: db.Collection(AchievementsCollection),
	}
}

type AchievementRepo struct {
	MongoCollection *mongo.Collection
}

func (r *AchievementRepo) ActiveTemplates(ctx context.Context) ([]model.AchievementTemplate, error) {
	return r.find(ctx, bson.D{{Key: "isActive", Value: true}})
}

func (r *AchievementRepo) find(ctx context.Context, filter bson.D) ([]model.AchievementTemplate, error) {
	timer := utils.TrackDBOperation("find", AchievementsCollection)
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "points", Value: 1}})
	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.TrackError("db")
		return nil, fmt.Errorf("find achievement templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []model.AchievementTemplate
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("decode achievement templates: %w", err)
	}
	return templates, nil
}

func (r *AchievementRepo) UpsertTemplate(ctx context.Context, t *model.AchievementTemplate) error {
	timer := utils.TrackDBOperation("upsert", AchievementsCollection)
	defer timer.ObserveDuration()

	t.UpdatedAt = time.Now().UTC()
	_, err := r.MongoCollection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: t.ID}}, t, options.Replace().SetUpsert(true))
	if err != nil {
		utils.TrackError("db")
		return fmt.Errorf("upsert achievement %s: %w", t.ID, err)
	}
	return nil
}
