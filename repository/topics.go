package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnstack/model"
	"learnstack/utils"
)

func GetTopicRepo(db *mongo.Database) *TopicRepo {
	return &TopicRepo{
		MongoCollection:   db.Collection(TopicsCollection),
		SubjectCollection: db.Collection(SubjectsCollection),
	}
}

type TopicRepo struct {
	MongoCollection   *mongo.Collection
	SubjectCollection *mongo.Collection
}

// ActiveTopics returns every active topic sorted by order.
func (r *TopicRepo) ActiveTopics(ctx context.Context) ([]model.Topic, error) {
	return r.find(ctx, bson.D{{Key: "isActive", Value: true}})
}

func (r *TopicRepo) TopicsBySubject(ctx context.Context, subject string) ([]model.Topic, error) {
	return r.find(ctx, bson.D{{Key: "subject", Value: subject}})
}

func (r *TopicRepo) find(ctx context.Context, filter bson.D) ([]model.Topic, error) {
	timer := utils.TrackDBOperation("find", TopicsCollection)
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.TrackError("db")
		return nil, fmt.Errorf("find topics: %w", err)
	}
	defer cursor.Close(ctx)

	var topics []model.Topic
	if err := cursor.All(ctx, &topics); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}
	return topics, nil
}

// FindTopic returns nil, nil when the topic does not exist.
func (r *TopicRepo) FindTopic(ctx context.Context, topicID string) (*model.Topic, error) {
	timer := utils.TrackDBOperation("find", TopicsCollection)
	defer timer.ObserveDuration()

	var topic model.Topic
	err := r.MongoCollection.FindOne(ctx, bson.D{{Key: "_id", Value: topicID}}).Decode(&topic)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		utils.TrackError("db")
		return nil, fmt.Errorf("find topic %s: %w", topicID, err)
	}
	return &topic, nil
}

func (r *TopicRepo) SetTopicLock(ctx context.Context, topicID string, locked bool) error {
	timer := utils.TrackDBOperation("update", TopicsCollection)
	defer timer.ObserveDuration()

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "isGloballyLocked", Value: locked},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}
	result, err := r.MongoCollection.UpdateOne(ctx, bson.D{{Key: "_id", Value: topicID}}, update)
	if err != nil {
		utils.TrackError("db")
		return fmt.Errorf("lock topic %s: %w", topicID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAlgorithmLock flips the global flag of one embedded algorithm.
func (r *TopicRepo) SetAlgorithmLock(ctx context.Context, topicID, algorithmID string, locked bool) error {
	timer := utils.TrackDBOperation("update", TopicsCollection)
	defer timer.ObserveDuration()

	filter := bson.D{
		{Key: "_id", Value: topicID},
		{Key: "algorithms.id", Value: algorithmID},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "algorithms.$.isGloballyLocked", Value: locked},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}
	result, err := r.MongoCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		utils.TrackError("db")
		return fmt.Errorf("lock algorithm %s/%s: %w", topicID, algorithmID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSubjectLock flips the global flag on every topic of a subject and
// returns how many topics matched.
func (r *TopicRepo) SetSubjectLock(ctx context.Context, subject string, locked bool) (int, error) {
	timer := utils.TrackDBOperation("update_many", TopicsCollection)
	defer timer.ObserveDuration()

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "isGloballyLocked", Value: locked},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}
	result, err := r.MongoCollection.UpdateMany(ctx, bson.D{{Key: "subject", Value: subject}}, update)
	if err != nil {
		utils.TrackError("db")
		return 0, fmt.Errorf("lock subject %s: %w", subject, err)
	}
	return int(result.MatchedCount), nil
}

// UpsertTopic is used by seeding.
func (r *TopicRepo) UpsertTopic(ctx context.Context, topic *model.Topic) error {
	timer := utils.TrackDBOperation("upsert", TopicsCollection)
	defer timer.ObserveDuration()

	topic.UpdatedAt = time.Now().UTC()
	_, err := r.MongoCollection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: topic.ID}}, topic, options.Replace().SetUpsert(true))
	if err != nil {
		utils.TrackError("db")
		return fmt.Errorf("upsert topic %s: %w", topic.ID, err)
	}
	return nil
}

func (r *TopicRepo) Subjects(ctx context.Context) ([]model.Subject, error) {
	timer := utils.TrackDBOperation("find", SubjectsCollection)
	defer timer.ObserveDuration()

	cursor, err := r.SubjectCollection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		utils.TrackError("db")
		return nil, fmt.Errorf("find subjects: %w", err)
	}
	defer cursor.Close(ctx)

	var subjects []model.Subject
	if err := cursor.All(ctx, &subjects); err != nil {
		return nil, fmt.Errorf("decode subjects: %w", err)
	}
	return subjects, nil
}

func (r *TopicRepo) UpsertSubject(ctx context.Context, subject *model.Subject) error {
	timer := utils.TrackDBOperation("upsert", SubjectsCollection)
	defer timer.ObserveDuration()

	subject.UpdatedAt = time.Now().UTC()
	_, err := r.SubjectCollection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: subject.Name}}, subject, options.Replace().SetUpsert(true))
	if err != nil {
		utils.TrackError("db")
		return fmt.Errorf("upsert subject %s: %w", subject.Name, err)
	}
	return nil
}
