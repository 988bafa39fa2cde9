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

func GetAssessmentRepo(db *mongo.Database) *AssessmentRepo {
	return &AssessmentRepo{
		Tests:    db.Collection(TestsCollection),
		Problems: db.Collection(DailyProblemCollection),
	}
}

// AssessmentRepo reads mentor-authored tests and daily problems.
type AssessmentRepo struct {
	Tests    *mongo.Collection
	Problems *mongo.Collection
}

// FindTest returns nil, nil when the test does not exist.
func (r *AssessmentRepo) FindTest(ctx context.Context, testID string) (*model.Test, error) {
	timer := utils.TrackDBOperation("find", TestsCollection)
	defer timer.ObserveDuration()

	var test model.Test
	err := r.Tests.FindOne(ctx, bson.D{{Key: "_id", Value: testID}}).Decode(&test)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		utils.TrackError("db")
		return nil, fmt.Errorf("find test %s: %w", testID, err)
	}
	return &test, nil
}

func (r *AssessmentRepo) UpsertTest(ctx context.Context, test *model.Test) error {
	timer := utils.TrackDBOperation("upsert", TestsCollection)
	defer timer.ObserveDuration()

	_, err := r.Tests.ReplaceOne(ctx, bson.D{{Key: "_id", Value: test.ID}}, test, options.Replace().SetUpsert(true))
	if err != nil {
		utils.TrackError("db")
		return fmt.Errorf("upsert test %s: %w", test.ID, err)
	}
	return nil
}

// FindProblem returns nil, nil when the problem does not exist.
func (r *AssessmentRepo) FindProblem(ctx context.Context, problemID string) (*model.DailyProblem, error) {
	timer := utils.TrackDBOperation("find", DailyProblemCollection)
	defer timer.ObserveDuration()

	var problem model.DailyProblem
	err := r.Problems.FindOne(ctx, bson.D{{Key: "_id", Value: problemID}}).Decode(&problem)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		utils.TrackError("db")
		return nil, fmt.Errorf("find daily problem %s: %w", problemID, err)
	}
	return &problem, nil
}

// ActiveProblem returns the newest active problem for a subject, or nil.
func (r *AssessmentRepo) ActiveProblem(ctx context.Context, subject string) (*model.DailyProblem, error) {
	timer := utils.TrackDBOperation("find", DailyProblemCollection)
	defer timer.ObserveDuration()

	filter := bson.D{{Key: "subject", Value: subject}, {Key: "isActive", Value: true}}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var problem model.DailyProblem
	err := r.Problems.FindOne(ctx, filter, opts).Decode(&problem)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		utils.TrackError("db")
		return nil, fmt.Errorf("find active problem for %s: %w", subject, err)
	}
	return &problem, nil
}

func (r *AssessmentRepo) UpsertProblem(ctx context.Context, problem *model.DailyProblem) error {
	timer := utils.TrackDBOperation("upsert", DailyProblemCollection)
	defer timer.ObserveDuration()

	_, err := r.Problems.ReplaceOne(ctx, bson.D{{Key: "_id", Value: problem.ID}}, problem, options.Replace().SetUpsert(true))
	if err != nil {
		utils.TrackError("db")
		return fmt.Errorf("upsert daily problem %s: %w", problem.ID, err)
	}
	return nil
}
