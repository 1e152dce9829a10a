package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/reporting-engine/internal/idcodec"
	"github.com/noah-isme/reporting-engine/internal/models"
)

// ActivityRepository reads quiz attempt events from quiz.sessions.
type ActivityRepository struct {
	coll *mongo.Collection
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(coll *mongo.Collection) *ActivityRepository {
	return &ActivityRepository{coll: coll}
}

// ListByQuiz returns a quiz's attempt events whose identifier lies inside the
// inclusive range.
func (r *ActivityRepository) ListByQuiz(ctx context.Context, quizID string, window idcodec.IdentifierRange) ([]models.ActivityRecord, error) {
	filter := bson.M{"quiz_id": quizID}
	if !window.Unbounded() {
		idFilter := bson.M{}
		if window.Lower != nil {
			idFilter["$gte"] = *window.Lower
		}
		if window.Upper != nil {
			idFilter["$lte"] = *window.Upper
		}
		filter["_id"] = idFilter
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1, "user_id": 1, "has_quiz_ended": 1})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find quiz activity: %w", err)
	}

	var records []models.ActivityRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode quiz activity: %w", err)
	}
	for i := range records {
		records[i].QuizID = quizID
	}
	return records, nil
}
