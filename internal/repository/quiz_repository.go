package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrQuizNotFound is returned when the quiz catalog has no such quiz.
var ErrQuizNotFound = errors.New("quiz not found")

// QuizRepository reads the quiz catalog collection.
type QuizRepository struct {
	coll *mongo.Collection
}

// NewQuizRepository constructs the repository over quiz.quizzes.
func NewQuizRepository(coll *mongo.Collection) *QuizRepository {
	return &QuizRepository{coll: coll}
}

// QuizTitle returns the title of a quiz. A quiz without a title yields "".
func (r *QuizRepository) QuizTitle(ctx context.Context, quizID string) (string, error) {
	var doc struct {
		Title string `bson:"title"`
	}
	opts := options.FindOne().SetProjection(bson.M{"title": 1})
	err := r.coll.FindOne(ctx, bson.M{"_id": quizID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrQuizNotFound
		}
		return "", fmt.Errorf("find quiz %s: %w", quizID, err)
	}
	return doc.Title, nil
}
