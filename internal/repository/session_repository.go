package repository

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/noah-isme/reporting-engine/internal/models"
)

// ErrSessionNotFound is returned when no quiz session carries the id.
var ErrSessionNotFound = errors.New("quiz session not found")

// SessionRepository reads scheduled sessions from Firestore.
type SessionRepository struct {
	client     *firestore.Client
	collection string
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(client *firestore.Client, collection string) *SessionRepository {
	return &SessionRepository{client: client, collection: collection}
}

type sessionDocument struct {
	ID                     string                 `firestore:"id"`
	RedirectPlatform       string                 `firestore:"redirectPlatform"`
	RedirectPlatformParams map[string]interface{} `firestore:"redirectPlatformParams"`
	StartDate              string                 `firestore:"startDate"`
	EndDate                string                 `firestore:"endDate"`
}

// QuizSession resolves the quiz a session runs and its scheduled window.
func (r *SessionRepository) QuizSession(ctx context.Context, sessionID string) (*models.QuizSession, error) {
	iter := r.client.Collection(r.collection).
		Where("redirectPlatform", "==", models.PlatformQuiz).
		Where("id", "==", sessionID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", sessionID, err)
	}

	var doc sessionDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	quizID, _ := doc.RedirectPlatformParams["id"].(string)
	if quizID == "" {
		return nil, fmt.Errorf("session %s has no quiz id", sessionID)
	}

	return &models.QuizSession{
		SessionID: sessionID,
		QuizID:    quizID,
		StartDate: doc.StartDate,
		EndDate:   doc.EndDate,
	}, nil
}
