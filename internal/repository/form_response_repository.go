package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/noah-isme/reporting-engine/internal/models"
)

// FormResponseRepository reads the form question responses table.
type FormResponseRepository struct {
	client DynamoQueryAPI
	table  string
}

// NewFormResponseRepository constructs the repository.
func NewFormResponseRepository(client DynamoQueryAPI, table string) *FormResponseRepository {
	return &FormResponseRepository{client: client, table: table}
}

// ListBySessionUser returns a user's responses ordered by question position.
func (r *FormResponseRepository) ListBySessionUser(ctx context.Context, sessionID, userID string) ([]models.FormResponse, error) {
	input := &dynamodb.QueryInput{
		TableName:                aws.String(r.table),
		KeyConditionExpression:   aws.String("#sid = :sid"),
		ExpressionAttributeNames: map[string]string{"#sid": attrSessionID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": stringValue(sessionID),
		},
	}
	items, err := queryAll(ctx, r.client, input)
	if err != nil {
		return nil, fmt.Errorf("query form responses: %w", err)
	}

	var all []models.FormResponse
	if err := attributevalue.UnmarshalListOfMaps(items, &all); err != nil {
		return nil, fmt.Errorf("decode form responses: %w", err)
	}

	responses := make([]models.FormResponse, 0, len(all))
	for _, resp := range all {
		if resp.UserID == userID {
			responses = append(responses, resp)
		}
	}
	sort.SliceStable(responses, func(i, j int) bool {
		return responses[i].QuestionPositionIndex < responses[j].QuestionPositionIndex
	})
	return responses, nil
}
