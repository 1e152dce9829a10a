package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/noah-isme/reporting-engine/internal/models"
)

const (
	attrSessionID = "session_id"
	attrRangeKey  = "user_id-section"
	attrUserID    = "user_id"
)

// SectionRecordRepository reads the session partitioned reports table.
type SectionRecordRepository struct {
	client    DynamoQueryAPI
	table     string
	userIndex string
	logger    *zap.Logger
}

// NewSectionRecordRepository constructs the repository.
func NewSectionRecordRepository(client DynamoQueryAPI, table, userIndex string, logger *zap.Logger) *SectionRecordRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionRecordRepository{client: client, table: table, userIndex: userIndex, logger: logger}
}

// ListBySession returns every section record of a session.
func (r *SectionRecordRepository) ListBySession(ctx context.Context, sessionID string) ([]models.SectionRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:                aws.String(r.table),
		KeyConditionExpression:   aws.String("#sid = :sid"),
		ExpressionAttributeNames: map[string]string{"#sid": attrSessionID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": stringValue(sessionID),
		},
	}
	return r.query(ctx, input, "")
}

// ListBySessionUser returns one user's section records through a sort key
// prefix query. Prefix matches belonging to other users are dropped.
func (r *SectionRecordRepository) ListBySessionUser(ctx context.Context, sessionID, userID string) ([]models.SectionRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		KeyConditionExpression: aws.String("#sid = :sid AND begins_with(#rk, :prefix)"),
		ExpressionAttributeNames: map[string]string{
			"#sid": attrSessionID,
			"#rk":  attrRangeKey,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid":    stringValue(sessionID),
			":prefix": stringValue(models.RangeKeyPrefix(userID)),
		},
	}
	return r.query(ctx, input, userID)
}

// ListByUser returns a user's records across sessions through the user index.
func (r *SectionRecordRepository) ListByUser(ctx context.Context, userID string) ([]models.SectionRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:                aws.String(r.table),
		IndexName:                aws.String(r.userIndex),
		KeyConditionExpression:   aws.String("#uid = :uid"),
		ExpressionAttributeNames: map[string]string{"#uid": attrUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": stringValue(userID),
		},
	}
	return r.query(ctx, input, userID)
}

// query decodes records and fills user and section from the sort key, using
// the stored user_id attribute when present. Rows with an unparseable key are
// skipped. A non-empty userID keeps only that user.
func (r *SectionRecordRepository) query(ctx context.Context, input *dynamodb.QueryInput, userID string) ([]models.SectionRecord, error) {
	items, err := queryAll(ctx, r.client, input)
	if err != nil {
		return nil, fmt.Errorf("query section records: %w", err)
	}

	var decoded []models.SectionRecord
	if err := attributevalue.UnmarshalListOfMaps(items, &decoded); err != nil {
		return nil, fmt.Errorf("decode section records: %w", err)
	}

	records := make([]models.SectionRecord, 0, len(decoded))
	for _, rec := range decoded {
		key, err := models.ResolveRangeKey(rec.RangeKey, rec.UserID)
		if err != nil {
			r.logger.Warn("skipping section record",
				zap.String("session_id", rec.SessionID),
				zap.String("range_key", rec.RangeKey),
				zap.Error(err),
			)
			continue
		}
		rec.UserID = key.UserID
		rec.Section = key.Section
		if userID != "" && rec.UserID != userID {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
