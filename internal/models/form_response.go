package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// PositionIndex is a question's zero-based position within a form. Ingestion
// has written it both as a number and as a numeric string.
type PositionIndex int

// UnmarshalDynamoDBAttributeValue accepts N and S attributes.
func (p *PositionIndex) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var raw string
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		raw = v.Value
	case *types.AttributeValueMemberNULL:
		*p = 0
		return nil
	default:
		return fmt.Errorf("position index: unsupported attribute %T", av)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f != math.Trunc(f) {
		return fmt.Errorf("position index %q is not an integer", raw)
	}
	*p = PositionIndex(f)
	return nil
}

// FormResponse is one answered (or skipped) form question.
type FormResponse struct {
	SessionID             string        `dynamodbav:"session_id" json:"session_id"`
	UserID                string        `dynamodbav:"user_id" json:"user_id"`
	TestName              string        `dynamodbav:"test_name,omitempty" json:"test_name,omitempty"`
	StartDate             string        `dynamodbav:"start_date,omitempty" json:"start_date,omitempty"`
	QuestionPositionIndex PositionIndex `dynamodbav:"question_position_index" json:"question_position_index"`
	QuestionSetTitle      string        `dynamodbav:"question_set_title,omitempty" json:"question_set_title,omitempty"`
	QuestionText          string        `dynamodbav:"question_text,omitempty" json:"question_text,omitempty"`
	UserResponseLabels    string        `dynamodbav:"user_response_labels,omitempty" json:"user_response_labels,omitempty"`
	IsAnswered            bool          `dynamodbav:"is_answered" json:"is_answered"`
}

// FormResponseRow is one rendered question line.
type FormResponseRow struct {
	QuestionNumber   int    `json:"question_number"`
	QuestionSetTitle string `json:"question_set_title,omitempty"`
	QuestionText     string `json:"question_text"`
	UserResponse     string `json:"user_response"`
}

// FormResponseReport lists a student's answers for one form session.
type FormResponseReport struct {
	SessionID      string            `json:"session_id"`
	UserID         string            `json:"user_id"`
	TestName       string            `json:"test_name"`
	StartDate      string            `json:"start_date,omitempty"`
	Responses      []FormResponseRow `json:"responses"`
	TotalQuestions int               `json:"total_questions"`
}
