package models

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionIndexUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		av   types.AttributeValue
		want PositionIndex
	}{
		{"number", &types.AttributeValueMemberN{Value: "4"}, 4},
		{"string", &types.AttributeValueMemberS{Value: " 7 "}, 7},
		{"decimal number", &types.AttributeValueMemberN{Value: "3.0"}, 3},
		{"null", &types.AttributeValueMemberNULL{Value: true}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p PositionIndex
			require.NoError(t, p.UnmarshalDynamoDBAttributeValue(tc.av))
			assert.Equal(t, tc.want, p)
		})
	}
}

func TestPositionIndexRejectsNonIntegers(t *testing.T) {
	var p PositionIndex
	assert.Error(t, p.UnmarshalDynamoDBAttributeValue(&types.AttributeValueMemberS{Value: "first"}))
	assert.Error(t, p.UnmarshalDynamoDBAttributeValue(&types.AttributeValueMemberN{Value: "1.5"}))
	assert.Error(t, p.UnmarshalDynamoDBAttributeValue(&types.AttributeValueMemberBOOL{Value: true}))
}
