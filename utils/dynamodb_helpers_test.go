package utils

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
)

func TestExtractHelpers(t *testing.T) {
	item := map[string]types.AttributeValue{
		"fullName": &types.AttributeValueMemberS{Value: "Ada"},
		"age":      &types.AttributeValueMemberN{Value: "31"},
		"photos": &types.AttributeValueMemberL{Value: []types.AttributeValue{
			&types.AttributeValueMemberS{Value: "https://cdn.test/a.jpg"},
			&types.AttributeValueMemberN{Value: "7"},
			&types.AttributeValueMemberS{Value: "https://cdn.test/b.jpg"},
		}},
	}

	assert.Equal(t, "Ada", ExtractString(item, "fullName"))
	assert.Empty(t, ExtractString(item, "age"))
	assert.Empty(t, ExtractString(item, "missing"))
	assert.Equal(t, []string{"https://cdn.test/a.jpg", "https://cdn.test/b.jpg"}, ExtractStringList(item, "photos"))
	assert.Equal(t, "https://cdn.test/a.jpg", ExtractFirstPhoto(item, "photos"))
	assert.Empty(t, ExtractFirstPhoto(item, "fullName"))
	assert.Nil(t, ExtractStringList(item, "missing"))
}
