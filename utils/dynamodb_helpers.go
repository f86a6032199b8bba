package utils

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ExtractString safely extracts a string from a DynamoDB attribute map
func ExtractString(item map[string]types.AttributeValue, field string) string {
	if attr, ok := item[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberS); ok {
			return v.Value
		}
	}
	return ""
}

// ExtractFirstPhoto extracts the first photo URL from the "photos" attribute
func ExtractFirstPhoto(item map[string]types.AttributeValue, field string) string {
	photos := ExtractStringList(item, field)
	if len(photos) == 0 {
		return ""
	}
	return photos[0]
}

// ExtractStringList returns the string members of a list attribute, skipping
// anything that is not a string.
func ExtractStringList(item map[string]types.AttributeValue, field string) []string {
	attr, ok := item[field].(*types.AttributeValueMemberL)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(attr.Value))
	for _, v := range attr.Value {
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			out = append(out, s.Value)
		}
	}
	return out
}
