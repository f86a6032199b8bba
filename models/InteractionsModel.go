package models

type Swipe struct {
	PK          string  `dynamodbav:"PK" json:"PK"` // "USER#<from>"
	SK          string  `dynamodbav:"SK" json:"SK"` // "SWIPE#<to>"
	FromUser    string  `dynamodbav:"fromUser" json:"fromUser"`
	ToUser      string  `dynamodbav:"toUser" json:"toUser"`
	Action      string  `dynamodbav:"action" json:"action"`
	Status      string  `dynamodbav:"status" json:"status"`
	MatchID     *string `dynamodbav:"matchId,omitempty" json:"matchId,omitempty"`
	CreatedAt   string  `dynamodbav:"createdAt" json:"createdAt"`
	LastUpdated string  `dynamodbav:"lastUpdated" json:"lastUpdated"`
}
