package models

// Match is a mutual pairing created when two users like each other.
type Match struct {
	MatchID   string   `dynamodbav:"matchId" json:"matchId"`
	Users     []string `dynamodbav:"users" json:"users"`
	Type      string   `dynamodbav:"type" json:"type"`
	Status    string   `dynamodbav:"status" json:"status"`
	CreatedAt string   `dynamodbav:"createdAt" json:"createdAt"`
}

// DailyMatch is a regenerable, randomly scored suggestion for one user.
// MatchKey is "<yyyy-mm-dd>#<kind>#<candidateId>" so one day's rows of a
// kind share a prefix.
type DailyMatch struct {
	UserID      string `dynamodbav:"userId" json:"userId"`
	MatchKey    string `dynamodbav:"matchKey" json:"matchKey"`
	CandidateID string `dynamodbav:"candidateId" json:"candidateId"`
	Kind        string `dynamodbav:"kind" json:"kind"`
	Score       int    `dynamodbav:"score" json:"score"`
	MatchDate   string `dynamodbav:"matchDate" json:"matchDate"`
	CreatedAt   string `dynamodbav:"createdAt" json:"createdAt"`
}
