package models

// MatchWithProfile is a suggestion joined in memory with the candidate's profile.
type MatchWithProfile struct {
	MatchKey     string      `json:"matchKey"`
	Kind         string      `json:"kind"`
	Score        int         `json:"score"`
	MatchDate    string      `json:"matchDate"`
	CandidateID  string      `json:"candidateId"`
	FullName     string      `json:"fullName,omitempty"`
	Age          string      `json:"age,omitempty"`
	Gender       string      `json:"gender,omitempty"`
	Location     string      `json:"location,omitempty"`
	Bio          string      `json:"bio,omitempty"`
	PrimaryPhoto string      `json:"primaryPhoto,omitempty"`
	Photos       []PhotoView `json:"photos,omitempty"`
}
