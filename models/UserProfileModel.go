package models

// Profile is the persisted per-user record. Photos[0] is the primary photo.
type Profile struct {
	UserID        string            `dynamodbav:"userId" json:"userId"`
	FullName      string            `dynamodbav:"fullName,omitempty" json:"fullName,omitempty"`
	EmailID       string            `dynamodbav:"emailId,omitempty" json:"emailId,omitempty"`
	Bio           string            `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	Photos        []string          `dynamodbav:"photos,omitempty" json:"photos"`
	VoiceIntroURL string            `dynamodbav:"voiceIntroUrl,omitempty" json:"voiceIntroUrl,omitempty"`
	Age           string            `dynamodbav:"age,omitempty" json:"age,omitempty"`
	Gender        string            `dynamodbav:"gender,omitempty" json:"gender,omitempty"`
	Location      string            `dynamodbav:"location,omitempty" json:"location,omitempty"`
	Orientation   string            `dynamodbav:"orientation,omitempty" json:"orientation,omitempty"`
	LookingFor    string            `dynamodbav:"lookingFor,omitempty" json:"lookingFor,omitempty"`
	Occupation    string            `dynamodbav:"occupation,omitempty" json:"occupation,omitempty"`
	Education     string            `dynamodbav:"education,omitempty" json:"education,omitempty"`
	Height        string            `dynamodbav:"height,omitempty" json:"height,omitempty"`
	Interests     []string          `dynamodbav:"interests,omitempty" json:"interests,omitempty"`
	Compatibility map[string]string `dynamodbav:"-" json:"compatibility,omitempty"` // merged at read time
	Version       int64             `dynamodbav:"version" json:"version"`
	CreatedAt     string            `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt     string            `dynamodbav:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// PhotoView is the boolean-flag rendering of a photo, derived from list order.
type PhotoView struct {
	URL       string `json:"url"`
	IsPrimary bool   `json:"isPrimary"`
}

// PrimaryPhoto returns the first photo, or "" when there is none.
func (p *Profile) PrimaryPhoto() string {
	if len(p.Photos) == 0 {
		return ""
	}
	return p.Photos[0]
}

// HasPhoto reports whether url is already in the photo list.
func (p *Profile) HasPhoto(url string) bool {
	for _, existing := range p.Photos {
		if existing == url {
			return true
		}
	}
	return false
}

// PhotoViews derives the per-photo primary flag from the list order.
func (p *Profile) PhotoViews() []PhotoView {
	views := make([]PhotoView, 0, len(p.Photos))
	for i, url := range p.Photos {
		views = append(views, PhotoView{URL: url, IsPrimary: i == 0})
	}
	return views
}

// ProfileUpdate carries the fields a client may change. Nil means "keep".
type ProfileUpdate struct {
	FullName      *string           `json:"fullName,omitempty"`
	EmailID       *string           `json:"emailId,omitempty"`
	Bio           *string           `json:"bio,omitempty"`
	Age           *string           `json:"age,omitempty"`
	Gender        *string           `json:"gender,omitempty"`
	Location      *string           `json:"location,omitempty"`
	Orientation   *string           `json:"orientation,omitempty"`
	LookingFor    *string           `json:"lookingFor,omitempty"`
	Occupation    *string           `json:"occupation,omitempty"`
	Education     *string           `json:"education,omitempty"`
	Height        *string           `json:"height,omitempty"`
	Interests     []string          `json:"interests,omitempty"`
	Compatibility map[string]string `json:"compatibility,omitempty"`
}

// Apply merges the non-nil fields of u onto p.
func (u ProfileUpdate) Apply(p *Profile) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.FullName, u.FullName)
	set(&p.EmailID, u.EmailID)
	set(&p.Bio, u.Bio)
	set(&p.Age, u.Age)
	set(&p.Gender, u.Gender)
	set(&p.Location, u.Location)
	set(&p.Orientation, u.Orientation)
	set(&p.LookingFor, u.LookingFor)
	set(&p.Occupation, u.Occupation)
	set(&p.Education, u.Education)
	set(&p.Height, u.Height)
	if u.Interests != nil {
		p.Interests = u.Interests
	}
}

// CompatibilityAnswers maps question ids to answer text for one user.
type CompatibilityAnswers struct {
	UserID    string            `dynamodbav:"userId" json:"userId"`
	Answers   map[string]string `dynamodbav:"answers" json:"answers"`
	UpdatedAt string            `dynamodbav:"updatedAt" json:"updatedAt"`
}
