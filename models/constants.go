package models

// Table names
const (
	ProfilesTable             = "profiles"
	CompatibilityAnswersTable = "compatibility_answers"
	DailyMatchesTable         = "daily_matches"
	MatchesTable              = "matches"
	SwipesTable               = "swipes"
	MembershipPlansTable      = "membership_plans"
	UserSubscriptionsTable    = "user_subscriptions"
	WebhookAuditTable         = "webhook_audit"
)

// Bucket names
const (
	ProfilePhotosBucket   = "profile-photos"
	VoiceRecordingsBucket = "voice-recordings"
)

// Swipe actions
const (
	SwipeActionLike = "like"
	SwipeActionPass = "pass"
)

// Swipe and match statuses
const (
	StatusPending  = "pending"
	StatusMatch    = "match"
	StatusDeclined = "declined"
	StatusActive   = "active"
)

// Match kinds
const (
	MatchKindDaily     = "daily"
	MatchKindExecutive = "executive"
	MatchKindMutual    = "mutual"
)
