package models

type MembershipPlan struct {
	PlanID       string `dynamodbav:"planId" json:"planId"`
	Name         string `dynamodbav:"name" json:"name"`
	Price        string `dynamodbav:"price" json:"price"` // decimal string, e.g. "19.99"
	Currency     string `dynamodbav:"currency" json:"currency"`
	DurationDays int    `dynamodbav:"durationDays" json:"durationDays"`
	Tier         string `dynamodbav:"tier" json:"tier"`
}

type UserSubscription struct {
	UserID    string `dynamodbav:"userId" json:"userId"`
	PlanID    string `dynamodbav:"planId" json:"planId"`
	OrderID   string `dynamodbav:"orderId" json:"orderId"`
	Status    string `dynamodbav:"status" json:"status"`
	StartsAt  string `dynamodbav:"startsAt" json:"startsAt"`
	ExpiresAt string `dynamodbav:"expiresAt" json:"expiresAt"`
}

// WebhookAudit is one relayed webhook delivery.
type WebhookAudit struct {
	AuditID    string `dynamodbav:"auditId" json:"auditId"`
	Route      string `dynamodbav:"route" json:"route"`
	Payload    string `dynamodbav:"payload" json:"payload"`
	RemoteAddr string `dynamodbav:"remoteAddr,omitempty" json:"remoteAddr,omitempty"`
	ReceivedAt string `dynamodbav:"receivedAt" json:"receivedAt"`
}
