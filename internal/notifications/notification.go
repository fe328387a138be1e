// Package notifications stores per-user notifications, publishes them to live
// subscribers and mails them when the user has an address.
package notifications

import "time"

type Notification struct {
	ID         string    `json:"id" bson:"_id"`
	UserID     string    `json:"userId" bson:"userId"`
	Title      string    `json:"title" bson:"title"`
	Message    string    `json:"message" bson:"message"`
	Link       string    `json:"link,omitempty" bson:"link,omitempty"`
	DocumentID string    `json:"documentId,omitempty" bson:"documentId,omitempty"`
	FeedbackID string    `json:"feedbackId,omitempty" bson:"feedbackId,omitempty"`
	Read       bool      `json:"read" bson:"read"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

func (n *Notification) clone() *Notification {
	c := *n
	return &c
}
