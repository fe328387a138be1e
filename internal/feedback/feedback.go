// Package feedback implements the messages students and administrators exchange.
package feedback

import "time"

// Feedback is one message between two users. Replies point at the message
// they answer through ParentID.
type Feedback struct {
	ID         string    `json:"id" bson:"_id"`
	SenderID   string    `json:"senderId" bson:"senderId"`
	SenderName string    `json:"senderName" bson:"senderName"`
	ReceiverID string    `json:"receiverId" bson:"receiverId"`
	Subject    string    `json:"subject" bson:"subject"`
	Message    string    `json:"message" bson:"message"`
	ParentID   string    `json:"parentId,omitempty" bson:"parentId,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	Read       bool      `json:"read" bson:"read"`
	Replied    bool      `json:"replied" bson:"replied"`
}

func (f *Feedback) clone() *Feedback {
	c := *f
	return &c
}

// Inbox is a user's feedback split by direction, newest first.
type Inbox struct {
	Received []*Feedback `json:"received"`
	Sent     []*Feedback `json:"sent"`
}
