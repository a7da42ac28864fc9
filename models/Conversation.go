package models

import "gorm.io/gorm"

// Conversation is the chat room tied to one HelpRequest/Investor pair.
type Conversation struct {
	gorm.Model
	HelpRequestID uint        `json:"helpRequestID" gorm:"not null;index;uniqueIndex:idx_conversation_pair"`
	HelpRequest   HelpRequest `json:"helpRequest"`
	InvestorID    uint        `json:"investorID" gorm:"not null;index;uniqueIndex:idx_conversation_pair"`
	Investor      Investor    `json:"investor"`
	Messages      []Message   `json:"messages,omitempty"`
}

type Message struct {
	gorm.Model
	ConversationID uint   `json:"conversationID" gorm:"not null;index"`
	SenderID       uint   `json:"senderID" gorm:"not null;index"`
	Sender         User   `json:"sender" gorm:"foreignKey:SenderID"`
	Content        string `json:"content" gorm:"type:text"`
	IsRead         bool   `json:"isRead" gorm:"default:false;index"`
}
