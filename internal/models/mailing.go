package models

import "time"

// MailingModel records one successful digest mailing and who received it.
// Rows are append-only; the newest MailingAt is the digest watermark.
type MailingModel struct {
	Base
	MailingAt   time.Time         `json:"mailing_at"            gorm:"index;not null"`
	Subscribers []SubscriberModel `json:"subscribers,omitempty" gorm:"many2many:mailing_subscribers;joinForeignKey:MailingID;joinReferences:SubscriberID"`
}

func (MailingModel) TableName() string { return "mailings" }

func (m *MailingModel) SubscribersCount() int { return len(m.Subscribers) }
