package models

import "time"

// Booking ties a user's seat reservation to the payment transaction that pays
// for it. It is created in Pending state together with the transaction and
// flips to Confirmed/Cancelled when the transaction finalizes.
type Booking struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	EventID   uint      `gorm:"not null;index" json:"event_id"`
	Event     *Event    `gorm:"foreignKey:EventID" json:"event,omitempty"`
	TxnID     string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"txnid"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	Status    string    `gorm:"type:varchar(16);not null;default:'Pending'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}
