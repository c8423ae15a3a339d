package models

import "time"

type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(191);not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Venue       string    `gorm:"type:varchar(191);not null" json:"venue"`
	StartsAt    time.Time `gorm:"not null;index" json:"starts_at"`
	TicketPrice float64   `gorm:"type:decimal(15,2);not null" json:"ticket_price"`
	TotalSeats  int       `gorm:"not null;default:0" json:"total_seats"`
	Status      string    `gorm:"type:varchar(16);not null;default:'Active'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}
