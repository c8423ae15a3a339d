package models

import "time"

// Transaction status values. A transaction only ever moves
// initiated -> {success, failure, unknown}; terminal states are never rewritten.
const (
	StatusInitiated = "initiated"
	StatusSuccess   = "success"
	StatusFailure   = "failure"
	StatusUnknown   = "unknown"
)

// Verification outcomes recorded against a transaction or audit entry.
const (
	VerifyAuthentic    = "authentic"
	VerifyForged       = "forged"
	VerifyUnverifiable = "unverifiable"
)

type PaymentTransaction struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	TxnID         string  `gorm:"type:varchar(64);not null;uniqueIndex" json:"txnid"`
	UserID        uint    `gorm:"not null;index" json:"user_id"`
	Amount        string  `gorm:"type:varchar(20);not null" json:"amount"`
	Currency      string  `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	ProductInfo   string  `gorm:"type:text;not null" json:"productinfo"`
	Firstname     string  `gorm:"type:varchar(100);not null" json:"firstname"`
	Email         string  `gorm:"type:varchar(191);not null" json:"email"`
	Phone         string  `gorm:"type:varchar(20);not null" json:"phone"`
	Status        string  `gorm:"type:varchar(16);not null;default:'initiated';index" json:"status"`
	VerifyOutcome *string `gorm:"type:varchar(16)" json:"verify_outcome,omitempty"`
	// GatewayRefID is the gateway-assigned payment id (mihpayid); nil until a
	// callback or inquiry supplies it.
	GatewayRefID *string   `gorm:"type:varchar(64)" json:"gateway_ref_id,omitempty"`
	RawCallback  *string   `gorm:"type:text" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

// Terminal reports whether the transaction has reached a final status.
func (t *PaymentTransaction) Terminal() bool {
	return t.Status != StatusInitiated
}
