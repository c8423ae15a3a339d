package models

import "time"

// CallbackAudit is an append-only record of every callback delivery worth
// keeping evidence of: forged hashes, conflicting replays, lookups for
// unknown txnids. Rows are never updated or deleted.
type CallbackAudit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TxnID     string    `gorm:"type:varchar(64);not null;index" json:"txnid"`
	Outcome   string    `gorm:"type:varchar(16);not null" json:"outcome"`
	Detail    string    `gorm:"type:varchar(191)" json:"detail"`
	RawBody   *string   `gorm:"type:text" json:"-"`
	RemoteIP  string    `gorm:"type:varchar(45)" json:"remote_ip"`
	CreatedAt time.Time `json:"created_at"`
}

func (CallbackAudit) TableName() string {
	return "callback_audits"
}
