package payments

import (
	"errors"
	"log"
	"strings"

	"eventix/models"

	"gorm.io/gorm"
)

var (
	ErrTxnNotFound        = errors.New("transaction not found")
	ErrDuplicateTxn       = errors.New("txnid already exists")
	ErrConflictingOutcome = errors.New("conflicting terminal outcome")
)

// Store is the authoritative ledger of transaction state, keyed by txnid.
type Store struct {
	DB *gorm.DB
}

func (s *Store) Get(txnid string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := s.DB.Where("txn_id = ?", txnid).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTxnNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// Create persists a transaction in initiated state. The unique index on
// txn_id enforces the single-creation invariant.
func (s *Store) Create(txn *models.PaymentTransaction) error {
	txn.Status = models.StatusInitiated
	if err := s.DB.Create(txn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate") || strings.Contains(err.Error(), "UNIQUE") {
			return ErrDuplicateTxn
		}
		return err
	}
	return nil
}

// Finalize moves a transaction out of initiated exactly once. The transition
// is a single conditional UPDATE, so under concurrent deliveries at most one
// caller wins; everyone else is a replay (same status, no-op) or a conflict
// (different status, rejected).
func (s *Store) Finalize(txnid, status, outcome string, gatewayRef, rawPayload *string) error {
	updates := map[string]interface{}{
		"status":         status,
		"verify_outcome": outcome,
	}
	if gatewayRef != nil {
		updates["gateway_ref_id"] = *gatewayRef
	}
	if rawPayload != nil {
		updates["raw_callback"] = *rawPayload
	}

	res := s.DB.Model(&models.PaymentTransaction{}).
		Where("txn_id = ? AND status = ?", txnid, models.StatusInitiated).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		s.settleBooking(txnid, status)
		return nil
	}

	// No row transitioned: either the txnid is unknown or a terminal state is
	// already stored.
	cur, err := s.Get(txnid)
	if err != nil {
		return err
	}
	if cur.Status == status {
		return nil
	}
	return ErrConflictingOutcome
}

// settleBooking flips the booking attached to a finalized transaction. Only
// the Finalize winner reaches here, so a plain update suffices.
func (s *Store) settleBooking(txnid, status string) {
	bookingStatus := "Cancelled"
	if status == models.StatusSuccess {
		bookingStatus = "Confirmed"
	}
	if err := s.DB.Model(&models.Booking{}).
		Where("txn_id = ? AND status = ?", txnid, "Pending").
		Update("status", bookingStatus).Error; err != nil {
		log.Printf("[audit] booking settle failed txnid=%s: %v", txnid, err)
	}
}

// Audit appends an evidence row. Audit failures are logged, never propagated:
// losing an audit line must not break the redirect.
func (s *Store) Audit(txnid, outcome, detail, rawBody, remoteIP string) {
	entry := models.CallbackAudit{
		TxnID:    txnid,
		Outcome:  outcome,
		Detail:   detail,
		RemoteIP: remoteIP,
	}
	if rawBody != "" {
		entry.RawBody = &rawBody
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		log.Printf("[audit] write failed txnid=%s outcome=%s: %v", txnid, outcome, err)
	}
	log.Printf("[audit] txnid=%s outcome=%s detail=%s ip=%s", txnid, outcome, detail, remoteIP)
}
