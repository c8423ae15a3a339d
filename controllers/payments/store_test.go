package payments

import (
	"errors"
	"path/filepath"
	"testing"

	"eventix/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Event{}, &models.PaymentTransaction{}, &models.CallbackAudit{}, &models.Booking{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedTxn(t *testing.T, db *gorm.DB, txnid string) *models.PaymentTransaction {
	t.Helper()
	txn := &models.PaymentTransaction{
		TxnID:       txnid,
		UserID:      7,
		Amount:      "500.00",
		Currency:    "INR",
		ProductInfo: `{"event_id":1,"event_name":"Indie Night","qty":2}`,
		Firstname:   "Asha",
		Email:       "asha@example.com",
		Phone:       "9876543210",
	}
	if err := (&Store{DB: db}).Create(txn); err != nil {
		t.Fatalf("seed txn: %v", err)
	}
	return txn
}

func TestStoreCreateRejectsDuplicateTxnID(t *testing.T) {
	db := setupTestDB(t)
	store := &Store{DB: db}

	seedTxn(t, db, "TIX-dup1")

	dup := &models.PaymentTransaction{
		TxnID: "TIX-dup1", UserID: 8, Amount: "100.00",
		ProductInfo: "x", Firstname: "B", Email: "b@example.com", Phone: "9876500000",
	}
	if err := store.Create(dup); !errors.Is(err, ErrDuplicateTxn) {
		t.Fatalf("expected ErrDuplicateTxn, got %v", err)
	}
}

func TestStoreCreateForcesInitiated(t *testing.T) {
	db := setupTestDB(t)
	store := &Store{DB: db}

	txn := &models.PaymentTransaction{
		TxnID: "TIX-forced", UserID: 1, Amount: "10.00",
		ProductInfo: "x", Firstname: "A", Email: "a@example.com", Phone: "9876500001",
		Status: models.StatusSuccess,
	}
	if err := store.Create(txn); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := store.Get("TIX-forced")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.StatusInitiated {
		t.Fatalf("expected initiated, got %q", got.Status)
	}
}

func TestFinalizeTransitionsExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	store := &Store{DB: db}
	seedTxn(t, db, "TIX-once")

	ref := "403993715527000000"
	raw := "status=success&txnid=TIX-once"
	if err := store.Finalize("TIX-once", models.StatusSuccess, models.VerifyAuthentic, &ref, &raw); err != nil {
		t.Fatalf("first finalize: %v", err)
	}

	got, err := store.Get("TIX-once")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.StatusSuccess {
		t.Fatalf("expected success, got %q", got.Status)
	}
	if got.VerifyOutcome == nil || *got.VerifyOutcome != models.VerifyAuthentic {
		t.Fatalf("expected authentic verify outcome, got %v", got.VerifyOutcome)
	}
	if got.GatewayRefID == nil || *got.GatewayRefID != ref {
		t.Fatalf("expected gateway ref %q, got %v", ref, got.GatewayRefID)
	}

	// Same outcome again is an idempotent replay.
	if err := store.Finalize("TIX-once", models.StatusSuccess, models.VerifyAuthentic, nil, nil); err != nil {
		t.Fatalf("replay should be a no-op, got %v", err)
	}

	// A different terminal outcome is rejected and never overwrites.
	err = store.Finalize("TIX-once", models.StatusFailure, models.VerifyAuthentic, nil, nil)
	if !errors.Is(err, ErrConflictingOutcome) {
		t.Fatalf("expected ErrConflictingOutcome, got %v", err)
	}
	got, _ = store.Get("TIX-once")
	if got.Status != models.StatusSuccess {
		t.Fatalf("stored status must stand, got %q", got.Status)
	}
}

func TestFinalizeUnknownTxnID(t *testing.T) {
	db := setupTestDB(t)
	store := &Store{DB: db}

	err := store.Finalize("TIX-ghost", models.StatusSuccess, models.VerifyAuthentic, nil, nil)
	if !errors.Is(err, ErrTxnNotFound) {
		t.Fatalf("expected ErrTxnNotFound, got %v", err)
	}
}

func TestFinalizeSettlesBooking(t *testing.T) {
	cases := []struct {
		name    string
		status  string
		booking string
	}{
		{"success confirms", models.StatusSuccess, "Confirmed"},
		{"failure cancels", models.StatusFailure, "Cancelled"},
		{"unknown cancels", models.StatusUnknown, "Cancelled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := setupTestDB(t)
			store := &Store{DB: db}
			txnid := "TIX-book"
			seedTxn(t, db, txnid)
			if err := db.Create(&models.Booking{UserID: 7, EventID: 1, TxnID: txnid, Quantity: 2, Status: "Pending"}).Error; err != nil {
				t.Fatalf("seed booking: %v", err)
			}

			if err := store.Finalize(txnid, tc.status, models.VerifyAuthentic, nil, nil); err != nil {
				t.Fatalf("finalize: %v", err)
			}

			var booking models.Booking
			if err := db.Where("txn_id = ?", txnid).First(&booking).Error; err != nil {
				t.Fatalf("load booking: %v", err)
			}
			if booking.Status != tc.booking {
				t.Fatalf("expected booking %q, got %q", tc.booking, booking.Status)
			}
		})
	}
}

func TestAuditNeverFailsTheCaller(t *testing.T) {
	db := setupTestDB(t)
	store := &Store{DB: db}

	store.Audit("TIX-x", models.VerifyForged, "hash mismatch", "status=success", "203.0.113.9")

	var count int64
	if err := db.Model(&models.CallbackAudit{}).Where("txn_id = ?", "TIX-x").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 audit row, got %d", count)
	}
}
