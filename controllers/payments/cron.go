package payments

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"eventix/models"
	"eventix/utils"
)

// ExpiredPaymentsHandler handles POST /v1/cron/expired-payments (protected
// via X-CRON-KEY header). Transactions still initiated past the expiry window
// are moved to the unknown fallback through the same CAS path a callback
// would take, so a late authentic callback racing the cron loses cleanly one
// way or the other.
func (c *Controller) ExpiredPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("X-CRON-KEY")
	if key == "" || key != os.Getenv("CRON_KEY") {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	expiryMin := 60
	if s := os.Getenv("PAYMENT_EXPIRY_MIN"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			expiryMin = v
		}
	}
	cutoff := time.Now().Add(-time.Duration(expiryMin) * time.Minute)

	var stale []models.PaymentTransaction
	if err := c.DB.Where("status = ? AND created_at <= ?", models.StatusInitiated, cutoff).Find(&stale).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	processed := 0
	for i := range stale {
		err := c.Store.Finalize(stale[i].TxnID, models.StatusUnknown, models.VerifyUnverifiable, nil, nil)
		if err == nil {
			processed++
			continue
		}
		if !errors.Is(err, ErrConflictingOutcome) {
			// Leave it for the next run.
			continue
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Cron executed", Data: map[string]interface{}{"processed": processed}})
}
