package payments

import (
	"errors"
	"net/http"

	"eventix/models"
	"eventix/utils"

	"github.com/gorilla/mux"
)

// ResultPageHandler serves GET /payment/{success|failure}/{txnid}: the page
// the browser lands on after a callback. It echoes the forwarded gateway
// fields and the stored record without re-verifying anything.
func (c *Controller) ResultPageHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	txnid := vars["txnid"]
	outcome := vars["outcome"]

	forwarded := map[string]string{}
	for k, vals := range r.URL.Query() {
		if len(vals) > 0 {
			forwarded[k] = vals[0]
		}
	}

	data := map[string]interface{}{
		"txnid":   txnid,
		"outcome": outcome,
		"gateway": forwarded,
	}

	txn, err := c.Store.Get(txnid)
	if err == nil {
		data["status"] = txn.Status
		data["amount"] = txn.Amount
		data["verify_outcome"] = utils.GetStringValue(txn.VerifyOutcome)
		data["gateway_ref_id"] = utils.GetStringValue(txn.GatewayRefID)
	} else if !errors.Is(err, ErrTxnNotFound) {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: outcome == "success",
		Message: resultMessage(outcome),
		Data:    data,
	})
}

func resultMessage(outcome string) string {
	if outcome == "success" {
		return "Payment completed"
	}
	return "Payment not completed"
}

// StatusHandler serves GET /v1/payments/{txnid} for the transaction's owner.
// While the record is still initiated it opportunistically runs the same
// bounded out-of-band inquiry the verification engine uses, so a user polling
// after closing the gateway tab can still see the settled state.
func (c *Controller) StatusHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	txnid := mux.Vars(r)["txnid"]

	txn, err := c.Store.Get(txnid)
	if err != nil {
		if errors.Is(err, ErrTxnNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Transaction not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}
	if txn.UserID != uid {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Transaction not found"})
		return
	}

	if !txn.Terminal() {
		if updated := c.inquireAndSettle(r, txn); updated != nil {
			txn = updated
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: txn})
}

// inquireAndSettle runs a bounded verify_payment inquiry for a still-pending
// transaction and finalizes on a definitive answer. Returns the reloaded
// record when anything changed.
func (c *Controller) inquireAndSettle(r *http.Request, txn *models.PaymentTransaction) *models.PaymentTransaction {
	ctx, cancel := contextWithVerifyTimeout(r)
	defer cancel()

	rec, err := utils.VerifyPayment(ctx, c.HTTPClient, c.Cfg, txn.TxnID)
	if err != nil || !utils.IsDefinitiveGatewayStatus(rec.Status) {
		return nil
	}

	status := models.StatusFailure
	if utils.IsGatewaySuccessStatus(rec.Status) {
		status = models.StatusSuccess
	}
	var gatewayRef *string
	if rec.MihpayID != "" {
		gatewayRef = &rec.MihpayID
	}
	if ferr := c.Store.Finalize(txn.TxnID, status, models.VerifyAuthentic, gatewayRef, nil); ferr != nil && !errors.Is(ferr, ErrConflictingOutcome) {
		return nil
	}
	cur, gerr := c.Store.Get(txn.TxnID)
	if gerr != nil {
		return nil
	}
	return cur
}
