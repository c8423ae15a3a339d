package payments

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"eventix/models"
	"eventix/utils"

	"github.com/gorilla/mux"
)

// SuccessCallbackHandler handles GET|POST /v1/payments/callback/success/{txnid}.
// The outcome in the path is only a routing hint; the verified status field
// decides what gets stored.
func (c *Controller) SuccessCallbackHandler(w http.ResponseWriter, r *http.Request) {
	c.handleCallback(w, r)
}

// FailureCallbackHandler handles GET|POST /v1/payments/callback/failure/{txnid}.
func (c *Controller) FailureCallbackHandler(w http.ResponseWriter, r *http.Request) {
	c.handleCallback(w, r)
}

// handleCallback runs the callback pipeline: normalize, verify, reconcile,
// redirect. Every path out of here is a 302 to one of our own result pages.
func (c *Controller) handleCallback(w http.ResponseWriter, r *http.Request) {
	txnid := mux.Vars(r)["txnid"]
	fields, rawBody := utils.NormalizeCallback(r, txnid)

	page := c.resolveCallback(r.Context(), txnid, fields, rawBody, remoteIP(r))

	http.Redirect(w, r, BuildResultRedirect(c.Cfg.AppBaseURL, page, txnid, fields), http.StatusFound)
}

// resolveCallback authenticates the callback and reconciles the store,
// returning which result page ("success" or "failure") the browser lands on.
func (c *Controller) resolveCallback(ctx context.Context, txnid string, fields utils.CallbackFields, rawBody, ip string) string {
	txn, err := c.Store.Get(txnid)
	if err != nil {
		if errors.Is(err, ErrTxnNotFound) {
			// Unsolicited callback. Only initiation creates records, so this
			// is logged and dead-ended.
			c.Store.Audit(txnid, models.VerifyUnverifiable, "callback for unknown txnid", rawBody, ip)
		} else {
			log.Printf("[PayU] store lookup failed txnid=%s: %v", txnid, err)
		}
		return "failure"
	}

	switch err := utils.VerifyCallbackHash(c.Cfg.Key, c.Cfg.Salt, fields); {
	case err == nil:
		return c.applyAuthentic(txn, fields, rawBody, ip)

	case errors.Is(err, utils.ErrHashMismatch):
		// Forged. The claimed status is never stored and the transaction is
		// untouched. The user gets the failure page either way, so a forger
		// learns nothing from the response.
		c.Store.Audit(txnid, models.VerifyForged, "hash mismatch", rawBody, ip)
		return "failure"

	default:
		// Hash not recomputable. A terminal record already has its answer;
		// anything still pending gets the gateway's own record within the
		// redirect deadline.
		if txn.Terminal() {
			if txn.Status == models.StatusSuccess {
				return "success"
			}
			return "failure"
		}
		return c.applyOutOfBand(ctx, txn, fields, rawBody, ip)
	}
}

// applyAuthentic persists the outcome of a hash-verified callback.
func (c *Controller) applyAuthentic(txn *models.PaymentTransaction, fields utils.CallbackFields, rawBody, ip string) string {
	// The hash covers the body txnid and amount, so a valid hash only proves
	// the callback is authentic for THAT transaction. Bind it to the record
	// the path looked up; otherwise a replayed callback for some other
	// transaction would finalize this one.
	if fields.Get("txnid") != txn.TxnID || fields.Get("amount") != txn.Amount {
		c.Store.Audit(txn.TxnID, models.VerifyForged, "verified fields do not match transaction", rawBody, ip)
		return "failure"
	}

	status := models.StatusFailure
	page := "failure"
	if utils.IsGatewaySuccessStatus(fields.Get("status")) {
		status = models.StatusSuccess
		page = "success"
	}

	var gatewayRef *string
	if ref := fields.Get("mihpayid"); ref != "" {
		gatewayRef = &ref
	}

	err := c.Store.Finalize(txn.TxnID, status, models.VerifyAuthentic, gatewayRef, &rawBody)
	switch {
	case err == nil:
		return page
	case errors.Is(err, ErrConflictingOutcome):
		// Authentic but contradicting the stored terminal state. Never
		// overwrite; log it and show the user what actually stands.
		c.Store.Audit(txn.TxnID, models.VerifyAuthentic, "conflicting callback rejected, stored status kept", rawBody, ip)
		if cur, gerr := c.Store.Get(txn.TxnID); gerr == nil && cur.Status == models.StatusSuccess {
			return "success"
		}
		return "failure"
	default:
		log.Printf("[PayU] finalize failed txnid=%s: %v", txn.TxnID, err)
		return "failure"
	}
}

// applyOutOfBand resolves a locally unverifiable callback via the gateway's
// verify_payment API, bounded by verifyTimeout so the redirect stays prompt.
func (c *Controller) applyOutOfBand(ctx context.Context, txn *models.PaymentTransaction, fields utils.CallbackFields, rawBody, ip string) string {
	vctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	rec, err := utils.VerifyPayment(vctx, c.HTTPClient, c.Cfg, txn.TxnID)
	if err == nil && utils.IsDefinitiveGatewayStatus(rec.Status) {
		status := models.StatusFailure
		page := "failure"
		if utils.IsGatewaySuccessStatus(rec.Status) {
			status = models.StatusSuccess
			page = "success"
		}
		var gatewayRef *string
		if rec.MihpayID != "" {
			gatewayRef = &rec.MihpayID
		}
		if ferr := c.Store.Finalize(txn.TxnID, status, models.VerifyAuthentic, gatewayRef, &rawBody); ferr != nil && !errors.Is(ferr, ErrConflictingOutcome) {
			log.Printf("[PayU] finalize after inquiry failed txnid=%s: %v", txn.TxnID, ferr)
		}
		return page
	}

	if err != nil {
		log.Printf("[PayU] verify_payment unavailable txnid=%s: %v", txn.TxnID, err)
	}

	// Unverifiable for now. Record the evidence, answer the browser, and let
	// the background pass settle the ledger after the redirect has gone out.
	c.Store.Audit(txn.TxnID, models.VerifyUnverifiable, "hash not recomputable, inquiry inconclusive", rawBody, ip)
	go c.reverifyLater(txn.TxnID)
	return "failure"
}

// reverifyLater is the deferred half of out-of-band reconciliation: one more
// inquiry after a delay, then the unknown fallback. Runs detached from the
// request; results go to the store only.
func (c *Controller) reverifyLater(txnid string) {
	time.Sleep(c.asyncRetryDelay)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	rec, err := utils.VerifyPayment(ctx, c.HTTPClient, c.Cfg, txnid)
	if err == nil && utils.IsDefinitiveGatewayStatus(rec.Status) {
		status := models.StatusFailure
		if utils.IsGatewaySuccessStatus(rec.Status) {
			status = models.StatusSuccess
		}
		var gatewayRef *string
		if rec.MihpayID != "" {
			gatewayRef = &rec.MihpayID
		}
		if ferr := c.Store.Finalize(txnid, status, models.VerifyAuthentic, gatewayRef, nil); ferr != nil && !errors.Is(ferr, ErrConflictingOutcome) {
			log.Printf("[PayU] deferred finalize failed txnid=%s: %v", txnid, ferr)
		}
		return
	}

	// No out-of-band check succeeded: terminal unknown, unless a callback
	// beat us to a real outcome in the meantime.
	if ferr := c.Store.Finalize(txnid, models.StatusUnknown, models.VerifyUnverifiable, nil, nil); ferr != nil && !errors.Is(ferr, ErrConflictingOutcome) {
		log.Printf("[PayU] unknown fallback failed txnid=%s: %v", txnid, ferr)
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
