package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"eventix/models"
	"eventix/utils"

	"gorm.io/gorm"
)

type InitiateRequest struct {
	Amount    string `json:"amount" validate:"required,amountpos"`
	Firstname string `json:"firstname" validate:"required,nameok"`
	Email     string `json:"email" validate:"required,email"`
	Mobile    string `json:"mobile" validate:"required,phone10"`
	// Either a catalog booking (event_id + quantity) or free-form product
	// data; one of the two must be present.
	EventID  uint            `json:"event_id"`
	Quantity int             `json:"quantity"`
	Product  json.RawMessage `json:"product"`
}

// productInfo is what gets flattened into the gateway's opaque productinfo
// string for catalog bookings. The gateway echoes it back verbatim.
type productInfo struct {
	EventID   uint   `json:"event_id"`
	EventName string `json:"event_name"`
	Qty       int    `json:"qty"`
}

// InitiateHandler handles POST /v1/payments/initiate. It validates the
// input, persists the transaction in initiated state, and only then hands
// back the signed self-submitting form, so a callback arriving before the
// client even rendered the form already has a record to land on.
func (c *Controller) InitiateHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Not valid JSON"})
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: err.Error()})
		return
	}

	// Keep the exact string the gateway will hash: parse for validity,
	// reformat once, use that everywhere.
	amountF, err := strconv.ParseFloat(req.Amount, 64)
	if err != nil || amountF <= 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Amount must be a positive number"})
		return
	}
	amount := fmt.Sprintf("%.2f", amountF)

	if req.Quantity < 1 {
		req.Quantity = 1
	}

	var event *models.Event
	var info string
	switch {
	case req.EventID != 0:
		var ev models.Event
		if err := c.DB.Where("id = ? AND status = 'Active'", req.EventID).First(&ev).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Event not found"})
				return
			}
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong, try again"})
			return
		}
		event = &ev
		encoded, _ := json.Marshal(productInfo{EventID: ev.ID, EventName: ev.Name, Qty: req.Quantity})
		info = string(encoded)
	case len(req.Product) != 0:
		compact, err := compactJSON(req.Product)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Product must be valid JSON"})
			return
		}
		info = compact
	default:
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Either event_id or product is required"})
		return
	}

	txnid := utils.GenerateTxnID()
	payReq := &utils.PaymentRequest{
		TxnID:       txnid,
		Amount:      amount,
		ProductInfo: info,
		Firstname:   req.Firstname,
		Email:       req.Email,
		Phone:       req.Mobile,
		SURL:        c.Cfg.SuccessURL(txnid),
		FURL:        c.Cfg.FailureURL(txnid),
	}

	hash, err := utils.SignRequest(c.Cfg.Key, c.Cfg.Salt, payReq)
	if err != nil {
		// Validation already covered the user-supplied fields, so this is a
		// server-side configuration problem. No request leaves without a hash.
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Payment signing failed"})
		return
	}

	txn := models.PaymentTransaction{
		TxnID:       txnid,
		UserID:      uid,
		Amount:      amount,
		Currency:    "INR",
		ProductInfo: info,
		Firstname:   req.Firstname,
		Email:       req.Email,
		Phone:       req.Mobile,
	}

	if err := c.DB.Transaction(func(tx *gorm.DB) error {
		if err := (&Store{DB: tx}).Create(&txn); err != nil {
			return err
		}
		if event != nil {
			booking := models.Booking{
				UserID:   uid,
				EventID:  event.ID,
				TxnID:    txnid,
				Quantity: req.Quantity,
				Status:   "Pending",
			}
			if err := tx.Create(&booking).Error; err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		// No durable pending record means no gateway request: an authentic
		// callback must never arrive for a transaction we cannot match.
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Could not start payment, please try again"})
		return
	}

	resp := map[string]interface{}{
		"txnid":     txnid,
		"amount":    amount,
		"action":    c.Cfg.PaymentURL,
		"fields":    utils.GatewayFormValues(c.Cfg, payReq, hash),
		"form_html": utils.BuildPaymentForm(c.Cfg, payReq, hash),
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Payment initiated", Data: resp})
}

func compactJSON(raw json.RawMessage) (string, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
