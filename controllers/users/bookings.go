package users

import (
	"math"
	"net/http"
	"strconv"

	"eventix/models"
	"eventix/utils"

	"gorm.io/gorm"
)

type Controller struct {
	DB *gorm.DB
}

func NewController(db *gorm.DB) *Controller {
	return &Controller{DB: db}
}

// BookingsHandler handles GET /v1/users/bookings: the caller's bookings with
// the payment state of each attached transaction.
func (c *Controller) BookingsHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 10
	}

	var totalRows int64
	if err := c.DB.Model(&models.Booking{}).Where("user_id = ?", uid).Count(&totalRows).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	var rows []models.Booking
	if err := c.DB.Preload("Event").Where("user_id = ?", uid).
		Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&rows).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	// Attach payment state per booking.
	txnIDs := make([]string, 0, len(rows))
	for _, b := range rows {
		txnIDs = append(txnIDs, b.TxnID)
	}
	paymentMap := make(map[string]*models.PaymentTransaction)
	if len(txnIDs) > 0 {
		var txns []models.PaymentTransaction
		c.DB.Where("txn_id IN ?", txnIDs).Find(&txns)
		for i := range txns {
			paymentMap[txns[i].TxnID] = &txns[i]
		}
	}

	type bookingResponse struct {
		models.Booking
		PaymentStatus string `json:"payment_status"`
		Amount        string `json:"amount,omitempty"`
	}
	out := make([]bookingResponse, 0, len(rows))
	for _, b := range rows {
		item := bookingResponse{Booking: b, PaymentStatus: models.StatusInitiated}
		if txn, ok := paymentMap[b.TxnID]; ok {
			item.PaymentStatus = txn.Status
			item.Amount = txn.Amount
		}
		out = append(out, item)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: map[string]interface{}{
		"data": out,
		"pagination": map[string]interface{}{
			"page":        page,
			"limit":       limit,
			"total_rows":  totalRows,
			"total_pages": int(math.Ceil(float64(totalRows) / float64(limit))),
		},
	}})
}
