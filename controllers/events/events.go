package events

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"eventix/models"
	"eventix/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type Controller struct {
	DB *gorm.DB
}

func NewController(db *gorm.DB) *Controller {
	return &Controller{DB: db}
}

// ListHandler handles GET /v1/events with page/limit/search parameters.
func (c *Controller) ListHandler(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 10
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	countQuery := c.DB.Model(&models.Event{}).Where("status = ?", "Active")
	if search != "" {
		countQuery = countQuery.Where("name LIKE ?", "%"+search+"%")
	}
	var totalRows int64
	if err := countQuery.Count(&totalRows).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	var rows []models.Event
	query := c.DB.Where("status = ?", "Active")
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if err := query.Order("starts_at ASC").Limit(limit).Offset((page - 1) * limit).Find(&rows).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: map[string]interface{}{
		"data": rows,
		"pagination": map[string]interface{}{
			"page":        page,
			"limit":       limit,
			"total_rows":  totalRows,
			"total_pages": int(math.Ceil(float64(totalRows) / float64(limit))),
		},
	}})
}

// GetHandler handles GET /v1/events/{id}.
func (c *Controller) GetHandler(w http.ResponseWriter, r *http.Request) {
	id64, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id64 == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid id"})
		return
	}
	var row models.Event
	if err := c.DB.Where("id = ?", uint(id64)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Event not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: row})
}
