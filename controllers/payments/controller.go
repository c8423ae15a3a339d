package payments

import (
	"context"
	"net/http"
	"time"

	"eventix/utils"

	"gorm.io/gorm"
)

// verifyTimeout bounds the inline out-of-band status query during callback
// handling; the gateway expects a prompt redirect.
const verifyTimeout = 5 * time.Second

type Controller struct {
	DB    *gorm.DB
	Cfg   utils.PayUConfig
	Store *Store

	// HTTPClient performs out-of-band gateway calls; replaceable in tests.
	HTTPClient *http.Client

	// asyncRetryDelay spaces the background re-verification attempt after an
	// inline inquiry failed.
	asyncRetryDelay time.Duration
}

func NewController(db *gorm.DB, cfg utils.PayUConfig) *Controller {
	return &Controller{
		DB:              db,
		Cfg:             cfg,
		Store:           &Store{DB: db},
		HTTPClient:      &http.Client{Timeout: 10 * time.Second},
		asyncRetryDelay: 30 * time.Second,
	}
}

func contextWithVerifyTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), verifyTimeout)
}
