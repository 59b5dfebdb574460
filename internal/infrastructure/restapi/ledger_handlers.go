package restapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ledger_reporter/internal/client"
	"ledger_reporter/internal/config"
	"ledger_reporter/internal/domain/entity"
	"ledger_reporter/internal/port"
)

// LedgerHandler handles HTTP requests for the activity ledger.
type LedgerHandler struct {
	ledgerService port.LedgerService
	cfg           *config.Config
	logger        *zap.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ls port.LedgerService, cfg *config.Config, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ls,
		cfg:           cfg,
		logger:        logger.Named("LedgerHandler"),
	}
}

// GetLedgerHandler builds and returns the ledger for activity strictly newer
// than the required "since" query parameter (YYYY-MM-DD or RFC3339).
func (h *LedgerHandler) GetLedgerHandler(c *gin.Context) {
	sinceParam := c.Query("since")
	if sinceParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter: since"})
		return
	}
	since, err := parseSince(sinceParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since parameter, expected YYYY-MM-DD or RFC3339"})
		return
	}

	report, err := h.ledgerService.BuildLedger(c.Request.Context(), since)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetAccountsHandler returns snapshots of all accounts visible to the
// credential.
func (h *LedgerHandler) GetAccountsHandler(c *gin.Context) {
	accounts, err := h.ledgerService.ListAccounts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": accounts})
}

func (h *LedgerHandler) respondError(c *gin.Context, err error) {
	var transportErr *client.TransportError
	var unknownTypeErr *entity.UnknownTransactionTypeError

	switch {
	case errors.As(err, &transportErr):
		h.logger.Error("Upstream API failure", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &unknownTypeErr):
		h.logger.Error("Unhandled transaction type in API response", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Failed to build ledger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseSince(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
