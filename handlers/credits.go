package handlers

import (
	"net/http"

	"driftwell/services/ledger"
	"driftwell/utils"

	"github.com/gin-gonic/gin"
)

// CreditHandler exposes credit balance and history reads.
type CreditHandler struct {
	Ledger ledger.Service
}

func NewCreditHandler(svc ledger.Service) *CreditHandler {
	return &CreditHandler{Ledger: svc}
}

func (h *CreditHandler) GetBalance(c *gin.Context) {
	userID := c.Param("userID")
	balance, err := h.Ledger.Balance(c.Request.Context(), userID)
	if err != nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "failed to fetch balance", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID, "balanceCents": balance})
}

func (h *CreditHandler) GetEntries(c *gin.Context) {
	userID := c.Param("userID")
	entries, err := h.Ledger.Entries(c.Request.Context(), userID)
	if err != nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "failed to fetch ledger entries", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID, "entries": entries})
}
