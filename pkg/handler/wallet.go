package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Giorgio223/ton-pvp-app/models"
	"github.com/Giorgio223/ton-pvp-app/pkg/amount"
	"github.com/Giorgio223/ton-pvp-app/pkg/middleware"
)

func (h *Handler) GetBalance(c *gin.Context) {
	owner := middleware.SessionAddress(c)
	balance, err := h.service.Ledger.Balance(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err, models.Withdrawal{})
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"data": models.BalanceResponse{
			Address: owner,
			Balance: balance.String(),
			Display: amount.Format(balance),
		},
	})
}

func (h *Handler) GetLedger(c *gin.Context) {
	entries, err := h.service.Ledger.Entries(c.Request.Context(), middleware.SessionAddress(c), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err, models.Withdrawal{})
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"entries": entries,
	})
}

// CreateDeposit returns the deposit and where to send it. The memo must be used as the
// transfer comment.
func (h *Handler) CreateDeposit(c *gin.Context) {
	var req models.CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.service.Deposit.CreateDeposit(c.Request.Context(), middleware.SessionAddress(c), req.Amount)
	if err != nil {
		respondError(c, err, models.Withdrawal{})
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"deposit": d,
		"pay_to":  h.service.Deposit.PayToAddress(),
	})
}

func (h *Handler) ListDeposits(c *gin.Context) {
	deposits, err := h.service.Deposit.ListDeposits(c.Request.Context(), middleware.SessionAddress(c), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err, models.Withdrawal{})
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"deposits": deposits,
	})
}

func (h *Handler) CreateWithdrawal(c *gin.Context) {
	var req models.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	w, err := h.service.Withdrawal.CreateWithdrawal(c.Request.Context(), middleware.SessionAddress(c), req.Destination, req.Amount)
	if err != nil {
		respondError(c, err, w)
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"withdrawal": w,
	})
}

func (h *Handler) ListMyWithdrawals(c *gin.Context) {
	list, err := h.service.Withdrawal.ListWithdrawals(c.Request.Context(), models.WithdrawalFilter{
		Address: middleware.SessionAddress(c),
		Limit:   queryInt(c, "limit"),
		Offset:  queryInt(c, "offset"),
	})
	if err != nil {
		respondError(c, err, models.Withdrawal{})
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"withdrawals": list,
	})
}

// queryInt returns 0 for a missing or malformed value; services apply their own defaults.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
