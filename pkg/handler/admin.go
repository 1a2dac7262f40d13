package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Giorgio223/ton-pvp-app/models"
)

func (h *Handler) ListWithdrawals(c *gin.Context) {
	list, err := h.service.Withdrawal.ListWithdrawals(c.Request.Context(), models.WithdrawalFilter{
		Status:  models.WithdrawalStatus(c.Query("status")),
		Address: c.Query("address"),
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

func (h *Handler) ApproveWithdrawal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	w, err := h.service.Withdrawal.ApproveWithdrawal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, w)
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"withdrawal": w,
	})
}

func (h *Handler) RejectWithdrawal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req models.RejectWithdrawalRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			newErrorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	w, err := h.service.Withdrawal.RejectWithdrawal(c.Request.Context(), id, req.Note)
	if err != nil {
		respondError(c, err, w)
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"withdrawal": w,
	})
}

func (h *Handler) ConfirmDeposit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req models.ConfirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	d, result, err := h.service.Deposit.ConfirmDeposit(c.Request.Context(), id, req.TxRef)
	if err != nil {
		respondError(c, err, models.Withdrawal{})
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"deposit": d,
		"result":  result,
	})
}

func (h *Handler) ChargeStake(c *gin.Context) {
	var in models.GameMovementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	applied, err := h.service.Ledger.ChargeStake(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, models.Withdrawal{})
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"applied": applied,
	})
}

func (h *Handler) CreditReward(c *gin.Context) {
	var in models.GameMovementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	applied, err := h.service.Ledger.CreditReward(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, models.Withdrawal{})
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"applied": applied,
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		newErrorResponse(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
