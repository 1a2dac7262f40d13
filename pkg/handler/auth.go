package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Giorgio223/ton-pvp-app/models"
	"github.com/Giorgio223/ton-pvp-app/pkg/amount"
	"github.com/Giorgio223/ton-pvp-app/pkg/middleware"
)

func (h *Handler) Login(c *gin.Context) {
	var input models.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.service.Ledger.Login(c.Request.Context(), input.Address)
	if err != nil {
		respondError(c, err, models.Withdrawal{})
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"account": account,
		"pay_to":  h.service.Deposit.PayToAddress(),
	})
}

func (h *Handler) GetMe(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.SessionAddress(c)

	account, err := h.service.Ledger.GetAccount(ctx, owner)
	if err != nil {
		respondError(c, err, models.Withdrawal{})
		return
	}
	balance, err := h.service.Ledger.Balance(ctx, owner)
	if err != nil {
		respondError(c, err, models.Withdrawal{})
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"account": account,
		"balance": models.BalanceResponse{
			Address: owner,
			Balance: balance.String(),
			Display: amount.Format(balance),
		},
	})
}
