package tonclient

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/Giorgio223/ton-pvp-app/pkg/service"
)

// PayoutClient sends withdrawals through the hot wallet service. It makes one request per call;
// the idempotency key lets the wallet service drop a replay of the same withdrawal.
type PayoutClient struct {
	http *resty.Client
}

func NewPayoutClient(cfg Config) *PayoutClient {
	return &PayoutClient{http: newRestClient(cfg)}
}

type transferRequest struct {
	Destination string `json:"destination"`
	Amount      string `json:"amount"`
	Comment     string `json:"comment"`
}

type transferResponse struct {
	TxHash string `json:"tx_hash"`
}

// Payout returns service.ErrPayoutNotSent, wrapped, only when the wallet service refused the
// transfer with a 4xx. Transport errors and 5xx leave the outcome unknown.
func (c *PayoutClient) Payout(ctx context.Context, req service.PayoutRequest) (service.PayoutReceipt, error) {
	var (
		result transferResponse
		apiErr apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", req.IdempotencyKey).
		SetBody(transferRequest{
			Destination: req.Destination,
			Amount:      req.Amount.String(),
			Comment:     req.Memo,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/transfer")
	if err != nil {
		return service.PayoutReceipt{}, errors.Wrap(err, "transfer request")
	}

	status := resp.StatusCode()
	switch {
	case notSent(status):
		return service.PayoutReceipt{}, errors.Wrapf(service.ErrPayoutNotSent, "wallet service %d: %s", status, apiErr.text())
	case resp.IsError():
		return service.PayoutReceipt{}, errors.Errorf("wallet service %d: %s", status, apiErr.text())
	case result.TxHash == "":
		return service.PayoutReceipt{}, errors.New("wallet service returned no transaction hash")
	}
	return service.PayoutReceipt{Reference: result.TxHash}, nil
}

// notSent reports a 4xx that proves the transfer was refused. A timeout or a conflict on the
// idempotency key may hide a transfer still in flight.
func notSent(status int) bool {
	if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
		return false
	}
	return status != http.StatusRequestTimeout && status != http.StatusConflict
}
