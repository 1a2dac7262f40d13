package tonclient

import (
	"context"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/Giorgio223/ton-pvp-app/models"
)

// Indexer reads transactions of the custodial wallet from a toncenter v3 compatible API.
type Indexer struct {
	http   *resty.Client
	wallet string
}

func NewIndexer(cfg Config, wallet string) *Indexer {
	return &Indexer{http: newRestClient(cfg), wallet: wallet}
}

type transactionsResponse struct {
	Transactions []transaction `json:"transactions"`
}

type transaction struct {
	Hash  string   `json:"hash"`
	LT    string   `json:"lt"`
	InMsg *message `json:"in_msg"`
}

type message struct {
	Source         string          `json:"source"`
	Value          string          `json:"value"`
	Bounced        bool            `json:"bounced"`
	MessageContent *messageContent `json:"message_content"`
}

type messageContent struct {
	Decoded *struct {
		Type    string `json:"type"`
		Comment string `json:"comment"`
	} `json:"decoded"`
}

// IncomingTransfers returns inbound value transfers with logical time strictly above after,
// oldest first, and the highest logical time on the fetched page. External messages and bounces
// are skipped but still count as scanned.
func (i *Indexer) IncomingTransfers(ctx context.Context, after uint64, limit int) ([]models.IncomingTransfer, uint64, error) {
	var (
		result transactionsResponse
		apiErr apiError
	)
	resp, err := i.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"account":  i.wallet,
			"start_lt": strconv.FormatUint(after+1, 10),
			"limit":    strconv.Itoa(limit),
			"sort":     "asc",
		}).
		SetResult(&result).
		SetError(&apiErr).
		Get("/api/v3/transactions")
	if err != nil {
		return nil, 0, errors.Wrap(err, "indexer request")
	}
	if resp.IsError() {
		return nil, 0, errors.Errorf("indexer %d: %s", resp.StatusCode(), apiErr.text())
	}

	var scanned uint64
	transfers := make([]models.IncomingTransfer, 0, len(result.Transactions))
	for _, tx := range result.Transactions {
		lt, err := strconv.ParseUint(tx.LT, 10, 64)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "transaction %s lt", tx.Hash)
		}
		if lt > scanned {
			scanned = lt
		}
		if lt <= after || tx.InMsg == nil || tx.InMsg.Source == "" || tx.InMsg.Bounced {
			continue
		}
		value, err := decimal.NewFromString(tx.InMsg.Value)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "transaction %s value", tx.Hash)
		}
		if !value.IsPositive() {
			continue
		}
		transfers = append(transfers, models.IncomingTransfer{
			Hash:        tx.Hash,
			LogicalTime: lt,
			Source:      tx.InMsg.Source,
			Amount:      value,
			Memo:        tx.InMsg.comment(),
		})
	}
	return transfers, scanned, nil
}

func (m *message) comment() string {
	if m.MessageContent == nil || m.MessageContent.Decoded == nil {
		return ""
	}
	if m.MessageContent.Decoded.Type != "text_comment" {
		return ""
	}
	return m.MessageContent.Decoded.Comment
}
