// Package address validates TON wallet addresses.
package address

import (
	"strings"

	"github.com/pkg/errors"
	tonaddress "github.com/xssnick/tonutils-go/address"
)

var ErrInvalid = errors.New("invalid TON address")

// Parse accepts the user-friendly base64 form (checksummed) and the raw "workchain:hex" form.
func Parse(s string) (*tonaddress.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalid
	}

	var (
		addr *tonaddress.Address
		err  error
	)
	if strings.Contains(s, ":") {
		addr, err = tonaddress.ParseRawAddr(s)
	} else {
		addr, err = tonaddress.ParseAddr(s)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrInvalid, "%q: %v", s, err)
	}
	return addr, nil
}

// Canonical returns the raw form used as the account key. User-friendly spellings of the same
// wallet differ in their bounce and testnet flags and collapse to one key here.
func Canonical(s string) (string, error) {
	addr, err := Parse(s)
	if err != nil {
		return "", err
	}
	return addr.StringRaw(), nil
}

// Destination validates a payout destination and keeps the caller's spelling, since the
// user-friendly flags decide whether the transfer bounces.
func Destination(s string) (string, error) {
	if _, err := Parse(s); err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}
