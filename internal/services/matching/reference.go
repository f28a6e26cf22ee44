package matching

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MerchantRefPrefix tags every merchant_ref this storefront hands to the gateway.
const MerchantRefPrefix = "ZB"

const refSeparator = "-"

var ErrMalformedReference = errors.New("malformed merchant reference")

// BuildMerchantRef encodes a transaction id as ZB-<id>-<unix seconds>.
func BuildMerchantRef(transactionID uint, at time.Time) string {
	return fmt.Sprintf("%s%s%d%s%d", MerchantRefPrefix, refSeparator, transactionID, refSeparator, at.Unix())
}

// ParseMerchantRef extracts the transaction id from a merchant_ref. The prefix
// must be exactly ZB and the id a positive integer. Anything after the id is
// not interpreted.
func ParseMerchantRef(ref string) (uint, error) {
	parts := strings.Split(strings.TrimSpace(ref), refSeparator)
	if len(parts) < 2 {
		return 0, fmt.Errorf("%w: %q has no id segment", ErrMalformedReference, ref)
	}
	if parts[0] != MerchantRefPrefix {
		return 0, fmt.Errorf("%w: %q does not start with %s", ErrMalformedReference, ref, MerchantRefPrefix)
	}

	id, err := strconv.ParseUint(parts[1], 10, strconv.IntSize)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q has no positive transaction id", ErrMalformedReference, ref)
	}
	return uint(id), nil
}
