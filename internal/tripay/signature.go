package tripay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CallbackSignatureHeader carries the hex HMAC-SHA256 of the raw callback body.
const CallbackSignatureHeader = "X-Callback-Signature"

// CallbackEventHeader names the callback kind.
const CallbackEventHeader = "X-Callback-Event"

// EventPaymentStatus is the only callback kind that carries a payment status.
const EventPaymentStatus = "payment_status"

// Sign returns hex(HMAC-SHA256(data, key)).
func Sign(data []byte, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallback checks signature against the exact bytes received. The
// comparison is constant time; a signature that is not valid hex never matches.
func VerifyCallback(rawBody []byte, signature, key string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" || key == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(rawBody)
	return hmac.Equal(got, mac.Sum(nil))
}

// TransactionSignature signs a closed-payment request:
// hex(HMAC-SHA256(merchantCode + merchantRef + amount, privateKey)).
func TransactionSignature(merchantCode, merchantRef string, amount int64, privateKey string) string {
	return Sign([]byte(merchantCode+merchantRef+formatAmount(amount)), privateKey)
}
