package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// SignHMAC returns lowercase hex of HMAC-SHA256 over "{unix ts}.{body}".
func SignHMAC(secret string, ts time.Time, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts.Unix(), 10)))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC checks a signature produced by SignHMAC and rejects timestamps
// further than tolerance from now. A zero tolerance skips the age check.
func VerifyHMAC(secret string, ts time.Time, body []byte, provided string, tolerance time.Duration) bool {
	if tolerance > 0 {
		age := time.Since(ts)
		if age < -tolerance || age > tolerance {
			return false
		}
	}
	got, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(SignHMAC(secret, ts, body))
	return hmac.Equal(want, got)
}
