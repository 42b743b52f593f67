package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/piresc/vidcredit/services/billing"
)

// SignatureHeader carries the signature when the body has none
const SignatureHeader = "X-Signature"

// Verifier checks webhook signatures against the gateway checksum key
type Verifier struct {
	checksumKey []byte
}

// NewVerifier creates a verifier. An empty key rejects every payload.
func NewVerifier(checksumKey string) *Verifier {
	return &Verifier{checksumKey: []byte(checksumKey)}
}

// Verify returns billing.ErrInvalidSignature unless env carries a valid signature
func (v *Verifier) Verify(env *Envelope, headerSignature string) error {
	if len(v.checksumKey) == 0 {
		return billing.ErrInvalidSignature
	}

	signature := env.Signature
	if signature == "" {
		signature = headerSignature
	}
	signature = strings.ToLower(strings.TrimSpace(signature))
	if signature == "" {
		return billing.ErrInvalidSignature
	}

	expected := sign(v.checksumKey, env.SignedFields())
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return billing.ErrInvalidSignature
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of fields in canonical form
func Sign(checksumKey string, fields map[string]interface{}) string {
	return sign([]byte(checksumKey), fields)
}

func sign(key []byte, fields map[string]interface{}) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(Canonical(fields)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Canonical renders fields as k1=v1&k2=v2 with keys sorted
func Canonical(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(renderValue(fields[k]))
	}
	return b.String()
}

func renderValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
