package webhook

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/shopspring/decimal"
)

// Timestamp layouts seen in gateway payloads, tried in order
var paidAtLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// gatewayZone is the zone of naive gateway timestamps
var gatewayZone = time.FixedZone("ICT", 7*60*60)

// Normalize extracts the business fields of either payload shape into one
// event. Missing or unparseable fields leave the Has* flags false.
func Normalize(env *Envelope) models.GatewayEvent {
	var event models.GatewayEvent

	if v, ok := env.lookup("orderCode"); ok {
		event.OrderCode, event.HasOrderCode = toInt64(v)
	}
	if v, ok := env.lookup("transferAmount", "amount"); ok {
		event.TransferAmount, event.HasAmount = toDecimal(v)
	}

	event.Code = toString(env.lookupValue("code", "statusCode"))
	event.Desc = toString(env.lookupValue("desc"))
	event.Reference = toString(env.lookupValue("reference"))
	event.PaymentLinkID = toString(env.lookupValue("paymentLinkId"))
	event.PaidAt = parsePaidAt(toString(env.lookupValue("transactionDateTime")))

	return event
}

func (e *Envelope) lookupValue(keys ...string) interface{} {
	v, _ := e.lookup(keys...)
	return v
}

func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		return n, err == nil
	case float64:
		return int64(val), val == float64(int64(val))
	}
	return 0, false
}

func toDecimal(v interface{}) (decimal.Decimal, bool) {
	var raw string
	switch val := v.(type) {
	case json.Number:
		raw = val.String()
	case string:
		raw = strings.TrimSpace(val)
	case float64:
		return decimal.NewFromFloat(val), true
	default:
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return renderValue(val)
	}
}

func parsePaidAt(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range paidAtLayouts {
		if t, err := time.ParseInLocation(layout, raw, gatewayZone); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
