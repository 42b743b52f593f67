package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/piresc/vidcredit/services/billing"
)

// Envelope is a decoded webhook body. Gateways send the business fields
// either nested under "data" or flat at the root.
type Envelope struct {
	Root      map[string]interface{}
	Data      map[string]interface{} // nil for the flat shape
	Signature string
}

// Parse decodes body, keeping numbers as json.Number so order codes and
// amounts survive without float rounding
func Parse(body []byte) (*Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var root map[string]interface{}
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", billing.ErrMalformedPayload, err)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: body is not an object", billing.ErrMalformedPayload)
	}

	env := &Envelope{Root: root}
	if data, ok := root["data"].(map[string]interface{}); ok {
		env.Data = data
	}
	if sig, ok := root["signature"].(string); ok {
		env.Signature = sig
	}
	return env, nil
}

// Nested reports whether the business fields came under "data"
func (e *Envelope) Nested() bool {
	return e.Data != nil
}

// SignedFields returns the object the signature covers
func (e *Envelope) SignedFields() map[string]interface{} {
	if e.Nested() {
		return e.Data
	}
	fields := make(map[string]interface{}, len(e.Root))
	for k, v := range e.Root {
		if k != "signature" {
			fields[k] = v
		}
	}
	return fields
}

// lookup returns key from the nested object first, then from the root
func (e *Envelope) lookup(keys ...string) (interface{}, bool) {
	for _, key := range keys {
		if e.Data != nil {
			if v, ok := e.Data[key]; ok && v != nil {
				return v, true
			}
		}
		if v, ok := e.Root[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
