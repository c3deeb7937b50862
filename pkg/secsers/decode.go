package secsers

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// The panel serializes the same field as a string, a number, or a bool
// depending on the day. These helpers accept every observed encoding and
// report absence instead of inventing zero values.

func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func decodeSnapshot(raw json.RawMessage) (OrderStatusSnapshot, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return OrderStatusSnapshot{}, err
	}
	if msg, ok := looseString(fields["error"]); ok && strings.TrimSpace(msg) != "" {
		return OrderStatusSnapshot{Error: strings.TrimSpace(msg)}, nil
	}

	snap := OrderStatusSnapshot{}
	if status, ok := looseString(fields["status"]); ok {
		snap.Status = strings.TrimSpace(status)
	}
	snap.Charge, _ = looseDecimal(fields["charge"])
	snap.StartCount, _ = looseInt(fields["start_count"])
	snap.Remains, _ = looseInt(fields["remains"])
	if currency, ok := looseString(fields["currency"]); ok && strings.TrimSpace(currency) != "" {
		trimmed := strings.TrimSpace(currency)
		snap.Currency = &trimmed
	}
	return snap, nil
}

func decodeServiceRow(fields map[string]json.RawMessage) (ServiceRow, bool) {
	idText, ok := looseString(fields["service"])
	if !ok {
		return ServiceRow{}, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(idText), 10, 64)
	if err != nil || id <= 0 {
		return ServiceRow{}, false
	}

	row := ServiceRow{ServiceID: id}
	row.Name, _ = looseString(fields["name"])
	row.Type, _ = looseString(fields["type"])
	row.Category, _ = looseString(fields["category"])
	if rate, ok := looseDecimal(fields["rate"]); ok {
		row.Rate = *rate
	}
	if min, ok := looseInt(fields["min"]); ok {
		row.Min = *min
	}
	if max, ok := looseInt(fields["max"]); ok {
		row.Max = *max
	}
	row.Dripfeed = looseBool(fields["dripfeed"])
	row.Refill = looseBool(fields["refill"])
	return row, true
}

func looseString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), true
	}
	return "", false
}

func looseInt(raw json.RawMessage) (*int, bool) {
	text, ok := looseString(raw)
	if !ok {
		return nil, false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	if v, err := strconv.Atoi(text); err == nil {
		return &v, true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, false
	}
	v := int(f)
	return &v, true
}

func looseDecimal(raw json.RawMessage) (*decimal.Decimal, bool) {
	text, ok := looseString(raw)
	if !ok {
		return nil, false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, false
	}
	return &d, true
}

func looseBool(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	text, ok := looseString(raw)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
