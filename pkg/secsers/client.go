package secsers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marcoalvarez/boostgrid-backend/pkg/config"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
	"github.com/marcoalvarez/boostgrid-backend/pkg/logger"
	"github.com/marcoalvarez/boostgrid-backend/pkg/metrics"
)

// Actions accepted by the panel endpoint. Every operation is the same
// form-encoded POST with a different action value.
const (
	actionServices     = "services"
	actionAdd          = "add"
	actionStatus       = "status"
	actionRefill       = "refill"
	actionRefillStatus = "refill_status"
	actionBalance      = "balance"
)

// StatusBatchLimit is the maximum number of order ids the panel accepts in
// one status call.
const StatusBatchLimit = 100

const maxResponseBytes = 1 << 20

var (
	errAPIURLRequired = errors.New("secsers api url is required")
	errAPIKeyRequired = errors.New("secsers api key is required")
	errLoggerRequired = errors.New("secsers logger is required")
)

// Client exposes the Secsers panel operations with centralized auth,
// logging, metrics, and error mapping. The panel is loosely typed: numbers
// arrive as strings or numbers interchangeably, and absent keys mean
// "no value", never zero.
type Client struct {
	apiURL  string
	apiKey  string
	http    *http.Client
	logger  *logger.Logger
	metrics *metrics.ProviderMetrics
}

// NewClient initializes the panel client and validates the credentials.
// Metrics may be nil (workers without a registry).
func NewClient(ctx context.Context, cfg config.SecsersConfig, logg *logger.Logger, pm *metrics.ProviderMetrics) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	apiURL := strings.TrimSpace(cfg.APIURL)
	if apiURL == "" {
		return nil, errAPIURLRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		apiURL:  apiURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logg,
		metrics: pm,
	}

	logg.Info(ctx, "secsers client initialized")
	return c, nil
}

// ServiceRow is one entry of the panel catalog.
type ServiceRow struct {
	ServiceID int64
	Name      string
	Type      string
	Category  string
	Rate      decimal.Decimal
	Min       int
	Max       int
	Dripfeed  bool
	Refill    bool
}

// AddOrderInput carries the parameters for placing a panel order. Runs and
// Interval are the optional drip-feed knobs and must be set together.
type AddOrderInput struct {
	ServiceID int64
	Link      string
	Quantity  int
	Runs      *int
	Interval  *int
}

// PlacedOrder is the panel's acknowledgment of a new order.
type PlacedOrder struct {
	OrderID string
}

// OrderStatusSnapshot is the panel's view of one order. Pointer fields stay
// nil when the panel omitted the key. Error carries the per-order failure
// message inside a batch response; single-order calls never return it.
type OrderStatusSnapshot struct {
	Status     string
	Charge     *decimal.Decimal
	StartCount *int
	Remains    *int
	Currency   *string
	Error      string
}

// RefillHandle identifies a refill request for later status polling.
type RefillHandle struct {
	RefillID string
}

// BalanceInfo is the reseller account balance held at the panel.
type BalanceInfo struct {
	Balance  decimal.Decimal
	Currency string
}

// Services fetches the panel catalog. Rows missing a usable service id are
// skipped and logged rather than failing the whole sync.
func (c *Client) Services(ctx context.Context) ([]ServiceRow, error) {
	c.log(ctx, "request", actionServices, nil)

	raw, err := c.call(ctx, actionServices, url.Values{})
	if err != nil {
		c.log(ctx, "error", actionServices, map[string]any{"error": err.Error()})
		return nil, err
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeProvider, err, "secsers services failed: decode response")
		c.log(ctx, "error", actionServices, map[string]any{"error": wrapped.Error()})
		return nil, wrapped
	}

	rows := make([]ServiceRow, 0, len(items))
	skipped := 0
	for _, fields := range items {
		row, ok := decodeServiceRow(fields)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	c.log(ctx, "response", actionServices, map[string]any{"services": len(rows), "skipped": skipped})
	return rows, nil
}

// AddOrder places an order with the panel and returns its order id.
func (c *Client) AddOrder(ctx context.Context, input AddOrderInput) (*PlacedOrder, error) {
	params := url.Values{}
	params.Set("service", strconv.FormatInt(input.ServiceID, 10))
	params.Set("link", input.Link)
	params.Set("quantity", strconv.Itoa(input.Quantity))
	if input.Runs != nil {
		params.Set("runs", strconv.Itoa(*input.Runs))
	}
	if input.Interval != nil {
		params.Set("interval", strconv.Itoa(*input.Interval))
	}

	c.log(ctx, "request", actionAdd, map[string]any{
		"service":  input.ServiceID,
		"quantity": input.Quantity,
		"link":     input.Link,
	})

	raw, err := c.call(ctx, actionAdd, params)
	if err != nil {
		c.log(ctx, "error", actionAdd, map[string]any{"error": err.Error()})
		return nil, err
	}

	fields, err := decodeObject(raw)
	if err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeProvider, err, "secsers add failed: decode response")
		c.log(ctx, "error", actionAdd, map[string]any{"error": wrapped.Error()})
		return nil, wrapped
	}
	orderID, ok := looseString(fields["order"])
	if !ok || strings.TrimSpace(orderID) == "" {
		wrapped := pkgerrors.New(pkgerrors.CodeProvider, "secsers add failed: response missing order id")
		c.log(ctx, "error", actionAdd, map[string]any{"error": wrapped.Error()})
		return nil, wrapped
	}

	placed := &PlacedOrder{OrderID: strings.TrimSpace(orderID)}
	c.log(ctx, "response", actionAdd, map[string]any{"order": placed.OrderID})
	return placed, nil
}

// OrderStatus polls one panel order.
func (c *Client) OrderStatus(ctx context.Context, providerOrderID string) (*OrderStatusSnapshot, error) {
	params := url.Values{}
	params.Set("order", providerOrderID)

	c.log(ctx, "request", actionStatus, map[string]any{"order": providerOrderID})

	raw, err := c.call(ctx, actionStatus, params)
	if err != nil {
		c.log(ctx, "error", actionStatus, map[string]any{"error": err.Error()})
		return nil, err
	}

	snap, err := decodeSnapshot(raw)
	if err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeProvider, err, "secsers status failed: decode response")
		c.log(ctx, "error", actionStatus, map[string]any{"error": wrapped.Error()})
		return nil, wrapped
	}
	if snap.Error != "" {
		wrapped := pkgerrors.New(pkgerrors.CodeProvider, fmt.Sprintf("secsers status failed: %s", snap.Error))
		c.log(ctx, "error", actionStatus, map[string]any{"error": wrapped.Error()})
		return nil, wrapped
	}

	c.log(ctx, "response", actionStatus, map[string]any{
		"order":  providerOrderID,
		"status": snap.Status,
	})
	return &snap, nil
}

// OrderStatusBatch polls up to StatusBatchLimit orders in one call. The
// result is keyed by provider order id; per-order failures land in the
// snapshot's Error field instead of failing the call.
func (c *Client) OrderStatusBatch(ctx context.Context, providerOrderIDs []string) (map[string]OrderStatusSnapshot, error) {
	if len(providerOrderIDs) == 0 {
		return map[string]OrderStatusSnapshot{}, nil
	}
	if len(providerOrderIDs) > StatusBatchLimit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("status batch limited to %d orders", StatusBatchLimit))
	}

	params := url.Values{}
	params.Set("orders", strings.Join(providerOrderIDs, ","))

	c.log(ctx, "request", actionStatus, map[string]any{"orders": len(providerOrderIDs)})

	raw, err := c.call(ctx, actionStatus, params)
	if err != nil {
		c.log(ctx, "error", actionStatus, map[string]any{"error": err.Error()})
		return nil, err
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeProvider, err, "secsers status failed: decode response")
		c.log(ctx, "error", actionStatus, map[string]any{"error": wrapped.Error()})
		return nil, wrapped
	}

	result := make(map[string]OrderStatusSnapshot, len(entries))
	for id, entry := range entries {
		snap, err := decodeSnapshot(entry)
		if err != nil {
			snap = OrderStatusSnapshot{Error: "unreadable status entry"}
		}
		result[id] = snap
	}

	c.log(ctx, "response", actionStatus, map[string]any{"orders": len(result)})
	return result, nil
}

// Refill asks the panel to top an order back up to its original quantity.
func (c *Client) Refill(ctx context.Context, providerOrderID string) (*RefillHandle, error) {
	params := url.Values{}
	params.Set("order", providerOrderID)

	c.log(ctx, "request", actionRefill, map[string]any{"order": providerOrderID})

	raw, err := c.call(ctx, actionRefill, params)
	if err != nil {
		c.log(ctx, "error", actionRefill, map[string]any{"error": err.Error()})
		return nil, err
	}

	fields, err := decodeObject(raw)
	if err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeProvider, err, "secsers refill failed: decode response")
		c.log(ctx, "error", actionRefill, map[string]any{"error": wrapped.Error()})
		return nil, wrapped
	}
	refillID, ok := looseString(fields["refill"])
	if !ok || strings.TrimSpace(refillID) == "" {
		wrapped := pkgerrors.New(pkgerrors.CodeProvider, "secsers refill failed: response missing refill id")
		c.log(ctx, "error", actionRefill, map[string]any{"error": wrapped.Error()})
		return nil, wrapped
	}

	handle := &RefillHandle{RefillID: strings.TrimSpace(refillID)}
	c.log(ctx, "response", actionRefill, map[string]any{"refill": handle.RefillID})
	return handle, nil
}

// RefillStatus polls a previously requested refill.
func (c *Client) RefillStatus(ctx context.Context, refillID string) (string, error) {
	params := url.Values{}
	params.Set("refill", refillID)

	c.log(ctx, "request", actionRefillStatus, map[string]any{"refill": refillID})

	raw, err := c.call(ctx, actionRefillStatus, params)
	if err != nil {
		c.log(ctx, "error", actionRefillStatus, map[string]any{"error": err.Error()})
		return "", err
	}

	fields, err := decodeObject(raw)
	if err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeProvider, err, "secsers refill_status failed: decode response")
		c.log(ctx, "error", actionRefillStatus, map[string]any{"error": wrapped.Error()})
		return "", wrapped
	}
	status, ok := looseString(fields["status"])
	if !ok || strings.TrimSpace(status) == "" {
		wrapped := pkgerrors.New(pkgerrors.CodeProvider, "secsers refill_status failed: response missing status")
		c.log(ctx, "error", actionRefillStatus, map[string]any{"error": wrapped.Error()})
		return "", wrapped
	}

	status = strings.TrimSpace(status)
	c.log(ctx, "response", actionRefillStatus, map[string]any{"refill": refillID, "status": status})
	return status, nil
}

// Balance polls the reseller account balance held at the panel.
func (c *Client) Balance(ctx context.Context) (*BalanceInfo, error) {
	c.log(ctx, "request", actionBalance, nil)

	raw, err := c.call(ctx, actionBalance, url.Values{})
	if err != nil {
		c.log(ctx, "error", actionBalance, map[string]any{"error": err.Error()})
		return nil, err
	}

	fields, err := decodeObject(raw)
	if err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeProvider, err, "secsers balance failed: decode response")
		c.log(ctx, "error", actionBalance, map[string]any{"error": wrapped.Error()})
		return nil, wrapped
	}
	amount, ok := looseDecimal(fields["balance"])
	if !ok {
		wrapped := pkgerrors.New(pkgerrors.CodeProvider, "secsers balance failed: response missing balance")
		c.log(ctx, "error", actionBalance, map[string]any{"error": wrapped.Error()})
		return nil, wrapped
	}

	info := &BalanceInfo{Balance: *amount}
	if currency, ok := looseString(fields["currency"]); ok {
		info.Currency = strings.TrimSpace(currency)
	}

	c.log(ctx, "response", actionBalance, map[string]any{"currency": info.Currency})
	return info, nil
}

// call performs the form POST shared by every action and normalizes
// transport failures, non-2xx statuses, and upstream error bodies into
// provider errors. Callers decide about retries.
func (c *Client) call(ctx context.Context, action string, params url.Values) (json.RawMessage, error) {
	started := time.Now()
	raw, err := c.roundTrip(ctx, action, params)
	c.metrics.ObserveCall(action, time.Since(started), err)
	return raw, err
}

func (c *Client) roundTrip(ctx context.Context, action string, params url.Values) (json.RawMessage, error) {
	form := url.Values{}
	for key, values := range params {
		for _, value := range values {
			form.Add(key, value)
		}
	}
	form.Set("key", c.apiKey)
	form.Set("action", action)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, fmt.Sprintf("secsers %s failed: build request", action))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, fmt.Sprintf("secsers %s failed", action))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, fmt.Sprintf("secsers %s failed: read response", action))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeProvider, fmt.Sprintf("secsers %s failed: status %d", action, resp.StatusCode))
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeProvider, fmt.Sprintf("secsers %s failed: empty response", action))
	}
	if !json.Valid(trimmed) {
		return nil, pkgerrors.New(pkgerrors.CodeProvider, fmt.Sprintf("secsers %s failed: malformed response", action))
	}

	var probe struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &probe); err == nil {
		if msg, ok := looseString(probe.Error); ok && strings.TrimSpace(msg) != "" {
			return nil, pkgerrors.New(pkgerrors.CodeProvider, fmt.Sprintf("secsers %s failed: %s", action, strings.TrimSpace(msg)))
		}
	}

	return json.RawMessage(trimmed), nil
}

func (c *Client) log(ctx context.Context, phase, action string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"action": action,
		"phase":  phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("secsers %s", action), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("secsers %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"key", "secret", "token"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
