package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/internal/apiclient"
	"github.com/MrEthical07/goSession/session"
)

// PathPurchases is the purchases collection.
const PathPurchases = "/purchases"

// Purchase is one recorded expense. Date is a calendar day, YYYY-MM-DD.
type Purchase struct {
	ID       session.ID `json:"id,omitempty"`
	UserID   session.ID `json:"userId,omitempty"`
	Item     string     `json:"item"`
	Amount   float64    `json:"amount"`
	Category string     `json:"category,omitempty"`
	Date     string     `json:"date"`
}

// UnmarshalJSON also accepts "_id" for the identifier, and an RFC 3339
// timestamp for Date, which is reduced to its UTC calendar day. Other date
// formats are kept as sent.
func (p *Purchase) UnmarshalJSON(data []byte) error {
	type plain Purchase
	var aux struct {
		plain
		MongoID session.ID `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Purchase(aux.plain)
	if p.ID == "" {
		p.ID = aux.MongoID
	}
	p.Date = normalizeDate(p.Date)
	return nil
}

func normalizeDate(s string) string {
	if validDate(s) {
		return s
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(time.DateOnly)
	}
	return s
}

// HasDate reports whether Date is a YYYY-MM-DD calendar day.
func (p Purchase) HasDate() bool {
	return validDate(p.Date)
}

// Validate checks the fields the API requires before a create or update.
func (p Purchase) Validate() error {
	if strings.TrimSpace(p.Item) == "" {
		return fmt.Errorf("%w: item is required", ErrInvalidPurchase)
	}
	if !(p.Amount > 0) {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPurchase)
	}
	if !validDate(p.Date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidPurchase)
	}
	return nil
}

func validDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// ListOptions filters List. Empty fields are not sent.
type ListOptions struct {
	From     string
	To       string
	Category string
}

func (o ListOptions) query() (url.Values, error) {
	q := url.Values{}
	if o.From != "" {
		if !validDate(o.From) {
			return nil, fmt.Errorf("resource: from %q is not YYYY-MM-DD", o.From)
		}
		q.Set("from", o.From)
	}
	if o.To != "" {
		if !validDate(o.To) {
			return nil, fmt.Errorf("resource: to %q is not YYYY-MM-DD", o.To)
		}
		q.Set("to", o.To)
	}
	if o.Category != "" {
		q.Set("category", o.Category)
	}
	return q, nil
}

// List returns the caller's purchases.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]Purchase, error) {
	q, err := opts.query()
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, apiclient.Request{
		Op:    "purchases.list",
		Path:  PathPurchases,
		Query: q,
	})
	if err != nil {
		return nil, err
	}
	list, shape, err := parsePurchaseList(body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("purchases listed", zapShape(shape), zapCount(len(list)))
	for _, p := range list {
		if !p.HasDate() {
			c.logger.Warn("purchase has an unrecognised date",
				zap.String("id", p.ID.String()),
				zap.String("date", p.Date),
			)
		}
	}
	return list, nil
}

// Get returns one purchase.
func (c *Client) Get(ctx context.Context, id string) (Purchase, error) {
	var p Purchase
	body, err := c.do(ctx, apiclient.Request{
		Op:   "purchases.get",
		Path: PathPurchases + "/" + url.PathEscape(id),
	})
	if err != nil {
		return Purchase{}, err
	}
	if err := decodeObject(body, &p); err != nil {
		return Purchase{}, err
	}
	return p, nil
}

// Create validates p and stores it. The returned purchase carries the
// server-assigned ID.
func (c *Client) Create(ctx context.Context, p Purchase) (Purchase, error) {
	if err := p.Validate(); err != nil {
		return Purchase{}, err
	}
	return c.write(ctx, "purchases.create", http.MethodPost, PathPurchases, p)
}

// Update validates p and replaces purchase id.
func (c *Client) Update(ctx context.Context, id string, p Purchase) (Purchase, error) {
	if err := p.Validate(); err != nil {
		return Purchase{}, err
	}
	return c.write(ctx, "purchases.update", http.MethodPut, PathPurchases+"/"+url.PathEscape(id), p)
}

// Delete removes purchase id.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, apiclient.Request{
		Op:     "purchases.delete",
		Method: http.MethodDelete,
		Path:   PathPurchases + "/" + url.PathEscape(id),
	})
	return err
}

func (c *Client) write(ctx context.Context, op, method, path string, p Purchase) (Purchase, error) {
	body, err := c.do(ctx, apiclient.Request{
		Op:     op,
		Method: method,
		Path:   path,
		Body: map[string]any{
			"item":     p.Item,
			"amount":   p.Amount,
			"category": p.Category,
			"date":     p.Date,
		},
	})
	if err != nil {
		return Purchase{}, err
	}
	var out Purchase
	if err := decodeObject(body, &out); err != nil {
		return Purchase{}, err
	}
	return out, nil
}

// decodeObject accepts a bare object or one wrapped in {"data": ...}.
func decodeObject(body []byte, out *Purchase) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if json.Unmarshal(body, &env) == nil && len(env.Data) > 0 && env.Data[0] == '{' {
		body = env.Data
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// PathDailyReport is the server-side daily totals report.
const PathDailyReport = "/reports/daily"

// DailyReport returns the raw /reports/daily body for the last days days.
// Its shape varies by deployment; see the dashboard package.
func (c *Client) DailyReport(ctx context.Context, days int) ([]byte, error) {
	return c.do(ctx, apiclient.Request{
		Op:    "reports.daily",
		Path:  PathDailyReport,
		Query: url.Values{"days": []string{strconv.Itoa(days)}},
	})
}
