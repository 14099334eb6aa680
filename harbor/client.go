package harbor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ErrAccountNotFound is returned when Harbor has no record of the account.
var ErrAccountNotFound = errors.New("harbor: account not found")

// ErrUnreachable wraps transport-level failures so callers can map them to a
// 502 instead of a generic 500.
var ErrUnreachable = errors.New("harbor: upstream unreachable")

// Client is the HTTP implementation of Provider.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Session *SessionContext
}

// NewClient creates a Harbor client. session may be nil if reachability
// tracking is not wanted.
func NewClient(baseURL, apiKey string, session *SessionContext) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Session: session,
	}
}

// Wire shapes. Harbor sends money as JSON strings to avoid float drift.

type wireBalance struct {
	AccountID    string `json:"accountId"`
	TotalBalance string `json:"totalBalance"`
	CashBalance  string `json:"cashBalance"`
	AsOf         string `json:"asOf"`
}

type wireTransaction struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type wirePosition struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	MarketValue string `json:"marketValue"`
}

func (c *Client) AccountBalance(ctx context.Context, accountID string) (*AccountBalance, error) {
	var wb wireBalance
	endpoint := fmt.Sprintf("%s/v1/accounts/%s/balance", c.BaseURL, accountID)
	if err := c.get(ctx, endpoint, &wb); err != nil {
		return nil, err
	}

	total, err := decimal.NewFromString(wb.TotalBalance)
	if err != nil {
		return nil, fmt.Errorf("harbor: bad totalBalance %q: %w", wb.TotalBalance, err)
	}
	cash, err := decimal.NewFromString(wb.CashBalance)
	if err != nil {
		return nil, fmt.Errorf("harbor: bad cashBalance %q: %w", wb.CashBalance, err)
	}
	asOf, err := time.Parse(time.RFC3339, wb.AsOf)
	if err != nil {
		asOf = time.Now().UTC()
	}

	return &AccountBalance{
		AccountID:    wb.AccountID,
		TotalBalance: total,
		CashBalance:  cash,
		AsOf:         asOf,
	}, nil
}

func (c *Client) Transactions(ctx context.Context, accountID string, since time.Time) ([]Transaction, error) {
	var wts []wireTransaction
	endpoint := fmt.Sprintf("%s/v1/accounts/%s/transactions?since=%s",
		c.BaseURL, accountID, since.UTC().Format("2006-01-02"))
	if err := c.get(ctx, endpoint, &wts); err != nil {
		return nil, err
	}

	txs := make([]Transaction, 0, len(wts))
	for _, wt := range wts {
		amount, err := decimal.NewFromString(wt.Amount)
		if err != nil {
			return nil, fmt.Errorf("harbor: bad amount %q on tx %s: %w", wt.Amount, wt.ID, err)
		}
		date, err := time.Parse(time.RFC3339, wt.Date)
		if err != nil {
			// Some Harbor feeds emit date-only stamps.
			date, err = time.Parse("2006-01-02", wt.Date)
			if err != nil {
				return nil, fmt.Errorf("harbor: bad date %q on tx %s: %w", wt.Date, wt.ID, err)
			}
		}
		txs = append(txs, Transaction{
			ID:          wt.ID,
			Amount:      amount,
			Date:        date,
			Type:        wt.Type,
			Description: wt.Description,
		})
	}
	return txs, nil
}

func (c *Client) Positions(ctx context.Context, accountID string) ([]Position, error) {
	var wps []wirePosition
	endpoint := fmt.Sprintf("%s/v1/accounts/%s/positions", c.BaseURL, accountID)
	if err := c.get(ctx, endpoint, &wps); err != nil {
		return nil, err
	}

	positions := make([]Position, 0, len(wps))
	for _, wp := range wps {
		qty, err := decimal.NewFromString(wp.Quantity)
		if err != nil {
			return nil, fmt.Errorf("harbor: bad quantity %q for %s: %w", wp.Quantity, wp.Symbol, err)
		}
		mv, err := decimal.NewFromString(wp.MarketValue)
		if err != nil {
			return nil, fmt.Errorf("harbor: bad marketValue %q for %s: %w", wp.MarketValue, wp.Symbol, err)
		}
		positions = append(positions, Position{
			Symbol:      wp.Symbol,
			Description: wp.Description,
			Quantity:    qty,
			MarketValue: mv,
		})
	}
	return positions, nil
}

// get performs an authenticated GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Session.RecordFailure(err)
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		c.Session.RecordSuccess()
		return ErrAccountNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("harbor: status %d: %s", resp.StatusCode, body)
		c.Session.RecordFailure(err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("harbor: decode response: %w", err)
	}
	c.Session.RecordSuccess()
	return nil
}
