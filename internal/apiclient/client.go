// Package apiclient is the typed client of the lending REST API.
//
// Every call carries the caller's bearer token. Failures are returned as-is:
// there is no retry and no backoff.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"motodash/internal/config"
	"motodash/internal/model"
)

// ErrUnauthorized is matched by errors.Is for 401 responses.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response from the lending API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// StatusOf returns the HTTP status of an *APIError in err's chain, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client talks to the lending API.
type Client struct {
	baseURL string
	http    *http.Client

	Owners               Resource[model.Owner]
	Users                Resource[model.User]
	Vehicles             Resource[model.Vehicle]
	Loans                Resource[model.Loan]
	Installments         Resource[model.Installment]
	Expenses             Resource[model.Expense]
	Providers            Resource[model.Provider]
	Closings             Resource[model.Closing]
	CashFlowAccounts     Resource[model.CashFlowAccount]
	CashFlowTransactions Resource[model.CashFlowTransaction]
	CashFlowTransfers    Resource[model.CashFlowTransfer]
	CashFlowRules        Resource[model.CashFlowRule]
}

// New builds a Client with an instrumented transport.
func New(cfg config.BackendConfig) *Client {
	hc := &http.Client{
		Timeout:   cfg.Timeout(),
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return NewWithHTTPClient(cfg.BaseURL, hc)
}

// NewWithHTTPClient builds a Client around an existing *http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
	c.Owners = Resource[model.Owner]{c: c, path: "/api/v1/owners"}
	c.Users = Resource[model.User]{c: c, path: "/api/v1/users"}
	c.Vehicles = Resource[model.Vehicle]{c: c, path: "/api/v1/vehicles"}
	c.Loans = Resource[model.Loan]{c: c, path: "/api/v1/loans"}
	c.Installments = Resource[model.Installment]{c: c, path: "/api/v1/installments"}
	c.Expenses = Resource[model.Expense]{c: c, path: "/api/v1/expenses"}
	c.Providers = Resource[model.Provider]{c: c, path: "/api/v1/providers"}
	c.Closings = Resource[model.Closing]{c: c, path: "/api/v1/closing"}
	c.CashFlowAccounts = Resource[model.CashFlowAccount]{c: c, path: "/api/v1/cash-flow/accounts"}
	c.CashFlowTransactions = Resource[model.CashFlowTransaction]{c: c, path: "/api/v1/cash-flow/transactions"}
	c.CashFlowTransfers = Resource[model.CashFlowTransfer]{c: c, path: "/api/v1/cash-flow/transfers"}
	c.CashFlowRules = Resource[model.CashFlowRule]{c: c, path: "/api/v1/cash-flow/rules"}
	return c
}

// BaseURL returns the API origin without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type errorBody struct {
	Message any    `json:"message"`
	Error   string `json:"error"`
}

// do performs one request. in is JSON-encoded when non-nil; out is decoded
// from a 2xx body when non-nil.
func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		switch m := eb.Message.(type) {
		case string:
			if m != "" {
				apiErr.Message = m
			}
		case []any:
			parts := make([]string, 0, len(m))
			for _, p := range m {
				parts = append(parts, fmt.Sprint(p))
			}
			if len(parts) > 0 {
				apiErr.Message = strings.Join(parts, "; ")
			}
		default:
			if eb.Error != "" {
				apiErr.Message = eb.Error
			}
		}
	}
	return apiErr
}
