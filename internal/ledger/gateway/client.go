// Package gateway implements ledger.ChainClient against the ledger gateway's
// REST API, which fronts the registry contract and holds the signing key.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"landledger/internal/ledger"
)

const maxResponseBytes = 1 << 20

// Client calls the ledger gateway over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New builds a client. timeout bounds every call, including body reads.
func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type countResponse struct {
	Count *uint64 `json:"count"`
}

type registerLandRequest struct {
	Location string `json:"location"`
	Size     uint64 `json:"size"`
}

type transferLandRequest struct {
	ToAddress string `json:"to_address"`
}

type registerUserRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) TotalUsers(ctx context.Context) (uint64, error) {
	return c.count(ctx, "total_users", "/stats/users")
}

func (c *Client) TotalLands(ctx context.Context) (uint64, error) {
	return c.count(ctx, "total_lands", "/stats/lands")
}

func (c *Client) VerifiedLands(ctx context.Context) (uint64, error) {
	return c.count(ctx, "verified_lands", "/stats/lands/verified")
}

func (c *Client) RegisterLand(ctx context.Context, location string, size uint64) (ledger.Receipt, error) {
	return c.submit(ctx, "register_land", "/lands", registerLandRequest{Location: location, Size: size})
}

func (c *Client) TransferLand(ctx context.Context, toAddress string, landID uint64) (ledger.Receipt, error) {
	path := "/lands/" + strconv.FormatUint(landID, 10) + "/transfer"
	return c.submit(ctx, "transfer_land", path, transferLandRequest{ToAddress: toAddress})
}

func (c *Client) GrantBuildingPermission(ctx context.Context, landID uint64) (ledger.Receipt, error) {
	path := "/lands/" + strconv.FormatUint(landID, 10) + "/building-permission"
	return c.submit(ctx, "grant_building_permission", path, struct{}{})
}

func (c *Client) RegisterUser(ctx context.Context, name, role string) (ledger.Receipt, error) {
	return c.submit(ctx, "register_user", "/users", registerUserRequest{Name: name, Role: role})
}

func (c *Client) count(ctx context.Context, op, path string) (uint64, error) {
	status, body, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}
	return parseCountResponse(op, status, body)
}

func (c *Client) submit(ctx context.Context, op, path string, payload any) (ledger.Receipt, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("marshal %s request: %w", op, err)
	}
	status, body, err := c.do(ctx, op, http.MethodPost, path, buf)
	if err != nil {
		return ledger.Receipt{}, err
	}
	return parseReceiptResponse(op, status, body)
}

func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, classifyTransportError(ctx, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, classifyTransportError(ctx, op, err)
	}
	return resp.StatusCode, body, nil
}

// classifyTransportError leaves a caller's own cancellation unclassified so it
// never counts as ledger unavailability.
func classifyTransportError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.Canceled) && errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("ledger %s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ledger.NewUnavailable(ledger.KindTimeout, op, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ledger.NewUnavailable(ledger.KindTimeout, op, err)
	}
	return ledger.NewUnavailable(ledger.KindUnavailable, op, err)
}

func statusError(op string, status int, body []byte) error {
	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		return ledger.NewUnavailable(ledger.KindUnavailable, op, fmt.Errorf("gateway returned %d", status))
	}
	var er errorResponse
	msg := http.StatusText(status)
	if json.Unmarshal(body, &er) == nil && er.Error != "" {
		msg = er.Error
	}
	return &ledger.ChainRejectedError{Op: op, Status: status, Message: msg}
}

func parseCountResponse(op string, status int, body []byte) (uint64, error) {
	if status != http.StatusOK {
		return 0, statusError(op, status, body)
	}
	var cr countResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return 0, ledger.NewUnavailable(ledger.KindBadResponse, op, err)
	}
	if cr.Count == nil {
		return 0, ledger.NewUnavailable(ledger.KindBadResponse, op, errors.New("missing count"))
	}
	return *cr.Count, nil
}

func parseReceiptResponse(op string, status int, body []byte) (ledger.Receipt, error) {
	if status != http.StatusOK && status != http.StatusCreated && status != http.StatusAccepted {
		return ledger.Receipt{}, statusError(op, status, body)
	}
	var r ledger.Receipt
	if err := json.Unmarshal(body, &r); err != nil {
		return ledger.Receipt{}, ledger.NewUnavailable(ledger.KindBadResponse, op, err)
	}
	if r.TxHash == "" {
		return ledger.Receipt{}, ledger.NewUnavailable(ledger.KindBadResponse, op, errors.New("missing tx_hash"))
	}
	return r, nil
}
