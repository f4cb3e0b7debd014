// Package api implements the HTTP client for the Portalsend server. The
// Client satisfies the envelope.Directory and envelope.TransferStore
// interfaces, so the seal/open pipelines can talk to a live server without
// knowing anything about HTTP.
package api

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

	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/envelope"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, accessToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   accessToken,
		http:    &http.Client{Timeout: timeout},
	}
}

// do sends one JSON request and decodes the JSON response into out (when out
// is non-nil). Error responses are translated back into the shared sentinel
// errors, so callers match them with errors.Is just like on the server side.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("server unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.mapError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

func (c *Client) mapError(resp *http.Response) error {

	var payload struct {
		Error string `json:"error"`
	}
	msg := resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", common.ErrorValidation, msg)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", common.ErrorUnauthorized, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, msg)
	default:
		return fmt.Errorf("%w: %s", common.ErrorInternal, msg)
	}
}

// GetKeys fetches the caller's stored key material. A caller that has not
// completed setup gets common.ErrorKeysNotSetUp.
func (c *Client) GetKeys(ctx context.Context) (*envelope.KeyMaterial, error) {
	var keys envelope.KeyMaterial
	err := c.do(ctx, http.MethodGet, "/api/keys", nil, &keys)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorKeysNotSetUp
		}
		return nil, err
	}
	return &keys, nil
}

func (c *Client) SetupKeys(ctx context.Context, keys *envelope.KeyMaterial) error {
	return c.do(ctx, http.MethodPost, "/api/keys", keys, nil)
}

func (c *Client) ResetKeys(ctx context.Context, keys *envelope.KeyMaterial) error {
	return c.do(ctx, http.MethodPost, "/api/keys/reset", keys, nil)
}

type lookupRequest struct {
	Addresses []string `json:"addresses"`
}

type lookupResponse struct {
	Keys []struct {
		Address   string `json:"address"`
		PublicKey string `json:"public_key"`
	} `json:"keys"`
}

// LookupPublicKeys resolves addresses (emails or drop:slug) to public keys.
// Implements envelope.Directory.
func (c *Client) LookupPublicKeys(ctx context.Context, addresses []string) ([]envelope.RecipientKey, error) {
	var resp lookupResponse
	if err := c.do(ctx, http.MethodPost, "/api/keys/lookup", lookupRequest{Addresses: addresses}, &resp); err != nil {
		return nil, err
	}

	result := make([]envelope.RecipientKey, len(resp.Keys))
	for i, row := range resp.Keys {
		result[i] = envelope.RecipientKey{Email: row.Address, PublicKey: row.PublicKey}
	}
	return result, nil
}

// CreateFanout submits the wrapped key set and returns the upload ticket.
// Implements envelope.TransferStore.
func (c *Client) CreateFanout(ctx context.Context, req *envelope.FanoutRequest) (*envelope.FanoutTicket, error) {
	var ticket envelope.FanoutTicket
	if err := c.do(ctx, http.MethodPost, "/api/transfers", req, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (c *Client) MarkUploaded(ctx context.Context, slug string) error {
	return c.do(ctx, http.MethodPost, "/api/transfers/"+url.PathEscape(slug)+"/uploaded", nil, nil)
}

// GetTransfer fetches this recipient's view of one file. A non-empty as
// names the address the file is opened under (a drop address for drop-bound
// files); empty means the account's email.
func (c *Client) GetTransfer(ctx context.Context, slug, as string) (*envelope.Transfer, error) {
	var transfer envelope.Transfer
	if err := c.do(ctx, http.MethodGet, transferPath(slug, "", as), nil, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (c *Client) PresignDownload(ctx context.Context, slug, as string) (string, error) {
	var resp struct {
		SignedURL string `json:"signed_url"`
	}
	if err := c.do(ctx, http.MethodGet, transferPath(slug, "/download", as), nil, &resp); err != nil {
		return "", err
	}
	return resp.SignedURL, nil
}

func transferPath(slug, suffix, as string) string {
	path := "/api/transfers/" + url.PathEscape(slug) + suffix
	if as != "" {
		path += "?as=" + url.QueryEscape(as)
	}
	return path
}

// TransferListItem is one row of a transfer listing; name and key stay
// encrypted until the caller unwraps them locally.
type TransferListItem struct {
	Slug               string    `json:"slug"`
	Direction          string    `json:"direction"`
	EncryptedName      string    `json:"encrypted_filename"`
	FileIV             string    `json:"iv"`
	EncryptedSharedKey string    `json:"shared_key_encrypted_for_me"`
	CreatedAt          time.Time `json:"created_at"`
}

type TransferPage struct {
	Files      []TransferListItem `json:"files"`
	NextCursor string             `json:"next_cursor"`
}

func (c *Client) ListTransfers(ctx context.Context, direction, cursor string, limit int) (*TransferPage, error) {

	q := url.Values{}
	if direction != "" {
		q.Set("direction", direction)
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/transfers"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page TransferPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Filedrop is a slug-addressed inbox. Keys is populated only for the owner.
type Filedrop struct {
	Slug        string                `json:"slug"`
	DisplayName string                `json:"display_name"`
	PublicKey   string                `json:"public_key"`
	Keys        *envelope.KeyMaterial `json:"keys,omitempty"`
}

type createFiledropRequest struct {
	DisplayName string               `json:"display_name"`
	Keys        envelope.KeyMaterial `json:"keys"`
}

func (c *Client) CreateFiledrop(ctx context.Context, displayName string, keys *envelope.KeyMaterial) (*Filedrop, error) {
	var drop Filedrop
	req := createFiledropRequest{DisplayName: displayName, Keys: *keys}
	if err := c.do(ctx, http.MethodPost, "/api/filedrops", req, &drop); err != nil {
		return nil, err
	}
	return &drop, nil
}

func (c *Client) GetFiledrop(ctx context.Context, slug string) (*Filedrop, error) {
	var drop Filedrop
	if err := c.do(ctx, http.MethodGet, "/api/filedrops/"+url.PathEscape(slug), nil, &drop); err != nil {
		return nil, err
	}
	return &drop, nil
}

type listFiledropsResponse struct {
	Filedrops []Filedrop `json:"filedrops"`
}

func (c *Client) ListFiledrops(ctx context.Context) ([]Filedrop, error) {
	var resp listFiledropsResponse
	if err := c.do(ctx, http.MethodGet, "/api/filedrops", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Filedrops, nil
}
