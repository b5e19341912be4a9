// Package sheets appends rows to a Google Sheets spreadsheet through the
// Sheets v4 REST API, authenticated as a service account.
package sheets

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
	"time"

	"golang.org/x/oauth2/google"
)

const (
	DefaultBaseURL = "https://sheets.googleapis.com"
	Scope          = "https://www.googleapis.com/auth/spreadsheets"
)

// ErrNotConfigured is returned when no spreadsheet is set.
var ErrNotConfigured = errors.New("sheets: not configured")

// Appender appends one row of cells.
type Appender interface {
	Append(ctx context.Context, row []string) error
}

// RealClient appends rows with the values:append endpoint.
type RealClient struct {
	SpreadsheetID string
	Range         string
	BaseURL       string
	httpClient    *http.Client
}

// NewClient builds an OAuth2 service-account client from a credentials JSON key.
func NewClient(ctx context.Context, credentialsJSON []byte, spreadsheetID, rng string) (*RealClient, error) {
	cfg, err := google.JWTConfigFromJSON(credentialsJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("sheets: parse credentials: %w", err)
	}
	hc := cfg.Client(ctx)
	hc.Timeout = 15 * time.Second
	return NewClientWithHTTP(hc, spreadsheetID, rng), nil
}

// NewClientWithHTTP uses hc as-is; hc is expected to add authorization.
func NewClientWithHTTP(hc *http.Client, spreadsheetID, rng string) *RealClient {
	if rng == "" {
		rng = "Inquiries!A1"
	}
	return &RealClient{
		SpreadsheetID: spreadsheetID,
		Range:         rng,
		BaseURL:       DefaultBaseURL,
		httpClient:    hc,
	}
}

type valueRange struct {
	Values [][]string `json:"values"`
}

// Append adds row after the last row of the configured range. Cells are sent
// as RAW so spreadsheet formulas in user input are never evaluated.
func (c *RealClient) Append(ctx context.Context, row []string) error {
	if c.SpreadsheetID == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(valueRange{Values: [][]string{row}})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		strings.TrimRight(c.BaseURL, "/"), url.PathEscape(c.SpreadsheetID), url.PathEscape(c.Range))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sheets: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sheets: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return fmt.Errorf("sheets: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
