package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"milsabores/internal/auth"
	"milsabores/internal/config"
	"milsabores/internal/domain"
	apperrors "milsabores/internal/errors"
)

const csrfHeader = "X-CSRF-Token"

// Client talks to the remote sales, inventory and returns service. Every
// call is a single request with no retry; failures come back as
// *errors.ServiceError.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

func (c *Client) ConfirmSale(ctx context.Context, req domain.ConfirmSaleRequest) (*domain.ConfirmedSale, error) {
	var resp saleResponse
	if err := c.do(ctx, http.MethodPost, "/ventas", toConfirmPayload(req), &resp); err != nil {
		return nil, err
	}
	c.logger.Info("sale confirmed", zap.Int64("saleId", resp.SaleID), zap.Int("lines", len(resp.Details)))
	return resp.toDomain(), nil
}

func (c *Client) GetSale(ctx context.Context, saleID int64) (*domain.ConfirmedSale, error) {
	var resp saleResponse
	if err := c.do(ctx, http.MethodGet, "/ventas/"+strconv.FormatInt(saleID, 10), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// LookupLot resolves a scanned code to a product and, when the code is a lot
// label, the lot it belongs to.
func (c *Client) LookupLot(ctx context.Context, code string) (domain.ProductRef, *domain.LotRef, error) {
	var resp lotLookupResponse
	if err := c.do(ctx, http.MethodGet, "/inventario/lotes/codigo/"+url.PathEscape(code), nil, &resp); err != nil {
		return domain.ProductRef{}, nil, err
	}
	product, lot := resp.toDomain()
	return product, lot, nil
}

// SubmitReturn sends a built return request. The local refund estimate is
// not part of the payload.
func (c *Client) SubmitReturn(ctx context.Context, req domain.ReturnRequest, usuarioID *int64) (*domain.ReturnReceipt, error) {
	var (
		path string
		body interface{}
	)
	switch req.Kind {
	case domain.ReturnFull:
		path = "/devoluciones/venta/" + strconv.FormatInt(req.SaleID, 10) + "/completa"
		body = fullReturnPayload{Reason: req.Reason, UsuarioID: usuarioID}
	case domain.ReturnPartial:
		path = "/devoluciones/parcial"
		body = toPartialPayload(req, usuarioID)
	default:
		return nil, fmt.Errorf("submitting return: unknown kind %q", req.Kind)
	}

	var resp returnReceiptResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}

	saleID := resp.VentaID
	if saleID == 0 {
		saleID = req.SaleID
	}
	c.logger.Info("return submitted",
		zap.Int64("saleId", saleID),
		zap.Int64("returnId", resp.ID),
		zap.String("kind", string(req.Kind)),
		zap.String("refunded", resp.MontoDevuelto.String()),
	)
	return &domain.ReturnReceipt{
		ReturnID:       resp.ID,
		SaleID:         saleID,
		Kind:           req.Kind,
		RefundedAmount: resp.MontoDevuelto,
		Status:         resp.Estado,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("backend: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds, ok := auth.CredentialsFromContext(ctx); ok {
		if creds.BearerToken != "" {
			req.Header.Set("Authorization", "Bearer "+creds.BearerToken)
		}
		if creds.CSRFToken != "" {
			req.Header.Set(csrfHeader, creds.CSRFToken)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewServiceError(apperrors.ServiceServerError, 0, "backend unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return classify(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewServiceError(apperrors.ServiceServerError, resp.StatusCode, "malformed backend response", err)
	}
	return nil
}

func classify(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var er errorResponse
	message := ""
	if json.Unmarshal(raw, &er) == nil {
		message = er.text()
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	kind := apperrors.ServiceServerError
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = apperrors.ServiceUnauthorized
	case http.StatusForbidden:
		kind = apperrors.ServiceForbidden
	case http.StatusNotFound:
		kind = apperrors.ServiceNotFound
	}
	return apperrors.NewServiceError(kind, resp.StatusCode, message, nil)
}
