package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"printbridge/internal/types"
)

// VendorOrder is the normalized view of an order fetched from a vendor API.
type VendorOrder struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id,omitempty"`
	Status     string `json:"status"`
	Tracking   string `json:"tracking_number,omitempty"`
}

// OrderFetcher fetches the vendor's authoritative order record.
type OrderFetcher interface {
	GetOrder(ctx context.Context, orderID string) (*VendorOrder, error)
}

const printfulAPIBase = "https://api.printful.com"

// PrintfulClient fetches orders from the Printful REST API.
type PrintfulClient struct {
	base    *BaseClient
	baseURL string
	apiKey  types.SecretString
}

// NewPrintfulClient creates a PrintfulClient.
func NewPrintfulClient(base *BaseClient, apiKey types.SecretString) *PrintfulClient {
	return &PrintfulClient{
		base:    base,
		baseURL: printfulAPIBase,
		apiKey:  apiKey,
	}
}

// printfulOrderEnvelope is Printful's standard response wrapper.
type printfulOrderEnvelope struct {
	Code   int                 `json:"code"`
	Result printfulOrderResult `json:"result"`
}

type printfulOrderResult struct {
	ID         json.Number        `json:"id"`
	ExternalID string             `json:"external_id"`
	Status     string             `json:"status"`
	Shipments  []printfulShipment `json:"shipments"`
}

type printfulShipment struct {
	TrackingNumber string `json:"tracking_number"`
}

// GetOrder fetches one order by Printful order ID.
func (c *PrintfulClient) GetOrder(ctx context.Context, orderID string) (*VendorOrder, error) {
	url := fmt.Sprintf("%s/orders/%s", c.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey.Unmask())

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, types.NewAppError(types.ErrCodeNotFoundOrder, "order not found at vendor", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamVendor,
			fmt.Sprintf("printful returned %d", resp.StatusCode),
			nil,
		)
	}

	var envelope printfulOrderEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamVendor, "failed to decode printful response", err)
	}

	order := &VendorOrder{
		ID:         envelope.Result.ID.String(),
		ExternalID: envelope.Result.ExternalID,
		Status:     envelope.Result.Status,
	}
	if len(envelope.Result.Shipments) > 0 {
		order.Tracking = envelope.Result.Shipments[0].TrackingNumber
	}
	return order, nil
}
