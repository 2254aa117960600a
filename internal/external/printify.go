package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"printbridge/internal/types"
)

const printifyAPIBase = "https://api.printify.com/v1"

// PrintifyClient fetches orders from the Printify REST API. Printify scopes
// orders to a shop, so the shop ID is part of the client's identity.
type PrintifyClient struct {
	base    *BaseClient
	baseURL string
	apiKey  types.SecretString
	shopID  string
}

// NewPrintifyClient creates a PrintifyClient for one shop.
func NewPrintifyClient(base *BaseClient, apiKey types.SecretString, shopID string) *PrintifyClient {
	return &PrintifyClient{
		base:    base,
		baseURL: printifyAPIBase,
		apiKey:  apiKey,
		shopID:  shopID,
	}
}

type printifyOrder struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Shipments []printifyShipment `json:"shipments"`
}

type printifyShipment struct {
	Number string `json:"number"`
}

// GetOrder fetches one order by Printify order ID.
func (c *PrintifyClient) GetOrder(ctx context.Context, orderID string) (*VendorOrder, error) {
	url := fmt.Sprintf("%s/shops/%s/orders/%s.json", c.baseURL, c.shopID, orderID)
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
			fmt.Sprintf("printify returned %d", resp.StatusCode),
			nil,
		)
	}

	var order printifyOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamVendor, "failed to decode printify response", err)
	}

	out := &VendorOrder{
		ID:     order.ID,
		Status: order.Status,
	}
	if len(order.Shipments) > 0 {
		out.Tracking = order.Shipments[0].Number
	}
	return out, nil
}
