// Package ops exposes the read-only operational surface: audit trail
// queries and order lookups that join the locally recorded status with the
// vendor's authoritative record. Everything here is behind bearer-token
// auth; the webhook ingress never routes through this package.
package ops

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"printbridge/internal/config"
	"printbridge/internal/core"
	"printbridge/internal/db"
	"printbridge/internal/external"
	"printbridge/internal/types"
)

// AuditLister reads audit records. Mirrors db.AuditLogRepository.List.
type AuditLister interface {
	List(ctx context.Context, q db.AuditQuery) ([]types.AuditRecord, error)
}

// OrderStatusStore reads the locally recorded order status.
type OrderStatusStore interface {
	GetOrderStatus(ctx context.Context, vendor types.Provider, externalOrderID string) (types.EventKind, error)
}

// Handler serves the /ops routes.
type Handler struct {
	audit     AuditLister
	orders    OrderStatusStore
	fetchers  map[types.Provider]external.OrderFetcher
	tokenHash types.SecretString
	logger    *slog.Logger
}

// NewHandler creates the ops handler. fetchers may be nil or partial; order
// lookups for providers without a configured API client return only the
// locally recorded status.
func NewHandler(
	audit AuditLister,
	orders OrderStatusStore,
	fetchers map[types.Provider]external.OrderFetcher,
	cfg config.OpsConfig,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		audit:     audit,
		orders:    orders,
		fetchers:  fetchers,
		tokenHash: cfg.TokenHash,
		logger:    logger,
	}
}

// RegisterRoutes mounts the ops endpoints under /ops.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ops", func(r chi.Router) {
		r.Use(h.requireToken)
		r.Get("/audit", h.ListAudit)
		r.Get("/orders/{provider}/{orderID}", h.GetOrder)
	})
}

// requireToken authenticates requests with a bearer token compared against
// the configured bcrypt hash. With no hash configured the surface is
// disabled entirely rather than left open.
func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.tokenHash.IsZero() {
			core.Error(w, types.NewAppError(
				types.ErrCodeAuthTokenInvalid,
				"operational surface is not configured",
				nil,
			))
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			core.Error(w, types.NewAppError(
				types.ErrCodeAuthTokenMissing,
				"missing bearer token",
				nil,
			))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(h.tokenHash.Unmask()), []byte(token)); err != nil {
			core.Error(w, types.NewAppError(
				types.ErrCodeAuthTokenInvalid,
				"invalid bearer token",
				err,
			))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ListAudit returns audit records newest-first, filtered by query params:
// provider, kind, sensitive=true, low_trust=true, limit.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	q := db.AuditQuery{}

	if raw := r.URL.Query().Get("provider"); raw != "" {
		provider, ok := types.ParseProvider(raw)
		if !ok {
			core.Error(w, types.NewAppError(
				types.ErrCodeValidationInvalidField,
				"unknown provider filter",
				nil,
			))
			return
		}
		q.Provider = provider
	}
	if raw := r.URL.Query().Get("kind"); raw != "" {
		q.Kind = types.EventKind(raw)
	}
	if r.URL.Query().Get("sensitive") == "true" {
		q.OnlySensitive = true
	}
	if r.URL.Query().Get("low_trust") == "true" {
		q.OnlyLowTrust = true
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			core.Error(w, types.NewAppError(
				types.ErrCodeValidationInvalidField,
				"limit must be a non-negative integer",
				err,
			))
			return
		}
		q.Limit = limit
	}

	records, err := h.audit.List(r.Context(), q)
	if err != nil {
		h.logger.Error("audit query failed", "error", err)
		core.Error(w, err)
		return
	}

	core.JSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// OrderView joins the locally recorded order status with the vendor's own
// record when an API client is configured for that provider.
type OrderView struct {
	Provider     types.Provider        `json:"provider"`
	OrderID      string                `json:"order_id"`
	StoredStatus types.EventKind       `json:"stored_status,omitempty"`
	Vendor       *external.VendorOrder `json:"vendor,omitempty"`
}

// GetOrder looks up one order by provider and external order ID.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	provider, ok := types.ParseProvider(chi.URLParam(r, "provider"))
	if !ok {
		core.Error(w, types.NewAppError(
			types.ErrCodeValidationInvalidField,
			"unknown provider",
			nil,
		))
		return
	}
	orderID := chi.URLParam(r, "orderID")

	view := OrderView{Provider: provider, OrderID: orderID}

	stored, err := h.orders.GetOrderStatus(r.Context(), provider, orderID)
	if err == nil {
		view.StoredStatus = stored
	} else if code := appErrorCode(err); code != types.ErrCodeNotFoundOrder {
		h.logger.Error("order status lookup failed", "provider", provider, "error", err)
		core.Error(w, err)
		return
	}

	if fetcher, ok := h.fetchers[provider]; ok {
		vendor, err := fetcher.GetOrder(r.Context(), orderID)
		switch {
		case err == nil:
			view.Vendor = vendor
		case appErrorCode(err) == types.ErrCodeNotFoundOrder:
			// Vendor has no record; the stored status may still exist.
		default:
			// Vendor API trouble does not hide what we know locally.
			h.logger.Warn("vendor order fetch failed",
				"provider", provider,
				"order_id", orderID,
				"error", err,
			)
		}
	}

	if view.StoredStatus == "" && view.Vendor == nil {
		core.Error(w, types.NewAppError(
			types.ErrCodeNotFoundOrder,
			"order not found locally or at vendor",
			nil,
		))
		return
	}

	core.JSON(w, http.StatusOK, view)
}

func appErrorCode(err error) types.ErrorCode {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
