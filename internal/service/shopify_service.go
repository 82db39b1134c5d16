package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kushalyadavv/multi-address-backend/internal/domain"
	"github.com/kushalyadavv/multi-address-backend/internal/logger"
	"github.com/kushalyadavv/multi-address-backend/internal/shopify"
	"github.com/kushalyadavv/multi-address-backend/pkg/errors"
)

// OrderGateway performs the remote reads and writes against Shopify.
// Every failure comes back as *errors.ErrNotFound or *errors.ErrUpstream.
type OrderGateway interface {
	FetchOrder(ctx context.Context, orderID int64) (*shopify.Order, error)
	// FetchEnvelope returns nil, nil when the order has no envelope
	FetchEnvelope(ctx context.Context, orderID int64) (*domain.StoredEnvelope, error)
	// FetchEnvelopeVersion returns the current updated_at of an envelope metafield
	FetchEnvelopeVersion(ctx context.Context, orderID, metafieldID int64) (time.Time, error)
	// WriteEnvelope creates the metafield when existingID is 0, otherwise updates it in place
	WriteEnvelope(ctx context.Context, orderID int64, envelope domain.ShippingEnvelope, existingID int64) (*domain.StoredEnvelope, error)
	DeleteEnvelope(ctx context.Context, orderID, metafieldID int64) error
	// AppendNote never fails; errors are logged and dropped
	AppendNote(ctx context.Context, orderID int64, text string)
	CreateDraftOrder(ctx context.Context, input shopify.DraftOrderInput) (int64, error)
	CompleteDraftOrder(ctx context.Context, draftOrderID int64) (int64, error)
}

type shopifyService struct {
	client *shopify.Client
	logger *zap.Logger
}

// NewShopifyService creates the Shopify-backed OrderGateway
func NewShopifyService(client *shopify.Client, log *zap.Logger) *shopifyService {
	return &shopifyService{
		client: client,
		logger: logger.OrNop(log),
	}
}

var _ OrderGateway = (*shopifyService)(nil)

func (s *shopifyService) FetchOrder(ctx context.Context, orderID int64) (*shopify.Order, error) {
	order, err := s.client.GetOrder(ctx, orderID)
	if err != nil {
		return nil, normalizeError(err, "order", orderID)
	}
	return order, nil
}

func (s *shopifyService) FetchEnvelope(ctx context.Context, orderID int64) (*domain.StoredEnvelope, error) {
	metafields, err := s.client.ListOrderMetafields(ctx, orderID)
	if err != nil {
		return nil, normalizeError(err, "order", orderID)
	}

	var matches []shopify.Metafield
	for _, mf := range metafields {
		if mf.Namespace == domain.MetafieldNamespace && mf.Key == domain.MetafieldKey {
			matches = append(matches, mf)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > 1 {
		ids := make([]int64, len(matches))
		for i, mf := range matches {
			ids[i] = mf.ID
		}
		s.logger.Warn("Order has more than one shipping envelope, using the first",
			zap.Int64("order_id", orderID),
			zap.Int64s("metafield_ids", ids),
		)
	}

	mf := matches[0]
	var envelope domain.ShippingEnvelope
	if err := json.Unmarshal([]byte(mf.Value), &envelope); err != nil {
		return nil, &errors.ErrUpstream{
			StatusCode: 0,
			Message:    fmt.Sprintf("metafield %d holds invalid JSON: %v", mf.ID, err),
		}
	}
	return &domain.StoredEnvelope{
		MetafieldID: mf.ID,
		Version:     mf.UpdatedAt,
		Envelope:    envelope,
	}, nil
}

func (s *shopifyService) FetchEnvelopeVersion(ctx context.Context, orderID, metafieldID int64) (time.Time, error) {
	mf, err := s.client.GetOrderMetafield(ctx, orderID, metafieldID)
	if err != nil {
		return time.Time{}, normalizeError(err, "metafield", metafieldID)
	}
	return mf.UpdatedAt, nil
}

func (s *shopifyService) WriteEnvelope(ctx context.Context, orderID int64, envelope domain.ShippingEnvelope, existingID int64) (*domain.StoredEnvelope, error) {
	value, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shipping envelope: %w", err)
	}

	mf := shopify.Metafield{
		ID:    existingID,
		Type:  domain.MetafieldType,
		Value: string(value),
	}

	var written *shopify.Metafield
	if existingID == 0 {
		mf.Namespace = domain.MetafieldNamespace
		mf.Key = domain.MetafieldKey
		written, err = s.client.CreateOrderMetafield(ctx, orderID, mf)
	} else {
		written, err = s.client.UpdateOrderMetafield(ctx, orderID, mf)
	}
	if err != nil {
		return nil, normalizeError(err, "order", orderID)
	}

	s.logger.Info("Wrote shipping envelope",
		zap.Int64("order_id", orderID),
		zap.Int64("metafield_id", written.ID),
		zap.Bool("created", existingID == 0),
		zap.Int("line_items", len(envelope.LineItems)),
	)

	return &domain.StoredEnvelope{
		MetafieldID: written.ID,
		Version:     written.UpdatedAt,
		Envelope:    envelope,
	}, nil
}

func (s *shopifyService) DeleteEnvelope(ctx context.Context, orderID, metafieldID int64) error {
	if err := s.client.DeleteOrderMetafield(ctx, orderID, metafieldID); err != nil {
		return upstreamError(err)
	}
	return nil
}

func (s *shopifyService) AppendNote(ctx context.Context, orderID int64, text string) {
	order, err := s.client.GetOrder(ctx, orderID)
	if err != nil {
		s.logger.Warn("Failed to read order note, skipping note update",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
		return
	}

	note := text
	if existing := strings.TrimSpace(order.Note); existing != "" {
		note = existing + "\n" + text
	}

	if err := s.client.UpdateOrderNote(ctx, orderID, note); err != nil {
		s.logger.Warn("Failed to append order note",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
	}
}

func (s *shopifyService) CreateDraftOrder(ctx context.Context, input shopify.DraftOrderInput) (int64, error) {
	draft, err := s.client.CreateDraftOrder(ctx, input)
	if err != nil {
		return 0, upstreamError(err)
	}
	return draft.ID, nil
}

// CompleteDraftOrder completes a draft order and returns the new order id
func (s *shopifyService) CompleteDraftOrder(ctx context.Context, draftOrderID int64) (int64, error) {
	draft, err := s.client.CompleteDraftOrder(ctx, draftOrderID)
	if err != nil {
		return 0, upstreamError(err)
	}
	if draft.OrderID == nil {
		return 0, &errors.ErrUpstream{
			Message: fmt.Sprintf("draft order %d completed without an order id", draftOrderID),
		}
	}
	return *draft.OrderID, nil
}

// normalizeError maps a 404 to ErrNotFound for the named resource and
// everything else to ErrUpstream
func normalizeError(err error, resource string, id int64) error {
	if apiErr, ok := err.(*shopify.APIError); ok && apiErr.StatusCode == 404 {
		return &errors.ErrNotFound{Resource: resource, ID: strconv.FormatInt(id, 10)}
	}
	return upstreamError(err)
}

func upstreamError(err error) error {
	if apiErr, ok := err.(*shopify.APIError); ok {
		return &errors.ErrUpstream{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return &errors.ErrUpstream{Message: err.Error()}
}
