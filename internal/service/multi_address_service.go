package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kushalyadavv/multi-address-backend/internal/domain"
	"github.com/kushalyadavv/multi-address-backend/internal/logger"
	"github.com/kushalyadavv/multi-address-backend/internal/shopify"
	"github.com/kushalyadavv/multi-address-backend/pkg/errors"
)

const (
	savedNote          = "Multi-address shipping configured: per-item shipping addresses are stored in metafield multi_address.shipping_addresses."
	notFlaggedMessage  = "This order is not configured for multi-address shipping"
	splitNoteTemplate  = "Order split for multi-address shipping into %d orders: %s"
	splitNoteSeparator = ", "
)

// MultiAddressService stores per-line-item shipping addresses on an order or
// splits the order into one new order per address. Remote steps run one at a
// time; nothing is rolled back when a later step fails.
type MultiAddressService struct {
	gateway OrderGateway
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*MultiAddressService)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *MultiAddressService) {
		s.now = now
	}
}

func NewMultiAddressService(gateway OrderGateway, log *zap.Logger, opts ...Option) *MultiAddressService {
	s := &MultiAddressService{
		gateway: gateway,
		logger:  logger.OrNop(log),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveAsMetadata writes a fresh envelope on the order and notes it
func (s *MultiAddressService) SaveAsMetadata(ctx context.Context, orderID int64, assignments []domain.LineItemAssignment) (*domain.SaveResult, error) {
	assignments, err := ValidateAssignments(assignments)
	if err != nil {
		return nil, err
	}
	return s.saveAsMetadata(ctx, orderID, assignments)
}

func (s *MultiAddressService) saveAsMetadata(ctx context.Context, orderID int64, assignments []domain.LineItemAssignment) (*domain.SaveResult, error) {
	now := s.now().UTC()
	envelope := domain.NewEnvelope(assignments, now)

	stored, err := s.gateway.WriteEnvelope(ctx, orderID, envelope, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to save shipping addresses: %w", err)
	}

	s.gateway.AppendNote(ctx, orderID, savedNote)

	s.logger.Info("Saved multi-address assignments",
		zap.Int64("order_id", orderID),
		zap.Int64("metafield_id", stored.MetafieldID),
		zap.Int("addresses_saved", len(assignments)),
	)

	return &domain.SaveResult{
		MetafieldID:    stored.MetafieldID,
		AddressesSaved: len(assignments),
		SavedAt:        now,
	}, nil
}

// UpdateMetadata rewrites the envelope in place keeping its configured_at.
// With no envelope present it falls back to a fresh save. The write is
// refused with ErrConflict when the metafield changed since it was read.
func (s *MultiAddressService) UpdateMetadata(ctx context.Context, orderID int64, assignments []domain.LineItemAssignment) (*domain.UpdateResult, error) {
	assignments, err := ValidateAssignments(assignments)
	if err != nil {
		return nil, err
	}

	existing, err := s.gateway.FetchEnvelope(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to read shipping addresses: %w", err)
	}

	if existing == nil {
		saved, err := s.saveAsMetadata(ctx, orderID, assignments)
		if err != nil {
			return nil, err
		}
		return &domain.UpdateResult{
			MetafieldID:    saved.MetafieldID,
			AddressesSaved: saved.AddressesSaved,
			ConfiguredAt:   saved.SavedAt,
			Created:        true,
		}, nil
	}

	now := s.now().UTC()
	envelope := domain.NewEnvelope(assignments, existing.Envelope.ConfiguredAt)
	envelope.UpdatedAt = &now

	if err := s.checkUnchanged(ctx, orderID, existing); err != nil {
		return nil, err
	}

	stored, err := s.gateway.WriteEnvelope(ctx, orderID, envelope, existing.MetafieldID)
	if err != nil {
		return nil, fmt.Errorf("failed to update shipping addresses: %w", err)
	}

	s.logger.Info("Updated multi-address assignments",
		zap.Int64("order_id", orderID),
		zap.Int64("metafield_id", stored.MetafieldID),
		zap.Int("addresses_saved", len(assignments)),
	)

	return &domain.UpdateResult{
		MetafieldID:    stored.MetafieldID,
		AddressesSaved: len(assignments),
		ConfiguredAt:   envelope.ConfiguredAt,
		UpdatedAt:      envelope.UpdatedAt,
	}, nil
}

// checkUnchanged re-reads the metafield version right before the write.
// Shopify reports updated_at to the second, so two writes within the same
// second look unchanged and the later one still wins.
func (s *MultiAddressService) checkUnchanged(ctx context.Context, orderID int64, existing *domain.StoredEnvelope) error {
	version, err := s.gateway.FetchEnvelopeVersion(ctx, orderID, existing.MetafieldID)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); ok {
			return &errors.ErrConflict{Message: "shipping addresses were deleted while being updated"}
		}
		return fmt.Errorf("failed to read shipping addresses: %w", err)
	}
	if !version.Equal(existing.Version) {
		s.logger.Warn("Shipping envelope changed during update",
			zap.Int64("order_id", orderID),
			zap.Int64("metafield_id", existing.MetafieldID),
			zap.Time("read_version", existing.Version),
			zap.Time("current_version", version),
		)
		return &errors.ErrConflict{Message: "shipping addresses were modified by another request, reload and retry"}
	}
	return nil
}

// DeleteMetadata removes the envelope. A missing envelope is not an error.
func (s *MultiAddressService) DeleteMetadata(ctx context.Context, orderID int64) (*domain.DeleteResult, error) {
	existing, err := s.gateway.FetchEnvelope(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to read shipping addresses: %w", err)
	}
	if existing == nil {
		return &domain.DeleteResult{Deleted: false}, nil
	}

	if err := s.gateway.DeleteEnvelope(ctx, orderID, existing.MetafieldID); err != nil {
		return nil, fmt.Errorf("failed to delete shipping addresses: %w", err)
	}

	now := s.now().UTC()
	id := existing.MetafieldID
	s.logger.Info("Deleted multi-address assignments",
		zap.Int64("order_id", orderID),
		zap.Int64("metafield_id", id),
	)
	return &domain.DeleteResult{
		Deleted:     true,
		MetafieldID: &id,
		DeletedAt:   &now,
	}, nil
}

// SplitIntoOrders creates and completes one draft order per distinct address,
// then notes the result on the original order and records the assignments
// in a new envelope. A failure part way leaves earlier orders in place.
func (s *MultiAddressService) SplitIntoOrders(ctx context.Context, orderID int64, assignments []domain.LineItemAssignment) (*domain.SplitResult, error) {
	assignments, err := ValidateAssignments(assignments)
	if err != nil {
		return nil, err
	}

	order, err := s.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}

	lineItems, err := resolveLineItems(order, assignments)
	if err != nil {
		return nil, err
	}
	if over := overAllocated(lineItems, assignments); len(over) > 0 {
		s.logger.Warn("Assigned quantity exceeds ordered quantity",
			zap.Int64("order_id", orderID),
			zap.Int64s("line_item_ids", over),
		)
	}

	groups := GroupLineItemsByAddress(assignments)
	created := make([]domain.CreatedOrder, 0, len(groups))

	for i, group := range groups {
		part := i + 1
		input, items := buildDraftOrder(order, group, part, len(groups), lineItems)

		draftID, err := s.gateway.CreateDraftOrder(ctx, input)
		if err != nil {
			s.logPartialSplit(orderID, part, created, err)
			return nil, fmt.Errorf("failed to create draft order for split part %d: %w", part, err)
		}

		newOrderID, err := s.gateway.CompleteDraftOrder(ctx, draftID)
		if err != nil {
			s.logPartialSplit(orderID, part, created, err)
			return nil, fmt.Errorf("failed to complete draft order %d for split part %d: %w", draftID, part, err)
		}

		s.logger.Info("Created split order",
			zap.Int64("original_order_id", orderID),
			zap.Int("split_part", part),
			zap.Int64("draft_order_id", draftID),
			zap.Int64("order_id", newOrderID),
		)

		created = append(created, domain.CreatedOrder{
			OrderID:         newOrderID,
			DraftOrderID:    draftID,
			ShippingAddress: group.Address,
			LineItems:       items,
		})
	}

	s.gateway.AppendNote(ctx, orderID, splitNote(created))

	if _, err := s.saveAsMetadata(ctx, orderID, assignments); err != nil {
		s.logger.Error("Split orders created but assignments were not recorded",
			zap.Int64("original_order_id", orderID),
			zap.Int64s("created_order_ids", createdOrderIDs(created)),
			zap.Error(err),
		)
		return nil, err
	}

	return &domain.SplitResult{
		SplitSuccessful:  true,
		OriginalOrderID:  orderID,
		CreatedOrders:    created,
		TotalSplitOrders: len(created),
		SplitAt:          s.now().UTC(),
	}, nil
}

func (s *MultiAddressService) logPartialSplit(orderID int64, failedPart int, created []domain.CreatedOrder, err error) {
	s.logger.Error("Split aborted",
		zap.Int64("original_order_id", orderID),
		zap.Int("failed_part", failedPart),
		zap.Int64s("created_order_ids", createdOrderIDs(created)),
		zap.Error(err),
	)
}

// GetAddresses returns the stored assignments, or an unconfigured view
func (s *MultiAddressService) GetAddresses(ctx context.Context, orderID int64) (*domain.AddressesView, error) {
	existing, err := s.gateway.FetchEnvelope(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to read shipping addresses: %w", err)
	}
	if existing == nil {
		return &domain.AddressesView{Configured: false, Addresses: []domain.EnvelopeLineItem{}}, nil
	}

	id := existing.MetafieldID
	configuredAt := existing.Envelope.ConfiguredAt
	return &domain.AddressesView{
		Configured:   true,
		MetafieldID:  &id,
		ConfiguredAt: &configuredAt,
		UpdatedAt:    existing.Envelope.UpdatedAt,
		Addresses:    existing.Envelope.LineItems,
	}, nil
}

// GetOrderSummary returns the shippable line items of an order flagged with
// the multi_address_shipping=yes note attribute
func (s *MultiAddressService) GetOrderSummary(ctx context.Context, orderID int64) (*domain.OrderSummary, error) {
	order, err := s.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	if !IsMultiAddressOrder(order) {
		return nil, &errors.ErrValidation{Message: notFlaggedMessage}
	}

	summary := &domain.OrderSummary{
		OrderID:         order.ID,
		Name:            order.Name,
		OrderNumber:     order.OrderNumber,
		Email:           order.Email,
		Currency:        order.Currency,
		ShippingAddress: fromMailingAddress(order.ShippingAddress),
		LineItems:       make([]domain.OrderLineItem, 0, len(order.LineItems)),
		Subtotal:        decimal.Zero,
	}
	if order.Customer != nil {
		summary.Customer = &domain.CustomerSummary{
			ID:        order.Customer.ID,
			Email:     order.Customer.Email,
			FirstName: order.Customer.FirstName,
			LastName:  order.Customer.LastName,
		}
	}

	for _, li := range order.LineItems {
		if !li.RequiresShipping {
			continue
		}
		price, err := decimal.NewFromString(li.Price)
		if err != nil {
			s.logger.Warn("Unparseable line item price",
				zap.Int64("order_id", orderID),
				zap.Int64("line_item_id", li.ID),
				zap.String("price", li.Price),
			)
			price = decimal.Zero
		}
		summary.LineItems = append(summary.LineItems, domain.OrderLineItem{
			ID:           li.ID,
			VariantID:    li.VariantID,
			ProductID:    li.ProductID,
			Title:        li.Title,
			VariantTitle: li.VariantTitle,
			SKU:          li.SKU,
			Quantity:     li.Quantity,
			Price:        price,
		})
		summary.TotalQuantity += li.Quantity
		summary.Subtotal = summary.Subtotal.Add(price.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}

	existing, err := s.gateway.FetchEnvelope(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to read shipping addresses: %w", err)
	}
	if existing != nil {
		summary.Addresses = existing.Envelope.LineItems
	}

	return summary, nil
}

// IsMultiAddressOrder reports whether the order carries multi_address_shipping=yes
func IsMultiAddressOrder(order *shopify.Order) bool {
	for _, attr := range order.NoteAttributes {
		if strings.EqualFold(strings.TrimSpace(attr.Name), domain.MultiAddressFlagName) &&
			strings.EqualFold(strings.TrimSpace(attr.Value), domain.MultiAddressFlagValue) {
			return true
		}
	}
	return false
}

func splitNote(created []domain.CreatedOrder) string {
	ids := make([]string, 0, len(created))
	for _, c := range created {
		ids = append(ids, strconv.FormatInt(c.OrderID, 10))
	}
	return fmt.Sprintf(splitNoteTemplate, len(created), strings.Join(ids, splitNoteSeparator))
}

func createdOrderIDs(created []domain.CreatedOrder) []int64 {
	ids := make([]int64, 0, len(created))
	for _, c := range created {
		ids = append(ids, c.OrderID)
	}
	return ids
}
