package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/peptidrop/backend/pkg/logger"
	"github.com/peptidrop/backend/pkg/redis"
)

// Listener is invoked after a cart changes. The cartID identifies which cart
// moved; listeners reload through the service rather than trusting a payload.
type Listener func(cartID string)

// Service owns cart reads and mutations.
type Service interface {
	Load(ctx context.Context, cartID string) ([]LineItem, error)
	Add(ctx context.Context, cartID string, item LineItem) ([]LineItem, error)
	Remove(ctx context.Context, cartID string, sku string) ([]LineItem, error)
	SetQuantity(ctx context.Context, cartID string, sku string, qty int) ([]LineItem, error)
	Clear(ctx context.Context, cartID string) error
	Subscribe(listener Listener)
}

type service struct {
	kv      redis.KV
	logg    *logger.Logger
	ttl     time.Duration
	channel string

	mu        sync.RWMutex
	listeners []Listener
}

// NewService builds the cart service and starts the cross-instance change
// feed. Mutations made by other API instances arrive on the Redis channel
// and trigger the same listener path as local ones.
func NewService(ctx context.Context, kv redis.KV, logg *logger.Logger, ttl time.Duration, channel string) (Service, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis kv required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	if strings.TrimSpace(channel) == "" {
		return nil, fmt.Errorf("cart events channel required")
	}

	svc := &service{
		kv:      kv,
		logg:    logg,
		ttl:     ttl,
		channel: channel,
	}

	go svc.consumeEvents(ctx)

	return svc, nil
}

// Load reads and validates the stored cart. Missing keys and corrupted
// payloads both come back as an empty cart.
func (s *service) Load(ctx context.Context, cartID string) ([]LineItem, error) {
	payload, err := s.kv.Get(ctx, s.kv.CartKey(cartID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return []LineItem{}, nil
		}
		return nil, fmt.Errorf("loading cart %s: %w", cartID, err)
	}
	return decodeItems(payload), nil
}

// Add merges the item into the cart by SKU, summing quantities. Structurally
// invalid items are rejected.
func (s *service) Add(ctx context.Context, cartID string, item LineItem) ([]LineItem, error) {
	if !item.valid() {
		return nil, fmt.Errorf("invalid cart item for sku %q", item.SKU)
	}

	items, err := s.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range items {
		if items[i].SKU == item.SKU {
			items[i].Qty += item.Qty
			if items[i].Qty > MaxQty {
				items[i].Qty = MaxQty
			}
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}

	if err := s.persist(ctx, cartID, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Remove drops the line for the SKU. Removing an absent SKU is a no-op.
func (s *service) Remove(ctx context.Context, cartID string, sku string) ([]LineItem, error) {
	items, err := s.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	kept := items[:0]
	for _, item := range items {
		if item.SKU != sku {
			kept = append(kept, item)
		}
	}

	if err := s.persist(ctx, cartID, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// SetQuantity pins the line's quantity. A qty of zero or less removes the
// line entirely.
func (s *service) SetQuantity(ctx context.Context, cartID string, sku string, qty int) ([]LineItem, error) {
	if qty <= 0 {
		return s.Remove(ctx, cartID, sku)
	}
	if qty > MaxQty {
		return nil, fmt.Errorf("quantity %d exceeds maximum %d", qty, MaxQty)
	}

	items, err := s.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range items {
		if items[i].SKU == sku {
			items[i].Qty = qty
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("sku %q not in cart", sku)
	}

	if err := s.persist(ctx, cartID, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Clear deletes the stored cart, typically after a successful checkout.
func (s *service) Clear(ctx context.Context, cartID string) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(cartID)); err != nil {
		return fmt.Errorf("clearing cart %s: %w", cartID, err)
	}
	s.notifyLocal(cartID)
	if err := s.kv.Publish(ctx, s.channel, cartID); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("publishing cart event for %s: %v", cartID, err))
	}
	return nil
}

// Subscribe registers a listener for cart changes, local or remote.
func (s *service) Subscribe(listener Listener) {
	if listener == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// persist writes the cart synchronously, then notifies. Listener failures
// never undo the write; last write wins across instances.
func (s *service) persist(ctx context.Context, cartID string, items []LineItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding cart %s: %w", cartID, err)
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(cartID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("storing cart %s: %w", cartID, err)
	}

	s.notifyLocal(cartID)

	if err := s.kv.Publish(ctx, s.channel, cartID); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("publishing cart event for %s: %v", cartID, err))
	}
	return nil
}

func (s *service) notifyLocal(cartID string) {
	s.mu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(cartID)
	}
}

// consumeEvents fans remote cart changes into the local listener set.
func (s *service) consumeEvents(ctx context.Context) {
	for cartID := range s.kv.Subscribe(ctx, s.channel) {
		s.notifyLocal(cartID)
	}
}
