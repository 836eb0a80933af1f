package cart

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peptidrop/backend/pkg/logger"
)

type fakeKV struct {
	values    map[string]string
	published []string
	events    chan string
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		values: map[string]string{},
		events: make(chan string),
	}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeKV) Publish(_ context.Context, _ string, payload string) error {
	f.published = append(f.published, payload)
	return nil
}

func (f *fakeKV) Subscribe(_ context.Context, _ string) <-chan string {
	return f.events
}

func (f *fakeKV) CartKey(cartID string) string {
	return "pd:cart:" + cartID
}

func newTestService(t *testing.T, kv *fakeKV) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "cart-test"})
	svc, err := NewService(context.Background(), kv, logg, time.Hour, "pd:cart:events")
	require.NoError(t, err)
	return svc
}

func TestLoadMissingCartIsEmpty(t *testing.T) {
	svc := newTestService(t, newFakeKV())

	items, err := svc.Load(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLoadNeverFailsOnCorruptedPayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		wantLen int
	}{
		{name: "not json", payload: "{{{{", wantLen: 0},
		{name: "not an array", payload: `{"sku":"bpc-157","qty":2}`, wantLen: 0},
		{name: "number", payload: "42", wantLen: 0},
		{name: "null entries skipped", payload: `[null, {"sku":"bpc-157","qty":2}]`, wantLen: 1},
		{name: "bad sku dropped", payload: `[{"sku":"../../etc","qty":1},{"sku":"bpc-157","qty":2}]`, wantLen: 1},
		{name: "zero qty dropped", payload: `[{"sku":"bpc-157","qty":0}]`, wantLen: 0},
		{name: "oversized qty dropped", payload: `[{"sku":"bpc-157","qty":1001}]`, wantLen: 0},
		{name: "negative advisory price dropped", payload: `[{"sku":"bpc-157","qty":1,"unit_price_cents":-5}]`, wantLen: 0},
		{name: "duplicate sku keeps first", payload: `[{"sku":"bpc-157","qty":1},{"sku":"bpc-157","qty":9}]`, wantLen: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kv := newFakeKV()
			kv.values[kv.CartKey("cart-1")] = tc.payload
			svc := newTestService(t, kv)

			items, err := svc.Load(context.Background(), "cart-1")
			require.NoError(t, err)
			assert.Len(t, items, tc.wantLen)
			for _, item := range items {
				assert.GreaterOrEqual(t, item.Qty, 1)
				assert.LessOrEqual(t, item.Qty, MaxQty)
			}
		})
	}
}

func TestAddMergesBySKU(t *testing.T) {
	kv := newFakeKV()
	svc := newTestService(t, kv)
	ctx := context.Background()

	_, err := svc.Add(ctx, "cart-1", LineItem{SKU: "bpc-157", Qty: 2})
	require.NoError(t, err)

	items, err := svc.Add(ctx, "cart-1", LineItem{SKU: "bpc-157", Qty: 3})
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Qty)
}

func TestAddRejectsInvalidItem(t *testing.T) {
	svc := newTestService(t, newFakeKV())

	_, err := svc.Add(context.Background(), "cart-1", LineItem{SKU: "NOT VALID", Qty: 1})
	assert.Error(t, err)
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	kv := newFakeKV()
	svc := newTestService(t, kv)
	ctx := context.Background()

	_, err := svc.Add(ctx, "cart-1", LineItem{SKU: "bpc-157", Qty: 2})
	require.NoError(t, err)

	items, err := svc.SetQuantity(ctx, "cart-1", "bpc-157", 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSetQuantityUnknownSKU(t *testing.T) {
	svc := newTestService(t, newFakeKV())

	_, err := svc.SetQuantity(context.Background(), "cart-1", "tb-500", 4)
	assert.Error(t, err)
}

func TestMutationsNotifyListenersAndPublish(t *testing.T) {
	kv := newFakeKV()
	svc := newTestService(t, kv)

	var notified []string
	svc.Subscribe(func(cartID string) {
		notified = append(notified, cartID)
	})

	_, err := svc.Add(context.Background(), "cart-1", LineItem{SKU: "bpc-157", Qty: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"cart-1"}, notified)
	assert.Equal(t, []string{"cart-1"}, kv.published)
}

func TestRemoteEventsReachLocalListeners(t *testing.T) {
	kv := newFakeKV()
	svc := newTestService(t, kv)

	notified := make(chan string, 1)
	svc.Subscribe(func(cartID string) {
		notified <- cartID
	})

	kv.events <- "cart-other"

	select {
	case got := <-notified:
		assert.Equal(t, "cart-other", got)
	case <-time.After(time.Second):
		t.Fatal("remote cart event never reached listener")
	}
}

func TestTotalAndItemCount(t *testing.T) {
	price := int64(4999)
	items := []LineItem{
		{SKU: "bpc-157", Qty: 2, UnitPriceCents: &price},
		{SKU: "tb-500", Qty: 3},
	}

	assert.Equal(t, int64(9998), Total(items))
	assert.Equal(t, 5, ItemCount(items))
}
