package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nottechincal/StuffedLamb-Final/internal/catalog"
	"github.com/nottechincal/StuffedLamb-Final/internal/domain"
	"github.com/nottechincal/StuffedLamb-Final/internal/notify"
	sessionrepo "github.com/nottechincal/StuffedLamb-Final/internal/repository/session"
	cartsvc "github.com/nottechincal/StuffedLamb-Final/internal/service/cart"
	ordersvc "github.com/nottechincal/StuffedLamb-Final/internal/service/order"
	pickupsvc "github.com/nottechincal/StuffedLamb-Final/internal/service/pickup"
	pricingsvc "github.com/nottechincal/StuffedLamb-Final/internal/service/pricing"
	sessionsvc "github.com/nottechincal/StuffedLamb-Final/internal/service/session"
)

type fakeOrderRepo struct {
	orders map[string]*domain.Order
}

func (f *fakeOrderRepo) Create(_ context.Context, o *domain.Order) error {
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id, status string) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	o.Status = status
	return o, nil
}

func (f *fakeOrderRepo) ListByNumberPrefix(_ context.Context, _ string) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderRepo) CountActive(_ context.Context) (int, error) {
	return len(f.orders), nil
}

type fakeCustomerRepo struct {
	customers map[string]*domain.Customer
}

func (f *fakeCustomerRepo) GetByPhone(_ context.Context, phone string) (*domain.Customer, error) {
	c, ok := f.customers[phone]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeCustomerRepo) Upsert(_ context.Context, c *domain.Customer) error {
	f.customers[c.Phone] = c
	return nil
}

type testEnv struct {
	router    http.Handler
	store     *sessionrepo.MemoryStore
	orderRepo *fakeOrderRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	logger := log.New(io.Discard, "", 0)

	store := sessionrepo.NewMemory(sessionrepo.MemoryConfig{TTL: time.Hour, MaxSessions: 100, SweepInterval: time.Hour})
	t.Cleanup(func() { store.Close() })

	orderRepo := &fakeOrderRepo{orders: map[string]*domain.Order{}}
	customerRepo := &fakeCustomerRepo{customers: map[string]*domain.Customer{}}

	deps := Deps{
		Catalog:  cat,
		Sessions: sessionsvc.New(store, 3, logger),
		Cart:     cartsvc.New(cat, cartsvc.DefaultMergePolicy),
		Pricing:  pricingsvc.New(cat),
		Pickup:   pickupsvc.New(cat),
		Orders:   ordersvc.New(orderRepo, customerRepo, cat.Location(), logger),
		Notifier: notify.NewLog(logger, "https://example.com/menu"),
	}
	router, err := buildRouter(logger, deps, []string{"*"})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	return &testEnv{
		router:    router,
		store:     store,
		orderRepo: orderRepo,
	}
}

// post sends one tool call through the webhook and returns its decoded
// result payload.
func (e *testEnv) post(t *testing.T, callID, tool string, args interface{}) map[string]interface{} {
	t.Helper()

	rawArgs, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	body, err := json.Marshal(webhookRequest{Message: webhookMessage{
		ToolCalls: []toolCall{{ID: "tc-1", Function: toolFunction{Name: tool, Arguments: rawArgs}}},
		Call:      &callInfo{ID: callID, Customer: &callCustomer{Number: "+61400111222"}},
	}})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp webhookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(resp.Results[0].Result), &out); err != nil {
		t.Fatalf("decode result %q: %v", resp.Results[0].Result, err)
	}
	return out
}

func TestWebhook_QuickAddThenCartState(t *testing.T) {
	env := newTestEnv(t)

	out := env.post(t, "call-1", "quickAddItem", map[string]interface{}{
		"category": "main_dishes",
		"itemId":   "mansaf",
		"quantity": 2,
	})
	if out["success"] != true {
		t.Fatalf("expected success, got %v", out)
	}

	state := env.post(t, "call-1", "getCartState", nil)
	if state["count"].(float64) != 1 {
		t.Fatalf("expected one cart line, got %v", state["count"])
	}
	items := state["items"].([]interface{})
	if qty := items[0].(map[string]interface{})["quantity"].(float64); qty != 2 {
		t.Fatalf("expected quantity 2, got %v", qty)
	}
}

func TestWebhook_StringEncodedArguments(t *testing.T) {
	env := newTestEnv(t)

	// The platform sometimes double-encodes arguments as a JSON string.
	out := env.post(t, "call-1", "quickAddItem", `{"category":"main_dishes","itemId":"mansaf"}`)
	if out["success"] != true {
		t.Fatalf("expected success, got %v", out)
	}
}

func TestWebhook_UnknownItemIsValidationFailure(t *testing.T) {
	env := newTestEnv(t)

	out := env.post(t, "call-1", "quickAddItem", map[string]interface{}{
		"category": "main_dishes",
		"itemId":   "pizza",
	})
	if out["success"] != false {
		t.Fatalf("expected failure, got %v", out)
	}
	if out["errorType"] != "validation" {
		t.Fatalf("expected validation errorType, got %v", out["errorType"])
	}
}

func TestWebhook_CreateOrder_EmptyCart(t *testing.T) {
	env := newTestEnv(t)

	out := env.post(t, "call-1", "createOrder", map[string]interface{}{
		"customerName": "Sam",
	})
	if out["success"] != false {
		t.Fatalf("expected failure, got %v", out)
	}
	if out["missing"] != "cart" {
		t.Fatalf("expected missing cart, got %v", out["missing"])
	}
}

func TestWebhook_CreateOrder_MissingPickupTime(t *testing.T) {
	env := newTestEnv(t)

	env.post(t, "call-1", "quickAddItem", map[string]interface{}{
		"category": "main_dishes",
		"itemId":   "mansaf",
	})

	out := env.post(t, "call-1", "createOrder", map[string]interface{}{
		"customerName": "Sam",
	})
	if out["success"] != false {
		t.Fatalf("expected failure, got %v", out)
	}
	if out["requiresPickupTime"] != true {
		t.Fatalf("expected requiresPickupTime flag, got %v", out)
	}
}

func TestWebhook_CreateOrder_Success(t *testing.T) {
	env := newTestEnv(t)

	env.post(t, "call-1", "quickAddItem", map[string]interface{}{
		"category": "main_dishes",
		"itemId":   "mansaf",
	})

	// Seed a resolved pickup time directly; setPickupTime is exercised in
	// the resolver's own tests against a fixed clock.
	sess, err := env.store.Peek(context.Background(), "call-1")
	if err != nil || sess == nil {
		t.Fatalf("expected seeded session, got %v, %v", sess, err)
	}
	sess.Metadata.PickupTime = "Wednesday, November 5 at 6:00 PM"
	sess.Metadata.PickupTimeISO = "2025-11-05T18:00:00+11:00"
	if err := env.store.Save(context.Background(), "call-1", sess); err != nil {
		t.Fatalf("save session: %v", err)
	}

	out := env.post(t, "call-1", "createOrder", map[string]interface{}{
		"customerName":  "Sam",
		"customerPhone": "+61400111222",
	})
	if out["success"] != true {
		t.Fatalf("expected success, got %v", out)
	}
	if !regexp.MustCompile(`^\d{8}-[A-Z0-9]{4}$`).MatchString(out["orderNumber"].(string)) {
		t.Fatalf("unexpected order number %v", out["orderNumber"])
	}
	if len(env.orderRepo.orders) != 1 {
		t.Fatalf("expected 1 persisted order, got %d", len(env.orderRepo.orders))
	}

	// A confirmed order ends the session.
	gone, err := env.store.Peek(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected session deleted after order, got %+v", gone)
	}
}

func TestWebhook_RepeatLastOrder(t *testing.T) {
	env := newTestEnv(t)

	env.post(t, "call-1", "quickAddItem", map[string]interface{}{
		"category": "main_dishes",
		"itemId":   "mansaf",
		"quantity": 3,
	})
	sess, _ := env.store.Peek(context.Background(), "call-1")
	sess.Metadata.PickupTime = "Wednesday, November 5 at 6:00 PM"
	if err := env.store.Save(context.Background(), "call-1", sess); err != nil {
		t.Fatalf("save session: %v", err)
	}
	env.post(t, "call-1", "createOrder", map[string]interface{}{
		"customerName":  "Sam",
		"customerPhone": "+61400111222",
	})

	out := env.post(t, "call-2", "repeatLastOrder", nil)
	if out["success"] != true {
		t.Fatalf("expected success, got %v", out)
	}
	state := env.post(t, "call-2", "getCartState", nil)
	items := state["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected one repeated cart line, got %d", len(items))
	}
	if qty := items[0].(map[string]interface{})["quantity"].(float64); qty != 3 {
		t.Fatalf("expected repeated quantity 3, got %v", qty)
	}
}

func TestWebhook_UnknownTool(t *testing.T) {
	env := newTestEnv(t)

	out := env.post(t, "call-1", "teleportOrder", nil)
	if out["success"] != false {
		t.Fatalf("expected failure, got %v", out)
	}
	if out["errorType"] != "validation" {
		t.Fatalf("expected validation errorType, got %v", out["errorType"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
