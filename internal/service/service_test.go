package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/gateway/midtrans"
	"cluster_kita/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testServerKey = "server-key"

var testNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

type fakeGateway struct {
	mu        sync.Mutex
	charges   []string
	chargeErr error
	statuses  map[string]*midtrans.Status
	verifyErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: map[string]*midtrans.Status{}}
}

func (g *fakeGateway) CreateCharge(_ context.Context, orderID string, _ decimal.Decimal, _ *midtrans.Customer) (*midtrans.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	g.charges = append(g.charges, orderID)
	return &midtrans.Charge{TransactionID: "mid-" + orderID, RedirectURL: "https://pay.example/" + orderID}, nil
}

func (g *fakeGateway) VerifyCharge(_ context.Context, ref string) (*midtrans.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	st, ok := g.statuses[ref]
	if !ok {
		return nil, &midtrans.GatewayError{StatusCode: 404, Message: "Transaction doesn't exist."}
	}
	cp := *st
	return &cp, nil
}

func (g *fakeGateway) ValidSignature(n *midtrans.Status) bool {
	return n.SignatureKey == midtrans.SignatureKey(n.OrderID, n.StatusCode, n.GrossAmount, testServerKey)
}

// settle makes the gateway report a status for the order and its gateway id
func (g *fakeGateway) settle(orderID, transactionStatus string) *midtrans.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := &midtrans.Status{
		StatusCode:        "200",
		TransactionID:     "mid-" + orderID,
		OrderID:           orderID,
		GrossAmount:       "120000.00",
		TransactionStatus: transactionStatus,
		SettlementTime:    "2025-03-15 17:30:00",
	}
	g.statuses[st.TransactionID] = st
	g.statuses[orderID] = st
	return st
}

type sentMessage struct{ To, Body string }

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, to, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{To: to, Body: body})
	return nil
}

func (n *fakeNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type harness struct {
	svc      *Service
	store    *repository.MemoryStore
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	gateway  *fakeGateway
	notifier *fakeNotifier
	admin    *domain.User
	resident *domain.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	h := &harness{
		store:    repository.NewMemoryStore(),
		mr:       mr,
		rdb:      rdb,
		gateway:  newFakeGateway(),
		notifier: &fakeNotifier{},
	}
	h.svc = New(Options{
		Store:           h.store,
		Redis:           rdb,
		Gateway:         h.gateway,
		Notifier:        h.notifier,
		VerifySignature: true,
		Now:             func() time.Time { return testNow },
	})
	h.admin = h.addUser(t, "admin_1", domain.RoleAdmin, "081100000001")
	h.resident = h.addUser(t, "user_1", domain.RoleResident, "081200000001")
	return h
}

func (h *harness) addUser(t *testing.T, id string, role domain.Role, phone string) *domain.User {
	t.Helper()
	ctx := context.Background()
	u := &domain.User{ID: id, Name: "Name " + id, Email: id + "@example.com"}
	if phone != "" {
		u.PhoneNumber = &phone
	}
	require.NoError(t, h.store.Users().Upsert(ctx, u))
	require.NoError(t, h.store.Users().UpdateRole(ctx, id, role))
	got, err := h.store.Users().Get(ctx, id)
	require.NoError(t, err)
	return got
}

func (h *harness) addBill(t *testing.T, userID string, month int, amount int64, status domain.BillStatus) *domain.Bill {
	t.Helper()
	b := &domain.Bill{
		UserID: userID,
		Month:  month,
		Year:   2025,
		Amount: decimal.NewFromInt(amount),
		Status: status,
	}
	require.NoError(t, h.store.Bills().Create(context.Background(), b), fmt.Sprintf("bill %d", month))
	return b
}
