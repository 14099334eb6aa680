package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darren-olevson/wts-admin-portal-sub000/api"
	"github.com/darren-olevson/wts-admin-portal-sub000/harbor"
	"github.com/darren-olevson/wts-admin-portal-sub000/jobs"
	"github.com/darren-olevson/wts-admin-portal-sub000/portal"
	"github.com/darren-olevson/wts-admin-portal-sub000/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// Thursday is "now" throughout the API tests.
var now = time.Date(2026, time.February, 5, 12, 0, 0, 0, time.UTC)

type fakeHarbor struct {
	balance   *harbor.AccountBalance
	history   []harbor.Transaction
	positions []harbor.Position
	err       error
}

func (f *fakeHarbor) AccountBalance(_ context.Context, accountID string) (*harbor.AccountBalance, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.balance, nil
}

func (f *fakeHarbor) Transactions(_ context.Context, accountID string, since time.Time) ([]harbor.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

func (f *fakeHarbor) Positions(_ context.Context, accountID string) ([]harbor.Position, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.positions, nil
}

type testEnv struct {
	server *httptest.Server
	store  *sqlite.Store
	jobs   *jobs.Memory
}

func newTestEnv(t *testing.T, h *fakeHarbor) *testEnv {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	svc := portal.NewService(store, h, log)
	svc.Now = func() time.Time { return now }

	session := harbor.NewSessionContext()
	session.RecordSuccess()

	jobStore := jobs.NewMemory()
	mgr := jobs.NewManager(jobStore, store, log)

	handler := api.NewHandler(svc, store, h, session, mgr, jobStore, log)
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)

	return &testEnv{server: server, store: store, jobs: jobStore}
}

func usd(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) post(t *testing.T, path string, body any) *http.Response {
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, into any) {
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

// =============================================================================
// ACCOUNT ENDPOINTS
// =============================================================================

func TestGetAccountBalance(t *testing.T) {
	// GIVEN: $15k total with a $2k deposit on Fri 01-30, still unseasoned
	env := newTestEnv(t, &fakeHarbor{
		balance: &harbor.AccountBalance{AccountID: "acct-1", TotalBalance: usd(15000)},
		history: []harbor.Transaction{
			{Amount: usd(2000), Date: time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC), Type: "ach_deposit"},
		},
	})

	resp := env.get(t, "/api/accounts/acct-1/balance")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeJSON(t, resp, &body)

	// The frontend depends on these exact field names.
	assert.Equal(t, 15000.0, body["totalBalance"])
	assert.Equal(t, 13000.0, body["availableBalance"])
	assert.Equal(t, 2000.0, body["unseasonedAmount"])
	assert.Equal(t, "2026-02-06", body["nextSeasoningDate"])
	assert.Equal(t, 1.0, body["daysUntilSeasoned"])

	deposits, ok := body["unseasonedDeposits"].([]any)
	require.True(t, ok)
	require.Len(t, deposits, 1)
	first := deposits[0].(map[string]any)
	assert.Equal(t, 2000.0, first["amount"])
	assert.Equal(t, "2026-02-06", first["seasoningDate"])
	assert.Equal(t, 1.0, first["businessDaysRemaining"])

	schedule, ok := body["unseasonedSchedule"].([]any)
	require.True(t, ok)
	require.Len(t, schedule, 1)
}

func TestGetAccountBalance_AccountNotFound(t *testing.T) {
	env := newTestEnv(t, &fakeHarbor{err: harbor.ErrAccountNotFound})

	resp := env.get(t, "/api/accounts/ghost/balance")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetAccountBalance_HarborUnreachable(t *testing.T) {
	env := newTestEnv(t, &fakeHarbor{err: harbor.ErrUnreachable})

	resp := env.get(t, "/api/accounts/acct-1/balance")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestGetAccountTransactions(t *testing.T) {
	env := newTestEnv(t, &fakeHarbor{
		history: []harbor.Transaction{
			{Amount: usd(500), Date: time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC), Type: "ach_deposit"},
			{Amount: usd(1000), Date: time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC), Type: "ach_deposit"},
		},
	})

	resp := env.get(t, "/api/accounts/acct-1/transactions")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeJSON(t, resp, &body)

	assert.Equal(t, 1500.0, body["totalBalance"])
	assert.Equal(t, 1000.0, body["unseasonedAmount"])
	txs := body["transactions"].([]any)
	require.Len(t, txs, 2)
}

func TestGetAccountPositions(t *testing.T) {
	env := newTestEnv(t, &fakeHarbor{
		positions: []harbor.Position{
			{Symbol: "VTI", Description: "Total Stock Market ETF", Quantity: usd(42), MarketValue: usd(11000)},
		},
	})

	resp := env.get(t, "/api/accounts/acct-1/positions")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body []map[string]any
	decodeJSON(t, resp, &body)
	require.Len(t, body, 1)
	assert.Equal(t, "VTI", body[0]["symbol"])
	assert.Equal(t, 11000.0, body[0]["marketValue"])
}

// =============================================================================
// WITHDRAWAL ENDPOINTS
// =============================================================================

func TestWithdrawalLifecycle(t *testing.T) {
	env := newTestEnv(t, &fakeHarbor{
		balance: &harbor.AccountBalance{AccountID: "acct-1", TotalBalance: usd(10000)},
	})

	// Create
	resp := env.post(t, "/api/withdrawals", map[string]any{
		"accountId":  "acct-1",
		"clientName": "Pat Chen",
		"amount":     2500.0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]any
	decodeJSON(t, resp, &created)
	id := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "pending", created["status"])

	// List shows it
	resp = env.get(t, "/api/withdrawals?status=pending")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]any
	decodeJSON(t, resp, &list)
	require.Len(t, list, 1)

	// Approve
	resp = env.post(t, "/api/withdrawals/"+id+"/approve", map[string]any{"reviewer": "ops-jamie"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var approved map[string]any
	decodeJSON(t, resp, &approved)
	assert.Equal(t, "approved", approved["status"])
	assert.Equal(t, "ops-jamie", approved["reviewedBy"])

	// Approving again conflicts
	resp = env.post(t, "/api/withdrawals/"+id+"/approve", map[string]any{"reviewer": "ops-jamie"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestApproveWithdrawal_Ineligible(t *testing.T) {
	// GIVEN: $10k total but $4k landed today; only $6k is withdrawable
	env := newTestEnv(t, &fakeHarbor{
		balance: &harbor.AccountBalance{AccountID: "acct-1", TotalBalance: usd(10000)},
		history: []harbor.Transaction{{Amount: usd(4000), Date: now, Type: "ach_deposit"}},
	})

	resp := env.post(t, "/api/withdrawals", map[string]any{
		"accountId": "acct-1", "clientName": "Pat Chen", "amount": 8000.0,
	})
	var created map[string]any
	decodeJSON(t, resp, &created)
	id := created["id"].(string)

	resp = env.post(t, "/api/withdrawals/"+id+"/approve", map[string]any{"reviewer": "ops-jamie"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, "ineligible", body["code"])
	details := body["details"].(map[string]any)
	assert.Equal(t, 6000.0, details["available"])
	assert.Equal(t, 4000.0, details["unseasoned"])
	assert.Equal(t, "2026-02-12", details["nextSeasoningDate"])
}

func TestRejectWithdrawal(t *testing.T) {
	env := newTestEnv(t, &fakeHarbor{
		balance: &harbor.AccountBalance{AccountID: "acct-1", TotalBalance: usd(10000)},
	})

	resp := env.post(t, "/api/withdrawals", map[string]any{
		"accountId": "acct-1", "clientName": "Pat Chen", "amount": 100.0,
	})
	var created map[string]any
	decodeJSON(t, resp, &created)
	id := created["id"].(string)

	resp = env.post(t, "/api/withdrawals/"+id+"/reject", map[string]any{
		"reviewer": "ops-jamie", "reason": "client cancelled",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rejected map[string]any
	decodeJSON(t, resp, &rejected)
	assert.Equal(t, "rejected", rejected["status"])
	assert.Equal(t, "client cancelled", rejected["reason"])
}

func TestGetWithdrawal_NotFound(t *testing.T) {
	env := newTestEnv(t, &fakeHarbor{})

	resp := env.get(t, "/api/withdrawals/ghost")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateWithdrawal_MissingAccount(t *testing.T) {
	env := newTestEnv(t, &fakeHarbor{})

	resp := env.post(t, "/api/withdrawals", map[string]any{"amount": 100.0})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportWithdrawals(t *testing.T) {
	env := newTestEnv(t, &fakeHarbor{
		balance: &harbor.AccountBalance{AccountID: "acct-1", TotalBalance: usd(10000)},
	})

	resp := env.post(t, "/api/withdrawals", map[string]any{
		"accountId": "acct-1", "clientName": "Pat Chen", "amount": 2500.5,
	})
	resp.Body.Close()

	resp = env.get(t, "/api/withdrawals/export")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "client_name")
	assert.Contains(t, lines[1], "Pat Chen")
	assert.Contains(t, lines[1], "2500.5")
}

// =============================================================================
// ACH ENDPOINTS
// =============================================================================

func TestACHReconcile(t *testing.T) {
	env := newTestEnv(t, &fakeHarbor{})
	ctx := context.Background()

	require.NoError(t, env.store.SaveACH(ctx, portal.ACHTransaction{
		ID:          "ach-1",
		AccountID:   "acct-1",
		Amount:      usd(5000),
		Direction:   "credit",
		Status:      portal.ACHSettled,
		TraceNumber: "021000021234567",
		EffectiveAt: now,
	}))

	resp := env.get(t, "/api/ach?status=settled")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]any
	decodeJSON(t, resp, &list)
	require.Len(t, list, 1)

	resp = env.post(t, "/api/ach/ach-1/reconcile", map[string]any{"reviewer": "ops-jamie"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, "reconciled", body["status"])
	assert.Equal(t, "ops-jamie", body["reconciledBy"])

	// Second reconcile conflicts
	resp = env.post(t, "/api/ach/ach-1/reconcile", map[string]any{"reviewer": "ops-jamie"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestACHReconcile_NotFound(t *testing.T) {
	env := newTestEnv(t, &fakeHarbor{})

	resp := env.post(t, "/api/ach/ghost/reconcile", map[string]any{"reviewer": "ops-jamie"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// DOCUMENT & JOB ENDPOINTS
// =============================================================================

func TestBulkDownload(t *testing.T) {
	env := newTestEnv(t, &fakeHarbor{})
	ctx := context.Background()

	for _, doc := range []portal.Document{
		{ID: "doc-1", AccountID: "acct-1", Name: "statement-jan.pdf", Type: "statement", SizeBytes: 2048, UploadedAt: now},
		{ID: "doc-2", AccountID: "acct-1", Name: "1099-2025.pdf", Type: "tax", SizeBytes: 1024, UploadedAt: now},
	} {
		require.NoError(t, env.store.SaveDocument(ctx, doc))
	}

	resp := env.get(t, "/api/documents?accountId=acct-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var docs []map[string]any
	decodeJSON(t, resp, &docs)
	require.Len(t, docs, 2)

	resp = env.post(t, "/api/documents/bulk-download", map[string]any{
		"accountId":   "acct-1",
		"documentIds": []string{"doc-1", "doc-2"},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var job map[string]any
	decodeJSON(t, resp, &job)
	jobID := job["id"].(string)
	require.NotEmpty(t, jobID)

	// Poll until the background collection finishes.
	deadline := time.Now().Add(2 * time.Second)
	var final map[string]any
	for time.Now().Before(deadline) {
		resp = env.get(t, "/api/jobs/"+jobID)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeJSON(t, resp, &final)
		if final["status"] == "done" || final["status"] == "failed" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, "done", final["status"])
	assert.Equal(t, 3072.0, final["totalBytes"])
	assert.Contains(t, final["archiveKey"], "acct-1")
}

func TestBulkDownload_NoDocuments(t *testing.T) {
	env := newTestEnv(t, &fakeHarbor{})

	resp := env.post(t, "/api/documents/bulk-download", map[string]any{
		"accountId": "acct-1", "documentIds": []string{},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetJob_NotFound(t *testing.T) {
	env := newTestEnv(t, &fakeHarbor{})

	resp := env.get(t, "/api/jobs/ghost")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// STATUS
// =============================================================================

func TestGetStatus(t *testing.T) {
	env := newTestEnv(t, &fakeHarbor{})

	resp := env.get(t, "/api/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	h := body["harbor"].(map[string]any)
	assert.Equal(t, true, h["reachable"])
}
