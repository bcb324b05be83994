package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gigurra/subsight/internal"
	"github.com/gigurra/subsight/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const netflixJSON = `{
	"name": "Netflix",
	"provider": "Netflix Inc",
	"category": "Streaming",
	"icon": "streaming",
	"startDate": "2024-03-01T00:00:00.000Z",
	"billingCycle": "monthly",
	"amount": 15.99,
	"currency": "USD",
	"notes": "",
	"activeStatus": true,
	"autoRenew": true
}`

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestServer(t *testing.T, limit int) (*Server, *store.Repository, http.Handler) {
	t.Helper()
	repo := store.NewRepository(store.NewMemoryBackend(), quietLogger())
	srv := New(repo, quietLogger(), Options{
		Limiter: internal.NewRateLimiter(limit, time.Minute),
		Now:     func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) },
	})
	return srv, repo, srv.Handler()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON response: %v\n%s", err, rec.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	_, _, h := newTestServer(t, 10)
	rec := do(h, "GET", "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[map[string]any](t, rec); got["status"] != "ok" {
		t.Errorf("unexpected body %v", got)
	}
}

func TestSubscriptionsCRUD(t *testing.T) {
	_, _, h := newTestServer(t, 100)

	rec := do(h, "POST", "/api/subscriptions", netflixJSON)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
	}
	added := decode[internal.Subscription](t, rec)
	if added.ID == "" || added.Name != "Netflix" {
		t.Fatalf("unexpected added record %+v", added)
	}

	rec = do(h, "PATCH", "/api/subscriptions/"+added.ID, `{"activeStatus": false, "amount": 17.99}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode[internal.Subscription](t, rec)
	if updated.ActiveStatus || !updated.Amount.Equal(decimal.RequireFromString("17.99")) {
		t.Errorf("update not applied: %+v", updated)
	}

	rec = do(h, "GET", "/api/subscriptions", "")
	list := decode[[]internal.Subscription](t, rec)
	if len(list) != 1 || list[0].ID != added.ID {
		t.Errorf("unexpected list %+v", list)
	}

	rec = do(h, "DELETE", "/api/subscriptions/"+added.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = do(h, "DELETE", "/api/subscriptions/"+added.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestAddSubscription_Invalid(t *testing.T) {
	_, _, h := newTestServer(t, 100)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad JSON", `{`, http.StatusBadRequest},
		{"bad cycle", strings.Replace(netflixJSON, `"monthly"`, `"weekly"`, 1), http.StatusBadRequest},
		{"zero amount", strings.Replace(netflixJSON, `15.99`, `0`, 1), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, "POST", "/api/subscriptions", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec := do(h, "POST", "/api/subscriptions", strings.Replace(netflixJSON, `"monthly"`, `"weekly"`, 1))
	body := decode[errorResponse](t, rec)
	if len(body.Issues) != 1 || body.Issues[0].Path != "billingCycle" {
		t.Errorf("unexpected issues %+v", body.Issues)
	}
}

func TestUpdateSubscription_Invalid(t *testing.T) {
	_, repo, h := newTestServer(t, 100)
	added, err := repo.Add(context.Background(), store.Draft{Name: "A", Amount: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatal(err)
	}

	rec := do(h, "PATCH", "/api/subscriptions/"+added.ID, `{"currency": "SEK"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	rec = do(h, "PATCH", "/api/subscriptions/missing", `{"notes": "x"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	tests := []struct {
		name string
		body string
		path string
	}{
		{"blank name", `{"name": "   "}`, "name"},
		{"empty provider", `{"provider": ""}`, "provider"},
		{"blank category", `{"category": " "}`, "category"},
		{"long notes", `{"notes": "` + strings.Repeat("n", 501) + `"}`, "notes"},
		{"amount above max", `{"amount": 5000000}`, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, "PATCH", "/api/subscriptions/"+added.ID, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			body := decode[errorResponse](t, rec)
			if len(body.Issues) != 1 || body.Issues[0].Path != tt.path {
				t.Errorf("unexpected issues %+v", body.Issues)
			}
		})
	}

	stored, err := repo.Get(context.Background(), added.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Name != "A" || !stored.Amount.Equal(decimal.NewFromInt(1)) {
		t.Errorf("rejected patches must not change the record: %+v", stored)
	}
}

func TestImport_RejectsNonArray(t *testing.T) {
	_, repo, h := newTestServer(t, 100)
	if rec := do(h, "POST", "/api/subscriptions", netflixJSON); rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d", rec.Code)
	}

	for _, body := range []string{`null`, `{}`, netflixJSON, `"[]"`, ``} {
		rec := do(h, "POST", "/api/import", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("import %q: status = %d, want 400", body, rec.Code)
		}
	}

	subs, err := repo.List(context.Background())
	if err != nil || len(subs) != 1 {
		t.Errorf("stored subscriptions must be left alone, got %d (%v)", len(subs), err)
	}
}

// ctxBackend fails reads once the caller's context is done, like a network store would
type ctxBackend struct{ store.Backend }

func (b ctxBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	return b.Backend.Get(ctx, key)
}

func TestDashboard_SurvivesClientCancel(t *testing.T) {
	repo := store.NewRepository(ctxBackend{store.NewMemoryBackend()}, quietLogger())
	srv := New(repo, quietLogger(), Options{
		Limiter: internal.NewRateLimiter(100, time.Minute),
		Now:     func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) },
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("GET", "/api/dashboard", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestBuildDashboard_StaleKeyUsesCurrentRevision(t *testing.T) {
	srv, repo, _ := newTestServer(t, 100)
	ctx := context.Background()
	if _, err := repo.Add(ctx, store.Draft{Name: "A", Amount: decimal.NewFromInt(10), BillingCycle: internal.BillingMonthly, ActiveStatus: true}); err != nil {
		t.Fatal(err)
	}
	sim, err := internal.ParseSimulation("")
	if err != nil {
		t.Fatal(err)
	}

	v, err := srv.buildDashboard(ctx, "0||2024", sim, 2024)
	if err != nil {
		t.Fatal(err)
	}
	d := v.(internal.DashboardJSON)
	if d.KPIs.Original.Count != 1 {
		t.Errorf("expected the record written after the key was taken, got count %d", d.KPIs.Original.Count)
	}
}

func TestImportAndDashboard(t *testing.T) {
	_, _, h := newTestServer(t, 100)

	gym := strings.NewReplacer(
		`"Netflix"`, `"Gym"`,
		`"Streaming"`, `"Health"`,
		`"monthly"`, `"yearly"`,
		`15.99`, `300`,
	).Replace(netflixJSON)
	gym = strings.Replace(gym, "{", `{"id": "7c9e6679-7425-40de-944b-e07fc1f90ae7",`, 1)

	rec := do(h, "POST", "/api/import", "["+netflixJSON+","+gym+"]")
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[map[string]int](t, rec); got["imported"] != 2 {
		t.Errorf("imported = %d, want 2", got["imported"])
	}

	rec = do(h, "GET", "/api/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rec.Code)
	}
	d := decode[internal.DashboardJSON](t, rec)
	if d.Year != 2024 || d.KPIs.Original.Annual != 491.88 || d.Simulated {
		t.Errorf("unexpected dashboard %+v", d)
	}

	rec = do(h, "GET", "/api/dashboard?year=2025&simulate=7c9e6679-7425-40de-944b-e07fc1f90ae7:false", "")
	d = decode[internal.DashboardJSON](t, rec)
	if !d.Simulated || d.Year != 2025 || d.KPIs.PotentialSavings != 300 {
		t.Errorf("unexpected simulated dashboard %+v", d)
	}

	for _, path := range []string{"/api/dashboard?year=abc", "/api/dashboard?simulate=nonsense"} {
		if rec := do(h, "GET", path, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestImport_ValidationIssues(t *testing.T) {
	_, _, h := newTestServer(t, 100)
	rec := do(h, "POST", "/api/import", `[{"name": "x"}]`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[errorResponse](t, rec)
	if body.Error != internal.ErrValidation.Error() || len(body.Issues) == 0 {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Issues[0].Path != "0.provider" {
		t.Errorf("first issue path = %q", body.Issues[0].Path)
	}
}

func TestExport(t *testing.T) {
	_, _, h := newTestServer(t, 100)
	do(h, "POST", "/api/subscriptions", netflixJSON)

	rec := do(h, "GET", "/api/export/csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "subscriptions.csv") {
		t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	if !strings.HasPrefix(rec.Body.String(), "id,name,provider") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}

	rec = do(h, "GET", "/api/export/pdf", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown format status = %d, want 404", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	_, _, h := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		if rec := do(h, "POST", "/api/subscriptions", netflixJSON); rec.Code != http.StatusCreated {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	if rec := do(h, "POST", "/api/subscriptions", netflixJSON); rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	// reads are not limited
	if rec := do(h, "GET", "/api/subscriptions", ""); rec.Code != http.StatusOK {
		t.Errorf("read status = %d", rec.Code)
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	repo := store.NewRepository(store.NewMemoryBackend(), quietLogger())
	srv := New(repo, quietLogger(), Options{Addr: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
