package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/jobs"
	jobsmem "github.com/dvloznov/pocket-pulse/internal/jobs/inmemory"
	"github.com/dvloznov/pocket-pulse/internal/ledger"
	"github.com/dvloznov/pocket-pulse/internal/store/inmemory"
)

const user = "alice"

var clock = time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	handler http.Handler
	store   *inmemory.Store
	svc     *ledger.Service
}

func newEnv(t *testing.T, configure func(*Deps)) *testEnv {
	t.Helper()
	st := inmemory.NewStore()
	n := 0
	var mu sync.Mutex
	svc := ledger.NewService(st, dates.Fixed(clock), zerolog.Nop(), ledger.WithIDs(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}))

	d := Deps{
		Ledger: svc,
		Log:    zerolog.Nop(),
		Now:    func() time.Time { return clock },
	}
	if configure != nil {
		configure(&d)
	}
	return &testEnv{handler: NewRouter(d), store: st, svc: svc}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", user)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, want, rec.Body.String())
	}
}

func (e *testEnv) createAccount(t *testing.T, name, balance string) domain.Account {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/accounts", map[string]string{
		"name": name, "type": "checking", "balance": balance,
	})
	expectStatus(t, rec, http.StatusCreated)
	var a domain.Account
	decodeBody(t, rec, &a)
	return a
}

func TestHealthAndAuth(t *testing.T) {
	e := newEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusUnauthorized)

	req = httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusNoContent)
}

func TestMethodNotAllowed(t *testing.T) {
	e := newEnv(t, nil)
	rec := e.do(t, http.MethodPatch, "/api/accounts", nil)
	expectStatus(t, rec, http.StatusMethodNotAllowed)
}

func TestTransactionsLifecycle(t *testing.T) {
	e := newEnv(t, nil)
	acc := e.createAccount(t, "Main", "1000")

	rec := e.do(t, http.MethodPost, "/api/transactions", map[string]string{
		"type": "expense", "amount": "42.50", "description": "Groceries run",
		"category": "Groceries", "account": acc.ID, "date": "2024-06-10",
	})
	expectStatus(t, rec, http.StatusCreated)
	var tx domain.Transaction
	decodeBody(t, rec, &tx)

	rec = e.do(t, http.MethodPost, "/api/transactions", map[string]string{
		"type": "income", "amount": "2000", "description": "Salary",
		"income_source": "Full-time Salary", "account": acc.ID, "date": "2024-06-01",
	})
	expectStatus(t, rec, http.StatusCreated)

	rec = e.do(t, http.MethodGet, "/api/transactions?type=expense&q=grocer", nil)
	expectStatus(t, rec, http.StatusOK)
	var list struct {
		Transactions []ledger.TransactionRow `json:"transactions"`
		Count        int                     `json:"count"`
	}
	decodeBody(t, rec, &list)
	if list.Count != 1 || list.Transactions[0].ID != tx.ID {
		t.Fatalf("filtered list = %+v", list)
	}
	if list.Transactions[0].AccountName != "Main" {
		t.Errorf("account name = %q", list.Transactions[0].AccountName)
	}
	if !list.Transactions[0].BalanceAfter.Equal(decimal.RequireFromString("2957.50")) {
		t.Errorf("balance after = %s", list.Transactions[0].BalanceAfter)
	}

	rec = e.do(t, http.MethodPut, "/api/transactions/"+tx.ID, map[string]string{
		"type": "expense", "amount": "50", "description": "Groceries run",
		"category": "Groceries", "account": acc.ID, "date": "2024-06-10",
	})
	expectStatus(t, rec, http.StatusOK)

	a, err := e.store.GetAccount(context.Background(), user, acc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Balance.Equal(decimal.RequireFromString("2950")) {
		t.Errorf("balance after edit = %s, want 2950", a.Balance)
	}

	rec = e.do(t, http.MethodDelete, "/api/transactions/"+tx.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = e.do(t, http.MethodDelete, "/api/transactions/"+tx.ID, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = e.do(t, http.MethodGet, "/api/dashboard", nil)
	expectStatus(t, rec, http.StatusOK)
	var d ledger.Dashboard
	decodeBody(t, rec, &d)
	if d.Month != "2024-06" || !d.Metrics.NetWorth.Equal(decimal.RequireFromString("3000")) {
		t.Errorf("dashboard = %s %s", d.Month, d.Metrics.NetWorth)
	}
}

func TestValidationErrors(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodPost, "/api/transactions", map[string]string{"type": "expense"})
	expectStatus(t, rec, http.StatusBadRequest)
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decodeBody(t, rec, &body)
	for _, f := range []string{"amount", "description", "account", "category", "date"} {
		if _, ok := body.Fields[f]; !ok {
			t.Errorf("missing field error for %s: %v", f, body.Fields)
		}
	}

	rec = e.do(t, http.MethodGet, "/api/transactions?date_from=2024-13-01&amount_min=abc", nil)
	expectStatus(t, rec, http.StatusBadRequest)
	decodeBody(t, rec, &body)
	if body.Fields["date_from"] == "" || body.Fields["amount_min"] == "" {
		t.Errorf("fields = %v", body.Fields)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader("{not json"))
	req.Header.Set("X-User-ID", user)
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestBudgets(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodPut, "/api/budgets", map[string]string{"Dining": "200", "Rent": "1500"})
	expectStatus(t, rec, http.StatusOK)

	rec = e.do(t, http.MethodPut, "/api/budgets", map[string]string{"Dining": ""})
	expectStatus(t, rec, http.StatusOK)
	var body struct {
		Budgets []domain.Budget `json:"budgets"`
	}
	decodeBody(t, rec, &body)
	if len(body.Budgets) != 1 || body.Budgets[0].Category != "Rent" {
		t.Errorf("budgets = %+v", body.Budgets)
	}

	rec = e.do(t, http.MethodPut, "/api/budgets", map[string]string{"Rent": "lots"})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestRecurringEndpoints(t *testing.T) {
	e := newEnv(t, nil)
	acc := e.createAccount(t, "Main", "100")

	due := dates.MustParse("2024-06-10")
	rule := domain.RecurringRule{
		ID: "rule-1", Type: domain.TypeExpense, Amount: decimal.RequireFromString("15"),
		Description: "Streaming", Category: "Entertainment", Account: acc.ID,
		Frequency: domain.FrequencyMonthly, StartDate: dates.MustParse("2024-05-10"),
		NextOccurrence: &due, IsActive: true, AutoCreate: true,
	}
	if err := e.store.SaveRecurringRule(context.Background(), user, rule); err != nil {
		t.Fatal(err)
	}

	rec := e.do(t, http.MethodPost, "/api/recurring/process", nil)
	expectStatus(t, rec, http.StatusOK)
	var res ledger.ProcessResult
	decodeBody(t, rec, &res)
	if len(res.Created) != 1 || res.Created[0].Date != due {
		t.Fatalf("process result = %+v", res)
	}

	rec = e.do(t, http.MethodGet, "/api/recurring/upcoming", nil)
	expectStatus(t, rec, http.StatusOK)
	var upcoming struct {
		Rules []domain.RecurringRule `json:"rules"`
	}
	decodeBody(t, rec, &upcoming)
	if len(upcoming.Rules) != 1 || upcoming.Rules[0].NextOccurrence.String() != "2024-07-10" {
		t.Errorf("upcoming = %+v", upcoming.Rules)
	}

	rec = e.do(t, http.MethodPost, "/api/recurring/rule-1/pause", nil)
	expectStatus(t, rec, http.StatusOK)
	var paused domain.RecurringRule
	decodeBody(t, rec, &paused)
	if paused.IsActive {
		t.Error("rule still active after pause")
	}
	rec = e.do(t, http.MethodPost, "/api/recurring/rule-1/resume", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = e.do(t, http.MethodPost, "/api/recurring/preview?count=3", map[string]string{
		"frequency": "monthly", "start_date": "2024-01-31",
	})
	expectStatus(t, rec, http.StatusOK)
	var preview struct {
		Dates []string `json:"dates"`
	}
	decodeBody(t, rec, &preview)
	want := []string{"2024-01-31", "2024-02-29", "2024-03-31"}
	if strings.Join(preview.Dates, ",") != strings.Join(want, ",") {
		t.Errorf("preview = %v, want %v", preview.Dates, want)
	}

	rec = e.do(t, http.MethodPost, "/api/recurring/preview?count=0", map[string]string{})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = e.do(t, http.MethodDelete, "/api/recurring/rule-1", nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = e.do(t, http.MethodPost, "/api/recurring/rule-1/pause", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

type recordingPublisher struct {
	jobs []*jobs.ProcessRecurringJob
	err  error
}

func (p *recordingPublisher) PublishProcessRecurring(ctx context.Context, job *jobs.ProcessRecurringJob) error {
	if p.err != nil {
		return p.err
	}
	job.JobID = "job-1"
	job.Status = jobs.JobStatusPending
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestProcessQueuesJob(t *testing.T) {
	pub := &recordingPublisher{}
	e := newEnv(t, func(d *Deps) { d.Publisher = pub })

	rec := e.do(t, http.MethodPost, "/api/recurring/process", nil)
	expectStatus(t, rec, http.StatusAccepted)
	if len(pub.jobs) != 1 || pub.jobs[0].UserID != user || pub.jobs[0].Trigger != "api" {
		t.Errorf("published = %+v", pub.jobs)
	}

	pub.err = jobs.ErrQueueClosed
	rec = e.do(t, http.MethodPost, "/api/recurring/process", nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)
}

func TestLoanEndpoints(t *testing.T) {
	e := newEnv(t, nil)
	acc := e.createAccount(t, "Main", "1000")

	rec := e.do(t, http.MethodPost, "/api/loans", map[string]string{
		"name": "Car", "lender": "Bank", "amount": "500", "account": acc.ID,
	})
	expectStatus(t, rec, http.StatusCreated)
	var loan domain.Loan
	decodeBody(t, rec, &loan)

	rec = e.do(t, http.MethodPost, "/api/loans/"+loan.ID+"/payments", map[string]string{
		"amount": "600", "date": "2024-06-11",
	})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = e.do(t, http.MethodPost, "/api/loans/"+loan.ID+"/payments", map[string]string{
		"amount": "500", "date": "2024-06-11",
	})
	expectStatus(t, rec, http.StatusCreated)
	var paid struct {
		Loan        domain.Loan        `json:"loan"`
		Transaction domain.Transaction `json:"transaction"`
	}
	decodeBody(t, rec, &paid)
	if paid.Loan.Status != domain.LoanPaid || paid.Transaction.Type != domain.TypeLoanPayment {
		t.Errorf("payment = %+v", paid)
	}

	rec = e.do(t, http.MethodGet, "/api/loans?active=true", nil)
	expectStatus(t, rec, http.StatusOK)
	var list struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &list)
	if list.Count != 0 {
		t.Errorf("active loans = %d, want 0", list.Count)
	}

	rec = e.do(t, http.MethodPost, "/api/loans/missing/payments", map[string]string{
		"amount": "1", "date": "2024-06-11",
	})
	expectStatus(t, rec, http.StatusNotFound)
}

type stubAdvisor struct {
	prompt string
	err    error
}

func (s *stubAdvisor) Advise(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return "Spend less on dining.", s.err
}

func TestAdvice(t *testing.T) {
	e := newEnv(t, nil)
	rec := e.do(t, http.MethodPost, "/api/advice", nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)

	adv := &stubAdvisor{}
	e = newEnv(t, func(d *Deps) { d.Advisor = adv })
	rec = e.do(t, http.MethodPost, "/api/advice", nil)
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	acc := e.createAccount(t, "Main", "0")
	e.do(t, http.MethodPost, "/api/transactions", map[string]string{
		"type": "expense", "amount": "30", "description": "Pizza",
		"category": "Dining", "account": acc.ID, "date": "2024-06-10",
	})

	rec = e.do(t, http.MethodPost, "/api/advice", nil)
	expectStatus(t, rec, http.StatusOK)
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["advice"] != "Spend less on dining." {
		t.Errorf("advice = %q", body["advice"])
	}
	if !strings.Contains(adv.prompt, "Dining: $30.00") {
		t.Errorf("prompt = %q", adv.prompt)
	}

	adv.err = errors.New("model down")
	rec = e.do(t, http.MethodPost, "/api/advice", nil)
	expectStatus(t, rec, http.StatusBadGateway)
}

func TestJobsEndpoints(t *testing.T) {
	store := jobsmem.NewStore()
	ctx := context.Background()
	_ = store.SaveJob(ctx, &jobs.ProcessRecurringJob{JobID: "mine", UserID: user, Status: jobs.JobStatusCompleted, CreatedAt: clock})
	_ = store.SaveJob(ctx, &jobs.ProcessRecurringJob{JobID: "theirs", UserID: "bob", Status: jobs.JobStatusCompleted, CreatedAt: clock})

	e := newEnv(t, func(d *Deps) { d.Jobs = store })

	rec := e.do(t, http.MethodGet, "/api/jobs", nil)
	expectStatus(t, rec, http.StatusOK)
	var list struct {
		Jobs []jobs.ProcessRecurringJob `json:"jobs"`
	}
	decodeBody(t, rec, &list)
	if len(list.Jobs) != 1 || list.Jobs[0].JobID != "mine" {
		t.Errorf("jobs = %+v", list.Jobs)
	}

	expectStatus(t, e.do(t, http.MethodGet, "/api/jobs/mine", nil), http.StatusOK)
	expectStatus(t, e.do(t, http.MethodGet, "/api/jobs/theirs", nil), http.StatusNotFound)
	expectStatus(t, e.do(t, http.MethodGet, "/api/jobs/nope", nil), http.StatusNotFound)
}
