package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kinly/internal/auth"
	"kinly/internal/model"
	"kinly/internal/service"
	"kinly/internal/store"
	"kinly/internal/store/sqlite"
	"kinly/internal/taxonomy"
)

var lightParams = auth.Params{Memory: 1024, Iterations: 1, Threads: 1, SaltLength: 16, KeyLength: 32}

type testEnv struct {
	srv      *Server
	store    *sqlite.Store
	signer   *auth.Signer
	accounts *service.Accounts
}

func newTestEnv(t *testing.T, requireConfirm bool) *testEnv {
	t.Helper()
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := sqlite.Open(ctx, filepath.Join(dir, "kinly.db"), sqlite.Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	signer, err := auth.NewSigner([]byte("web-test-secret-0123456789abcdef"))
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	accounts := service.NewAccounts(st, signer, service.AccountsConfig{
		RequireConfirm: requireConfirm,
		BaseURL:        "http://kinly.test",
		Params:         lightParams,
	})
	srv, err := NewServer(Options{
		Accounts:            accounts,
		Portfolio:           service.NewPortfolio(st, taxonomy.Categorized()),
		Store:               st,
		CreateRedirectDelay: time.Second,
		Version:             "test",
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return &testEnv{srv: srv, store: st, signer: signer, accounts: accounts}
}

// failingStore fails the dashboard reads that have an error set.
type failingStore struct {
	store.Store
	listErr  error
	countErr error
}

func (s *failingStore) ListIPs(ctx context.Context, userID string) ([]model.IP, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.Store.ListIPs(ctx, userID)
}

func (s *failingStore) CountItems(ctx context.Context, userID string) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.Store.CountItems(ctx, userID)
}

// withPortfolioStore swaps the server's portfolio for one reading through st.
func (e *testEnv) withPortfolioStore(t *testing.T, st store.Store) {
	t.Helper()
	opts := e.srv.opts
	opts.Portfolio = service.NewPortfolio(st, taxonomy.Categorized())
	srv, err := NewServer(opts)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	e.srv = srv
}

// addUser creates a confirmed user and returns it with a session token.
func (e *testEnv) addUser(t *testing.T, email string) (model.User, string) {
	t.Helper()
	u, _, err := e.accounts.SetPassword(context.Background(), model.Credentials{Email: email, Password: "correct-horse"})
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	tok, err := e.signer.Issue(auth.TokenSession, u.ID, time.Hour)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return u, tok
}

func (e *testEnv) addIP(t *testing.T, userID, title string) model.IP {
	t.Helper()
	ip, err := e.srv.opts.Portfolio.CreateIP(context.Background(), userID, model.IPInput{Title: title, Description: "about " + title, Owner: "Ana"})
	if err != nil {
		t.Fatalf("create ip: %v", err)
	}
	return ip
}

// do serves one request in-process, optionally with a session cookie.
func (e *testEnv) do(t *testing.T, method, target, session string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: session})
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func newLoopbackServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	ts := httptest.NewUnstartedServer(handler)
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen loopback: %v", err)
	}
	ts.Listener = ln
	ts.Start()
	return ts
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}
