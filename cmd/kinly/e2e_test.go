//go:build e2e

package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
)

const defaultBaseURL = "http://kinly-e2e:8080"

func e2eBaseURL() string {
	if v := os.Getenv("E2E_BASE_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultBaseURL
}

func newPage(t *testing.T) playwright.Page {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := waitForHTTP(ctx, e2eBaseURL()+"/healthz"); err != nil {
		t.Fatalf("base url not reachable: %v", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("playwright run: %v", err)
	}
	t.Cleanup(func() { _ = pw.Stop() })

	browser, err := pw.Chromium.Launch()
	if err != nil {
		t.Fatalf("launch chromium: %v", err)
	}
	t.Cleanup(func() { _ = browser.Close() })

	page, err := browser.NewPage()
	if err != nil {
		t.Fatalf("new page: %v", err)
	}
	return page
}

func TestLandingSmoke(t *testing.T) {
	page := newPage(t)
	if _, err := page.Goto(e2eBaseURL(), playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateNetworkidle}); err != nil {
		t.Fatalf("goto landing: %v", err)
	}
	if err := page.Locator(`a[href="/login"]`).First().WaitFor(); err != nil {
		t.Fatalf("sign-in link missing: %v", err)
	}
}

func TestSignUpThenDashboardIsGated(t *testing.T) {
	page := newPage(t)
	if _, err := page.Goto(e2eBaseURL()+"/login?mode=signup", playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateNetworkidle}); err != nil {
		t.Fatalf("goto sign up: %v", err)
	}
	email := "e2e-" + time.Now().UTC().Format("20060102150405.000000000") + "@example.com"
	if err := page.Locator(`input[name="email"]`).Fill(email); err != nil {
		t.Fatalf("fill email: %v", err)
	}
	if err := page.Locator(`input[name="password"]`).Fill("correct-horse"); err != nil {
		t.Fatalf("fill password: %v", err)
	}
	if err := page.Locator(`button[type="submit"]`).Click(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := page.Locator(".message-success").WaitFor(); err != nil {
		t.Fatalf("confirmation notice missing: %v", err)
	}

	if _, err := page.Goto(e2eBaseURL()+"/dashboard", playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateNetworkidle}); err != nil {
		t.Fatalf("goto dashboard: %v", err)
	}
	if !strings.HasSuffix(page.URL(), "/login") {
		t.Fatalf("expected unconfirmed visitor on /login, got %s", page.URL())
	}
}

func waitForHTTP(ctx context.Context, rawURL string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 500 {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}
