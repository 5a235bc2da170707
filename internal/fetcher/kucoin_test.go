package fetcher

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestKuCoinFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != allTickersPath {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("KC-API-KEY") != "" {
			t.Fatalf("no credentials configured, request must not be signed")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"200000","data":{"time":1717243200000,"ticker":[
			{"symbol":"BTC-USDT","last":"67000.1"},
			{"symbol":"NEW-USDT","last":null}
		]}}`))
	}))
	defer srv.Close()

	k := NewKuCoin(KuCoinOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	tickers, err := k.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("fetch should succeed: %v", err)
	}
	if len(tickers) != 2 {
		t.Fatalf("expected 2 tickers, got %d", len(tickers))
	}
	if tickers[0].Symbol != "BTC-USDT" || tickers[0].Last == nil || *tickers[0].Last != "67000.1" {
		t.Fatalf("unexpected first ticker: %+v", tickers[0])
	}
	if tickers[1].Last != nil {
		t.Fatal("null last price should decode to nil")
	}
}

func TestKuCoinFetchBadCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"400100","msg":"bad request"}`))
	}))
	defer srv.Close()

	k := NewKuCoin(KuCoinOptions{BaseURL: srv.URL}, noopLogger())
	_, err := k.FetchSnapshot(context.Background())
	if !errors.Is(err, ErrUnexpectedCode) {
		t.Fatalf("expected ErrUnexpectedCode, got %v", err)
	}
}

func TestKuCoinFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"code":"429000","msg":"too many requests"}`))
	}))
	defer srv.Close()

	k := NewKuCoin(KuCoinOptions{BaseURL: srv.URL}, noopLogger())
	if _, err := k.FetchSnapshot(context.Background()); err == nil {
		t.Fatal("HTTP 429 should fail the fetch")
	}
}

func TestKuCoinSignsRequests(t *testing.T) {
	fixed := time.UnixMilli(1717243200123)
	creds := Credentials{APIKey: "key", APISecret: "secret", Passphrase: "pass"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("KC-API-TIMESTAMP"); got != "1717243200123" {
			t.Errorf("timestamp header: %q", got)
		}
		if got := r.Header.Get("KC-API-KEY"); got != "key" {
			t.Errorf("key header: %q", got)
		}
		if got := r.Header.Get("KC-API-KEY-VERSION"); got != "2" {
			t.Errorf("key version header: %q", got)
		}
		if got, want := r.Header.Get("KC-API-SIGN"), expectedMAC("secret", "1717243200123GET"+allTickersPath); got != want {
			t.Errorf("sign header: got %q want %q", got, want)
		}
		if got, want := r.Header.Get("KC-API-PASSPHRASE"), expectedMAC("secret", "pass"); got != want {
			t.Errorf("passphrase header: got %q want %q", got, want)
		}
		_, _ = w.Write([]byte(`{"code":"200000","data":{"ticker":[]}}`))
	}))
	defer srv.Close()

	k := NewKuCoin(KuCoinOptions{
		BaseURL:     srv.URL,
		Credentials: creds,
		Now:         func() time.Time { return fixed },
	}, noopLogger())

	if _, err := k.FetchSnapshot(context.Background()); err != nil {
		t.Fatalf("signed fetch should succeed: %v", err)
	}
}

func expectedMAC(secret, payload string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
