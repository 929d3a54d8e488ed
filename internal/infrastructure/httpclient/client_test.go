package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClientRoundTrip(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := New(5 * time.Second)
	if client.Timeout != 5*time.Second {
		t.Fatalf("unexpected timeout: %v", client.Timeout)
	}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %s", resp.Status)
	}
}

func TestWrapNilBase(t *testing.T) {
	t.Parallel()

	if Wrap(nil, time.Second).Transport == nil {
		t.Fatalf("expected instrumented transport")
	}
}
