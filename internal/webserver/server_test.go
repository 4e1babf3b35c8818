package webserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ignmarket/listing-bot/internal/listing"
	"github.com/ignmarket/listing-bot/internal/localdb"
	"github.com/ignmarket/listing-bot/internal/notify"
	"github.com/ignmarket/listing-bot/internal/session"
	"github.com/ignmarket/listing-bot/internal/settings"
	"github.com/ignmarket/listing-bot/internal/workflow"
)

type silentMessenger struct{}

func (silentMessenger) SendDirect(notify.Notification) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *localdb.Store) {
	t.Helper()
	db, err := localdb.SetupDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("SetupDB failed: %v", err)
	}
	t.Cleanup(func() { localdb.CloseDB() })

	store := localdb.NewStore(db)
	mgr := settings.NewManager(db)
	notifier := notify.NewNotifier(silentMessenger{})
	t.Cleanup(notifier.Shutdown)

	deps = Deps{
		Sessions: session.NewManager(store, mgr, time.Minute),
		Store:    store,
		Settings: mgr,
		Flow:     workflow.New(store, mgr, notifier, time.Minute),
	}

	ts := httptest.NewServer(buildMux())
	t.Cleanup(ts.Close)
	return ts, store
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, callerID string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	return doCallerRequest(t, ts, method, path, callerID, "", body)
}

func doAdminRequest(t *testing.T, ts *httptest.Server, method, path, callerID string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	return doCallerRequest(t, ts, method, path, callerID, "X-Caller-Admin", body)
}

func doManagerRequest(t *testing.T, ts *httptest.Server, method, path, callerID string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	return doCallerRequest(t, ts, method, path, callerID, "X-Caller-Manage", body)
}

func doCallerRequest(t *testing.T, ts *httptest.Server, method, path, callerID, capability string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if callerID != "" {
		req.Header.Set("X-Caller-ID", callerID)
		req.Header.Set("X-Caller-Name", "User "+callerID)
	}
	if capability != "" {
		req.Header.Set(capability, "true")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var fields map[string]json.RawMessage
	dec := json.NewDecoder(resp.Body)
	dec.Decode(&fields)
	return resp, fields
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	ts, store := newTestServer(t)

	resp, fields := doRequest(t, ts, http.MethodPost, "/api/sessions", "seller-1", map[string]string{
		"community_id":  "guild-1",
		"channel_id":    "chan-1",
		"identity":      "Player1",
		"buy_now_price": "$50",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start session status = %d", resp.StatusCode)
	}
	var token string
	if err := json.Unmarshal(fields["token"], &token); err != nil || token == "" {
		t.Fatalf("no session token in response: %v", fields)
	}

	resp, _ = doRequest(t, ts, http.MethodPost, "/api/sessions/"+token+"/bedwars", "seller-1",
		map[string]string{"level": "250", "ratio": "3.2", "wins": "1500"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit status = %d", resp.StatusCode)
	}

	// A bad ratio is a 400; the session survives.
	resp, _ = doRequest(t, ts, http.MethodPost, "/api/sessions/"+token+"/skywars", "seller-1",
		map[string]string{"ratio": "not a number"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid edit status = %d, want 400", resp.StatusCode)
	}

	resp, fields = doRequest(t, ts, http.MethodPost, "/api/sessions/"+token+"/preview", "seller-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preview status = %d", resp.StatusCode)
	}
	var art listing.Artifact
	if err := json.Unmarshal(fields["artifact"], &art); err != nil {
		t.Fatalf("no artifact in preview: %v", err)
	}
	if art.Title != "Player1 — Account Listing" {
		t.Fatalf("artifact title = %q", art.Title)
	}

	resp, _ = doRequest(t, ts, http.MethodPost, "/api/sessions/"+token+"/publish", "seller-1",
		map[string]string{"publication_id": "msg-1"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("publish status = %d", resp.StatusCode)
	}

	if _, err := store.Get("msg-1"); err != nil {
		t.Fatalf("listing not stored: %v", err)
	}

	// The session is consumed; further use is 410.
	resp, _ = doRequest(t, ts, http.MethodGet, "/api/sessions/"+token, "seller-1", nil)
	if resp.StatusCode != http.StatusGone {
		t.Fatalf("consumed session status = %d, want 410", resp.StatusCode)
	}
}

func publishTestListing(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	_, fields := doRequest(t, ts, http.MethodPost, "/api/sessions", "seller-1", map[string]string{
		"community_id":  "guild-1",
		"channel_id":    "chan-1",
		"identity":      "Player1",
		"buy_now_price": "$50",
		"current_offer": "$30",
	})
	var token string
	json.Unmarshal(fields["token"], &token)

	doRequest(t, ts, http.MethodPost, "/api/sessions/"+token+"/preview", "seller-1", nil)
	resp, _ := doRequest(t, ts, http.MethodPost, "/api/sessions/"+token+"/publish", "seller-1",
		map[string]string{"publication_id": "msg-1"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("publish status = %d", resp.StatusCode)
	}
	return "msg-1"
}

func TestTransactionEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	pubID := publishTestListing(t, ts)

	// Anonymous callers are rejected.
	resp, _ := doRequest(t, ts, http.MethodPost, "/api/listings/"+pubID+"/buy-now", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", resp.StatusCode)
	}

	// The seller cannot buy their own listing.
	resp, _ = doRequest(t, ts, http.MethodPost, "/api/listings/"+pubID+"/buy-now", "seller-1", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("self purchase status = %d, want 403", resp.StatusCode)
	}

	// Buyer opens and confirms a buy-now.
	resp, fields := doRequest(t, ts, http.MethodPost, "/api/listings/"+pubID+"/buy-now", "buyer-1", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("begin buy-now status = %d", resp.StatusCode)
	}
	var confID string
	json.Unmarshal(fields["id"], &confID)

	resp, _ = doRequest(t, ts, http.MethodPost, "/api/confirmations/"+confID+"/confirm", "buyer-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm status = %d", resp.StatusCode)
	}

	// Reuse is 410.
	resp, _ = doRequest(t, ts, http.MethodPost, "/api/confirmations/"+confID+"/confirm", "buyer-1", nil)
	if resp.StatusCode != http.StatusGone {
		t.Fatalf("reused confirmation status = %d, want 410", resp.StatusCode)
	}

	// An empty offer is a validation error.
	resp, _ = doRequest(t, ts, http.MethodPost, "/api/listings/"+pubID+"/offer", "buyer-1",
		map[string]string{"offer": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty offer status = %d, want 400", resp.StatusCode)
	}

	// Seller marks the listing sold; the entry is gone afterwards.
	resp, fields = doRequest(t, ts, http.MethodPost, "/api/listings/"+pubID+"/sold", "seller-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark sold status = %d", resp.StatusCode)
	}
	var out workflow.Outcome
	raw, _ := json.Marshal(fields)
	json.Unmarshal(raw, &out)
	if !out.Artifact.Sold {
		t.Fatalf("artifact not marked sold: %+v", out.Artifact)
	}

	resp, _ = doRequest(t, ts, http.MethodGet, "/api/listings/"+pubID, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("sold listing status = %d, want 404", resp.StatusCode)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, fields := doRequest(t, ts, http.MethodGet, "/api/settings?community_id=guild-1", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get settings status = %d", resp.StatusCode)
	}
	var showThumbs bool
	json.Unmarshal(fields["show_thumbnails"], &showThumbs)
	if !showThumbs {
		t.Fatal("defaults not served for unknown community")
	}

	// Writes require the manage-community capability.
	resp, _ = doRequest(t, ts, http.MethodPut, "/api/settings?community_id=guild-1", "user-1",
		map[string]interface{}{"show_thumbnails": false})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("unprivileged put settings status = %d, want 403", resp.StatusCode)
	}
	_, fields = doRequest(t, ts, http.MethodGet, "/api/settings?community_id=guild-1", "", nil)
	json.Unmarshal(fields["show_thumbnails"], &showThumbs)
	if !showThumbs {
		t.Fatal("rejected write changed settings")
	}

	resp, _ = doManagerRequest(t, ts, http.MethodPut, "/api/settings?community_id=guild-1", "mod-1",
		map[string]interface{}{"embed_color": "#FF5733", "show_thumbnails": false})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put settings status = %d", resp.StatusCode)
	}

	resp, _ = doAdminRequest(t, ts, http.MethodPut, "/api/settings?community_id=guild-1", "admin-1",
		map[string]interface{}{"embed_color": "nope"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad color status = %d, want 400", resp.StatusCode)
	}

	_, fields = doRequest(t, ts, http.MethodGet, "/api/settings?community_id=guild-1", "", nil)
	json.Unmarshal(fields["show_thumbnails"], &showThumbs)
	if showThumbs {
		t.Fatal("settings update not persisted")
	}
}

func TestMyListingsAndStatus(t *testing.T) {
	ts, _ := newTestServer(t)
	publishTestListing(t, ts)

	resp, _ := doRequest(t, ts, http.MethodGet, "/api/mylistings?community_id=guild-1", "seller-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mylistings status = %d", resp.StatusCode)
	}

	resp, fields := doRequest(t, ts, http.MethodGet, "/api/status", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status endpoint = %d", resp.StatusCode)
	}
	var count int
	json.Unmarshal(fields["listings"], &count)
	if count != 1 {
		t.Fatalf("status listings = %d, want 1", count)
	}
}

func TestCleanEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	publishTestListing(t, ts)

	deps.Prober = proberFunc(func(channelID, messageID string) (bool, error) {
		return false, nil
	})

	// Plain callers may not run maintenance.
	resp, _ := doRequest(t, ts, http.MethodPost, "/api/maintenance/clean", "user-1", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin clean status = %d, want 403", resp.StatusCode)
	}

	resp, fields := doAdminRequest(t, ts, http.MethodPost, "/api/maintenance/clean", "admin-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clean status = %d", resp.StatusCode)
	}
	var removed int
	json.Unmarshal(fields["removed"], &removed)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	publishTestListing(t, ts)

	resp, _ := doRequest(t, ts, http.MethodGet, "/api/stats", "user-1", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin stats status = %d, want 403", resp.StatusCode)
	}

	resp, fields := doAdminRequest(t, ts, http.MethodGet, "/api/stats?community_id=guild-1", "admin-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d", resp.StatusCode)
	}
	var total, inCommunity int
	json.Unmarshal(fields["total_listings"], &total)
	json.Unmarshal(fields["community_listings"], &inCommunity)
	if total != 1 || inCommunity != 1 {
		t.Fatalf("stats total=%d community=%d, want 1/1", total, inCommunity)
	}
}

type proberFunc func(channelID, messageID string) (bool, error)

func (f proberFunc) MessageExists(channelID, messageID string) (bool, error) {
	return f(channelID, messageID)
}
