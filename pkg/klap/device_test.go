package klap

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/kasa-protocol/kasa-go/pkg/endpoint"
)

// fakeDevice is an httptest server speaking the device side of KLAP.
type fakeDevice struct {
	t      *testing.T
	server *httptest.Server
	auth   []byte

	mu         sync.Mutex
	pending    map[string][2][]byte
	sessions   map[string]*session
	results    map[string]json.RawMessage
	handshakes int
	requests   int
	rejectNext int
	nextID     int
}

func newFakeDevice(t *testing.T, creds Credentials) *fakeDevice {
	t.Helper()

	d := &fakeDevice{
		t:        t,
		auth:     AuthHash(creds),
		pending:  make(map[string][2][]byte),
		sessions: make(map[string]*session),
		results:  make(map[string]json.RawMessage),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(Handshake1Path, d.handshake1)
	mux.HandleFunc(Handshake2Path, d.handshake2)
	mux.HandleFunc(RequestPath, d.request)
	d.server = httptest.NewServer(mux)
	t.Cleanup(d.server.Close)
	return d
}

func (d *fakeDevice) endpoint() endpoint.Endpoint {
	u, err := url.Parse(d.server.URL)
	if err != nil {
		d.t.Fatalf("parse server URL: %v", err)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		d.t.Fatalf("split host: %v", err)
	}
	n, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		d.t.Fatalf("parse port: %v", err)
	}
	return endpoint.Endpoint{Host: host, Port: uint16(n), Family: endpoint.FamilyIPv4}
}

func (d *fakeDevice) setResult(module, method, result string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results[module+"."+method] = json.RawMessage(result)
}

func (d *fakeDevice) rejectRequests(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rejectNext = n
}

func (d *fakeDevice) counts() (handshakes, requests int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handshakes, d.requests
}

func (d *fakeDevice) handshake1(w http.ResponseWriter, r *http.Request) {
	local, err := io.ReadAll(r.Body)
	if err != nil || len(local) != SeedSize {
		http.Error(w, "bad seed", http.StatusBadRequest)
		return
	}

	remote := make([]byte, SeedSize)
	_, _ = rand.Read(remote)

	d.mu.Lock()
	d.nextID++
	id := fmt.Sprintf("session-%d", d.nextID)
	d.pending[id] = [2][]byte{local, remote}
	d.mu.Unlock()

	w.Header().Add("Set-Cookie", SessionCookieName+"="+id+";"+TimeoutCookieName+"=86400")
	_, _ = w.Write(append(remote, ServerHash(local, remote, d.auth)...))
}

func (d *fakeDevice) handshake2(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		http.Error(w, "no session", http.StatusForbidden)
		return
	}
	body, _ := io.ReadAll(r.Body)

	d.mu.Lock()
	defer d.mu.Unlock()

	seeds, ok := d.pending[c.Value]
	if !ok || !hmac.Equal(body, ClientHash(seeds[0], seeds[1], d.auth)) {
		http.Error(w, "bad hash", http.StatusForbidden)
		return
	}
	delete(d.pending, c.Value)
	d.sessions[c.Value] = newSession(seeds[0], seeds[1], d.auth)
	d.handshakes++
}

func (d *fakeDevice) request(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		http.Error(w, "no session", http.StatusForbidden)
		return
	}
	seq, err := strconv.Atoi(r.URL.Query().Get("seq"))
	if err != nil {
		http.Error(w, "bad seq", http.StatusBadRequest)
		return
	}
	body, _ := io.ReadAll(r.Body)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests++

	s, ok := d.sessions[c.Value]
	if !ok {
		http.Error(w, "unknown session", http.StatusForbidden)
		return
	}
	if d.rejectNext > 0 {
		d.rejectNext--
		delete(d.sessions, c.Value)
		http.Error(w, "session expired", http.StatusForbidden)
		return
	}
	if !s.verify(int32(seq), body) {
		http.Error(w, "bad signature", http.StatusBadRequest)
		return
	}
	plain, err := s.open(int32(seq), body)
	if err != nil {
		http.Error(w, "bad ciphertext", http.StatusBadRequest)
		return
	}

	var envelope map[string]map[string]json.RawMessage
	if err := json.Unmarshal(plain, &envelope); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	reply := make(map[string]map[string]json.RawMessage)
	for module, methods := range envelope {
		reply[module] = make(map[string]json.RawMessage)
		for method := range methods {
			result, ok := d.results[module+"."+method]
			if !ok {
				result = json.RawMessage(`{"err_code":-2,"err_msg":"method not support"}`)
			}
			reply[module][method] = result
		}
	}
	out, _ := json.Marshal(reply)
	sealed, err := s.seal(int32(seq), out)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(sealed)
}
