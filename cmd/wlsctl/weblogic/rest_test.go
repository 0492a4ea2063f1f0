package weblogic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdminServer struct {
	t       *testing.T
	mu      sync.Mutex
	version string
	// path suffix => status code to fail with
	fail     map[string]int
	calls    []string
	uploaded []byte
	model    deploymentModel
	apps     map[string]bool
}

func newFakeAdminServer(t *testing.T) (*fakeAdminServer, *httptest.Server) {
	f := &fakeAdminServer{t: t, version: "12.2.1.4.0", fail: map[string]int{}, apps: map[string]bool{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAdminServer) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := strings.TrimPrefix(r.URL.Path, "/management/weblogic/latest")
	f.calls = append(f.calls, r.Method+" "+path)

	user, pass, ok := r.BasicAuth()
	if !ok || user != "weblogic" || pass != "welcome1" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.Method == "POST" && r.Header.Get("X-Requested-By") == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	for suffix, code := range f.fail {
		if strings.HasSuffix(path, suffix) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(restError{Title: "FAILURE", Detail: "simulated " + suffix + " failure", Status: code})
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	switch {
	case path == "" || path == "/":
		json.NewEncoder(w).Encode(versionResource{Version: f.version, IsLatest: true, Lifecycle: "active"})
	case path == "/domainRuntime":
		json.NewEncoder(w).Encode(nameResource{Name: "domain1"})
	case path == "/edit/clusters":
		json.NewEncoder(w).Encode(nameItems{Items: []nameResource{{Name: "cluster-1"}}})
	case path == "/edit/appDeployments" && r.Method == "POST":
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			assert.NoError(f.t, r.ParseMultipartForm(1<<20))
			assert.NoError(f.t, json.Unmarshal([]byte(r.FormValue("model")), &f.model))
			file, _, err := r.FormFile("sourcePath")
			assert.NoError(f.t, err)
			f.uploaded, _ = io.ReadAll(file)
		} else {
			assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.model))
		}
		f.apps[f.model.Name] = true
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, "{}")
	case strings.HasPrefix(path, "/edit/appDeployments/"):
		name := strings.TrimPrefix(path, "/edit/appDeployments/")
		if !f.apps[name] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(nameResource{Name: name})
	case strings.HasPrefix(path, "/edit/changeManager/"):
		io.WriteString(w, "{}")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func t3(srv *httptest.Server) string {
	return "t3://" + strings.TrimPrefix(srv.URL, "http://")
}

func writeArchive(t *testing.T) (string, []byte) {
	data := []byte("PK\x03\x04 fake ear content")
	path := filepath.Join(t.TempDir(), "myapp.ear")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path, data
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"Should map t3 to http", "t3://admin:7001", "http://admin:7001", false},
		{"Should map t3s to https", "t3s://admin:7002", "https://admin:7002", false},
		{"Should keep https", "https://admin:7002", "https://admin:7002", false},
		{"Should reject iiop", "iiop://admin:7001", "", true},
		{"Should reject missing host", "t3://", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BaseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRestSessionDeployUpload(t *testing.T) {
	fake, srv := newFakeAdminServer(t)
	archive, data := writeArchive(t)
	app := Application{Name: "myapp", Archive: archive, Targets: []string{"cluster-1", "admin-server"}, Remote: true, Upload: true}

	s := NewRestSession(Options{Defaults: &app, TimeoutSec: 5})
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx, "weblogic", "welcome1", t3(srv)))
	require.NoError(t, s.DeployDefault(ctx))
	require.NoError(t, s.Activate(ctx, app))
	require.NoError(t, s.Disconnect(ctx))

	assert.Equal(t, data, fake.uploaded)
	assert.Equal(t, "myapp", fake.model.Name)
	assert.Equal(t, []identity{
		{Identity: []string{"clusters", "cluster-1"}},
		{Identity: []string{"servers", "admin-server"}},
	}, fake.model.Targets)
	assert.Equal(t, []string{
		"GET ",
		"GET /domainRuntime",
		"POST /edit/changeManager/startEdit",
		"GET /edit/clusters",
		"POST /edit/appDeployments",
		"POST /edit/changeManager/activate",
		"GET /edit/appDeployments/myapp",
	}, fake.calls)
}

func TestRestSessionUploadClient(t *testing.T) {
	s := NewRestSession(Options{TimeoutSec: 5})
	assert.Equal(t, 5*time.Second, s.client.Timeout)
	assert.Zero(t, s.uploads.Timeout, "archive upload must not be capped by a whole-request deadline")
	transport, ok := s.uploads.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, transport.ResponseHeaderTimeout)
}

func TestRestSessionUploadRejected(t *testing.T) {
	fake, srv := newFakeAdminServer(t)
	fake.fail["/appDeployments"] = http.StatusForbidden
	archive, _ := writeArchive(t)
	app := Application{Name: "myapp", Archive: archive, Targets: []string{"ms-1"}, Upload: true}

	s := NewRestSession(Options{TimeoutSec: 5})
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx, "weblogic", "welcome1", t3(srv)))
	err := s.Deploy(ctx, app)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403 HTTP")
	assert.Nil(t, fake.uploaded)

	delete(fake.fail, "/appDeployments")
	require.NoError(t, s.Deploy(ctx, app))
	assert.NotNil(t, fake.uploaded)
}

func TestRestSessionDeployServerPath(t *testing.T) {
	fake, srv := newFakeAdminServer(t)
	s := NewRestSession(Options{TimeoutSec: 5})
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx, "weblogic", "welcome1", t3(srv)))
	app := Application{Name: "myapp", Archive: "/applications/myapp.ear", Targets: []string{"ms-1"}}
	require.NoError(t, s.Deploy(ctx, app))
	assert.Equal(t, "/applications/myapp.ear", fake.model.SourcePath)
	assert.Nil(t, fake.uploaded)
}

func TestRestSessionConnectBadCredentials(t *testing.T) {
	_, srv := newFakeAdminServer(t)
	s := NewRestSession(Options{TimeoutSec: 5})
	err := s.Connect(context.Background(), "weblogic", "wrong", t3(srv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401 HTTP")
	assert.Contains(t, s.DumpStack(), "=> 401")
}

func TestRestSessionOldServer(t *testing.T) {
	fake, srv := newFakeAdminServer(t)
	fake.version = "12.2.1.2.0"
	s := NewRestSession(Options{TimeoutSec: 5})
	err := s.Connect(context.Background(), "weblogic", "welcome1", t3(srv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support REST deployment")
}

func TestRestSessionActivateFailure(t *testing.T) {
	fake, srv := newFakeAdminServer(t)
	fake.fail["/activate"] = http.StatusBadRequest
	archive, _ := writeArchive(t)
	app := Application{Name: "myapp", Archive: archive, Targets: []string{"ms-1"}, Upload: true}

	s := NewRestSession(Options{TimeoutSec: 5})
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx, "weblogic", "welcome1", t3(srv)))
	require.NoError(t, s.Deploy(ctx, app))
	err := s.Activate(ctx, app)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulated /activate failure")

	dump := s.DumpStack()
	assert.Contains(t, dump, "editing=true")
	assert.Contains(t, dump, "Last error response")
}

func TestRestSessionDeployDefaultWithoutDefaults(t *testing.T) {
	_, srv := newFakeAdminServer(t)
	s := NewRestSession(Options{TimeoutSec: 5})
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx, "weblogic", "welcome1", t3(srv)))
	assert.Error(t, s.DeployDefault(ctx))
}

func TestRestSessionDeployNotConnected(t *testing.T) {
	s := NewRestSession(Options{})
	err := s.Deploy(context.Background(), Application{Name: "a", Archive: "a.ear", Targets: []string{"t"}})
	assert.EqualError(t, err, "Not connected to admin server")
	assert.Contains(t, s.DumpStack(), "(not connected)")
}

func TestRestSessionDisconnectCancelsEdit(t *testing.T) {
	fake, srv := newFakeAdminServer(t)
	s := NewRestSession(Options{TimeoutSec: 5})
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx, "weblogic", "welcome1", t3(srv)))
	require.NoError(t, s.Disconnect(ctx))
	assert.Equal(t, "POST /edit/changeManager/cancelEdit", fake.calls[len(fake.calls)-1])
	assert.Empty(t, s.password)
}

func Test_decodeRestError(t *testing.T) {
	assert.Equal(t, "", decodeRestError(nil))
	assert.Equal(t, "", decodeRestError([]byte("<html>")))
	assert.Equal(t, ": boom", decodeRestError([]byte(`{"title":"FAILURE","detail":"boom"}`)))
	assert.Equal(t, ": FAILURE name: already exists",
		decodeRestError([]byte(`{"messages":[{"severity":"FAILURE","field":"name","message":"already exists"}]}`)))
}
