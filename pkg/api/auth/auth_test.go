package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConfig_ParseAPIKeys(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]string
		wantErr bool
	}{
		{"empty", "{}", map[string]string{}, false},
		{"json", `{"k1":"u1","k2":"u2"}`, map[string]string{"k1": "u1", "k2": "u2"}, false},
		{"pairs", "k1=u1, k2=u2", map[string]string{"k1": "u1", "k2": "u2"}, false},
		{"bad pair", "k1", nil, true},
		{"empty value", "k1=", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{APIKeys: tt.input}
			got, err := cfg.ParseAPIKeys()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAPIKeys() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("key %s: got %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestConfig_ParseAdminUsers(t *testing.T) {
	cfg := Config{AdminUsers: " admin , ,ops"}
	got := cfg.ParseAdminUsers()
	if len(got) != 2 || got[0] != "admin" || got[1] != "ops" {
		t.Errorf("unexpected admin users: %v", got)
	}
}

func TestKeyAuthProvider(t *testing.T) {
	provider := NewKeyAuthProvider(
		map[string]string{"k-admin": "admin", "k-user": "user"},
		NewRoles([]string{"admin"}),
		nil,
	)

	var seen User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		header     string
		required   bool
		wantStatus int
		wantUser   string
		wantAdmin  bool
	}{
		{"admin", "Bearer k-admin", true, http.StatusNoContent, "admin", true},
		{"user", "Bearer k-user", true, http.StatusNoContent, "user", false},
		{"unknown key", "Bearer nope", true, http.StatusUnauthorized, "", false},
		{"wrong scheme", "Basic k-user", true, http.StatusUnauthorized, "", false},
		{"missing required", "", true, http.StatusUnauthorized, "", false},
		{"missing optional", "", false, http.StatusNoContent, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = User{}
			req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			provider.Authenticate(next, tt.required).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if seen.UserID != tt.wantUser {
				t.Errorf("user = %q, want %q", seen.UserID, tt.wantUser)
			}
			if tt.wantUser != "" {
				if !seen.Can(CapUploadFiles) {
					t.Error("expected every user to upload files")
				}
				if seen.Can(CapManageOptions) != tt.wantAdmin {
					t.Errorf("manage_options = %v, want %v", seen.Can(CapManageOptions), tt.wantAdmin)
				}
			}
		})
	}
}

func TestRequireCapability(t *testing.T) {
	handler := RequireCapability(CapManageOptions, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		user       *User
		wantStatus int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"uploader", &User{UserID: "u", Capabilities: []string{CapUploadFiles}}, http.StatusForbidden},
		{"admin", &User{UserID: "a", Capabilities: []string{CapUploadFiles, CapManageOptions}}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/settings", nil)
			if tt.user != nil {
				req = withUser(req, *tt.user)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouteAuthMiddleware(t *testing.T) {
	provider := NewKeyAuthProvider(map[string]string{"user-key": "u", "admin-key": "admin"}, NewRoles([]string{"admin"}), nil)
	mw := NewRouteAuthMiddleware(Policy{Provider: provider, Required: true}, nil).
		Public("/docs/").
		Route("GET /healthz", Policy{}).
		Route("* /api/settings", Policy{Provider: provider, Capability: CapManageOptions}).
		Route("POST /api/sources/{id}/search", Policy{Provider: provider, Capability: CapUploadFiles}).
		Route("* /api/*", Policy{Provider: provider, Required: true})

	handler := mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		method     string
		path       string
		key        string
		wantStatus int
	}{
		{http.MethodGet, "/healthz", "", http.StatusNoContent},
		{http.MethodPost, "/healthz", "", http.StatusUnauthorized},
		{http.MethodGet, "/docs/index.html", "", http.StatusNoContent},
		{http.MethodOptions, "/api/sources", "", http.StatusNoContent},
		{http.MethodGet, "/api/sources", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/sources", "user-key", http.StatusNoContent},
		{http.MethodPost, "/api/sources/pexels/search", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/sources/pexels/search", "user-key", http.StatusNoContent},
		{http.MethodGet, "/api/settings", "user-key", http.StatusForbidden},
		{http.MethodPost, "/api/settings", "admin-key", http.StatusNoContent},
		{http.MethodGet, "/unknown", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path+" "+tt.key, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.key != "" {
				req.Header.Set("Authorization", "Bearer "+tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouteMatches(t *testing.T) {
	tests := []struct {
		pattern string
		method  string
		path    string
		want    bool
	}{
		{"GET /healthz", http.MethodGet, "/healthz", true},
		{"GET /healthz", http.MethodPost, "/healthz", false},
		{"* /api/*", http.MethodPost, "/api/google-drive/token", true},
		{"* /api/*", http.MethodGet, "/apix", false},
		{"POST /api/sources/{id}/import", http.MethodPost, "/api/sources/pexels/import", true},
		{"POST /api/sources/{id}/import", http.MethodPost, "/api/sources/pexels", false},
		{"GET /api/settings", http.MethodGet, "/api/settings/extra", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			mw := NewRouteAuthMiddleware(Policy{}, nil).Route(tt.pattern, Policy{})
			if got := mw.routes[0].matches(tt.method, splitPath(tt.path)); got != tt.want {
				t.Errorf("matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
