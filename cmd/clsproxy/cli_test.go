package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/conduit-lang/clsproxy/internal/cli/config"
	"github.com/conduit-lang/clsproxy/internal/demo"
	"github.com/conduit-lang/clsproxy/internal/logging"
	"github.com/google/uuid"
)

// runCLI executes the root command in-process and returns its output
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CLSPROXY_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// newTestEnvironment builds an environment on a private in-memory database
func newTestEnvironment(t *testing.T, withDB bool) *environment {
	t.Helper()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	cfg.Database.Driver = "sqlite3"
	cfg.Database.DSN = "file:" + uuid.NewString() + "?mode=memory&cache=shared"

	env, err := newEnvironment(cfg, logging.Nop(), withDB)
	if err != nil {
		t.Fatalf("failed to build environment: %v", err)
	}
	t.Cleanup(env.Close)
	return env
}

func TestVersionCommand(t *testing.T) {
	output, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	expected := []string{
		"clsproxy version:",
		"Git commit:",
		"Build date:",
		"Go version:",
	}
	for _, exp := range expected {
		if !strings.Contains(output, exp) {
			t.Errorf("version output missing expected string: %q\nGot: %s", exp, output)
		}
	}
}

func TestDemoCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "default",
			args:     []string{"demo", "--no-color"},
			expected: []string{`Namespace "cls-class-proxy"`, "construct: run", "balance getter returned 100", "descriptor cache:"},
		},
		{
			name:     "no cache",
			args:     []string{"demo", "--no-color", "--no-cache"},
			expected: []string{"cache: false", "descriptor cache disabled"},
		},
		{
			name:     "with database",
			args:     []string{"demo", "--no-color", "--db"},
			expected: []string{"journal holds", "deposit returned balance 125"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := runCLI(t, tt.args...)
			if err != nil {
				t.Fatalf("demo command failed: %v\nOutput: %s", err, output)
			}
			if strings.Contains(output, "✗") {
				t.Errorf("demo reported a failed check:\n%s", output)
			}
			for _, exp := range tt.expected {
				if !strings.Contains(output, exp) {
					t.Errorf("demo output missing expected string: %q\nGot: %s", exp, output)
				}
			}
		})
	}
}

func TestDemoCommandBindPolicy(t *testing.T) {
	t.Setenv("CLSPROXY_CONSTRUCT_POLICY", "bind")

	output, err := runCLI(t, "demo", "--no-color")
	if err != nil {
		t.Fatalf("demo command failed: %v\nOutput: %s", err, output)
	}
	if !strings.Contains(output, "construct: bind") {
		t.Errorf("expected bind policy in output, got: %s", output)
	}
	if strings.Contains(output, "✗") {
		t.Errorf("demo reported a failed check:\n%s", output)
	}
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("CLSPROXY_CONSTRUCT_POLICY", "later")

	_, err := runCLI(t, "demo")
	if err == nil {
		t.Fatal("expected error for invalid construct policy")
	}
	if !strings.Contains(err.Error(), "construct_policy") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMissingConfigFile(t *testing.T) {
	_, err := runCLI(t, "demo", "--config", "does-not-exist.yml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestInspectCommand(t *testing.T) {
	output, err := runCLI(t, "inspect", "--no-color", "--key", "missing")
	if err != nil {
		t.Fatalf("inspect command failed: %v\nOutput: %s", err, output)
	}

	expected := []string{
		"KEY", "KIND", "DEFINED ON",
		"balance", "getter", "Account.prototype",
		"owner", "accessor",
		"describe", "method", "Entity.prototype",
		"_balance", "data", "instance",
		"missing", "absent",
		"Cached keys:",
	}
	for _, exp := range expected {
		if !strings.Contains(output, exp) {
			t.Errorf("inspect output missing expected string: %q\nGot: %s", exp, output)
		}
	}
}

func TestServerAccounts(t *testing.T) {
	env := newTestEnvironment(t, true)
	srv := httptest.NewServer(newRouter(env))
	defer srv.Close()

	post := func(path, body string) *http.Response {
		t.Helper()
		resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s failed: %v", path, err)
		}
		return resp
	}
	decode := func(resp *http.Response, v any) {
		t.Helper()
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}

	resp := post("/accounts", `{"id":"acct-1","owner":"alice","balance":10}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created map[string]any
	decode(resp, &created)
	if created["owner"] != "alice" || created["balance"] != float64(10) {
		t.Errorf("unexpected account: %v", created)
	}

	resp = post("/accounts", `{"id":"acct-1","owner":"alice","balance":10}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate account, got %d", resp.StatusCode)
	}

	resp = post("/accounts/acct-1/deposits", `{"amount":5}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var deposited map[string]any
	decode(resp, &deposited)
	if deposited["balance"] != float64(15) {
		t.Errorf("expected balance 15, got %v", deposited["balance"])
	}

	resp = post("/accounts/acct-1/deposits", `{"amount":-1}`)
	var failed errorResponse
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for negative amount, got %d", resp.StatusCode)
	}
	decode(resp, &failed)
	if failed.RequestID == "" {
		t.Error("expected request id in error response")
	}

	n, err := env.countEntries(context.Background())
	if err != nil {
		t.Fatalf("failed to count entries: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 journaled deposit, got %d", n)
	}

	resp, err = http.Get(srv.URL + "/accounts/acct-1")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	var shown map[string]any
	decode(resp, &shown)
	if shown["id"] != "acct-1" || shown["balance"] != float64(15) {
		t.Errorf("unexpected account: %v", shown)
	}

	resp, err = http.Get(srv.URL + "/accounts/nope")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestServerTraceUsesRequestFrame(t *testing.T) {
	env := newTestEnvironment(t, true)
	handler := newRouter(env)

	req := httptest.NewRequest(http.MethodPost, "/accounts", strings.NewReader(`{"id":"a","owner":"o","balance":0}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	frames := map[string]bool{}
	for _, id := range []string{"req-1", "req-2"} {
		req := httptest.NewRequest(http.MethodGet, "/accounts/a/trace", nil)
		req.Header.Set("X-Request-ID", id)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var trace demo.Trace
		if err := json.Unmarshal(rec.Body.Bytes(), &trace); err != nil {
			t.Fatalf("failed to decode trace: %v", err)
		}
		if !trace.Active {
			t.Error("expected trace to run inside a frame")
		}
		if trace.RequestID != id {
			t.Errorf("expected request id %q, got %q", id, trace.RequestID)
		}
		frames[trace.Frame] = true
	}
	if len(frames) != 2 {
		t.Errorf("expected each request to run in its own frame, got %v", frames)
	}
}

func TestCompletionCommand(t *testing.T) {
	output, err := runCLI(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion command failed: %v", err)
	}
	if !strings.Contains(output, "clsproxy") {
		t.Errorf("completion script does not mention clsproxy:\n%.200s", output)
	}

	if _, err := runCLI(t, "completion", "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}
