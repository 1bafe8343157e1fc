package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/colladmin/internal/db/memory"
	"github.com/kailas-cloud/colladmin/internal/domain/collection"
	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
	recordrepo "github.com/kailas-cloud/colladmin/internal/repository/record"
	"github.com/kailas-cloud/colladmin/internal/usecase/records"
)

const testConfig = `
http:
  port: 8080
logging:
  sink_size: 50
collections:
  - name: users
    id: "7"
    fields:
      - {name: id, is_primary: true}
      - {name: email, required: true}
      - {name: user_count}
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// startBackend serves the development backend built the way serve builds it.
func startBackend(t *testing.T, cfgPath string) *httptest.Server {
	t.Helper()
	a := &app{env: "test", configPath: cfgPath, stdout: io.Discard, stderr: io.Discard}
	if err := a.init(true); err != nil {
		t.Fatalf("init: %v", err)
	}
	store := memory.NewStore()
	svc := records.New(recordrepo.New(store))
	if err := svc.Seed(context.Background(), seedCollections(a.cfg.Collections)); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	ts := httptest.NewServer(a.handler(svc, store))
	t.Cleanup(ts.Close)
	return ts
}

type cli struct {
	t       *testing.T
	cfgPath string
	backend string
}

func (c cli) run(args ...string) (code int, stdout, stderr string) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--env", "test", "--config", c.cfgPath, "--backend", c.backend}, args...)
	code = run(full, &out, &errOut)
	return code, out.String(), errOut.String()
}

func newCLI(t *testing.T) cli {
	cfg := writeConfig(t)
	return cli{t: t, cfgPath: cfg, backend: startBackend(t, cfg).URL}
}

func TestCLI_CreateListUpdateDelete(t *testing.T) {
	c := newCLI(t)

	if code, _, errOut := c.run("create", "users", "--set", "id=u1", "--set", "email=a@b.com", "--set", "user_count=3"); code != 0 {
		t.Fatalf("create exit %d: %s", code, errOut)
	}

	code, out, errOut := c.run("list", "users")
	if code != 0 {
		t.Fatalf("list exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "a@b.com") || !strings.Contains(out, "USER COUNT") {
		t.Errorf("list output:\n%s", out)
	}

	if code, _, errOut := c.run("update", "users", "u1", "--set", "user_count=40"); code != 0 {
		t.Fatalf("update exit %d: %s", code, errOut)
	}
	if _, out, _ := c.run("get", "users", "u1"); !strings.Contains(out, "40") {
		t.Errorf("get after update:\n%s", out)
	}

	if code, _, errOut := c.run("delete", "users", "u1"); code != 0 {
		t.Fatalf("delete exit %d: %s", code, errOut)
	}
	code, _, errOut = c.run("delete", "users", "u1")
	if code == 0 || !strings.Contains(errOut, "Not Found (HTTP 404)") {
		t.Errorf("second delete: exit %d, stderr %q", code, errOut)
	}
}

func TestCLI_CreateValidationFailure(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.run("create", "users", "--set", "user_count=many")
	if code == 0 {
		t.Fatal("create without email should fail")
	}
	for _, want := range []string{"email:", "user_count:"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut)
		}
	}

	_, out, _ := c.run("list", "users")
	if !strings.Contains(out, "no records") {
		t.Errorf("invalid create reached the backend:\n%s", out)
	}
}

func TestCLI_Describe(t *testing.T) {
	c := newCLI(t)

	code, out, errOut := c.run("describe", "users")
	if code != 0 {
		t.Fatalf("describe exit %d: %s", code, errOut)
	}
	for _, want := range []string{"user_count", "number", "medium (120px)", "email", "medium-wide (200px)"} {
		if !strings.Contains(out, want) {
			t.Errorf("describe output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "shown as text: id") {
		t.Errorf("describe should report the text fallback:\n%s", out)
	}
}

func TestCLI_TraceDumpsBufferedLog(t *testing.T) {
	c := newCLI(t)
	code, _, errOut := c.run("--trace", "get", "users", "missing")
	if code == 0 {
		t.Fatal("get of a missing record should fail")
	}
	if !strings.Contains(errOut, `"msg"`) {
		t.Errorf("--trace should dump JSON log lines:\n%s", errOut)
	}
}

func TestCLI_Version(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"version"}, &out, io.Discard); code != 0 {
		t.Fatalf("version exit %d", code)
	}
	if !strings.HasPrefix(out.String(), "colladmin dev") {
		t.Errorf("version output %q", out.String())
	}
}

func TestServe_HealthAndDebugLogs(t *testing.T) {
	ts := startBackend(t, writeConfig(t))

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	resp, err = http.Get(ts.URL + "/debug/logs")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if !strings.Contains(string(body), "http_request") {
		t.Errorf("/debug/logs should contain the request log line:\n%s", body)
	}
}

func TestServe_BadQueryParameter(t *testing.T) {
	ts := startBackend(t, writeConfig(t))
	resp, err := http.Get(ts.URL + "/items/users?limit=abc")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d, want 400", resp.StatusCode)
	}
}

func TestParseSets(t *testing.T) {
	mk := func(name string, st field.SemanticType) field.Descriptor {
		f, err := field.New(name, "", st, field.Constraints{}, false)
		if err != nil {
			t.Fatal(err)
		}
		return f
	}
	desc, err := collection.New("t", []field.Descriptor{
		mk("price", field.Number),
		mk("is_active", field.Boolean),
		mk("email", field.Email),
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := parseSets(desc, []string{"price=9.5", "is_active=true", "email=a=b@c.d", "note=free", "price2=1"})
	if err != nil {
		t.Fatalf("parseSets: %v", err)
	}
	want := map[string]any{
		"price":     9.5,
		"is_active": true,
		"email":     "a=b@c.d",
		"note":      "free",
		"price2":    "1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseSets mismatch (-want +got):\n%s", diff)
	}

	if _, err := parseSets(desc, []string{"novalue"}); err == nil {
		t.Error("expected error for missing '='")
	}
	if v, _ := parseSets(desc, []string{"price=lots"}); v["price"] != "lots" {
		t.Errorf("unparsable number should stay a string, got %#v", v["price"])
	}
}
