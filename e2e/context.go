//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TestContext talks to a running landrec server and carries per-scenario
// state: the acting user, the last response and remembered values.
type TestContext struct {
	baseURL    string
	adminToken string
	client     *http.Client

	users   map[string]uuid.UUID
	user    string
	roles   string
	vars    map[string]string
	status  int
	rawBody []byte
	body    map[string]any
}

func NewTestContext() *TestContext {
	baseURL := os.Getenv("LANDREC_E2E_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &TestContext{
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminToken: os.Getenv("LANDREC_E2E_ADMIN_TOKEN"),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears scenario state.
func (tc *TestContext) Reset() {
	tc.users = map[string]uuid.UUID{}
	tc.vars = map[string]string{}
	tc.user, tc.roles = "", ""
	tc.status, tc.rawBody, tc.body = 0, nil, nil
}

func (tc *TestContext) ActAs(alias, roles string) {
	tc.user = alias
	tc.roles = roles
}

// UserID returns a stable ID for alias within the scenario.
func (tc *TestContext) UserID(alias string) string {
	u, ok := tc.users[alias]
	if !ok {
		u = uuid.New()
		tc.users[alias] = u
	}
	return u.String()
}

func (tc *TestContext) Remember(name, value string) {
	tc.vars[name] = value
}

func (tc *TestContext) Recall(name string) (string, error) {
	v, ok := tc.vars[name]
	if !ok {
		return "", fmt.Errorf("nothing remembered as %q", name)
	}
	return v, nil
}

// Expand replaces {name} placeholders with remembered values.
func (tc *TestContext) Expand(s string) string {
	for k, v := range tc.vars {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}

func (tc *TestContext) Do(ctx context.Context, method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, tc.baseURL+tc.Expand(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.user != "" {
		req.Header.Set("X-User-ID", tc.UserID(tc.user))
		req.Header.Set("X-User-Roles", tc.roles)
	}
	if tc.adminToken != "" {
		req.Header.Set("X-Admin-Token", tc.adminToken)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.status = resp.StatusCode
	if tc.rawBody, err = io.ReadAll(resp.Body); err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	tc.body = nil
	if len(tc.rawBody) > 0 && tc.rawBody[0] == '{' {
		if err := json.Unmarshal(tc.rawBody, &tc.body); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (tc *TestContext) Status() int {
	return tc.status
}

func (tc *TestContext) RawBody() string {
	return string(tc.rawBody)
}

// Field resolves a dotted path such as "recording_acts.0.status" in the last
// JSON response.
func (tc *TestContext) Field(path string) (any, error) {
	var cur any = tc.body
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found in %s", path, tc.rawBody)
			}
			cur = v
		case []any:
			var i int
			if _, err := fmt.Sscanf(part, "%d", &i); err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", part, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %q of %q", part, path)
		}
	}
	return cur, nil
}

func (tc *TestContext) FieldString(path string) (string, error) {
	v, err := tc.Field(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}
