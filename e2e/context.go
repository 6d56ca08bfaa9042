// Package e2e drives a running contactlink server through its HTTP API.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// TestContext holds per-scenario HTTP state.
type TestContext struct {
	BaseURL    string
	HTTPClient *http.Client

	run          string
	lastStatus   int
	lastBody     []byte
	rememberedID map[string]float64
}

// NewTestContext returns a context whose placeholders are unique to this scenario.
func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
		run:          strconv.FormatInt(time.Now().UnixNano(), 36),
		rememberedID: make(map[string]float64),
	}
}

// Expand replaces {run} so repeated runs against one database stay isolated.
func (tc *TestContext) Expand(s string) string {
	return strings.ReplaceAll(s, "{run}", tc.run)
}

func (tc *TestContext) POST(path string, body interface{}) error {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(http.MethodPost, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	req, err := http.NewRequest(http.MethodGet, tc.BaseURL+path, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastStatus = resp.StatusCode
	tc.lastBody = body
	return nil
}

func (tc *TestContext) GetLastStatusCode() int {
	return tc.lastStatus
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.lastBody
}

// GetResponseField resolves a dotted path like "contact.primaryContactId".
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var data interface{}
	if err := json.Unmarshal(tc.lastBody, &data); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	for _, part := range strings.Split(field, ".") {
		obj, ok := data.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", field, part)
		}
		if data, ok = obj[part]; !ok {
			return nil, fmt.Errorf("field %q not found in response", field)
		}
	}
	return data, nil
}

func (tc *TestContext) Remember(name string, id float64) {
	tc.rememberedID[name] = id
}

func (tc *TestContext) Recall(name string) (float64, bool) {
	id, ok := tc.rememberedID[name]
	return id, ok
}
