package test

import (
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactlink/internal/contact/handler"
	contactmetrics "contactlink/internal/contact/metrics"
	"contactlink/internal/contact/service"
	"contactlink/internal/contact/store"
	"contactlink/internal/platform/metrics"
	httptransport "contactlink/internal/transport/http"
	"contactlink/pkg/testutil"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	var (
		mu  sync.Mutex
		now = time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC)
	)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Minute)
		return now
	}

	registry := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(store.NewInMemory(store.WithClock(clock)),
		service.WithLogger(logger),
		service.WithMetrics(contactmetrics.New(registry)),
	)
	require.NoError(t, err)

	return httptransport.NewRouter(httptransport.RouterConfig{Gatherer: registry},
		handler.New(svc, logger, metrics.New(registry), 0))
}

func identify(t *testing.T, router http.Handler, body map[string]any) *handler.IdentifyResponse {
	t.Helper()
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/identify", body))
	testutil.AssertStatusOK(t, rr)
	return testutil.UnmarshalResponse[handler.IdentifyResponse](t, rr)
}

func TestIdentifyAcceptance(t *testing.T) {
	testutil.Given(t, "an empty contact book", func(t *testing.T) {
		router := newRouter(t)

		testutil.When(t, "a new customer orders", func(t *testing.T) {
			resp := identify(t, router, map[string]any{"email": "lorraine@hillvalley.edu", "phoneNumber": "123456"})

			testutil.Then(t, "a primary contact is created", func(t *testing.T) {
				assert.Equal(t, int64(1), resp.Contact.PrimaryContactID)
				assert.Equal(t, []string{"lorraine@hillvalley.edu"}, resp.Contact.Emails)
				assert.Equal(t, []string{"123456"}, resp.Contact.PhoneNumbers)
				assert.Empty(t, resp.Contact.SecondaryContactIDs)
			})
		})

		testutil.When(t, "the same phone orders with a new email", func(t *testing.T) {
			resp := identify(t, router, map[string]any{"email": "mcfly@hillvalley.edu", "phoneNumber": "123456"})

			testutil.Then(t, "a secondary is linked to the primary", func(t *testing.T) {
				assert.Equal(t, int64(1), resp.Contact.PrimaryContactID)
				assert.Equal(t, []string{"lorraine@hillvalley.edu", "mcfly@hillvalley.edu"}, resp.Contact.Emails)
				assert.Equal(t, []string{"123456"}, resp.Contact.PhoneNumbers)
				assert.Equal(t, []int64{2}, resp.Contact.SecondaryContactIDs)
			})
		})

		testutil.When(t, "only the phone number is sent", func(t *testing.T) {
			resp := identify(t, router, map[string]any{"email": nil, "phoneNumber": 123456})

			testutil.Then(t, "the existing cluster comes back unchanged", func(t *testing.T) {
				assert.Equal(t, int64(1), resp.Contact.PrimaryContactID)
				assert.Equal(t, []int64{2}, resp.Contact.SecondaryContactIDs)
			})
		})
	})

	testutil.Given(t, "two unrelated primaries", func(t *testing.T) {
		router := newRouter(t)
		identify(t, router, map[string]any{"email": "george@hillvalley.edu", "phoneNumber": "919191"})
		identify(t, router, map[string]any{"email": "biffsucks@hillvalley.edu", "phoneNumber": "717171"})

		testutil.When(t, "a request bridges them", func(t *testing.T) {
			resp := identify(t, router, map[string]any{"email": "george@hillvalley.edu", "phoneNumber": "717171"})

			testutil.Then(t, "the newer primary is demoted under the older one", func(t *testing.T) {
				assert.Equal(t, int64(1), resp.Contact.PrimaryContactID)
				assert.Equal(t, []string{"george@hillvalley.edu", "biffsucks@hillvalley.edu"}, resp.Contact.Emails)
				assert.Equal(t, []string{"919191", "717171"}, resp.Contact.PhoneNumbers)
				assert.Equal(t, []int64{2}, resp.Contact.SecondaryContactIDs)
			})

			testutil.And(t, "the demotion is counted", func(t *testing.T) {
				rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
				assert.Contains(t, rr.Body.String(), "contactlink_identify_demotions_total 1")
			})
		})
	})
}

func TestIdentifyRejectsBadRequests(t *testing.T) {
	testutil.Given(t, "the public router", func(t *testing.T) {
		router := newRouter(t)

		testutil.When(t, "neither email nor phone is provided", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/identify", `{"email":null}`))

			testutil.Then(t, "it responds 400 with a message", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, service.ErrMsgMissingContactInfo)
			})
		})

		testutil.When(t, "the body is not JSON", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/identify", `{"email":`))

			testutil.Then(t, "it responds 400 invalid JSON", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, handler.ErrMsgInvalidJSON)
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	router := newRouter(t)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "status", "ok")

	identify(t, router, map[string]any{"email": "doc@hillvalley.edu"})
	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
	assert.Contains(t, rr.Body.String(), `outcome="created_primary"`)
}
