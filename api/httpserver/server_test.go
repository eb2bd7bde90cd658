package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"bulkbook/domain/orderbook"
	"bulkbook/feed"
	"bulkbook/infra/sequence"
	"bulkbook/service"
)

func newTestServer(t *testing.T) (*httptest.Server, *service.OrderService) {
	svc := service.NewOrderService(
		orderbook.New(),
		sequence.New(0),
		feed.NewRing(64),
		nil,
		nil,
		zaptest.NewLogger(t),
	)
	srv := NewServer(svc, nil, zaptest.NewLogger(t))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, svc
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestDepthEndpoint(t *testing.T) {
	ts, svc := newTestServer(t)
	_, err := svc.PlaceLimit(orderbook.Ask, 105, 1)
	require.NoError(t, err)
	_, err = svc.PlaceLimit(orderbook.Ask, 103, 2)
	require.NoError(t, err)

	var body struct {
		Side   string                `json:"side"`
		Levels []orderbook.LevelView `json:"levels"`
	}
	code := getJSON(t, ts.URL+"/api/v1/depth/ask?levels=10", &body)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ask", body.Side)
	require.Len(t, body.Levels, 2)
	assert.Equal(t, orderbook.Price(103), body.Levels[0].Price)
}

func TestDepthEndpointRejectsBadSide(t *testing.T) {
	ts, _ := newTestServer(t)
	var body map[string]string
	code := getJSON(t, ts.URL+"/api/v1/depth/sideways", &body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "side")
}

func TestOrderEndpoint(t *testing.T) {
	ts, svc := newTestServer(t)
	id, err := svc.PlaceLimit(orderbook.Bid, 100, 7)
	require.NoError(t, err)

	var ref orderbook.OrderRef
	code := getJSON(t, ts.URL+"/api/v1/orders/"+idString(id), &ref)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, ref.ID)
	assert.Equal(t, orderbook.Quantity(7), ref.Remaining)

	var errBody map[string]string
	code = getJSON(t, ts.URL+"/api/v1/orders/999999", &errBody)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStatsAndInvariantEndpoints(t *testing.T) {
	ts, svc := newTestServer(t)
	_, err := svc.PlaceLimit(orderbook.Bid, 100, 7)
	require.NoError(t, err)

	var st service.Stats
	code := getJSON(t, ts.URL+"/api/v1/stats", &st)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, st.RestingOrders)

	var ok map[string]string
	code = getJSON(t, ts.URL+"/api/v1/debug/invariants", &ok)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", ok["status"])
}

func TestWriteMethodsNotExposed(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/v1/orders/1", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func idString(id orderbook.OrderID) string {
	b, _ := json.Marshal(id)
	return string(b)
}
