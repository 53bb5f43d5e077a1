package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSensitive(t *testing.T) {
	in := Values{"name": "Cola", "password": "secret", "API_TOKEN": "abc", "remember_token": "x"}

	out := FilterSensitive(in)

	assert.Equal(t, "Cola", out["name"])
	assert.Equal(t, Filtered, out["password"])
	assert.Equal(t, Filtered, out["API_TOKEN"])
	assert.Equal(t, Filtered, out["remember_token"])
	assert.Equal(t, "secret", in["password"], "input must not be modified")
	assert.Nil(t, FilterSensitive(nil))
}

func TestNewLog(t *testing.T) {
	ctx := WithRequestInfo(context.Background(), RequestInfo{IPAddress: "10.0.0.1", UserAgent: "curl/8", URL: "/api/v1/stock-records"})
	companyID, userID, modelID := uuid.New(), uuid.New(), uuid.New()

	l := NewLog(ctx, companyID, userID, "StockRecord", modelID, ActionCreated, nil, Values{"password": "p", "quantity": "5"})

	assert.Equal(t, companyID, l.CompanyID)
	require.NotNil(t, l.UserID)
	assert.Equal(t, userID, *l.UserID)
	assert.Equal(t, "10.0.0.1", l.IPAddress)
	assert.Equal(t, "curl/8", l.UserAgent)
	assert.Equal(t, "/api/v1/stock-records", l.URL)
	assert.Equal(t, Filtered, l.NewValues["password"])
	assert.Nil(t, l.OldValues)
}

func TestDiffAndSnapshot(t *testing.T) {
	type item struct {
		Name  string `json:"name"`
		Price string `json:"price"`
	}
	before := Snapshot(item{Name: "Cola", Price: "10"})
	after := Snapshot(item{Name: "Cola", Price: "12"})

	changes := Diff(before, after)

	assert.Equal(t, Values{"price": "12"}, changes)
}

func TestValues_RoundTrip(t *testing.T) {
	v := Values{"a": "b"}
	raw, err := v.Value()
	require.NoError(t, err)

	var out Values
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, v, out)
}
