package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-loadgen/internal/restaurant"
	"restaurant-loadgen/internal/target"
)

type captured struct {
	method      string
	path        string
	contentType string
	body        string
}

func newServer(t *testing.T, status int, respBody string) (*httptest.Server, *[]captured) {
	t.Helper()
	var calls []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, captured{
			method:      r.Method,
			path:        r.URL.EscapedPath(),
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
		})
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestCreateRestaurant(t *testing.T) {
	tests := []struct {
		name string
		resp string
		want restaurant.ID
	}{
		{name: "string id", resp: `{"restaurantId":"abc"}`, want: "abc"},
		{name: "numeric id", resp: `{"restaurantId":12}`, want: "12"},
		{name: "missing id", resp: `{}`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := newServer(t, http.StatusCreated, tt.resp)
			c, err := NewClient(srv.URL + "/")
			require.NoError(t, err)

			id, err := c.CreateRestaurant(context.Background(), restaurant.Default())
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)

			require.Len(t, *calls, 1)
			call := (*calls)[0]
			assert.Equal(t, http.MethodPost, call.method)
			assert.Equal(t, "/api/v1/restaurants", call.path)
			assert.Equal(t, "application/json", call.contentType)

			var got struct {
				Restaurant restaurant.Restaurant `json:"restaurant"`
			}
			require.NoError(t, json.Unmarshal([]byte(call.body), &got))
			assert.Equal(t, *restaurant.Default(), got.Restaurant)
		})
	}
}

func TestCreateRestaurantMalformedBody(t *testing.T) {
	srv, _ := newServer(t, http.StatusCreated, `not json`)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.CreateRestaurant(context.Background(), restaurant.Default())
	assert.ErrorContains(t, err, "decode response")
}

func TestUpdateMenuShapes(t *testing.T) {
	tests := []struct {
		shape UpdateShape
		want  string
	}{
		{shape: ShapeNested, want: `{"menu":{"items":[{"id":1,"name":"Tapa de gambas","price":"3.95"},{"id":2,"name":"Tapa de calamares","price":"6.99"},{"id":3,"name":"Tapa de acelgas","price":"2.99"}]}}`},
		{shape: ShapeBare, want: `{"items":[{"id":1,"name":"Tapa de gambas","price":"3.95"},{"id":2,"name":"Tapa de calamares","price":"6.99"},{"id":3,"name":"Tapa de acelgas","price":"2.99"}]}`},
	}
	for _, tt := range tests {
		t.Run(string(tt.shape), func(t *testing.T) {
			srv, calls := newServer(t, http.StatusOK, `{}`)
			c, err := NewClient(srv.URL, WithUpdateShape(tt.shape))
			require.NoError(t, err)

			require.NoError(t, c.UpdateMenu(context.Background(), "abc", restaurant.ReplacementMenu()))

			require.Len(t, *calls, 1)
			call := (*calls)[0]
			assert.Equal(t, http.MethodPut, call.method)
			assert.Equal(t, "/api/v1/restaurants/abc/menu", call.path)
			assert.JSONEq(t, tt.want, call.body)
		})
	}
}

func TestDeleteRestaurant(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{}`)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	require.NoError(t, c.DeleteRestaurant(context.Background(), "a b"))
	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodDelete, (*calls)[0].method)
	assert.Equal(t, "/api/v1/restaurants/a%20b", (*calls)[0].path)
	assert.Empty(t, (*calls)[0].contentType)
}

func TestGetRestaurant(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{"restaurant":{"id":7,"name":"Los Baltazares","menu":{"items":[{"id":1,"name":"Tapa de gambas","price":"3.95"}]}}}`)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	got, err := c.GetRestaurant(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "Los Baltazares", got.Name)
	require.Len(t, got.Menu.Items, 1)
	assert.Equal(t, http.MethodGet, (*calls)[0].method)
	assert.Equal(t, "/api/v1/restaurants/7", (*calls)[0].path)

	empty, _ := newServer(t, http.StatusOK, `{}`)
	c, err = NewClient(empty.URL)
	require.NoError(t, err)
	_, err = c.GetRestaurant(context.Background(), "7")
	assert.Error(t, err)
}

func TestNon2xxIsStatusError(t *testing.T) {
	srv, _ := newServer(t, http.StatusNotFound, `{"error":"gone"}`)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	err = c.DeleteRestaurant(context.Background(), "1")
	require.ErrorIs(t, err, target.ErrUnexpectedStatus)

	var se *target.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, target.OpDelete, se.Op)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, `{"error":"gone"}`, se.Body)
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, WithTimeout(20*time.Millisecond))
	require.NoError(t, err)
	_, err = c.CreateRestaurant(context.Background(), restaurant.Default())
	assert.Error(t, err)
}

func TestNewClientValidatesURL(t *testing.T) {
	_, err := NewClient("localhost:8080")
	assert.Error(t, err)
	_, err = NewClient("ftp://example.com")
	assert.Error(t, err)
}

func TestParseUpdateShape(t *testing.T) {
	s, err := ParseUpdateShape("NESTED")
	require.NoError(t, err)
	assert.Equal(t, ShapeNested, s)

	_, err = ParseUpdateShape("flat")
	assert.Error(t, err)
}
