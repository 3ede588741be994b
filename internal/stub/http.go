package stub

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"restaurant-loadgen/internal/restaurant"
)

type createRestaurantRequest struct {
	Restaurant *restaurant.Restaurant `json:"restaurant"`
}

type createRestaurantResponse struct {
	RestaurantID int64 `json:"restaurantId"`
}

type updateMenuRequest struct {
	Menu  *restaurant.Menu      `json:"menu"`
	Items []restaurant.MenuItem `json:"items"`
}

type getRestaurantsResponse struct {
	Restaurants []*restaurant.Restaurant `json:"restaurants"`
	Total       int                      `json:"total"`
}

type getRestaurantResponse struct {
	Restaurant *restaurant.Restaurant `json:"restaurant"`
}

// Handler returns the REST API plus /metrics and /health.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/restaurants", s.createRestaurant)
	mux.HandleFunc("GET /api/v1/restaurants", s.getRestaurants)
	mux.HandleFunc("GET /api/v1/restaurants/{restaurantId}", s.getRestaurant)
	mux.HandleFunc("PUT /api/v1/restaurants/{restaurantId}/menu", s.updateMenu)
	mux.HandleFunc("DELETE /api/v1/restaurants/{restaurantId}", s.deleteRestaurant)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	})
	return mux
}

func (s *Service) createRestaurant(w http.ResponseWriter, r *http.Request) {
	var req createRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, "create", http.StatusBadRequest, err)
		return
	}
	s.simulateWork(r.Context())
	id, err := s.store.Create(req.Restaurant)
	if err != nil {
		s.fail(w, "create", httpStatus(err), err)
		return
	}
	s.reply(w, "create", http.StatusCreated, createRestaurantResponse{RestaurantID: id})
}

func (s *Service) getRestaurants(w http.ResponseWriter, r *http.Request) {
	offset, limit := getOffsetAndLimit(r)
	s.simulateWork(r.Context())
	rs, total := s.store.List(offset, limit)
	s.reply(w, "list", http.StatusOK, getRestaurantsResponse{Restaurants: rs, Total: total})
}

func (s *Service) getRestaurant(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "get")
	if !ok {
		return
	}
	s.simulateWork(r.Context())
	rs, err := s.store.Get(id)
	if err != nil {
		s.fail(w, "get", httpStatus(err), err)
		return
	}
	s.reply(w, "get", http.StatusOK, getRestaurantResponse{Restaurant: rs})
}

func (s *Service) updateMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "update_menu")
	if !ok {
		return
	}
	var req updateMenuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, "update_menu", http.StatusBadRequest, err)
		return
	}
	menu := req.Menu
	if menu == nil && s.lenientMenu && req.Items != nil {
		menu = &restaurant.Menu{Items: req.Items}
	}
	if menu == nil {
		s.fail(w, "update_menu", http.StatusBadRequest, errors.New(`body must carry a "menu" object`))
		return
	}
	s.simulateWork(r.Context())
	if err := s.store.UpdateMenu(id, menu); err != nil {
		s.fail(w, "update_menu", httpStatus(err), err)
		return
	}
	s.reply(w, "update_menu", http.StatusOK, struct{}{})
}

func (s *Service) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "delete")
	if !ok {
		return
	}
	s.simulateWork(r.Context())
	if err := s.store.Delete(id); err != nil {
		s.fail(w, "delete", httpStatus(err), err)
		return
	}
	s.reply(w, "delete", http.StatusOK, struct{}{})
}

func (s *Service) pathID(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("restaurantId"), 10, 64)
	if err != nil {
		s.fail(w, op, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}

func (s *Service) reply(w http.ResponseWriter, op string, code int, body any) {
	s.count("rest", op, strconv.Itoa(code))
	writeJSON(w, code, body)
}

func (s *Service) fail(w http.ResponseWriter, op string, code int, err error) {
	s.log.Debug("request rejected", "op", op, "code", code, "err", err)
	s.reply(w, op, code, map[string]string{"error": err.Error()})
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func getOffsetAndLimit(r *http.Request) (int, int) {
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = defaultLimit
	}
	return offset, clampLimit(limit)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
