// internal/controller/customer_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	appErrors "github.com/unclebandit/customers-app/internal/errors"
	"github.com/unclebandit/customers-app/internal/service"
)

type CustomerController struct {
	CustomerService *service.CustomerService
}

// Routes mounts the JSON API under /api
func (c *CustomerController) Routes(r chi.Router) {
	r.Route("/api/customers", func(r chi.Router) {
		r.Get("/", c.ListCustomers)
		r.Post("/", c.CreateCustomer)
		r.Delete("/{id}", c.DeleteCustomer)
	})
}

func (c *CustomerController) ListCustomers(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "1" {
		if err := c.CustomerService.Reload(r.Context()); err != nil {
			writeError(w, err)
			return
		}
	}

	state := c.CustomerService.Snapshot()
	resp := map[string]interface{}{
		"loading": state.Loading,
		"data":    state.Customers,
	}
	if state.LoadErr != nil {
		resp["error"] = state.LoadErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *CustomerController) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	customer, err := c.CustomerService.AddCustomerNamed(r.Context(), body.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (c *CustomerController) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer id"})
		return
	}

	if err := c.CustomerService.DeleteCustomer(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, appErrors.ErrNotReady) || errors.Is(err, service.ErrStopped) {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
