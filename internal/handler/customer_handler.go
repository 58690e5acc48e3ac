// internal/handler/customer_handler.go
package handler

import (
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	appErrors "github.com/unclebandit/customers-app/internal/errors"
	"github.com/unclebandit/customers-app/internal/model"
	"github.com/unclebandit/customers-app/internal/service"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// CustomerHandler serves the form-and-list page
type CustomerHandler struct {
	Service *service.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler backed by svc
func NewCustomerHandler(svc *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{Service: svc}
}

// Routes mounts the page and its form actions
func (h *CustomerHandler) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Post("/customers", h.Submit)
	r.Post("/customers/{id}/delete", h.Delete)
}

type pageData struct {
	Loading     bool
	PendingName string
	Customers   []model.Customer
	Error       string
}

// Index renders "Loading..." until the first load finishes, then the list
func (h *CustomerHandler) Index(w http.ResponseWriter, r *http.Request) {
	state := h.Service.Snapshot()
	data := pageData{
		Loading:     state.Loading,
		PendingName: state.PendingName,
		Customers:   state.Customers,
	}
	if state.LoadErr != nil {
		data.Error = "Could not load customers: " + state.LoadErr.Error()
	}
	h.render(w, http.StatusOK, data)
}

// Submit stores the typed name as pending input and adds it
func (h *CustomerHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if _, err := h.Service.SubmitPending(r.Context(), r.PostFormValue("name")); err != nil {
		log.Println("❌ Error adding customer:", err)
		h.renderError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Delete removes one customer and goes back to the list
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid customer id", http.StatusBadRequest)
		return
	}

	if err := h.Service.DeleteCustomer(r.Context(), id); err != nil {
		log.Println("❌ Error deleting customer:", err)
		h.renderError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *CustomerHandler) renderError(w http.ResponseWriter, err error) {
	state := h.Service.Snapshot()
	status := http.StatusInternalServerError
	if errors.Is(err, appErrors.ErrNotReady) || errors.Is(err, service.ErrStopped) {
		status = http.StatusServiceUnavailable
	}
	h.render(w, status, pageData{
		Loading:     state.Loading,
		PendingName: state.PendingName,
		Customers:   state.Customers,
		Error:       err.Error(),
	})
}

func (h *CustomerHandler) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.ExecuteTemplate(w, "customers", data); err != nil {
		log.Println("⚠️ Failed to render page:", err)
	}
}
