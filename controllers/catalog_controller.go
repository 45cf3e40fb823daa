package controllers

import (
	"encoding/json"
	"goldenapp/services"
	"net/http"

	"github.com/gorilla/mux"
)

// CatalogController обрабатывает запросы к справочникам договоров и планов
type CatalogController struct {
	catalog *services.CatalogService
}

// NewCatalogController создает новый экземпляр CatalogController
func NewCatalogController(catalog *services.CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

// CreateContract регистрирует договор
func (c *CatalogController) CreateContract(w http.ResponseWriter, r *http.Request) {
	var dto services.CreateContractDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	contract, err := c.catalog.CreateContract(r.Context(), dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract)
}

// ImportPlan принимает план в любом из старых форматов
func (c *CatalogController) ImportPlan(w http.ResponseWriter, r *http.Request) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	plan, err := c.catalog.ImportPlan(r.Context(), raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

// RegisterRoutes регистрирует маршруты справочников
func (c *CatalogController) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/plans", c.ImportPlan).Methods("POST")
	router.HandleFunc("/contracts", c.CreateContract).Methods("POST")
}
