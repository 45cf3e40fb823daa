package services

import (
	"context"
	"fmt"
	"goldenapp/models"
	"goldenapp/utils"
	"time"

	"github.com/go-playground/validator/v10"
)

// ContractWriter сохраняет договор
type ContractWriter interface {
	CreateContract(ctx context.Context, contract *models.Contract) error
}

// CreateContractDTO данные нового договора
type CreateContractDTO struct {
	ContractNumber string      `json:"contractNumber" validate:"required"`
	CityCode       string      `json:"cityCode" validate:"required"`
	Country        string      `json:"country"`
	HolderID       string      `json:"holderId" validate:"required"`
	PlanRef        string      `json:"planRef"`
	InitialDate    models.Date `json:"initialDate"`
}

// CatalogService ведет справочники договоров и планов
type CatalogService struct {
	contracts ContractWriter
	plans     PlanWriter
	validator *validator.Validate
}

// NewCatalogService создает новый экземпляр CatalogService
func NewCatalogService(contracts ContractWriter, plans PlanWriter) *CatalogService {
	return &CatalogService{
		contracts: contracts,
		plans:     plans,
		validator: newValidator(),
	}
}

// CreateContract регистрирует договор
func (s *CatalogService) CreateContract(ctx context.Context, dto CreateContractDTO) (contract *models.Contract, err error) {
	defer func(start time.Time) { utils.LogOperation("CreateContract", start, err) }(time.Now())

	if err = validateStruct(s.validator, dto); err != nil {
		return nil, err
	}

	contract = &models.Contract{
		ContractNumber: dto.ContractNumber,
		CityCode:       dto.CityCode,
		Country:        dto.Country,
		HolderID:       dto.HolderID,
		PlanRef:        dto.PlanRef,
		InitialDate:    dto.InitialDate,
	}
	if err = s.contracts.CreateContract(ctx, contract); err != nil {
		return nil, fmt.Errorf("save contract %s: %w", dto.ContractNumber, err)
	}
	return contract, nil
}

// ImportPlan принимает план в старом формате
func (s *CatalogService) ImportPlan(ctx context.Context, raw map[string]interface{}) (plan *models.Plan, err error) {
	defer func(start time.Time) { utils.LogOperation("ImportPlan", start, err) }(time.Now())

	plan, err = ImportPlan(ctx, s.plans, raw)
	if err != nil {
		return nil, err
	}
	if plan.InstallmentCount == 0 {
		utils.LogWarn("plan %s has no installment count, schedules will use %d", plan.Code, models.DefaultInstallmentCount)
	}
	return plan, nil
}
