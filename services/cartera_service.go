package services

import (
	"context"
	"errors"
	"fmt"
	"goldenapp/models"
	"goldenapp/utils"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrScheduleExists      = errors.New("schedule already exists for invoice")
	ErrInflowNotFound      = errors.New("inflow not found")
	ErrInflowAlreadyVoided = models.ErrInflowAlreadyVoided
)

// LedgerStore хранит картеру арендатора целиком под одним ключом.
// Load возвращает пустой список, если ключа нет, и models.ErrMalformedLedger,
// если сохраненные данные не разбираются.
type LedgerStore interface {
	Load(ctx context.Context, tenantKey string) ([]models.InstallmentRecord, error)
	Save(ctx context.Context, tenantKey string, records []models.InstallmentRecord) error
}

// ContractLookup ищет договор по номеру или ID. (nil, nil) означает, что договора нет.
type ContractLookup interface {
	FindContract(ctx context.Context, numberOrID, cityCode string) (*models.Contract, error)
}

// PlanLookup ищет план по коду или названию без учета регистра. (nil, nil) означает, что плана нет.
type PlanLookup interface {
	FindPlan(ctx context.Context, codeOrName string) (*models.Plan, error)
}

// InflowStore хранит примененные поступления, чтобы их можно было аннулировать
type InflowStore interface {
	CreateInflow(ctx context.Context, inflow *models.Inflow) error
	FindInflow(ctx context.Context, id string) (*models.Inflow, error)
	MarkInflowVoided(ctx context.Context, id string, at time.Time) error
	UnmarkInflowVoided(ctx context.Context, id string) error
}

// Notifier отправляет уведомление о полном погашении счета
type Notifier interface {
	SendInvoiceSettledNotification(to, invoiceNumber string, total decimal.Decimal) error
}

// IssueInvoiceDTO данные выставленного счета
type IssueInvoiceDTO struct {
	CityCode         string           `json:"cityCode" validate:"required"`
	Country          string           `json:"country"`
	InvoiceID        string           `json:"invoiceId"`
	InvoiceNumber    string           `json:"invoiceNumber" validate:"required"`
	ClientID         string           `json:"clientId" validate:"required"`
	ContractNumber   string           `json:"contractNumber" validate:"required"` // Номер или ID договора
	Amount           *decimal.Decimal `json:"amount"`
	IssueDate        models.Date      `json:"issueDate"`
	FirstPaymentDate models.Date      `json:"firstPaymentDate"`
}

// InflowDetailDTO строка детального распределения
type InflowDetailDTO struct {
	InstallmentLabel string          `json:"installmentLabel" validate:"required"`
	AmountToApply    decimal.Decimal `json:"amountToApply" validate:"gt=0"`
	IsPartial        bool            `json:"isPartial"`
}

// ApplyInflowDTO данные поступления
type ApplyInflowDTO struct {
	CityCode         string            `json:"cityCode" validate:"required"`
	Country          string            `json:"country"`
	Kind             models.InflowKind `json:"kind" validate:"omitempty,oneof=cash bank"`
	InvoiceNumber    string            `json:"invoiceNumber" validate:"required"`
	HolderID         string            `json:"holderId" validate:"required"`
	Date             models.Date       `json:"date" validate:"required"`
	Amount           decimal.Decimal   `json:"amount" validate:"gte=0"`
	InstallmentField string            `json:"installmentField" validate:"required_without=Details"`
	Details          []InflowDetailDTO `json:"details" validate:"omitempty,dive"`
	NotifyEmail      string            `json:"notifyEmail" validate:"omitempty,email"`
}

// AssignmentAccountDTO счет в пакете закрепления
type AssignmentAccountDTO struct {
	InvoiceNumber      string `json:"invoiceNumber" validate:"required"`
	PendingInstallment string `json:"pendingInstallment" validate:"required"`
}

// AssignmentDTO пакет закрепления счетов за исполнителем
type AssignmentDTO struct {
	CityCode      string                 `json:"cityCode" validate:"required"`
	ExecutiveID   string                 `json:"executiveId" validate:"required"`
	ExecutiveName string                 `json:"executiveName"`
	Year          int                    `json:"year" validate:"gte=2000"`
	Month         int                    `json:"month" validate:"gte=1,lte=12"`
	Accounts      []AssignmentAccountDTO `json:"accounts" validate:"required,min=1,dive"`
}

// LedgerView картера города вместе с предупреждениями чтения
type LedgerView struct {
	CityCode string                     `json:"cityCode"`
	Records  []models.InstallmentRecord `json:"records"`
	Warnings []Warning                  `json:"warnings"`
}

// InflowResult результат применения поступления
type InflowResult struct {
	Inflow models.Inflow `json:"inflow"`
	PaymentResult
}

// CarteraService связывает движок картеры с хранилищами
type CarteraService struct {
	ledger    LedgerStore
	contracts ContractLookup
	plans     PlanLookup
	inflows   InflowStore
	notifier  Notifier
	validator *validator.Validate
	locks     *tenantLocks
	metrics   *utils.Metrics
	now       func() time.Time
}

// NewCarteraService создает новый экземпляр CarteraService. notifier может быть nil.
func NewCarteraService(ledger LedgerStore, contracts ContractLookup, plans PlanLookup, inflows InflowStore, notifier Notifier) *CarteraService {
	return &CarteraService{
		ledger:    ledger,
		contracts: contracts,
		plans:     plans,
		inflows:   inflows,
		notifier:  notifier,
		validator: newValidator(),
		locks:     newTenantLocks(),
		metrics:   utils.GetMetrics(),
		now:       time.Now,
	}
}

// loadLedger читает картеру; испорченные данные превращаются в пустую картеру с предупреждением
func (s *CarteraService) loadLedger(ctx context.Context, key string) ([]models.InstallmentRecord, []Warning, error) {
	records, err := s.ledger.Load(ctx, key)
	if err == nil {
		return records, nil, nil
	}
	if errors.Is(err, models.ErrMalformedLedger) {
		utils.LogWarn("ledger %s is malformed, treating as empty", key)
		return nil, []Warning{{Code: WarningMalformedLedger, Message: "stored ledger is malformed, treated as empty"}}, nil
	}
	return nil, nil, fmt.Errorf("load ledger %s: %w", key, err)
}

// IssueInvoice строит график квот по счету и дописывает его в картеру города
func (s *CarteraService) IssueInvoice(ctx context.Context, dto IssueInvoiceDTO) (result *ScheduleResult, err error) {
	defer func(start time.Time) { utils.LogOperation("IssueInvoice", start, err) }(time.Now())

	if err = validateStruct(s.validator, dto); err != nil {
		return nil, err
	}

	// Ищем договор и план до захвата картеры
	contract, err := s.contracts.FindContract(ctx, dto.ContractNumber, dto.CityCode)
	if err != nil {
		return nil, fmt.Errorf("find contract: %w", err)
	}
	if contract == nil {
		err = &LookupError{Kind: ErrContractNotFound, Key: dto.ContractNumber}
		return nil, err
	}

	var plan *models.Plan
	if contract.PlanRef != "" {
		plan, err = s.plans.FindPlan(ctx, contract.PlanRef)
		if err != nil {
			return nil, fmt.Errorf("find plan: %w", err)
		}
		if plan == nil {
			err = &LookupError{Kind: ErrPlanNotFound, Key: contract.PlanRef}
			return nil, err
		}
	}

	invoice := models.Invoice{
		ID:               dto.InvoiceID,
		InvoiceNumber:    dto.InvoiceNumber,
		ClientID:         dto.ClientID,
		Country:          dto.Country,
		CityCode:         dto.CityCode,
		Amount:           dto.Amount,
		IssueDate:        dto.IssueDate,
		FirstPaymentDate: dto.FirstPaymentDate,
	}

	key := TenantKey(dto.CityCode)
	unlock := s.locks.lock(key)
	defer unlock()

	records, warnings, err := s.loadLedger(ctx, key)
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		if r.InvoiceNumber == invoice.InvoiceNumber && r.HolderID == invoice.ClientID {
			err = fmt.Errorf("%w: %s", ErrScheduleExists, invoice.InvoiceNumber)
			return nil, err
		}
	}

	schedule := GenerateSchedule(invoice, *contract, plan, models.DateOf(s.now()))
	records = append(records, schedule.Records...)
	if err = s.ledger.Save(ctx, key, records); err != nil {
		return nil, fmt.Errorf("save ledger %s: %w", key, err)
	}

	s.metrics.RecordSchedule(len(schedule.Records))
	utils.WithTenant(dto.CityCode).Infof("invoice %s scheduled into %d records", invoice.InvoiceNumber, len(schedule.Records))

	schedule.Warnings = append(warnings, schedule.Warnings...)
	return &schedule, nil
}

// ApplyInflow зачисляет поступление на квоты и сохраняет его для возможной отмены
func (s *CarteraService) ApplyInflow(ctx context.Context, dto ApplyInflowDTO) (result *InflowResult, err error) {
	defer func(start time.Time) { utils.LogOperation("ApplyInflow", start, err) }(time.Now())

	if err = validateStruct(s.validator, dto); err != nil {
		return nil, err
	}

	inflow := models.Inflow{
		ID:               uuid.NewString(),
		CityCode:         dto.CityCode,
		Country:          dto.Country,
		Kind:             dto.Kind,
		InvoiceNumber:    dto.InvoiceNumber,
		HolderID:         dto.HolderID,
		Date:             dto.Date,
		Amount:           dto.Amount,
		InstallmentField: dto.InstallmentField,
		NotifyEmail:      dto.NotifyEmail,
		CreatedAt:        s.now(),
	}
	if inflow.Kind == "" {
		inflow.Kind = models.InflowKindCash
	}
	for _, d := range dto.Details {
		inflow.Details = append(inflow.Details, models.InflowDetail{
			InstallmentLabel: d.InstallmentLabel,
			AmountToApply:    d.AmountToApply,
			IsPartial:        d.IsPartial,
		})
	}

	key := TenantKey(dto.CityCode)
	unlock := s.locks.lock(key)
	defer unlock()

	records, warnings, err := s.loadLedger(ctx, key)
	if err != nil {
		return nil, err
	}

	settledBefore := invoiceSettled(records, inflow.InvoiceNumber, inflow.HolderID)
	before := append([]models.InstallmentRecord(nil), records...)
	payment := ApplyPayment(records, inflow)
	if err = s.ledger.Save(ctx, key, records); err != nil {
		return nil, fmt.Errorf("save ledger %s: %w", key, err)
	}

	if err = s.inflows.CreateInflow(ctx, &inflow); err != nil {
		// Без записи поступление нельзя будет аннулировать, поэтому возвращаем прежнюю картеру
		if saveErr := s.ledger.Save(ctx, key, before); saveErr != nil {
			utils.LogError("failed to roll back ledger %s after inflow %s: %v", key, inflow.ID, saveErr)
		}
		return nil, fmt.Errorf("record inflow: %w", err)
	}

	s.metrics.RecordPayment(false, len(payment.Warnings))
	s.logWarnings(dto.CityCode, payment.Warnings)

	if !settledBefore && invoiceSettled(records, inflow.InvoiceNumber, inflow.HolderID) {
		s.notifySettled(inflow, records)
	}

	payment.Warnings = append(warnings, payment.Warnings...)
	return &InflowResult{Inflow: inflow, PaymentResult: payment}, nil
}

// RevertInflow отменяет действие поступления на картеру
func (s *CarteraService) RevertInflow(ctx context.Context, inflow models.Inflow) (result *PaymentResult, err error) {
	defer func(start time.Time) { utils.LogOperation("RevertInflow", start, err) }(time.Now())

	key := TenantKey(inflow.CityCode)
	unlock := s.locks.lock(key)
	defer unlock()

	return s.revertLocked(ctx, key, inflow)
}

// revertLocked вызывается под блокировкой арендатора key
func (s *CarteraService) revertLocked(ctx context.Context, key string, inflow models.Inflow) (*PaymentResult, error) {
	records, warnings, err := s.loadLedger(ctx, key)
	if err != nil {
		return nil, err
	}

	payment := RevertPayment(records, inflow)
	if err = s.ledger.Save(ctx, key, records); err != nil {
		return nil, fmt.Errorf("save ledger %s: %w", key, err)
	}

	s.metrics.RecordPayment(true, len(payment.Warnings))
	s.logWarnings(inflow.CityCode, payment.Warnings)

	payment.Warnings = append(warnings, payment.Warnings...)
	return &payment, nil
}

// VoidInflow аннулирует ранее примененное поступление города.
// Поиск, отметка и откат картеры выполняются под одной блокировкой арендатора.
func (s *CarteraService) VoidInflow(ctx context.Context, cityCode, inflowID string) (result *InflowResult, err error) {
	defer func(start time.Time) { utils.LogOperation("VoidInflow", start, err) }(time.Now())

	key := TenantKey(cityCode)
	unlock := s.locks.lock(key)
	defer unlock()

	inflow, err := s.inflows.FindInflow(ctx, inflowID)
	if err != nil {
		return nil, fmt.Errorf("find inflow: %w", err)
	}
	if inflow == nil || inflow.CityCode != cityCode {
		err = fmt.Errorf("%w: %s", ErrInflowNotFound, inflowID)
		return nil, err
	}
	if inflow.Voided {
		err = fmt.Errorf("%w: %s", ErrInflowAlreadyVoided, inflowID)
		return nil, err
	}

	// Сначала занимаем поступление: условное обновление пропустит только одну отмену
	voidedAt := s.now()
	if err = s.inflows.MarkInflowVoided(ctx, inflow.ID, voidedAt); err != nil {
		return nil, fmt.Errorf("mark inflow voided: %w", err)
	}

	payment, err := s.revertLocked(ctx, key, *inflow)
	if err != nil {
		if undoErr := s.inflows.UnmarkInflowVoided(ctx, inflow.ID); undoErr != nil {
			utils.LogError("failed to release inflow %s after revert error: %v", inflow.ID, undoErr)
		}
		return nil, err
	}
	inflow.Voided = true
	inflow.VoidedAt = &voidedAt

	return &InflowResult{Inflow: *inflow, PaymentResult: *payment}, nil
}

// ApplyAssignment закрепляет счета за исполнителем на период
func (s *CarteraService) ApplyAssignment(ctx context.Context, dto AssignmentDTO) (result *AssignmentResult, err error) {
	defer func(start time.Time) { utils.LogOperation("ApplyAssignment", start, err) }(time.Now())

	if err = validateStruct(s.validator, dto); err != nil {
		return nil, err
	}

	assignment := models.Assignment{
		ExecutiveID:   dto.ExecutiveID,
		ExecutiveName: dto.ExecutiveName,
		Year:          dto.Year,
		Month:         dto.Month,
	}
	for _, a := range dto.Accounts {
		assignment.Accounts = append(assignment.Accounts, models.AssignmentAccount{
			InvoiceNumber:      a.InvoiceNumber,
			PendingInstallment: a.PendingInstallment,
		})
	}

	key := TenantKey(dto.CityCode)
	unlock := s.locks.lock(key)
	defer unlock()

	records, _, err := s.loadLedger(ctx, key)
	if err != nil {
		return nil, err
	}

	res := ApplyAssignment(records, assignment)
	if err = s.ledger.Save(ctx, key, records); err != nil {
		return nil, fmt.Errorf("save ledger %s: %w", key, err)
	}

	s.metrics.RecordAssignment(res.Updated)
	utils.WithTenant(dto.CityCode).Infof("executive %s assigned to %d records (%d accounts unmatched)",
		dto.ExecutiveID, res.Updated, res.Unmatched)
	return &res, nil
}

// Ledger возвращает картеру города
func (s *CarteraService) Ledger(ctx context.Context, cityCode string) (*LedgerView, error) {
	key := TenantKey(cityCode)
	unlock := s.locks.lock(key)
	defer unlock()

	records, warnings, err := s.loadLedger(ctx, key)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.InstallmentRecord{}
	}
	return &LedgerView{CityCode: cityCode, Records: records, Warnings: warnings}, nil
}

// Overdue возвращает непогашенные квоты со сроком раньше asOf, упорядоченные по сроку
func (s *CarteraService) Overdue(ctx context.Context, cityCode string, asOf models.Date) ([]models.InstallmentRecord, error) {
	view, err := s.Ledger(ctx, cityCode)
	if err != nil {
		return nil, err
	}

	overdue := []models.InstallmentRecord{}
	for _, r := range view.Records {
		if !r.IsSettled && !r.DueDate.IsZero() && r.DueDate.Before(asOf) {
			overdue = append(overdue, r)
		}
	}
	sort.SliceStable(overdue, func(i, j int) bool {
		return overdue[i].DueDate.Before(overdue[j].DueDate)
	})
	return overdue, nil
}

func (s *CarteraService) logWarnings(cityCode string, warnings []Warning) {
	for _, w := range warnings {
		utils.WithTenant(cityCode).Warnf("%s: %s (invoice %s, installment %s)",
			w.Code, w.Message, w.InvoiceNumber, w.InstallmentLabel)
	}
}

func (s *CarteraService) notifySettled(inflow models.Inflow, records []models.InstallmentRecord) {
	if s.notifier == nil || inflow.NotifyEmail == "" {
		return
	}

	total := decimal.Zero
	for _, r := range records {
		if r.InvoiceNumber == inflow.InvoiceNumber && r.HolderID == inflow.HolderID {
			total = total.Add(r.AmountPaid)
		}
	}

	// Ошибку отправки только логируем, поступление уже применено
	if err := s.notifier.SendInvoiceSettledNotification(inflow.NotifyEmail, inflow.InvoiceNumber, total); err != nil {
		utils.LogError("failed to send settled notification for invoice %s: %v", inflow.InvoiceNumber, err)
	}
}

// invoiceSettled сообщает, что у счета владельца есть записи и все они погашены
func invoiceSettled(records []models.InstallmentRecord, invoiceNumber, holderID string) bool {
	found := false
	for _, r := range records {
		if r.InvoiceNumber != invoiceNumber || r.HolderID != holderID {
			continue
		}
		if !r.IsSettled {
			return false
		}
		found = true
	}
	return found
}
