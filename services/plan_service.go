package services

import (
	"context"
	"fmt"
	"goldenapp/models"
	"strings"

	"github.com/spf13/cast"
)

// Синонимы поля с числом квот в старых записях планов, в порядке приоритета
var installmentCountFields = []string{"numCuotas", "cuotas", "numeroCuotas", "meses", "plazo"}

// PlanWriter сохраняет нормализованный план
type PlanWriter interface {
	UpsertPlan(ctx context.Context, plan *models.Plan) error
}

// NormalizePlan приводит запись плана в старом формате к models.Plan.
// Берется первое присутствующее поле с числом квот; если его нет, InstallmentCount = 0
// и график будет построен на DefaultInstallmentCount квот.
func NormalizePlan(raw map[string]interface{}) (models.Plan, error) {
	plan := models.Plan{
		Code: strings.TrimSpace(cast.ToString(firstPresent(raw, "codigo", "code", "id"))),
		Name: strings.TrimSpace(cast.ToString(firstPresent(raw, "nombre", "name"))),
	}
	if plan.Code == "" && plan.Name == "" {
		return models.Plan{}, fmt.Errorf("%w: plan needs a code or a name", ErrValidation)
	}
	if plan.Code == "" {
		plan.Code = plan.Name
	}
	if plan.Name == "" {
		plan.Name = plan.Code
	}

	value := firstPresent(raw, installmentCountFields...)
	if value == nil {
		return plan, nil
	}
	count, err := cast.ToIntE(value)
	if err != nil {
		// Числа вида "12.0" приходят из старых форм
		f, ferr := cast.ToFloat64E(value)
		if ferr != nil {
			return models.Plan{}, fmt.Errorf("%w: installment count %v is not a number", ErrValidation, value)
		}
		count = int(f)
	}
	if count < 0 {
		return models.Plan{}, fmt.Errorf("%w: installment count %d is negative", ErrValidation, count)
	}
	if count > models.MaxInstallmentCount {
		return models.Plan{}, fmt.Errorf("%w: installment count %d exceeds %d", ErrValidation, count, models.MaxInstallmentCount)
	}
	plan.InstallmentCount = count
	return plan, nil
}

// ImportPlan нормализует и сохраняет план из старого формата
func ImportPlan(ctx context.Context, writer PlanWriter, raw map[string]interface{}) (*models.Plan, error) {
	plan, err := NormalizePlan(raw)
	if err != nil {
		return nil, err
	}
	if err := writer.UpsertPlan(ctx, &plan); err != nil {
		return nil, fmt.Errorf("save plan %s: %w", plan.Code, err)
	}
	return &plan, nil
}

func firstPresent(raw map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil && cast.ToString(v) != "" {
			return v
		}
	}
	return nil
}
