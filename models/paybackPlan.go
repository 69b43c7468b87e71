package models

import (
	"context"
	"errors"
	"time"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/schedule"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaybackPlan struct {
	ID                int                `gorm:"primary_key" json:"id"`
	BusinessId        string             `gorm:"index;not null" json:"business_id"`
	FundingId         int                `gorm:"index;not null" json:"funding_id"`
	StartDate         time.Time          `gorm:"type:date;not null" json:"start_date"`
	Frequency         schedule.Frequency `gorm:"type:enum('DAILY','WEEKLY','MONTHLY');not null" json:"frequency"`
	PaydayList        string             `gorm:"size:50;not null" json:"payday_list"`
	PaybackCount      int                `gorm:"not null" json:"payback_count"`
	InstallmentAmount decimal.Decimal    `gorm:"type:decimal(20,4);not null" json:"installment_amount"`
	NextPaybackDate   *time.Time         `gorm:"type:date;index" json:"next_payback_date"`
	ScheduledEndDate  *time.Time         `gorm:"type:date" json:"scheduled_end_date"`
	Status            PaybackPlanStatus  `gorm:"type:enum('Active','Paused','Completed','Cancelled');not null;default:'Active';index" json:"status"`
	Notes             string             `gorm:"type:text" json:"notes"`
	CreatedAt         time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPaybackPlan struct {
	FundingId         int               `json:"funding_id" binding:"required"`
	StartDate         string            `json:"start_date" binding:"required"`
	Frequency         string            `json:"frequency" binding:"required"`
	PaydayList        string            `json:"payday_list" binding:"required"`
	PaybackCount      int               `json:"payback_count" binding:"required,gt=0"`
	InstallmentAmount utils.Money       `json:"installment_amount"`
	Status            PaybackPlanStatus `json:"status"`
	Notes             string            `json:"notes"`
}

func (p PaybackPlan) GetBusinessId() string {
	return p.BusinessId
}

func (p PaybackPlan) GetId() int {
	return p.ID
}

func (p PaybackPlan) GetCursor() string {
	return timeCursor(p.CreatedAt)
}

// ScheduleInput converts the stored plan for the calculator.
func (p PaybackPlan) ScheduleInput() schedule.Input {
	days, _ := schedule.ParsePaydayList(p.PaydayList)
	return schedule.Input{
		StartDate:    calendarDate(p.StartDate),
		Frequency:    p.Frequency,
		PaydayList:   days,
		PaybackCount: p.PaybackCount,
	}
}

// DefaultInstallment splits the payback amount evenly across the count.
func DefaultInstallment(payback decimal.Decimal, count int) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return utils.RoundMoney(payback.Div(decimal.NewFromInt(int64(count))))
}

// calendarDate keeps the calendar day of t as seen in t's own location and
// returns it as UTC midnight. Plan dates are stored this way so the DATE
// columns read back (loc=UTC) as the same day in every business timezone.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// planDates returns the persisted next and end dates; nil when the calculator has none.
func planDates(in schedule.Input, today time.Time) (next *time.Time, end *time.Time) {
	if t, ok := schedule.NextPaybackTime(in, today); ok {
		d := calendarDate(t)
		next = &d
	}
	if t, ok := schedule.ScheduledEndTime(in); ok {
		d := calendarDate(t)
		end = &d
	}
	return next, end
}

func (input *NewPaybackPlan) scheduleInput(ctx context.Context, businessId string) (schedule.Input, error) {
	start, err := parseBusinessDate(ctx, businessId, input.StartDate)
	if err != nil {
		return schedule.Input{}, errors.New("invalid start date")
	}
	frequency, err := schedule.ParseFrequency(input.Frequency)
	if err != nil {
		return schedule.Input{}, err
	}
	days, err := schedule.ParsePaydayList(input.PaydayList)
	if err != nil {
		return schedule.Input{}, err
	}
	in := schedule.Input{
		StartDate:    calendarDate(start),
		Frequency:    frequency,
		PaydayList:   days,
		PaybackCount: input.PaybackCount,
	}
	if err := in.Validate(); err != nil {
		return schedule.Input{}, err
	}
	return in, nil
}

func validatePlanFunding(funding *Funding) error {
	switch funding.Status {
	case FundingStatusCancelled, FundingStatusPaidOff:
		return errors.New("funding is " + string(funding.Status))
	}
	return nil
}

// only one Active plan per funding
func ensureSingleActivePlan(tx *gorm.DB, businessId string, fundingId int, exceptId int) error {
	var count int64
	if err := tx.Model(&PaybackPlan{}).
		Where("business_id = ? AND funding_id = ? AND status = ? AND NOT id = ?", businessId, fundingId, PaybackPlanStatusActive, exceptId).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("funding already has an active payback plan")
	}
	return nil
}

func CreatePaybackPlan(ctx context.Context, input *NewPaybackPlan) (*PaybackPlan, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	in, err := input.scheduleInput(ctx, businessId)
	if err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = PaybackPlanStatusActive
	}
	if status != PaybackPlanStatusActive && status != PaybackPlanStatusPaused {
		return nil, errors.New("new plans must be Active or Paused")
	}

	next, end := planDates(in, BusinessToday(ctx, businessId))

	var plan PaybackPlan
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		funding, err := lockFunding(tx, businessId, input.FundingId)
		if err != nil {
			return err
		}
		if err := validatePlanFunding(funding); err != nil {
			return err
		}
		if status == PaybackPlanStatusActive {
			if err := ensureSingleActivePlan(tx, businessId, funding.ID, 0); err != nil {
				return err
			}
		}
		installment := input.InstallmentAmount.Decimal
		if installment.IsZero() {
			installment = DefaultInstallment(funding.PaybackAmount, in.PaybackCount)
		}
		if err := requirePositive("installment amount", installment); err != nil {
			return err
		}

		plan = PaybackPlan{
			BusinessId:        businessId,
			FundingId:         funding.ID,
			StartDate:         in.StartDate,
			Frequency:         in.Frequency,
			PaydayList:        schedule.FormatPaydayList(in.PaydayList),
			PaybackCount:      in.PaybackCount,
			InstallmentAmount: installment,
			NextPaybackDate:   next,
			ScheduledEndDate:  end,
			Status:            status,
			Notes:             input.Notes,
		}
		if err := tx.Create(&plan).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, plan.StartDate, plan.ID, OutboxReferenceTypePaybackPlan, plan, nil, PubSubMessageActionCreate)
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func UpdatePaybackPlan(ctx context.Context, id int, input *NewPaybackPlan) (*PaybackPlan, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	oldPlan, err := utils.FetchModel[PaybackPlan](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if input.FundingId != oldPlan.FundingId {
		return nil, errors.New("payback plan cannot move to another funding")
	}
	if oldPlan.Status == PaybackPlanStatusCompleted || oldPlan.Status == PaybackPlanStatusCancelled {
		return nil, errors.New("payback plan is " + string(oldPlan.Status))
	}
	in, err := input.scheduleInput(ctx, businessId)
	if err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = oldPlan.Status
	}

	next, end := planDates(in, BusinessToday(ctx, businessId))

	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		funding, err := lockFunding(tx, businessId, oldPlan.FundingId)
		if err != nil {
			return err
		}
		if status == PaybackPlanStatusActive {
			if err := validatePlanFunding(funding); err != nil {
				return err
			}
			if err := ensureSingleActivePlan(tx, businessId, funding.ID, id); err != nil {
				return err
			}
		}
		installment := input.InstallmentAmount.Decimal
		if installment.IsZero() {
			installment = DefaultInstallment(funding.PaybackAmount, in.PaybackCount)
		}
		if err := requirePositive("installment amount", installment); err != nil {
			return err
		}
		if status != PaybackPlanStatusActive {
			next = nil
		}
		if err := tx.Model(oldPlan).Updates(map[string]interface{}{
			"StartDate":         in.StartDate,
			"Frequency":         in.Frequency,
			"PaydayList":        schedule.FormatPaydayList(in.PaydayList),
			"PaybackCount":      in.PaybackCount,
			"InstallmentAmount": installment,
			"NextPaybackDate":   next,
			"ScheduledEndDate":  end,
			"Status":            status,
			"Notes":             input.Notes,
		}).Error; err != nil {
			return err
		}
		var plan PaybackPlan
		if err := tx.First(&plan, id).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, plan.StartDate, id, OutboxReferenceTypePaybackPlan, plan, oldPlan, PubSubMessageActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[PaybackPlan](ctx, businessId, id)
}

func DeletePaybackPlan(ctx context.Context, id int) (*PaybackPlan, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := utils.FetchModel[PaybackPlan](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	count, err := utils.ResourceCountWhere[Payback](ctx, businessId, "payback_plan_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("payback plan with paybacks cannot be deleted, cancel it instead")
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(plan).Error; err != nil {
			return err
		}
		return PublishToOutbox(ctx, tx, businessId, plan.StartDate, id, OutboxReferenceTypePaybackPlan, nil, plan, PubSubMessageActionDelete)
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func GetPaybackPlan(ctx context.Context, id int) (*PaybackPlan, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[PaybackPlan](ctx, businessId, id)
}

func PaginatePaybackPlans(ctx context.Context, limit *int, after *string, fundingId *int, status *PaybackPlanStatus) (*Connection[PaybackPlan], error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Model(&PaybackPlan{}).Where("business_id = ?", businessId)
	if fundingId != nil && *fundingId > 0 {
		dbCtx = dbCtx.Where("funding_id = ?", *fundingId)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	return Paginate[PaybackPlan](dbCtx, limit, after)
}

// activePlan returns the Active plan of a funding, or nil.
func activePlan(tx *gorm.DB, businessId string, fundingId int) (*PaybackPlan, error) {
	var plan PaybackPlan
	err := tx.Where("business_id = ? AND funding_id = ? AND status = ?", businessId, fundingId, PaybackPlanStatusActive).
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// RefreshPaybackPlanDates recomputes the Active plan's next and end dates against today.
// It writes columns directly and leaves no history row; it runs inside ledger posting.
func RefreshPaybackPlanDates(tx *gorm.DB, businessId string, fundingId int, today time.Time) (*PaybackPlan, error) {
	plan, err := activePlan(tx, businessId, fundingId)
	if err != nil || plan == nil {
		return plan, err
	}
	next, end := planDates(plan.ScheduleInput(), today)
	if err := tx.Model(&PaybackPlan{}).Where("id = ?", plan.ID).UpdateColumns(map[string]interface{}{
		"next_payback_date":  next,
		"scheduled_end_date": end,
	}).Error; err != nil {
		return nil, err
	}
	plan.NextPaybackDate = next
	plan.ScheduledEndDate = end
	return plan, nil
}

// RefreshBusinessPaybackPlanDates sweeps every Active plan of a business, used by the daily job.
func RefreshBusinessPaybackPlanDates(ctx context.Context, businessId string) (int, error) {
	db := config.GetDB().WithContext(ctx)
	var fundingIds []int
	if err := db.Model(&PaybackPlan{}).
		Where("business_id = ? AND status = ?", businessId, PaybackPlanStatusActive).
		Distinct().Pluck("funding_id", &fundingIds).Error; err != nil {
		return 0, err
	}
	today := BusinessToday(ctx, businessId)
	refreshed := 0
	for _, fundingId := range fundingIds {
		if _, err := RefreshPaybackPlanDates(db, businessId, fundingId, today); err != nil {
			return refreshed, err
		}
		refreshed++
	}
	return refreshed, nil
}

// InstallmentRow is one line of an installment schedule.
type InstallmentRow struct {
	Number     int             `json:"number"`
	DueDate    string          `json:"due_date"`
	Amount     decimal.Decimal `json:"amount"`
	Cumulative decimal.Decimal `json:"cumulative"`
	Remaining  decimal.Decimal `json:"remaining"`
}

// BuildInstallmentSchedule spreads total over the plan's paydays. Every row
// carries the installment amount except the last, which takes the remainder.
func BuildInstallmentSchedule(in schedule.Input, total decimal.Decimal, installment decimal.Decimal) []InstallmentRow {
	dates := schedule.Installments(in)
	if len(dates) == 0 {
		return nil
	}
	if installment.IsZero() {
		installment = DefaultInstallment(total, len(dates))
	}
	rows := make([]InstallmentRow, 0, len(dates))
	cumulative := decimal.Zero
	for i, d := range dates {
		amount := installment
		remainingBefore := total.Sub(cumulative)
		if i == len(dates)-1 || amount.GreaterThan(remainingBefore) {
			amount = remainingBefore
		}
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		cumulative = cumulative.Add(amount)
		rows = append(rows, InstallmentRow{
			Number:     i + 1,
			DueDate:    d.Format(schedule.DateLayout),
			Amount:     amount,
			Cumulative: cumulative,
			Remaining:  total.Sub(cumulative),
		})
	}
	return rows
}

// SchedulePreview is the response of the plan preview endpoint.
type SchedulePreview struct {
	schedule.Result
	InstallmentAmount decimal.Decimal  `json:"installment_amount"`
	Installments      []InstallmentRow `json:"installments"`
}

type PreviewPaybackPlan struct {
	StartDate     string      `json:"start_date"`
	Frequency     string      `json:"frequency"`
	PaydayList    string      `json:"payday_list"`
	PaybackCount  int         `json:"payback_count"`
	PaybackAmount utils.Money `json:"payback_amount"`
	FundingId     int         `json:"funding_id"`
}

// PreviewSchedule never fails on incomplete input: missing pieces give empty dates.
func PreviewSchedule(ctx context.Context, input *PreviewPaybackPlan) (*SchedulePreview, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	in := schedule.Input{PaybackCount: input.PaybackCount}
	if input.StartDate != "" {
		if d, err := parseBusinessDate(ctx, businessId, input.StartDate); err == nil {
			in.StartDate = calendarDate(d)
		}
	}
	if f, err := schedule.ParseFrequency(input.Frequency); err == nil {
		in.Frequency = f
	}
	if days, err := schedule.ParsePaydayList(input.PaydayList); err == nil {
		in.PaydayList = days
	}

	total := input.PaybackAmount.Decimal
	if total.IsZero() && input.FundingId > 0 {
		funding, err := utils.FetchModel[Funding](ctx, businessId, input.FundingId)
		if err != nil {
			return nil, err
		}
		total = funding.PaybackAmount
	}
	preview := SchedulePreview{
		Result:            schedule.Calculate(in, BusinessToday(ctx, businessId)),
		InstallmentAmount: DefaultInstallment(total, in.PaybackCount),
	}
	if total.IsPositive() {
		preview.Installments = BuildInstallmentSchedule(in, total, preview.InstallmentAmount)
	}
	return &preview, nil
}
