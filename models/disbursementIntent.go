package models

import (
	"context"
	"errors"
	"time"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DisbursementIntent struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;not null" json:"business_id"`
	FundingId      int             `gorm:"index;not null" json:"funding_id"`
	PayeeAccountId int             `gorm:"index;not null" json:"payee_account_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	ScheduledDate  time.Time       `gorm:"not null" json:"scheduled_date"`
	Method         PaymentMethod   `gorm:"type:enum('ACH','Wire','Check','Card','Other');not null;default:'ACH'" json:"method"`
	Status         IntentStatus    `gorm:"type:enum('Pending','Approved','Rejected','Cancelled');not null;default:'Pending';index" json:"status"`
	ApprovedBy     string          `gorm:"size:100" json:"approved_by"`
	ApprovedAt     *time.Time      `json:"approved_at"`
	DisbursementId int             `gorm:"default:0" json:"disbursement_id"`
	// set when the posting of the approved disbursement went dead
	NeedsReview *bool     `gorm:"not null;default:false" json:"needs_review"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDisbursementIntent struct {
	FundingId      int           `json:"funding_id" binding:"required"`
	PayeeAccountId int           `json:"payee_account_id"`
	Amount         utils.Money   `json:"amount" binding:"required"`
	ScheduledDate  string        `json:"scheduled_date"`
	Method         PaymentMethod `json:"method"`
	Notes          string        `json:"notes"`
}

type IntentFilter struct {
	FundingId *int
	Status    *IntentStatus
}

func (d DisbursementIntent) GetBusinessId() string {
	return d.BusinessId
}

func (d DisbursementIntent) GetId() int {
	return d.ID
}

func (d DisbursementIntent) GetCursor() string {
	return timeCursor(d.CreatedAt)
}

// committedDisbursementAmount is completed disbursements plus pending intents.
func committedDisbursementAmount(tx *gorm.DB, businessId string, fundingId int, exceptIntentId int) (decimal.Decimal, error) {
	disbursed, err := sumColumn(tx, &Disbursement{}, "business_id = ? AND funding_id = ? AND status = ?",
		businessId, fundingId, DisbursementStatusCompleted)
	if err != nil {
		return decimal.Zero, err
	}
	pending, err := sumColumn(tx, &DisbursementIntent{}, "business_id = ? AND funding_id = ? AND status = ? AND NOT id = ?",
		businessId, fundingId, IntentStatusPending, exceptIntentId)
	if err != nil {
		return decimal.Zero, err
	}
	return disbursed.Add(pending), nil
}

// CheckDisbursementCapacity keeps disbursed and pending amounts within the advance.
func CheckDisbursementCapacity(advance, committed, amount decimal.Decimal) error {
	if committed.Add(amount).GreaterThan(advance) {
		return errors.New("disbursement exceeds advance amount")
	}
	return nil
}

func disbursableFunding(funding *Funding) error {
	if funding.Status != FundingStatusApproved && funding.Status != FundingStatusFunded {
		return errors.New("funding must be approved before disbursement")
	}
	return nil
}

func (input *NewDisbursementIntent) resolve(ctx context.Context, businessId string, funding *Funding) (time.Time, error) {
	if input.Method == "" {
		input.Method = PaymentMethodACH
	}
	if input.PayeeAccountId <= 0 {
		input.PayeeAccountId = funding.MerchantId
	} else if err := utils.ValidateResourceId[Account](ctx, businessId, input.PayeeAccountId); err != nil {
		return time.Time{}, errors.New("payee account not found")
	}
	if input.ScheduledDate == "" {
		return businessDate(ctx, businessId, time.Now().UTC())
	}
	d, err := parseBusinessDate(ctx, businessId, input.ScheduledDate)
	if err != nil {
		return time.Time{}, errors.New("invalid scheduled date")
	}
	return d, nil
}

func CreateDisbursementIntent(ctx context.Context, input *NewDisbursementIntent) (*DisbursementIntent, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requirePositive("amount", input.Amount.Decimal); err != nil {
		return nil, err
	}
	var intent DisbursementIntent
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		funding, err := lockFunding(tx, businessId, input.FundingId)
		if err != nil {
			return err
		}
		if err := disbursableFunding(funding); err != nil {
			return err
		}
		scheduled, err := input.resolve(ctx, businessId, funding)
		if err != nil {
			return err
		}
		committed, err := committedDisbursementAmount(tx, businessId, funding.ID, 0)
		if err != nil {
			return err
		}
		if err := CheckDisbursementCapacity(funding.AdvanceAmount, committed, input.Amount.Decimal); err != nil {
			return err
		}
		intent = DisbursementIntent{
			BusinessId:     businessId,
			FundingId:      funding.ID,
			PayeeAccountId: input.PayeeAccountId,
			Amount:         input.Amount.Decimal,
			ScheduledDate:  scheduled,
			Method:         input.Method,
			Status:         IntentStatusPending,
			NeedsReview:    utils.NewFalse(),
			Notes:          input.Notes,
		}
		return tx.Create(&intent).Error
	})
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func UpdateDisbursementIntent(ctx context.Context, id int, input *NewDisbursementIntent) (*DisbursementIntent, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	oldIntent, err := utils.FetchModel[DisbursementIntent](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if oldIntent.Status != IntentStatusPending {
		return nil, errors.New("only pending intents can be edited")
	}
	if input.FundingId != oldIntent.FundingId {
		return nil, errors.New("intent cannot move to another funding")
	}
	if err := requirePositive("amount", input.Amount.Decimal); err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		funding, err := lockFunding(tx, businessId, oldIntent.FundingId)
		if err != nil {
			return err
		}
		scheduled, err := input.resolve(ctx, businessId, funding)
		if err != nil {
			return err
		}
		committed, err := committedDisbursementAmount(tx, businessId, funding.ID, id)
		if err != nil {
			return err
		}
		if err := CheckDisbursementCapacity(funding.AdvanceAmount, committed, input.Amount.Decimal); err != nil {
			return err
		}
		return tx.Model(oldIntent).Updates(map[string]interface{}{
			"PayeeAccountId": input.PayeeAccountId,
			"Amount":         input.Amount.Decimal,
			"ScheduledDate":  scheduled,
			"Method":         input.Method,
			"Notes":          input.Notes,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[DisbursementIntent](ctx, businessId, id)
}

// lockPendingIntent loads the intent for update and requires it to be Pending.
func lockPendingIntent(tx *gorm.DB, businessId string, id int) (*DisbursementIntent, error) {
	intent, err := utils.FetchModelTx[DisbursementIntent](tx.Clauses(lockingClause()), businessId, id)
	if err != nil {
		return nil, err
	}
	if intent.Status != IntentStatusPending {
		return nil, errors.New("intent is " + string(intent.Status))
	}
	return intent, nil
}

// ApproveDisbursementIntent records the disbursement in the same transaction.
func ApproveDisbursementIntent(ctx context.Context, id int) (*DisbursementIntent, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	approvedBy, _ := utils.GetUserNameFromContext(ctx)
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		intent, err := lockPendingIntent(tx, businessId, id)
		if err != nil {
			return err
		}
		funding, err := lockFunding(tx, businessId, intent.FundingId)
		if err != nil {
			return err
		}
		if err := disbursableFunding(funding); err != nil {
			return err
		}
		committed, err := committedDisbursementAmount(tx, businessId, funding.ID, id)
		if err != nil {
			return err
		}
		if err := CheckDisbursementCapacity(funding.AdvanceAmount, committed, intent.Amount); err != nil {
			return err
		}
		disbursement, err := insertDisbursement(ctx, tx, Disbursement{
			BusinessId:           businessId,
			FundingId:            funding.ID,
			DisbursementIntentId: intent.ID,
			PayeeAccountId:       intent.PayeeAccountId,
			Amount:               intent.Amount,
			DisbursedDate:        intent.ScheduledDate,
			Method:               intent.Method,
		})
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		return tx.Model(intent).Updates(map[string]interface{}{
			"Status":         IntentStatusApproved,
			"ApprovedBy":     approvedBy,
			"ApprovedAt":     &now,
			"DisbursementId": disbursement.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[DisbursementIntent](ctx, businessId, id)
}

func closeDisbursementIntent(ctx context.Context, id int, status IntentStatus) (*DisbursementIntent, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		intent, err := lockPendingIntent(tx, businessId, id)
		if err != nil {
			return err
		}
		return tx.Model(intent).Updates(map[string]interface{}{"Status": status}).Error
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[DisbursementIntent](ctx, businessId, id)
}

func RejectDisbursementIntent(ctx context.Context, id int) (*DisbursementIntent, error) {
	return closeDisbursementIntent(ctx, id, IntentStatusRejected)
}

func CancelDisbursementIntent(ctx context.Context, id int) (*DisbursementIntent, error) {
	return closeDisbursementIntent(ctx, id, IntentStatusCancelled)
}

// FlagDisbursementForReview marks the approved intent behind a disbursement whose posting died.
func FlagDisbursementForReview(tx *gorm.DB, businessId string, disbursementId int) error {
	return tx.Model(&DisbursementIntent{}).
		Where("business_id = ? AND disbursement_id = ? AND status = ?", businessId, disbursementId, IntentStatusApproved).
		UpdateColumn("needs_review", true).Error
}

func GetDisbursementIntent(ctx context.Context, id int) (*DisbursementIntent, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[DisbursementIntent](ctx, businessId, id)
}

func PaginateDisbursementIntents(ctx context.Context, limit *int, after *string, filter IntentFilter, needsReview *bool) (*Connection[DisbursementIntent], error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := filter.apply(config.GetDB().WithContext(ctx).Model(&DisbursementIntent{}).Where("business_id = ?", businessId))
	if needsReview != nil {
		dbCtx = dbCtx.Where("needs_review = ?", *needsReview)
	}
	return Paginate[DisbursementIntent](dbCtx, limit, after)
}

func (f IntentFilter) apply(dbCtx *gorm.DB) *gorm.DB {
	if f.FundingId != nil && *f.FundingId > 0 {
		dbCtx = dbCtx.Where("funding_id = ?", *f.FundingId)
	}
	if f.Status != nil && *f.Status != "" {
		dbCtx = dbCtx.Where("status = ?", *f.Status)
	}
	return dbCtx
}
