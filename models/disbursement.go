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

type Disbursement struct {
	ID                   int                `gorm:"primary_key" json:"id"`
	BusinessId           string             `gorm:"index;not null" json:"business_id"`
	FundingId            int                `gorm:"index;not null" json:"funding_id"`
	DisbursementIntentId int                `gorm:"index;default:0" json:"disbursement_intent_id"`
	PayeeAccountId       int                `gorm:"index;not null" json:"payee_account_id"`
	Amount               decimal.Decimal    `gorm:"type:decimal(20,4);not null" json:"amount"`
	DisbursedDate        time.Time          `gorm:"not null" json:"disbursed_date"`
	Method               PaymentMethod      `gorm:"type:enum('ACH','Wire','Check','Card','Other');not null;default:'ACH'" json:"method"`
	ReferenceNumber      string             `gorm:"size:100" json:"reference_number"`
	Status               DisbursementStatus `gorm:"type:enum('Completed','Reversed');not null;default:'Completed';index" json:"status"`
	Notes                string             `gorm:"type:text" json:"notes"`
	CreatedAt            time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDisbursement struct {
	FundingId       int           `json:"funding_id" binding:"required"`
	PayeeAccountId  int           `json:"payee_account_id"`
	Amount          utils.Money   `json:"amount" binding:"required"`
	DisbursedDate   string        `json:"disbursed_date"`
	Method          PaymentMethod `json:"method"`
	ReferenceNumber string        `json:"reference_number" binding:"max=100"`
	Notes           string        `json:"notes"`
}

func (d Disbursement) GetBusinessId() string {
	return d.BusinessId
}

func (d Disbursement) GetId() int {
	return d.ID
}

func (d Disbursement) GetCursor() string {
	return timeCursor(d.CreatedAt)
}

func insertDisbursement(ctx context.Context, tx *gorm.DB, disbursement Disbursement) (*Disbursement, error) {
	disbursement.Status = DisbursementStatusCompleted
	if err := tx.Create(&disbursement).Error; err != nil {
		return nil, err
	}
	if err := PublishToOutbox(ctx, tx, disbursement.BusinessId, disbursement.DisbursedDate, disbursement.ID,
		OutboxReferenceTypeDisbursement, disbursement, nil, PubSubMessageActionCreate); err != nil {
		return nil, err
	}
	return &disbursement, nil
}

// CreateDisbursement records a disbursement without an intent.
func CreateDisbursement(ctx context.Context, input *NewDisbursement) (*Disbursement, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requirePositive("amount", input.Amount.Decimal); err != nil {
		return nil, err
	}
	if input.Method == "" {
		input.Method = PaymentMethodACH
	}
	var disbursedDate time.Time
	if input.DisbursedDate == "" {
		disbursedDate, err = businessDate(ctx, businessId, time.Now().UTC())
	} else {
		disbursedDate, err = parseBusinessDate(ctx, businessId, input.DisbursedDate)
	}
	if err != nil {
		return nil, errors.New("invalid disbursed date")
	}

	var result *Disbursement
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		funding, err := lockFunding(tx, businessId, input.FundingId)
		if err != nil {
			return err
		}
		if err := disbursableFunding(funding); err != nil {
			return err
		}
		payee := input.PayeeAccountId
		if payee <= 0 {
			payee = funding.MerchantId
		} else if _, err := utils.FetchModelTx[Account](tx, businessId, payee); err != nil {
			return errors.New("payee account not found")
		}
		committed, err := committedDisbursementAmount(tx, businessId, funding.ID, 0)
		if err != nil {
			return err
		}
		if err := CheckDisbursementCapacity(funding.AdvanceAmount, committed, input.Amount.Decimal); err != nil {
			return err
		}
		result, err = insertDisbursement(ctx, tx, Disbursement{
			BusinessId:      businessId,
			FundingId:       funding.ID,
			PayeeAccountId:  payee,
			Amount:          input.Amount.Decimal,
			DisbursedDate:   disbursedDate,
			Method:          input.Method,
			ReferenceNumber: input.ReferenceNumber,
			Notes:           input.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReverseDisbursement takes a completed disbursement out of the ledger.
func ReverseDisbursement(ctx context.Context, id int) (*Disbursement, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		disbursement, err := utils.FetchModelTx[Disbursement](tx.Clauses(lockingClause()), businessId, id)
		if err != nil {
			return err
		}
		if disbursement.Status != DisbursementStatusCompleted {
			return errors.New("disbursement is already reversed")
		}
		if _, err := lockFunding(tx, businessId, disbursement.FundingId); err != nil {
			return err
		}
		oldDisbursement := *disbursement
		if err := tx.Model(disbursement).Updates(map[string]interface{}{"Status": DisbursementStatusReversed}).Error; err != nil {
			return err
		}
		disbursement.Status = DisbursementStatusReversed
		return PublishToOutbox(ctx, tx, businessId, disbursement.DisbursedDate, id, OutboxReferenceTypeDisbursement, disbursement, oldDisbursement, PubSubMessageActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Disbursement](ctx, businessId, id)
}

func GetDisbursement(ctx context.Context, id int) (*Disbursement, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Disbursement](ctx, businessId, id)
}

func PaginateDisbursements(ctx context.Context, limit *int, after *string, fundingId *int, status *DisbursementStatus) (*Connection[Disbursement], error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Model(&Disbursement{}).Where("business_id = ?", businessId)
	if fundingId != nil && *fundingId > 0 {
		dbCtx = dbCtx.Where("funding_id = ?", *fundingId)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	return Paginate[Disbursement](dbCtx, limit, after)
}
