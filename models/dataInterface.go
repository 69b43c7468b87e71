package models

import (
	"time"

	"github.com/mcaservicing/mca_backend/utils"
	"github.com/shopspring/decimal"
)

type Identifier interface {
	GetId() int
}

// interface for dataloader result
type Data interface {
	Identifier
	GetDefault(int) Data
}

// key
func (a Account) GetId() int {
	return a.ID
}

// placeholder for an id that no longer resolves, e.g. a deleted payee
func (a Account) GetDefault(id int) Data {
	return Account{
		ID:        id,
		IsActive:  utils.NewFalse(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (f Funding) GetDefault(id int) Data {
	return Funding{
		ID:            id,
		Status:        FundingStatusCancelled,
		AdvanceAmount: decimal.Zero,
		PaybackAmount: decimal.Zero,
		Balance:       decimal.Zero,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

// loader loading more than one model by one id
type RelatedData interface {
	GetReferenceId() int
}
