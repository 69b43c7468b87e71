package models

import (
	"context"
	"fmt"

	"github.com/mcaservicing/mca_backend/utils"
	"gorm.io/gorm"
)

func userIdFromContext(ctx context.Context) (int, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := utils.GetUserIdFromContext(ctx)
	return id, ok && id > 0
}

func (a *Account) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, a.ID, a, fmt.Sprintf("Created %s %s.", a.AccountType.Label(), a.Name))
}

func (a *Account) BeforeUpdate(tx *gorm.DB) (err error) {
	description := "Account Updated."
	if tx.Statement.Changed("Name") {
		description += " Name changed from " + a.Name + "."
	}
	return SaveHistoryUpdate(tx, a.ID, a, description)
}

func (a *Account) AfterDelete(tx *gorm.DB) (err error) {
	return SaveHistoryDelete(tx, a.ID, a, "Deleted "+a.AccountType.Label()+" "+a.Name)
}

func (a *Address) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, a.ID, a, "Created Address")
}

func (a *Address) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, a.ID, a, "Updated Address")
}

func (a *Address) AfterDelete(tx *gorm.DB) (err error) {
	if a.ID == 0 {
		return nil
	}
	return SaveHistoryDelete(tx, a.ID, a, "Deleted Address")
}

func (b *BusinessDetail) AfterSave(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, b.AccountId, b, "Saved Business Detail")
}

func (f *Funding) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, f.ID, f, describeAmountCreated("Funding "+f.FundingNumber, f.AdvanceAmount))
}

func (f *Funding) BeforeUpdate(tx *gorm.DB) (err error) {
	description := "Funding Updated."
	if tx.Statement.Changed("Status") {
		if dest, ok := tx.Statement.Dest.(map[string]interface{}); ok {
			description = fmt.Sprintf("Funding status changed from %s to %v.", f.Status, dest["Status"])
		}
	} else if tx.Statement.Changed("AdvanceAmount") {
		description += " Advance amount changed from " + f.AdvanceAmount.StringFixed(2) + "."
	}
	return SaveHistoryUpdate(tx, f.ID, f, description)
}

func (f *Funding) AfterDelete(tx *gorm.DB) (err error) {
	return SaveHistoryDelete(tx, f.ID, f, "Deleted Funding "+f.FundingNumber)
}

func (p *PaybackPlan) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, p.ID, p, fmt.Sprintf("Payback Plan created, %d %s paybacks of %s.", p.PaybackCount, p.Frequency, p.InstallmentAmount.StringFixed(2)))
}

func (p *PaybackPlan) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, p.ID, p, "Payback Plan Updated.")
}

func (p *PaybackPlan) AfterDelete(tx *gorm.DB) (err error) {
	if p.ID == 0 {
		return nil
	}
	return SaveHistoryDelete(tx, p.ID, p, "Deleted Payback Plan")
}

func (p *Payback) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, p.ID, p, describeAmountCreated("Payback", p.Amount))
}

func (p *Payback) BeforeUpdate(tx *gorm.DB) (err error) {
	description := "Payback Updated."
	if tx.Statement.Changed("Status") {
		description += " Status changed from " + string(p.Status) + "."
	}
	return SaveHistoryUpdate(tx, p.ID, p, description)
}

func (p *Payback) AfterDelete(tx *gorm.DB) (err error) {
	return SaveHistoryDelete(tx, p.ID, p, "Deleted Payback")
}

func (d *DisbursementIntent) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, d.ID, d, describeAmountCreated("Disbursement Intent", d.Amount))
}

func (d *DisbursementIntent) BeforeUpdate(tx *gorm.DB) (err error) {
	description := "Disbursement Intent Updated."
	if tx.Statement.Changed("Status") {
		if dest, ok := tx.Statement.Dest.(map[string]interface{}); ok {
			description = fmt.Sprintf("Disbursement Intent %v.", dest["Status"])
		}
	}
	return SaveHistoryUpdate(tx, d.ID, d, description)
}

func (d *DisbursementIntent) AfterDelete(tx *gorm.DB) (err error) {
	if d.ID == 0 {
		return nil
	}
	return SaveHistoryDelete(tx, d.ID, d, "Deleted Disbursement Intent")
}

func (d *Disbursement) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, d.ID, d, describeAmountCreated("Disbursement", d.Amount))
}

func (d *Disbursement) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, d.ID, d, "Disbursement Updated.")
}

func (c *CommissionIntent) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, c.ID, c, describeAmountCreated("Commission Intent", c.Amount))
}

func (c *CommissionIntent) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, c.ID, c, "Commission Intent Updated.")
}

func (c *CommissionIntent) AfterDelete(tx *gorm.DB) (err error) {
	if c.ID == 0 {
		return nil
	}
	return SaveHistoryDelete(tx, c.ID, c, "Deleted Commission Intent")
}

func (c *Commission) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, c.ID, c, describeAmountCreated("Commission", c.Amount))
}

func (c *Commission) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, c.ID, c, "Commission Updated.")
}

func (f *Fee) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, f.ID, f, describeAmountCreated(string(f.FeeType)+" Fee", f.Amount))
}

func (f *Fee) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, f.ID, f, "Fee Updated.")
}

func (f *Fee) AfterDelete(tx *gorm.DB) (err error) {
	if f.ID == 0 {
		return nil
	}
	return SaveHistoryDelete(tx, f.ID, f, "Deleted Fee")
}

func (c *Credit) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, c.ID, c, describeAmountCreated("Credit", c.Amount))
}

func (c *Credit) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, c.ID, c, "Credit Updated.")
}

func (c *Credit) AfterDelete(tx *gorm.DB) (err error) {
	if c.ID == 0 {
		return nil
	}
	return SaveHistoryDelete(tx, c.ID, c, "Deleted Credit")
}

func (s *Syndication) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, s.ID, s, describeAmountCreated("Syndication", s.ParticipationAmount))
}

func (s *Syndication) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, s.ID, s, "Syndication Updated.")
}

func (s *Syndication) AfterDelete(tx *gorm.DB) (err error) {
	if s.ID == 0 {
		return nil
	}
	return SaveHistoryDelete(tx, s.ID, s, "Deleted Syndication")
}

func (d *Document) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, d.ID, d, "Uploaded "+d.FileName)
}

func (d *Document) AfterDelete(tx *gorm.DB) (err error) {
	if d.ID == 0 {
		return nil
	}
	return SaveHistoryDelete(tx, d.ID, d, "Deleted "+d.FileName)
}
