package reports

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mcaservicing/mca_backend/models"
	"github.com/mcaservicing/mca_backend/schedule"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

type ExcelExporter interface {
	GetCellValues() []interface{}
}

type fundingExportRow struct {
	f        *models.Funding
	merchant string
}

func (r fundingExportRow) GetCellValues() []interface{} {
	return []interface{}{
		r.f.FundingNumber,
		r.merchant,
		r.f.FundedDate.Format(schedule.DateLayout),
		string(r.f.Status),
		r.f.AdvanceAmount.InexactFloat64(),
		r.f.FactorRate.InexactFloat64(),
		r.f.PaybackAmount.InexactFloat64(),
		r.f.DisbursedAmount.InexactFloat64(),
		r.f.PaidAmount.InexactFloat64(),
		r.f.FeeAmount.InexactFloat64(),
		r.f.CreditAmount.InexactFloat64(),
		r.f.Balance.InexactFloat64(),
	}
}

var fundingHeadings = []string{
	"Funding No", "Merchant", "Funded Date", "Status", "Advance", "Factor",
	"Payback", "Disbursed", "Paid", "Fees", "Credits", "Balance",
}

type installmentExportRow models.InstallmentRow

func (r installmentExportRow) GetCellValues() []interface{} {
	return []interface{}{
		r.Number,
		r.DueDate,
		r.Amount.InexactFloat64(),
		r.Cumulative.InexactFloat64(),
		r.Remaining.InexactFloat64(),
	}
}

var installmentHeadings = []string{"No", "Due Date", "Amount", "Cumulative", "Remaining"}

// writeExcel renders headings and rows to an in-memory xlsx.
func writeExcel(data []ExcelExporter, headings ...string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, h := range headings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}
	for rowNo, d := range data {
		for i, value := range d.GetCellValues() {
			cell, err := excelize.CoordinatesToCellName(i+1, rowNo+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}
	if len(headings) > 0 {
		last, _ := excelize.ColumnNumberToName(len(headings))
		_ = f.SetColWidth(sheetName, "A", last, 16)
	}
	return f.WriteToBuffer()
}

func ExportFundings(ctx context.Context, filter models.FundingFilter) (*bytes.Buffer, error) {
	fundings, err := models.ListFundings(ctx, filter)
	if err != nil {
		return nil, err
	}
	accounts, err := models.ListAllResource[models.Account](ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}
	data := make([]ExcelExporter, 0, len(fundings))
	for _, f := range fundings {
		data = append(data, fundingExportRow{f: f, merchant: names[f.MerchantId]})
	}
	return writeExcel(data, fundingHeadings...)
}

// ExportPlanSchedule returns the installment schedule of a payback plan and a download file name.
func ExportPlanSchedule(ctx context.Context, planId int) (*bytes.Buffer, string, error) {
	plan, err := models.GetPaybackPlan(ctx, planId)
	if err != nil {
		return nil, "", err
	}
	funding, err := models.GetFunding(ctx, plan.FundingId)
	if err != nil {
		return nil, "", err
	}
	rows := models.BuildInstallmentSchedule(plan.ScheduleInput(), funding.PaybackAmount, plan.InstallmentAmount)
	data := make([]ExcelExporter, 0, len(rows))
	for _, r := range rows {
		data = append(data, installmentExportRow(r))
	}
	buf, err := writeExcel(data, installmentHeadings...)
	if err != nil {
		return nil, "", err
	}
	return buf, fmt.Sprintf("%s-schedule.xlsx", funding.FundingNumber), nil
}
