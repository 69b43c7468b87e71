// Package api holds the REST handlers of the back office.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mcaservicing/mca_backend/middlewares"
	"github.com/mcaservicing/mca_backend/models"
)

// Register mounts every /api route and returns the authenticated group so
// the caller can hang extra routes (uploads) off it.
func Register(r gin.IRouter) *gin.RouterGroup {
	root := r.Group("/api")
	root.POST("/auth/login", loginHandler())
	root.POST("/auth/logout", logoutHandler())

	g := root.Group("")
	g.Use(middlewares.RequireUser(false))
	g.POST("/auth/api-token", apiTokenHandler())

	g.GET("/accounts", listAccountsHandler())
	g.POST("/accounts", createAccountHandler())
	g.GET("/accounts/:id", getAccountHandler())
	g.PUT("/accounts/:id", updateAccountHandler())
	g.DELETE("/accounts/:id", deleteAccountHandler())
	g.PUT("/accounts/:id/active", toggleAccountActiveHandler())
	g.GET("/accounts/:id/addresses", listAddressesHandler())
	g.POST("/accounts/:id/addresses", createAddressHandler())
	g.PUT("/addresses/:id", updateAddressHandler())
	g.DELETE("/addresses/:id", deleteAddressHandler())
	g.GET("/accounts/:id/business-detail", getBusinessDetailHandler())
	g.PUT("/accounts/:id/business-detail", saveBusinessDetailHandler())

	g.GET("/fundings", listFundingsHandler())
	g.POST("/fundings", createHandler("createFunding", models.CreateFunding))
	// static segment wins over :id in gin's tree
	g.GET("/fundings/export.xlsx", exportFundingsHandler())
	g.GET("/fundings/:id", getFundingHandler())
	g.PUT("/fundings/:id", updateHandler("updateFunding", models.UpdateFunding))
	g.DELETE("/fundings/:id", byIdHandler("deleteFunding", models.DeleteFunding))
	g.POST("/fundings/:id/status", changeFundingStatusHandler())
	g.GET("/fundings/:id/statement", fundingStatementHandler())

	g.GET("/payback-plans", listPaybackPlansHandler())
	g.POST("/payback-plans", createHandler("createPaybackPlan", models.CreatePaybackPlan))
	g.POST("/payback-plans/preview", previewPaybackPlanHandler())
	g.GET("/payback-plans/:id", byIdHandler("getPaybackPlan", models.GetPaybackPlan))
	g.PUT("/payback-plans/:id", updateHandler("updatePaybackPlan", models.UpdatePaybackPlan))
	g.DELETE("/payback-plans/:id", byIdHandler("deletePaybackPlan", models.DeletePaybackPlan))
	g.GET("/payback-plans/:id/schedule.xlsx", exportPlanScheduleHandler())

	g.GET("/paybacks", listPaybacksHandler())
	g.POST("/paybacks", createHandler("createPayback", models.CreatePayback))
	g.GET("/paybacks/:id", byIdHandler("getPayback", models.GetPayback))
	g.PUT("/paybacks/:id", updateHandler("updatePayback", models.UpdatePayback))
	g.DELETE("/paybacks/:id", byIdHandler("deletePayback", models.DeletePayback))

	g.GET("/disbursement-intents", listDisbursementIntentsHandler())
	g.POST("/disbursement-intents", createHandler("createDisbursementIntent", models.CreateDisbursementIntent))
	g.GET("/disbursement-intents/:id", byIdHandler("getDisbursementIntent", models.GetDisbursementIntent))
	g.PUT("/disbursement-intents/:id", updateHandler("updateDisbursementIntent", models.UpdateDisbursementIntent))
	g.POST("/disbursement-intents/:id/approve", byIdHandler("approveDisbursementIntent", models.ApproveDisbursementIntent))
	g.POST("/disbursement-intents/:id/reject", byIdHandler("rejectDisbursementIntent", models.RejectDisbursementIntent))
	g.POST("/disbursement-intents/:id/cancel", byIdHandler("cancelDisbursementIntent", models.CancelDisbursementIntent))

	g.GET("/disbursements", listDisbursementsHandler())
	g.POST("/disbursements", createHandler("createDisbursement", models.CreateDisbursement))
	g.GET("/disbursements/:id", byIdHandler("getDisbursement", models.GetDisbursement))
	g.POST("/disbursements/:id/reverse", byIdHandler("reverseDisbursement", models.ReverseDisbursement))

	g.GET("/commission-intents", listCommissionIntentsHandler())
	g.POST("/commission-intents", createHandler("createCommissionIntent", models.CreateCommissionIntent))
	g.GET("/commission-intents/:id", byIdHandler("getCommissionIntent", models.GetCommissionIntent))
	g.PUT("/commission-intents/:id", updateHandler("updateCommissionIntent", models.UpdateCommissionIntent))
	g.POST("/commission-intents/:id/approve", byIdHandler("approveCommissionIntent", models.ApproveCommissionIntent))
	g.POST("/commission-intents/:id/reject", byIdHandler("rejectCommissionIntent", models.RejectCommissionIntent))
	g.POST("/commission-intents/:id/cancel", byIdHandler("cancelCommissionIntent", models.CancelCommissionIntent))

	g.GET("/commissions", listCommissionsHandler())
	g.GET("/commissions/:id", byIdHandler("getCommission", models.GetCommission))
	g.POST("/commissions/:id/clawback", clawbackCommissionHandler())

	g.GET("/fees", listFeesHandler())
	g.POST("/fees", createHandler("createFee", models.CreateFee))
	g.GET("/fees/:id", byIdHandler("getFee", models.GetFee))
	g.PUT("/fees/:id", updateHandler("updateFee", models.UpdateFee))
	g.DELETE("/fees/:id", byIdHandler("deleteFee", models.DeleteFee))

	g.GET("/credits", listCreditsHandler())
	g.POST("/credits", createHandler("createCredit", models.CreateCredit))
	g.GET("/credits/:id", byIdHandler("getCredit", models.GetCredit))
	g.PUT("/credits/:id", updateHandler("updateCredit", models.UpdateCredit))
	g.DELETE("/credits/:id", byIdHandler("deleteCredit", models.DeleteCredit))

	g.GET("/syndications", listSyndicationsHandler())
	g.POST("/syndications", createHandler("createSyndication", models.CreateSyndication))
	g.GET("/syndications/:id", byIdHandler("getSyndication", models.GetSyndication))
	g.PUT("/syndications/:id", updateHandler("updateSyndication", models.UpdateSyndication))
	g.DELETE("/syndications/:id", byIdHandler("deleteSyndication", models.DeleteSyndication))

	g.GET("/reports/portfolio", portfolioReportHandler())
	g.GET("/reports/syndicators", syndicatorReportHandler())

	g.GET("/outbox/:type/:id", outboxStatusHandler())
	g.POST("/outbox/:type/:id/reprocess", reprocessOutboxHandler())

	return g
}
