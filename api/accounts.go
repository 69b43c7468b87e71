package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mcaservicing/mca_backend/middlewares"
	"github.com/mcaservicing/mca_backend/models"
)

func listAccountsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, after := pageParams(c)
		conn, err := models.PaginateAccounts(c.Request.Context(), limit, after,
			queryEnum[models.AccountType](c, "account_type"), queryString(c, "name"), queryBool(c, "is_active"))
		if err != nil {
			respondError(c, "listAccountsHandler", err)
			return
		}
		c.JSON(http.StatusOK, conn)
	}
}

type accountView struct {
	*models.Account
	Documents []*models.Document `json:"documents"`
}

func getAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		account, err := models.GetAccountWithDetails(ctx, id)
		if err != nil {
			respondError(c, "getAccountHandler", err)
			return
		}
		documents, err := middlewares.GetAccountDocuments(ctx, id)
		if err != nil {
			respondError(c, "getAccountHandler", err)
			return
		}
		c.JSON(http.StatusOK, accountView{Account: account, Documents: documents})
	}
}

func createAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewAccount
		if !bindJSON(c, &input) {
			return
		}
		account, err := models.CreateAccount(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "createAccountHandler", err)
			return
		}
		c.JSON(http.StatusCreated, account)
	}
}

func updateAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewAccount
		if !bindJSON(c, &input) {
			return
		}
		account, err := models.UpdateAccount(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "updateAccountHandler", err)
			return
		}
		c.JSON(http.StatusOK, account)
	}
}

func deleteAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		account, err := models.DeleteAccount(c.Request.Context(), id)
		if err != nil {
			respondError(c, "deleteAccountHandler", err)
			return
		}
		c.JSON(http.StatusOK, account)
	}
}

type activeRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func toggleAccountActiveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req activeRequest
		if !bindJSON(c, &req) {
			return
		}
		account, err := models.MarkAccountActive(c.Request.Context(), id, *req.IsActive)
		if err != nil {
			respondError(c, "toggleAccountActiveHandler", err)
			return
		}
		c.JSON(http.StatusOK, account)
	}
}

func listAddressesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		// 404 for an account outside the business
		if _, err := models.GetAccount(ctx, id); err != nil {
			respondError(c, "listAddressesHandler", err)
			return
		}
		addresses, err := middlewares.GetAccountAddresses(ctx, id)
		if err != nil {
			respondError(c, "listAddressesHandler", err)
			return
		}
		if addresses == nil {
			addresses = []*models.Address{}
		}
		c.JSON(http.StatusOK, addresses)
	}
}

func createAddressHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewAddress
		if !bindJSON(c, &input) {
			return
		}
		address, err := models.CreateAddress(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "createAddressHandler", err)
			return
		}
		c.JSON(http.StatusCreated, address)
	}
}

func updateAddressHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewAddress
		if !bindJSON(c, &input) {
			return
		}
		address, err := models.UpdateAddress(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "updateAddressHandler", err)
			return
		}
		c.JSON(http.StatusOK, address)
	}
}

func deleteAddressHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		address, err := models.DeleteAddress(c.Request.Context(), id)
		if err != nil {
			respondError(c, "deleteAddressHandler", err)
			return
		}
		c.JSON(http.StatusOK, address)
	}
}

func getBusinessDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		detail, err := models.GetBusinessDetail(c.Request.Context(), id)
		if err != nil {
			respondError(c, "getBusinessDetailHandler", err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func saveBusinessDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewBusinessDetail
		if !bindJSON(c, &input) {
			return
		}
		detail, err := models.SaveBusinessDetail(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "saveBusinessDetailHandler", err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}
