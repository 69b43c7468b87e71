package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mcaservicing/mca_backend/archive"
	"github.com/mcaservicing/mca_backend/middlewares"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/mcaservicing/mca_backend/models/reports"
	"github.com/mcaservicing/mca_backend/utils"
)

func fundingFilterOf(c *gin.Context) models.FundingFilter {
	return models.FundingFilter{
		Status:        queryEnum[models.FundingStatus](c, "status"),
		MerchantId:    queryInt(c, "merchant_id"),
		FunderId:      queryInt(c, "funder_id"),
		IsoId:         queryInt(c, "iso_id"),
		FundingNumber: queryString(c, "funding_number"),
		FromDate:      queryDate(c, "from_date"),
		ToDate:        queryDate(c, "to_date"),
	}
}

// fundingNode adds the merchant name to list rows.
type fundingNode struct {
	models.Funding
	MerchantName string `json:"merchant_name"`
}

type fundingEdge struct {
	Cursor string      `json:"cursor"`
	Node   fundingNode `json:"node"`
}

type fundingConnection struct {
	Edges    []fundingEdge    `json:"edges"`
	PageInfo *models.PageInfo `json:"pageInfo"`
}

func listFundingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		limit, after := pageParams(c)
		conn, err := models.PaginateFundings(ctx, limit, after, fundingFilterOf(c))
		if err != nil {
			respondError(c, "listFundingsHandler", err)
			return
		}

		ids := make([]int, 0, len(conn.Edges))
		for _, edge := range conn.Edges {
			ids = append(ids, edge.Node.MerchantId)
		}
		merchants, errs := middlewares.GetAccounts(ctx, ids)
		for _, err := range errs {
			if err != nil {
				respondError(c, "listFundingsHandler", err)
				return
			}
		}

		result := fundingConnection{Edges: make([]fundingEdge, 0, len(conn.Edges)), PageInfo: conn.PageInfo}
		for i, edge := range conn.Edges {
			node := fundingNode{Funding: *edge.Node}
			if i < len(merchants) && merchants[i] != nil {
				node.MerchantName = merchants[i].Name
			}
			result.Edges = append(result.Edges, fundingEdge{Cursor: edge.Cursor, Node: node})
		}
		c.JSON(http.StatusOK, result)
	}
}

func getFundingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		funding, err := models.GetFunding(ctx, id)
		if err != nil {
			respondError(c, "getFundingHandler", err)
			return
		}
		documents, err := middlewares.GetFundingDocuments(ctx, id)
		if err != nil {
			respondError(c, "getFundingHandler", err)
			return
		}
		funding.Documents = documents
		c.JSON(http.StatusOK, funding)
	}
}

type fundingStatusRequest struct {
	Status models.FundingStatus `json:"status" binding:"required"`
}

func changeFundingStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req fundingStatusRequest
		if !bindJSON(c, &req) {
			return
		}
		funding, err := models.ChangeFundingStatus(c.Request.Context(), id, req.Status)
		if err != nil {
			respondError(c, "changeFundingStatusHandler", err)
			return
		}
		c.JSON(http.StatusOK, funding)
	}
}

func fundingStatementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		businessId, _ := utils.GetBusinessIdFromContext(ctx)
		statement, err := archive.Statement(ctx, archive.DefaultStatementStore(), businessId, id)
		if err != nil {
			respondError(c, "fundingStatementHandler", err)
			return
		}
		c.JSON(http.StatusOK, statement)
	}
}

func exportFundingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		buf, err := reports.ExportFundings(c.Request.Context(), fundingFilterOf(c))
		if err != nil {
			respondError(c, "exportFundingsHandler", err)
			return
		}
		sendXlsx(c, fmt.Sprintf("fundings_%s.xlsx", time.Now().Format("20060102")), buf.Bytes())
	}
}
