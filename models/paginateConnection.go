package models

import (
	"fmt"

	"github.com/mcaservicing/mca_backend/utils"
	"gorm.io/gorm"
)

type Cursor interface {
	GetCursor() string
}

type Edge[N Cursor] struct {
	Node   *N     `json:"node"`
	Cursor string `json:"cursor"`
}

type Connection[N Cursor] struct {
	Edges    []Edge[N] `json:"edges"`
	PageInfo *PageInfo `json:"pageInfo"`
}

type CompositeCursor interface {
	Cursor
	Identifier
}

// fetch results for pagination
func FetchPageCompositeCursor[T CompositeCursor](dbCtx *gorm.DB,
	limit int,
	after *string,
	cursorColumn string,
	cmpOperator string,
) ([]Edge[T], *PageInfo, error) {

	nodes := make([]*T, 0)

	// order
	if cmpOperator == ">" {
		dbCtx = dbCtx.Order(cursorColumn + ", id")
	} else if cmpOperator == "<" {
		dbCtx = dbCtx.Order(cursorColumn + " DESC, id DESC")
	}

	// filter
	decodedCursor, cursorId := DecodeCompositeCursor(after)
	if decodedCursor != "" {
		dbCtx = dbCtx.Where(
			// [1] = column, [2] = operator
			fmt.Sprintf("%[1]s %[2]s ? OR (%[1]s = ? AND id %[2]s ?)", cursorColumn, cmpOperator),
			decodedCursor, decodedCursor, cursorId)
	}

	if err := dbCtx.Limit(limit + 1).Find(&nodes).Error; err != nil {
		return nil, nil, err
	}

	edges, pageInfo := connectNodes(nodes, limit)
	return edges, pageInfo, nil
}

func connectNodes[T CompositeCursor](nodes []*T, limit int) ([]Edge[T], *PageInfo) {
	count := 0
	hasNextPage := false
	edges := make([]Edge[T], 0, len(nodes))
	for _, node := range nodes {
		if count == limit {
			hasNextPage = true
		}
		if count < limit {
			edges = append(edges, Edge[T]{
				Node:   node,
				Cursor: EncodeCompositeCursor((*node).GetCursor(), (*node).GetId()),
			})
			count++
		}
	}

	pageInfo := PageInfo{
		StartCursor: "",
		EndCursor:   "",
		HasNextPage: utils.NewFalse(),
	}
	if count > 0 {
		pageInfo = PageInfo{
			StartCursor: edges[0].Cursor,
			EndCursor:   edges[count-1].Cursor,
			HasNextPage: &hasNextPage,
		}
	}
	return edges, &pageInfo
}

// Paginate lists newest first by created_at.
func Paginate[T CompositeCursor](dbCtx *gorm.DB, limit *int, after *string) (*Connection[T], error) {
	edges, pageInfo, err := FetchPageCompositeCursor[T](dbCtx, NormalizeLimit(limit), after, "created_at", "<")
	if err != nil {
		return nil, err
	}
	return &Connection[T]{Edges: edges, PageInfo: pageInfo}, nil
}
