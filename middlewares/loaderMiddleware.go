package middlewares

import (
	"context"
	"reflect"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/models"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders batch the lookups list endpoints make per row.
type Loaders struct {
	AccountLoader *dataloader.Loader[int, *models.Account]
	FundingLoader *dataloader.Loader[int, *models.Funding]

	addressLoader         *dataloader.Loader[int, []*models.Address]
	fundingDocumentLoader *dataloader.Loader[int, []*models.Document]
	accountDocumentLoader *dataloader.Loader[int, []*models.Document]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(conn *gorm.DB) *Loaders {
	accountReader := &accountReader{db: conn}
	fundingReader := &fundingReader{db: conn}
	addressReader := &addressReader{db: conn}
	fundingDocumentReader := &documentReader{db: conn, referenceType: models.DocumentReferenceTypeFunding}
	accountDocumentReader := &documentReader{db: conn, referenceType: models.DocumentReferenceTypeAccount}

	return &Loaders{
		AccountLoader:         dataloader.NewBatchedLoader(accountReader.getAccounts, dataloader.WithWait[int, *models.Account](time.Millisecond)),
		FundingLoader:         dataloader.NewBatchedLoader(fundingReader.getFundings, dataloader.WithWait[int, *models.Funding](time.Millisecond)),
		addressLoader:         dataloader.NewBatchedLoader(addressReader.getAddresses, dataloader.WithWait[int, []*models.Address](time.Millisecond)),
		fundingDocumentLoader: dataloader.NewBatchedLoader(fundingDocumentReader.GetDocuments, dataloader.WithWait[int, []*models.Document](time.Millisecond)),
		accountDocumentLoader: dataloader.NewBatchedLoader(accountDocumentReader.GetDocuments, dataloader.WithWait[int, []*models.Document](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// WithLoaders is for callers outside the gin chain, e.g. tests.
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// turns results from db into dataloader results, in the order of ids.
// ids that did not resolve get the model's default.
func generateLoaderResults[T models.Data](results []T, ids []int) []*dataloader.Result[*T] {
	resultMap := make(map[int]T)
	var resultZero T
	resultMap[0] = resultZero.GetDefault(0).(T)
	for _, result := range results {
		resultMap[result.GetId()] = result
	}

	loaderResults := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		data := resultMap[id]
		if reflect.ValueOf(data).IsZero() {
			data = data.GetDefault(id).(T)
		}
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: &data})
	}
	return loaderResults
}

// each id has many related results
func generateLoaderArrayResults[T models.RelatedData](results []T, referenceIds []int) (loaderResults []*dataloader.Result[[]*T]) {
	resultMap := make(map[int][]*T)
	for _, result := range results {
		copy := result
		resultMap[result.GetReferenceId()] = append(resultMap[result.GetReferenceId()], &copy)
	}
	for _, id := range referenceIds {
		loaderResults = append(loaderResults, &dataloader.Result[[]*T]{Data: resultMap[id]})
	}
	return loaderResults
}
