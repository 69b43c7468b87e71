package archive

import (
	"context"
	"testing"
	"time"

	"github.com/mcaservicing/mca_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MockCollection struct {
	mock.Mock
}

func (m *MockCollection) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	args := m.Called(ctx, filter, replacement, opts)
	return args.Get(0).(*mongo.UpdateResult), args.Error(1)
}

func (m *MockCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	args := m.Called(ctx, filter, opts)
	return args.Get(0).(*mongo.SingleResult)
}

func (m *MockCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	args := m.Called(ctx, filter, opts)
	return args.Get(0).(*mongo.DeleteResult), args.Error(1)
}

func (m *MockCollection) Indexes() mongo.IndexView {
	return mongo.IndexView{}
}

func sampleStatement() *models.FundingStatement {
	next := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	return &models.FundingStatement{
		BusinessId:    "biz-1",
		FundingId:     7,
		FundingNumber: "MCA-000007",
		Status:        models.FundingStatusFunded,
		AdvanceAmount: decimal.RequireFromString("20000"),
		PaybackAmount: decimal.RequireFromString("27000"),
		PaidAmount:    decimal.RequireFromString("1350.25"),
		Balance:       decimal.RequireFromString("25649.75"),
		ActivePlan: &models.StatementPlan{
			ID:                3,
			InstallmentAmount: decimal.RequireFromString("225"),
			NextPaybackDate:   &next,
		},
		RecentPaybacks: []models.StatementPayback{},
		Syndicators: []models.StatementSyndicator{
			{SyndicatorId: 9, ParticipationPercent: decimal.RequireFromString("33.3333"), NetShare: decimal.RequireFromString("441.08")},
		},
	}
}

func TestSaveUpsertsByKey(t *testing.T) {
	coll := new(MockCollection)
	store := NewStatementStore(coll)
	statement := sampleStatement()

	coll.On("ReplaceOne", mock.Anything, bson.M{"business_id": "biz-1", "funding_id": 7}, statement, mock.MatchedBy(func(opts []*options.ReplaceOptions) bool {
		return len(opts) == 1 && opts[0].Upsert != nil && *opts[0].Upsert
	})).Return(&mongo.UpdateResult{UpsertedCount: 1}, nil)

	require.NoError(t, store.Save(context.Background(), statement))
	coll.AssertExpectations(t)
}

func TestSaveError(t *testing.T) {
	coll := new(MockCollection)
	store := NewStatementStore(coll)
	coll.On("ReplaceOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return((*mongo.UpdateResult)(nil), assert.AnError)

	assert.Error(t, store.Save(context.Background(), sampleStatement()))
	assert.Error(t, store.Save(context.Background(), nil))
}

func TestFindDecodesDecimals(t *testing.T) {
	coll := new(MockCollection)
	store := NewStatementStore(coll)
	want := sampleStatement()

	single := mongo.NewSingleResultFromDocument(want, nil, Registry())
	coll.On("FindOne", mock.Anything, bson.M{"business_id": "biz-1", "funding_id": 7}, mock.Anything).Return(single)

	got, err := store.Find(context.Background(), "biz-1", 7)
	require.NoError(t, err)
	assert.Equal(t, "MCA-000007", got.FundingNumber)
	assert.True(t, got.PaidAmount.Equal(want.PaidAmount), got.PaidAmount.String())
	assert.True(t, got.Balance.Equal(want.Balance))
	require.NotNil(t, got.ActivePlan)
	assert.True(t, got.ActivePlan.InstallmentAmount.Equal(decimal.NewFromInt(225)))
	require.Len(t, got.Syndicators, 1)
	assert.True(t, got.Syndicators[0].ParticipationPercent.Equal(decimal.RequireFromString("33.3333")))
}

func TestFindMissing(t *testing.T) {
	coll := new(MockCollection)
	store := NewStatementStore(coll)
	coll.On("FindOne", mock.Anything, mock.Anything, mock.Anything).Return(mongo.NewSingleResultFromDocument(bson.M{}, mongo.ErrNoDocuments, nil))

	_, err := store.Find(context.Background(), "biz-1", 8)
	assert.ErrorIs(t, err, ErrStatementNotFound)
}

func TestDelete(t *testing.T) {
	coll := new(MockCollection)
	store := NewStatementStore(coll)
	coll.On("DeleteOne", mock.Anything, bson.M{"business_id": "biz-1", "funding_id": 7}, mock.Anything).Return(&mongo.DeleteResult{DeletedCount: 1}, nil)

	require.NoError(t, store.Delete(context.Background(), "biz-1", 7))
	coll.AssertExpectations(t)
}

func TestDecimalCodecRoundTrip(t *testing.T) {
	type doc struct {
		Amount decimal.Decimal `bson:"amount"`
	}
	reg := Registry()
	b, err := bson.MarshalWithRegistry(reg, doc{Amount: decimal.RequireFromString("-1234.5678")})
	require.NoError(t, err)

	var raw bson.Raw = b
	assert.Equal(t, bson.TypeDecimal128, raw.Lookup("amount").Type)

	var out doc
	require.NoError(t, bson.UnmarshalWithRegistry(reg, b, &out))
	assert.True(t, out.Amount.Equal(decimal.RequireFromString("-1234.5678")))

	legacy, err := bson.Marshal(bson.M{"amount": "12.50"})
	require.NoError(t, err)
	require.NoError(t, bson.UnmarshalWithRegistry(reg, legacy, &out))
	assert.True(t, out.Amount.Equal(decimal.RequireFromString("12.5")))
}
