package archive

import (
	"context"
	"errors"
	"time"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const StatementCollection = "funding_statements"

var ErrStatementNotFound = errors.New("statement not found")

// Collection is the subset of *mongo.Collection the store uses.
type Collection interface {
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	Indexes() mongo.IndexView
}

type StatementStore struct {
	coll    Collection
	timeout time.Duration
}

func NewStatementStore(coll Collection) *StatementStore {
	return &StatementStore{coll: coll, timeout: 5 * time.Second}
}

// DefaultStatementStore returns the store on the connected Mongo database, or nil when Mongo is not connected.
func DefaultStatementStore() *StatementStore {
	db := config.GetMongoDB()
	if db == nil {
		return nil
	}
	coll := db.Collection(StatementCollection, options.Collection().SetRegistry(Registry()))
	return NewStatementStore(coll)
}

func statementKey(businessId string, fundingId int) bson.M {
	return bson.M{"business_id": businessId, "funding_id": fundingId}
}

// EnsureIndexes creates the unique statement key index.
func (s *StatementStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "business_id", Value: 1}, {Key: "funding_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_statement"),
	})
	return err
}

// Save upserts the statement under its business and funding.
func (s *StatementStore) Save(ctx context.Context, statement *models.FundingStatement) error {
	if statement == nil {
		return errors.New("statement is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.coll.ReplaceOne(ctx, statementKey(statement.BusinessId, statement.FundingId), statement, options.Replace().SetUpsert(true))
	return err
}

func (s *StatementStore) Find(ctx context.Context, businessId string, fundingId int) (*models.FundingStatement, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var statement models.FundingStatement
	err := s.coll.FindOne(ctx, statementKey(businessId, fundingId)).Decode(&statement)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrStatementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &statement, nil
}

func (s *StatementStore) Delete(ctx context.Context, businessId string, fundingId int) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.coll.DeleteOne(ctx, statementKey(businessId, fundingId))
	return err
}

// Project rebuilds the statement from MySQL and stores it.
func Project(ctx context.Context, store *StatementStore, businessId string, fundingId int) error {
	if store == nil {
		return nil
	}
	statement, err := models.BuildFundingStatement(ctx, businessId, fundingId)
	if err != nil {
		return err
	}
	return store.Save(ctx, statement)
}

// Statement serves the stored statement and falls back to a live build.
func Statement(ctx context.Context, store *StatementStore, businessId string, fundingId int) (*models.FundingStatement, error) {
	if store != nil {
		statement, err := store.Find(ctx, businessId, fundingId)
		if err == nil {
			return statement, nil
		}
		if !errors.Is(err, ErrStatementNotFound) {
			config.LogError(config.GetLogger(), "archive", "Statement", "find", fundingId, err)
		}
	}
	return models.BuildFundingStatement(ctx, businessId, fundingId)
}
