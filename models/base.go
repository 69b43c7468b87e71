package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PublishToOutbox writes the ledger event inside the caller's DB transaction.
// Publishing to Pub/Sub is done by the outbox dispatcher after commit.
func PublishToOutbox(ctx context.Context, tx *gorm.DB, businessId string, transactionDateTime time.Time, refId int, refType OutboxReferenceType, obj interface{}, oldObj interface{}, msgAction PubSubMessageAction) error {

	var objInByte []byte
	var oldObjInByte []byte
	var err error

	if msgAction == PubSubMessageActionCreate || msgAction == PubSubMessageActionUpdate {
		objInByte, err = ToJSONWithoutField(obj, "Documents")
		if err != nil {
			return err
		}
	}
	if msgAction == PubSubMessageActionUpdate || msgAction == PubSubMessageActionDelete {
		oldObjInByte, err = ToJSONWithoutField(oldObj, "Documents")
		if err != nil {
			return err
		}
	}

	record := PubSubMessageRecord{
		BusinessId:          businessId,
		TransactionDateTime: transactionDateTime,
		ReferenceId:         refId,
		ReferenceType:       refType,
		Action:              msgAction,
		NewObj:              objInByte,
		OldObj:              oldObjInByte,
		IsProcessed:         false,
		PublishStatus:       OutboxPublishStatusPending,
		ProcessingStatus:    OutboxProcessStatusPending,
		CorrelationId:       correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

// ToJSONWithoutField marshals obj with the named field zeroed for the duration of the call.
func ToJSONWithoutField(obj interface{}, fieldName string) ([]byte, error) {
	val := reflect.ValueOf(obj)
	if val.Kind() == reflect.Interface {
		val = val.Elem()
	}
	if val.Kind() != reflect.Ptr {
		valPtr := reflect.New(val.Type())
		valPtr.Elem().Set(val)
		val = valPtr
	}
	val = val.Elem()

	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected a struct, got %v", val.Kind())
	}

	field := val.FieldByName(fieldName)
	if !field.IsValid() || !field.CanSet() {
		return json.Marshal(val.Interface())
	}

	originalValue := reflect.New(field.Type()).Elem()
	originalValue.Set(field)
	field.Set(reflect.Zero(field.Type()))
	jsonData, err := json.Marshal(val.Interface())
	field.Set(originalValue)
	if err != nil {
		return nil, err
	}
	return jsonData, nil
}

func businessIdFromContext(ctx context.Context) (string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return "", utils.ErrorBusinessIdRequired
	}
	return businessId, nil
}

// validateAccountOfType checks that the account exists in the business and has the wanted type.
func validateAccountOfType(ctx context.Context, businessId string, accountId int, accountType AccountType) error {
	count, err := utils.ResourceCountWhere[Account](ctx, businessId, "id = ? AND account_type = ?", accountId, accountType)
	if err != nil {
		return err
	}
	if count <= 0 {
		return errors.New(accountType.Label() + " not found")
	}
	return nil
}

// parse a calendar date in the business timezone, YYYY-MM-DD
func parseBusinessDate(ctx context.Context, businessId string, value string) (time.Time, error) {
	business, err := GetBusinessById(ctx, businessId)
	if err != nil {
		return time.Time{}, err
	}
	return utils.ParseDate(value, business.Timezone)
}

// normalise a date to midnight in the business timezone
func businessDate(ctx context.Context, businessId string, t time.Time) (time.Time, error) {
	business, err := GetBusinessById(ctx, businessId)
	if err != nil {
		return time.Time{}, err
	}
	return utils.ConvertToDate(t, business.Timezone)
}

// BusinessToday is now in the business timezone.
func BusinessToday(ctx context.Context, businessId string) time.Time {
	business, err := GetBusinessById(ctx, businessId)
	if err != nil {
		return time.Now().UTC()
	}
	return utils.ConvertToLocalTime(time.Now().UTC(), business.Timezone)
}

func requirePositive(name string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.New(name + " must be greater than zero")
	}
	return nil
}

func lockingClause() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

var ErrFundingNotFound = errors.New("funding not found")

// lock the funding row for the rest of the transaction
func lockFunding(tx *gorm.DB, businessId string, fundingId int) (*Funding, error) {
	var funding Funding
	err := tx.Clauses(lockingClause()).
		Where("business_id = ?", businessId).
		First(&funding, fundingId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFundingNotFound
		}
		return nil, err
	}
	return &funding, nil
}

func logModelError(funcName string, data any, err error) {
	config.LogError(config.GetLogger(), "models", funcName, "", data, err)
}
