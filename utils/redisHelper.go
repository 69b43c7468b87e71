package utils

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mcaservicing/mca_backend/config"
)

var mutex sync.Mutex

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	return reflect.TypeOf(v).Name()
}

/* Redis */

// counterparties change rarely and are read on every funding list
func typeHasExpiration(typeName string) bool {
	expirableTypes := map[string]bool{
		"Account":        true,
		"BusinessDetail": true,
		"Business":       true,
	}
	return expirableTypes[typeName]
}

func redisItemKey[T any](id int) string {
	return GetTypeName[T]() + ":" + fmt.Sprint(id)
}

func redisListKey[T any](businessId string) string {
	if businessId == "" {
		return GetTypeName[T]() + "List"
	}
	return GetTypeName[T]() + "List:" + businessId
}

func cacheDuration(typeName string) time.Duration {
	if typeHasExpiration(typeName) {
		return GetCacheLifespan()
	}
	return 0
}

// store instance, obj should be a pointer
func StoreRedis[T any](obj any, id int) error {
	return config.SetRedisObject(redisItemKey[T](id), obj, cacheDuration(GetTypeName[T]()))
}

func StoreRedisList[T any](obj any, businessId string) error {
	return config.SetRedisObject(redisListKey[T](businessId), obj, cacheDuration(GetTypeName[T]()))
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](id int) (*T, error) {
	var result T
	exists, err := config.GetRedisObject(redisItemKey[T](id), &result)
	if err != nil || !exists {
		return nil, err
	}
	return &result, nil
}

// retrieve a list, businessId can be empty
func RetrieveRedisList[T any](businessId string) ([]*T, error) {
	var result []*T
	exists, err := config.GetRedisObject(redisListKey[T](businessId), &result)
	if err != nil || !exists {
		return nil, err
	}
	return result, nil
}

// clear list, TypeList:$business_id
func RemoveRedisList[T any](businessId string) error {
	return config.RemoveRedisKey(redisListKey[T](businessId))
}

// remove an instance, Type:$id
func RemoveRedisItem[T any](id int) error {
	return config.RemoveRedisKey(redisItemKey[T](id))
}

// GetSequence hands out the next sequence_no for T within a business.
// The redis counter is seeded from max(sequence_no) and verified against the DB.
func GetSequence[T any](ctx context.Context, businessId string) (int64, error) {
	var model T
	mutex.Lock()
	defer mutex.Unlock()

	cacheKey := businessId + "-" + strings.ToLower(GetTypeName[T]()) + "_seq"
	db := config.GetDB()

	for attempt := 0; attempt < 1000; attempt++ {
		seqNo, err := config.GetRedisCounter(ctx, cacheKey)
		if err != nil {
			return 0, err
		}
		// 1 means the counter was missing (or redis is down, which returns 0)
		if seqNo <= 1 {
			var dbSeq *int64
			if err := db.WithContext(ctx).Model(&model).Select("max(sequence_no)").
				Where("business_id = ?", businessId).
				Scan(&dbSeq).Error; err != nil {
				return 0, err
			}
			seqNo = DereferencePtr(dbSeq) + 1
			if err := config.SetRedisCounter(ctx, cacheKey, seqNo); err != nil {
				return 0, err
			}
		}
		if err := ValidateUnique[T](ctx, businessId, "sequence_no", seqNo, 0); err == nil {
			return seqNo, nil
		}
	}
	return 0, fmt.Errorf("could not allocate sequence for %s", GetTypeName[T]())
}

// FormatSequence renders e.g. MCA-000042.
func FormatSequence(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%06d", prefix, seq)
}
