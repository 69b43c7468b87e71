package models

import (
	"github.com/mcaservicing/mca_backend/utils"
)

type RedisCleaner interface {
	RemoveInstanceRedis() error // remove one
	RemoveAllRedis() error      // remove list if exists
}

// remove both item & list
func RemoveRedisBoth[T RedisCleaner](obj T) error {
	if err := obj.RemoveInstanceRedis(); err != nil {
		return err
	}
	if err := obj.RemoveAllRedis(); err != nil {
		return err
	}
	return nil
}

func (obj Account) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[Account](obj.ID)
}

func (obj Account) RemoveAllRedis() error {
	return utils.RemoveRedisList[Account](obj.BusinessId)
}

func (obj Business) RemoveInstanceRedis() error {
	return obj.RemoveRedis()
}

// businesses have no cached list
func (obj Business) RemoveAllRedis() error {
	return nil
}
