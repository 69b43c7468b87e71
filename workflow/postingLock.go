package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

const postingLockTimeoutSeconds = 30

func postingLockName(businessId string) string {
	return fmt.Sprintf("ledger:%s", businessId)
}

// AcquireBusinessPostingLock serializes ledger posting per business across instances using MySQL advisory locks.
// GET_LOCK is connection-scoped, so call it on the transaction that does the posting.
func AcquireBusinessPostingLock(tx *gorm.DB, businessId string) error {
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, ?)", postingLockName(businessId), postingLockTimeoutSeconds).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for business_id=%s", businessId)
	}
	return nil
}

func ReleaseBusinessPostingLock(tx *gorm.DB, businessId string) {
	var released int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", postingLockName(businessId)).Scan(&released).Error
}
