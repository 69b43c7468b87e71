package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestReferencedFunding(t *testing.T) {
	payback := models.Payback{ID: 4, FundingId: 11}
	cases := []struct {
		name    string
		msg     config.PubSubMessage
		want    int
		wantErr bool
	}{
		{"funding uses reference id", config.PubSubMessage{ReferenceType: "FD", ReferenceId: 11, Action: "U"}, 11, false},
		{"payback create", config.PubSubMessage{ReferenceType: "PB", Action: "C", NewObj: mustJSON(t, payback)}, 11, false},
		{"payback delete reads old object", config.PubSubMessage{ReferenceType: "PB", Action: "D", OldObj: mustJSON(t, payback)}, 11, false},
		{"fee update", config.PubSubMessage{ReferenceType: "FE", Action: "U", NewObj: mustJSON(t, models.Fee{FundingId: 3}), OldObj: mustJSON(t, models.Fee{FundingId: 3})}, 3, false},
		{"missing payload", config.PubSubMessage{ReferenceType: "CR", Action: "C"}, 0, true},
		{"broken payload", config.PubSubMessage{ReferenceType: "CR", Action: "C", NewObj: []byte("{")}, 0, true},
		{"funding without id", config.PubSubMessage{ReferenceType: "FD", Action: "C"}, 0, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := referencedFunding(c.msg)
			if c.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestRefreshesPlanDates(t *testing.T) {
	assert.True(t, refreshesPlanDates("PP"))
	assert.True(t, refreshesPlanDates("PB"))
	for _, rt := range []string{"FD", "DB", "CM", "FE", "CR", "SY"} {
		assert.False(t, refreshesPlanDates(rt), rt)
	}
}

func TestResumeIdempotency(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	skip, err := resumeIdempotency(models.IdempotencyKey{Status: models.IdempotencyStatusSucceeded}, now)
	assert.True(t, skip)
	assert.NoError(t, err)

	_, err = resumeIdempotency(models.IdempotencyKey{Status: models.IdempotencyStatusStarted, UpdatedAt: now.Add(-time.Minute)}, now)
	assert.ErrorIs(t, err, ErrIdempotencyInProgress)

	skip, err = resumeIdempotency(models.IdempotencyKey{Status: models.IdempotencyStatusStarted, UpdatedAt: now.Add(-10 * time.Minute)}, now)
	assert.False(t, skip)
	assert.NoError(t, err)

	skip, err = resumeIdempotency(models.IdempotencyKey{Status: models.IdempotencyStatusFailed}, now)
	assert.False(t, skip)
	assert.NoError(t, err)
}

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.True(t, isDuplicateKeyErr(fmt.Errorf("insert: %w", &mysqlDriver.MySQLError{Number: 1062})))
	assert.False(t, isDuplicateKeyErr(&mysqlDriver.MySQLError{Number: 1213}))
	assert.False(t, isDuplicateKeyErr(errors.New("boom")))
}

func TestNextPublishAttempt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	next := nextPublishAttempt(now, 1)
	require.NotNil(t, next)
	assert.Equal(t, now.Add(5*time.Second), *next)

	next = nextPublishAttempt(now, 3)
	require.NotNil(t, next)
	assert.Equal(t, now.Add(20*time.Second), *next)

	next = nextPublishAttempt(now, 12)
	require.NotNil(t, next)
	assert.Equal(t, now.Add(10*time.Minute), *next)

	assert.Nil(t, nextPublishAttempt(now, models.OutboxMaxPublishAttempts))
}

func TestDeadDisbursementId(t *testing.T) {
	fromIntent := mustJSON(t, models.Disbursement{ID: 9, FundingId: 2, DisbursementIntentId: 5})
	direct := mustJSON(t, models.Disbursement{ID: 10, FundingId: 2})

	id, ok := deadDisbursementId(config.PubSubMessage{ReferenceType: "DB", Action: "C", ReferenceId: 9, NewObj: fromIntent})
	assert.True(t, ok)
	assert.Equal(t, 9, id)

	_, ok = deadDisbursementId(config.PubSubMessage{ReferenceType: "DB", Action: "C", ReferenceId: 10, NewObj: direct})
	assert.False(t, ok)
	_, ok = deadDisbursementId(config.PubSubMessage{ReferenceType: "DB", Action: "U", ReferenceId: 9, NewObj: fromIntent})
	assert.False(t, ok)
	_, ok = deadDisbursementId(config.PubSubMessage{ReferenceType: "PB", Action: "C", ReferenceId: 9, NewObj: fromIntent})
	assert.False(t, ok)
}

func TestHandlerNameAndLockName(t *testing.T) {
	assert.Equal(t, "ledger:PB", handlerName("PB"))
	assert.Equal(t, "ledger:biz-1", postingLockName("biz-1"))
}

func TestBusinessLockerSerializesPerBusiness(t *testing.T) {
	locker := NewBusinessLocker()
	var inFlight, maxInFlight int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("biz-1")
			defer unlock()
			n := atomic.AddInt32(&inFlight, 1)
			for {
				m := atomic.LoadInt32(&maxInFlight)
				if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInFlight)
}

func TestBusinessLockerAllowsOtherBusinesses(t *testing.T) {
	locker := NewBusinessLocker()
	unlockA := locker.Lock("biz-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locker.Lock("biz-b")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock on another business blocked")
	}
}
