package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/mcaservicing/mca_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func TestFundingLifecycleSettlesThroughLedger(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "mca_test")
	t.Setenv("ALLOW_PAYBACK_OVERPAYMENT", "")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	// history hooks need a user in context
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")

	userCtx := ctx
	biz, err := models.CreateBusiness(ctx, &models.NewBusiness{
		Name:     "Test Capital",
		Email:    "ops@test.local",
		Timezone: "UTC",
	})
	if err != nil {
		t.Fatalf("CreateBusiness: %v", err)
	}
	businessID := biz.ID.String()
	ctx = utils.SetBusinessIdInContext(ctx, businessID)

	merchant, err := models.CreateAccount(ctx, &models.NewAccount{AccountType: models.AccountTypeMerchant, Name: "Joe's Diner"})
	if err != nil {
		t.Fatalf("CreateAccount(merchant): %v", err)
	}

	funding, err := models.CreateFunding(ctx, &models.NewFunding{
		MerchantId:    merchant.ID,
		AdvanceAmount: utils.NewMoney(decimal.NewFromInt(1000)),
		FactorRate:    utils.NewMoney(decimal.RequireFromString("1.3")),
	})
	if err != nil {
		t.Fatalf("CreateFunding: %v", err)
	}
	if !funding.PaybackAmount.Equal(decimal.NewFromInt(1300)) {
		t.Fatalf("payback amount = %s, want 1300", funding.PaybackAmount)
	}

	if _, err := models.ChangeFundingStatus(ctx, funding.ID, models.FundingStatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	plan, err := models.CreatePaybackPlan(ctx, &models.NewPaybackPlan{
		FundingId:    funding.ID,
		StartDate:    time.Now().UTC().Format("2006-01-02"),
		Frequency:    "Weekly",
		PaydayList:   "1",
		PaybackCount: 2,
	})
	if err != nil {
		t.Fatalf("CreatePaybackPlan: %v", err)
	}
	if !plan.InstallmentAmount.Equal(decimal.NewFromInt(650)) {
		t.Fatalf("installment = %s, want 650", plan.InstallmentAmount)
	}
	if plan.NextPaybackDate == nil || plan.ScheduledEndDate == nil {
		t.Fatalf("plan dates not set: %+v", plan)
	}

	if _, err := models.CreateDisbursement(ctx, &models.NewDisbursement{
		FundingId: funding.ID,
		Amount:    utils.NewMoney(decimal.NewFromInt(1000)),
	}); err != nil {
		t.Fatalf("CreateDisbursement: %v", err)
	}
	funding = recalc(t, ctx, businessID, funding.ID)
	if funding.Status != models.FundingStatusFunded {
		t.Fatalf("status after disbursement = %s, want Funded", funding.Status)
	}

	if _, err := models.CreateDisbursement(ctx, &models.NewDisbursement{
		FundingId: funding.ID,
		Amount:    utils.NewMoney(decimal.NewFromInt(1)),
	}); err == nil {
		t.Fatalf("expected over-disbursement to be rejected")
	}

	for i := 0; i < 2; i++ {
		if _, err := models.CreatePayback(ctx, &models.NewPayback{
			FundingId:     funding.ID,
			PaybackPlanId: plan.ID,
			Amount:        utils.NewMoney(decimal.NewFromInt(650)),
		}); err != nil {
			t.Fatalf("CreatePayback #%d: %v", i+1, err)
		}
		funding = recalc(t, ctx, businessID, funding.ID)
	}

	if funding.Status != models.FundingStatusPaidOff {
		t.Fatalf("status after paybacks = %s, want PaidOff", funding.Status)
	}
	if !funding.Balance.IsZero() || !funding.PaidAmount.Equal(decimal.NewFromInt(1300)) {
		t.Fatalf("ledger = paid %s balance %s", funding.PaidAmount, funding.Balance)
	}

	plan, err = models.GetPaybackPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetPaybackPlan: %v", err)
	}
	if plan.Status != models.PaybackPlanStatusCompleted || plan.NextPaybackDate != nil {
		t.Fatalf("plan after payoff = %s next %v", plan.Status, plan.NextPaybackDate)
	}

	if _, err := models.CreatePayback(ctx, &models.NewPayback{
		FundingId: funding.ID,
		Amount:    utils.NewMoney(decimal.NewFromInt(1)),
	}); err == nil {
		t.Fatalf("expected payback on a paid off funding to be rejected")
	}

	// redelivered message posts once
	var rec models.PubSubMessageRecord
	if err := config.GetDB().Where("business_id = ? AND reference_type = ?", businessID, models.OutboxReferenceTypePayback).
		Order("id").First(&rec).Error; err != nil {
		t.Fatalf("load payback outbox row: %v", err)
	}
	msg := models.ConvertToPubSubMessage(rec)
	for i := 0; i < 2; i++ {
		if err := workflow.ProcessMessage(utils.SystemContext(context.Background(), businessID), logrus.New(), msg); err != nil {
			t.Fatalf("ProcessMessage #%d: %v", i+1, err)
		}
	}
	var keys []models.IdempotencyKey
	if err := config.GetDB().Where("business_id = ?", businessID).Find(&keys).Error; err != nil {
		t.Fatalf("load idempotency keys: %v", err)
	}
	if len(keys) != 1 || keys[0].Status != models.IdempotencyStatusSucceeded {
		t.Fatalf("idempotency keys = %+v", keys)
	}

	var pending int64
	if err := config.GetDB().Model(&models.PubSubMessageRecord{}).
		Where("business_id = ? AND publish_status = ?", businessID, models.OutboxPublishStatusPending).
		Count(&pending).Error; err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if pending < 5 {
		t.Fatalf("expected outbox rows for every ledger write, got %d", pending)
	}

	assertPlanDatesStableAfterRefresh(t, userCtx)
}

// A business east of UTC keeps its plan's calendar dates through the daily refresh.
func assertPlanDatesStableAfterRefresh(t *testing.T, ctx context.Context) {
	t.Helper()
	biz, err := models.CreateBusiness(ctx, &models.NewBusiness{
		Name:     "Tokyo Capital",
		Email:    "ops@tokyo.local",
		Timezone: "Asia/Tokyo",
	})
	if err != nil {
		t.Fatalf("CreateBusiness(tokyo): %v", err)
	}
	businessID := biz.ID.String()
	ctx = utils.SetBusinessIdInContext(ctx, businessID)

	merchant, err := models.CreateAccount(ctx, &models.NewAccount{AccountType: models.AccountTypeMerchant, Name: "Ramen Bar"})
	if err != nil {
		t.Fatalf("CreateAccount(tokyo merchant): %v", err)
	}
	funding, err := models.CreateFunding(ctx, &models.NewFunding{
		MerchantId:    merchant.ID,
		AdvanceAmount: utils.NewMoney(decimal.NewFromInt(1000)),
		FactorRate:    utils.NewMoney(decimal.RequireFromString("1.3")),
	})
	if err != nil {
		t.Fatalf("CreateFunding(tokyo): %v", err)
	}
	created, err := models.CreatePaybackPlan(ctx, &models.NewPaybackPlan{
		FundingId:    funding.ID,
		StartDate:    "2026-01-05",
		Frequency:    "WEEKLY",
		PaydayList:   "3",
		PaybackCount: 4,
	})
	if err != nil {
		t.Fatalf("CreatePaybackPlan(tokyo): %v", err)
	}

	if _, err := models.RefreshBusinessPaybackPlanDates(utils.SystemContext(context.Background(), businessID), businessID); err != nil {
		t.Fatalf("RefreshBusinessPaybackPlanDates: %v", err)
	}
	var stored models.PaybackPlan
	if err := config.GetDB().Where("id = ?", created.ID).First(&stored).Error; err != nil {
		t.Fatalf("load plan: %v", err)
	}
	if got := stored.StartDate.UTC().Format("2006-01-02"); got != "2026-01-05" {
		t.Fatalf("start date = %s, want 2026-01-05", got)
	}
	if stored.ScheduledEndDate == nil || stored.ScheduledEndDate.UTC().Format("2006-01-02") != "2026-02-02" {
		t.Fatalf("scheduled end date after refresh = %v, want 2026-02-02", stored.ScheduledEndDate)
	}
	if stored.NextPaybackDate == nil || stored.NextPaybackDate.UTC().Weekday() != time.Wednesday {
		t.Fatalf("next payback date after refresh = %v, want a Wednesday", stored.NextPaybackDate)
	}
}

func recalc(t *testing.T, ctx context.Context, businessID string, fundingID int) *models.Funding {
	t.Helper()
	var funding *models.Funding
	err := config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		funding, err = models.RecalculateFundingLedger(tx, businessID, fundingID)
		return err
	})
	if err != nil {
		t.Fatalf("RecalculateFundingLedger: %v", err)
	}
	return funding
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("mca-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun("exec", name, "redis-cli", "ping"); err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("mca-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=mca_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent"); err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	m := regexp.MustCompile(`:(\d+)`).FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	out, err := exec.Command("docker", args...).CombinedOutput()
	return string(out), err
}
