package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mcaservicing/mca_backend/config"
	"github.com/redis/go-redis/v9"
)

func TestValidatePhoneNumber(t *testing.T) {
	if err := ValidatePhoneNumber("(212) 736-5000", "US"); err != nil {
		t.Fatalf("expected valid US number, got %v", err)
	}
	if err := ValidatePhoneNumber("12", "US"); err == nil {
		t.Fatalf("expected short number to be rejected")
	}
	got, err := FormatPhoneNumber("(212) 736-5000", "")
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if got != "+12127365000" {
		t.Fatalf("expected +12127365000, got %s", got)
	}
}

func TestConvertToDate(t *testing.T) {
	// 2024-03-01 03:30 UTC is still Feb 29 in New York
	in := time.Date(2024, 3, 1, 3, 30, 0, 0, time.UTC)
	d, err := ConvertToDate(in, "America/New_York")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Format("2006-01-02") != "2024-02-29" || d.Hour() != 0 {
		t.Fatalf("expected 2024-02-29 midnight, got %s", d)
	}
	if _, err := ConvertToDate(in, "Not/AZone"); err == nil {
		t.Fatalf("expected bad timezone to fail")
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]int{3, 1, 3, 2, 1})
	if len(got) != 3 || got[0] != 3 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestWithBusinessLock(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer s.Close()
	config.UseRedisClient(redis.NewClient(&redis.Options{Addr: s.Addr()}))
	defer config.UseRedisClient(nil)

	ran := false
	err = WithBusinessLock(context.Background(), "biz-1", "funding", "utils", "TestWithBusinessLock", func() error {
		ran = true
		if !s.Exists("funding:biz-1") {
			t.Fatalf("expected lock key to be held during fn")
		}
		return nil
	})
	if err != nil || !ran {
		t.Fatalf("expected fn to run, err=%v", err)
	}
	if s.Exists("funding:biz-1") {
		t.Fatalf("expected lock to be released")
	}
}
