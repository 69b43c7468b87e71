package utils

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mcaservicing/mca_backend/config"
	"github.com/redis/go-redis/v9"
)

type Account struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Payback struct {
	ID int `json:"id"`
}

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	config.UseRedisClient(redis.NewClient(&redis.Options{Addr: s.Addr()}))
	t.Cleanup(func() {
		config.UseRedisClient(nil)
		s.Close()
	})
	return s
}

func TestRedisItemCache(t *testing.T) {
	s := useMiniredis(t)

	if err := StoreRedis[Account](&Account{ID: 7, Name: "Acme Diner"}, 7); err != nil {
		t.Fatalf("store: %v", err)
	}
	if !s.Exists("Account:7") {
		t.Fatalf("expected Account:7 key")
	}
	if ttl := s.TTL("Account:7"); ttl <= 0 {
		t.Fatalf("accounts should expire, ttl=%v", ttl)
	}

	got, err := RetrieveRedis[Account](7)
	if err != nil || got == nil || got.Name != "Acme Diner" {
		t.Fatalf("retrieve: got %+v err %v", got, err)
	}

	if err := RemoveRedisItem[Account](7); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, err = RetrieveRedis[Account](7)
	if err != nil || got != nil {
		t.Fatalf("expected cache miss after remove, got %+v err %v", got, err)
	}
}

func TestRedisListCacheWithoutExpiry(t *testing.T) {
	s := useMiniredis(t)

	list := []*Payback{{ID: 1}, {ID: 2}}
	if err := StoreRedisList[Payback](list, "biz-1"); err != nil {
		t.Fatalf("store list: %v", err)
	}
	if ttl := s.TTL("PaybackList:biz-1"); ttl != 0 {
		t.Fatalf("payback list should not expire, ttl=%v", ttl)
	}
	got, err := RetrieveRedisList[Payback]("biz-1")
	if err != nil || len(got) != 2 || got[1].ID != 2 {
		t.Fatalf("retrieve list: got %v err %v", got, err)
	}
	if err := RemoveRedisList[Payback]("biz-1"); err != nil {
		t.Fatalf("remove list: %v", err)
	}
	if s.Exists("PaybackList:biz-1") {
		t.Fatalf("expected list key to be removed")
	}
}

func TestRedisHelpersWithoutClient(t *testing.T) {
	config.UseRedisClient(nil)
	got, err := RetrieveRedis[Account](1)
	if err != nil || got != nil {
		t.Fatalf("expected silent miss without redis, got %+v err %v", got, err)
	}
}

func TestFormatSequence(t *testing.T) {
	if got := FormatSequence("MCA", 42); got != "MCA-000042" {
		t.Fatalf("unexpected %s", got)
	}
}
