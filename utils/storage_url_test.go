package utils

import (
	"strings"
	"testing"
)

func TestBuildAndExtractObjectKey(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_BASE_URL", "")
	t.Setenv("GCS_BUCKET", "mca-docs")

	key := "biz-1/fundings/12/contract.pdf"
	u := BuildObjectAccessURL(key)
	if u != "https://storage.googleapis.com/mca-docs/"+key {
		t.Fatalf("unexpected url %s", u)
	}
	if got := ExtractObjectKeyFromURL(u); got != key {
		t.Fatalf("expected %s, got %s", key, got)
	}
	if got := ExtractObjectKeyFromURL("gs://mca-docs/" + key); got != key {
		t.Fatalf("gs url: expected %s, got %s", key, got)
	}
	if got := ExtractObjectKeyFromURL(key); got != key {
		t.Fatalf("raw key: expected %s, got %s", key, got)
	}
	if got := ExtractObjectKeyFromURL("biz/../other/secret"); got != "" {
		t.Fatalf("expected traversal to be rejected, got %s", got)
	}
}

func TestAccessBaseURLPlaceholder(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_BASE_URL", "https://files.example.com/get?key={objectKey}")
	key := "biz-1/accounts/3/id card.png"
	u := BuildObjectAccessURL(key)
	if !strings.HasPrefix(u, "https://files.example.com/get?key=") {
		t.Fatalf("unexpected url %s", u)
	}
	if got := ExtractObjectKeyFromURL(u); got != key {
		t.Fatalf("expected %s, got %s", key, got)
	}
}

func TestDocumentObjectKey(t *testing.T) {
	key := DocumentObjectKey("biz-1", "fundings", 7, "../Signed Contract.pdf")
	if !strings.HasPrefix(key, "biz-1/fundings/7/") || !strings.HasSuffix(key, "_Signed_Contract.pdf") {
		t.Fatalf("unexpected key %s", key)
	}
	if got := ThumbnailObjectKey("biz-1/fundings/7/abc_photo.png"); got != "biz-1/fundings/7/thumbs/abc_photo.jpg" {
		t.Fatalf("unexpected thumbnail key %s", got)
	}
}

func TestDocumentContentTypes(t *testing.T) {
	if !IsAllowedDocumentType("application/pdf") || !IsAllowedDocumentType("image/PNG; charset=binary") {
		t.Fatalf("expected pdf and png to be allowed")
	}
	if IsAllowedDocumentType("application/x-msdownload") {
		t.Fatalf("executables must be rejected")
	}
	pdf := []byte("%PDF-1.7\n%âãÏÓ\n")
	if got := DetectDocumentContentType("contract.pdf", pdf); got != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", got)
	}
	if !IsImageContentType("image/jpeg") || IsImageContentType("application/pdf") {
		t.Fatalf("image detection is wrong")
	}
}
