package storage

import "testing"

func TestPublicBaseURL(t *testing.T) {
	if got := publicBaseURL(MinioConfig{}, "localhost:9000", "images"); got != "http://localhost:9000/images" {
		t.Fatalf("unexpected default base url %q", got)
	}
	if got := publicBaseURL(MinioConfig{UseSSL: true}, "s3.example.com", "images"); got != "https://s3.example.com/images" {
		t.Fatalf("unexpected ssl base url %q", got)
	}
	if got := publicBaseURL(MinioConfig{PublicBaseURL: "https://cdn.example.com/"}, "x", "y"); got != "https://cdn.example.com" {
		t.Fatalf("unexpected configured base url %q", got)
	}
}

func TestJoinURL(t *testing.T) {
	got := JoinURL("https://cdn.example.com/", "/products/7/a b.png")
	if got != "https://cdn.example.com/products/7/a%20b.png" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestNewMinioStoreRequiresEndpoint(t *testing.T) {
	if _, err := NewMinioStore(MinioConfig{Bucket: "b"}); err == nil {
		t.Fatalf("expected missing endpoint to fail")
	}
}
