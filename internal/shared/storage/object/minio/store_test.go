package minio

import "testing"

func TestNewValidatesConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{name: "missing endpoint", cfg: Config{AccessKey: "a", SecretKey: "s", Bucket: "b"}},
		{name: "missing credentials", cfg: Config{Endpoint: "localhost:9000", Bucket: "b"}},
		{name: "missing bucket", cfg: Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestObjectKeyAppliesPrefix(t *testing.T) {
	store, err := New(Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "rules",
		Prefix:    "/tables/",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := store.objectKey("/rules.yaml"); got != "tables/rules.yaml" {
		t.Fatalf("objectKey = %q", got)
	}
	if store.region != "us-east-1" {
		t.Fatalf("expected default region, got %q", store.region)
	}
}
