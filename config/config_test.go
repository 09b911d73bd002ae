package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"FAL_KEY", "FAL_AI_API_KEY", "STAGE_TIMEOUT", "BATCH_TIMEOUT", "PIPELINE_CONCURRENCY", "BLOB_BACKEND"} {
		t.Setenv(k, "")
	}
	LoadConfig()

	if StageTimeout != 5*time.Minute || BatchTimeout != 30*time.Minute {
		t.Fatalf("timeouts = %s/%s", StageTimeout, BatchTimeout)
	}
	if PipelineConcurrency != 1 || BlobBackend != "s3" {
		t.Fatalf("concurrency=%d backend=%q", PipelineConcurrency, BlobBackend)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("FAL_KEY", "")
	t.Setenv("FAL_AI_API_KEY", "legacy-key")
	t.Setenv("STAGE_TIMEOUT", "90s")
	t.Setenv("BATCH_TIMEOUT", "not-a-duration")
	t.Setenv("PIPELINE_CONCURRENCY", "0")
	t.Setenv("S3_PUBLIC_READ", "false")
	LoadConfig()

	if FalKey != "legacy-key" {
		t.Fatalf("FalKey = %q", FalKey)
	}
	if StageTimeout != 90*time.Second {
		t.Fatalf("StageTimeout = %s", StageTimeout)
	}
	if BatchTimeout != 30*time.Minute {
		t.Fatalf("invalid duration must fall back, got %s", BatchTimeout)
	}
	if PipelineConcurrency != 1 {
		t.Fatalf("concurrency below 1 must fall back, got %d", PipelineConcurrency)
	}
	if S3PublicRead {
		t.Fatal("S3_PUBLIC_READ=false ignored")
	}
}
