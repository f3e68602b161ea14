package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"craftbrowser.ai/internal/persistence/r2s3"
)

// buildAuditMirror returns nil unless CB_AUDIT_MIRROR is set.
func buildAuditMirror(dataDir string, logger *log.Logger) (*r2s3.Mirror, error) {
	if !envBool("CB_AUDIT_MIRROR", false) {
		return nil, nil
	}
	cfg := r2s3.Config{
		Endpoint:        os.Getenv("CB_S3_ENDPOINT"),
		Bucket:          os.Getenv("CB_S3_BUCKET"),
		Region:          os.Getenv("CB_S3_REGION"),
		AccessKeyID:     os.Getenv("CB_S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("CB_S3_SECRET_ACCESS_KEY"),
	}
	client, err := r2s3.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("CB_AUDIT_MIRROR=true: %w", err)
	}
	prefix := strings.TrimSpace(os.Getenv("CB_S3_PREFIX"))
	return r2s3.NewMirror(client, dataDir, prefix, envInt("CB_S3_UPLOAD_WORKERS", 2), logger), nil
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
