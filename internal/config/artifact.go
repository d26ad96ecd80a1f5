package config

import "strings"

// ArtifactConfig selects where prediction JSON documents are kept.
// Backend is "file" (default) or "s3".
type ArtifactConfig struct {
    Backend    string
    Dir        string
    S3Bucket   string
    S3Prefix   string
    S3Endpoint string // optional, for MinIO/LocalStack style endpoints
    S3Region   string
}

func LoadArtifactConfig() ArtifactConfig {
    return ArtifactConfig{
        Backend:    strings.ToLower(envStr("PREDICTIONS_BACKEND", "file")),
        Dir:        envStr("PREDICTIONS_DIR", "predictions"),
        S3Bucket:   envStr("PREDICTIONS_S3_BUCKET", ""),
        S3Prefix:   envStr("PREDICTIONS_S3_PREFIX", "predictions/"),
        S3Endpoint: envStr("PREDICTIONS_S3_ENDPOINT", ""),
        S3Region:   envStr("AWS_REGION", "us-east-1"),
    }
}
