package config

import (
    "strings"
    "time"
)

// PredictorConfig points at the external risk prediction service.
type PredictorConfig struct {
    BaseURL        string        // PYTHON_URL, trailing slash removed
    Timeout        time.Duration // per-request timeout
    RetryOnNetwork int           // extra attempts allowed for connection-level failures
}

// LoadPredictorConfig reads PYTHON_URL, PREDICT_TIMEOUT_MS and
// PREDICT_RETRY_ON_NETWORK.
func LoadPredictorConfig() PredictorConfig {
    cfg := PredictorConfig{
        BaseURL:        strings.TrimRight(envStr("PYTHON_URL", "http://127.0.0.1:8000"), "/"),
        Timeout:        time.Duration(envInt("PREDICT_TIMEOUT_MS", 30000)) * time.Millisecond,
        RetryOnNetwork: envInt("PREDICT_RETRY_ON_NETWORK", 1),
    }
    if cfg.Timeout <= 0 {
        cfg.Timeout = 30 * time.Second
    }
    if cfg.RetryOnNetwork < 0 {
        cfg.RetryOnNetwork = 0
    }
    return cfg
}
