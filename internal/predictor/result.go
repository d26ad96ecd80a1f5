package predictor

// Result is the body returned by POST /predict.  Each entry of Predictions
// maps a flag column to 0/1 and each entry of Probabilities maps it to a
// probability; both carry "_input_id" when ids were requested.
type Result struct {
	Predictions   []map[string]any `json:"predictions"`
	Probabilities []map[string]any `json:"probabilities"`
	Risk          []float64        `json:"risk"`
	Columns       Columns          `json:"columns"`
	InputIDs      []any            `json:"input_ids,omitempty"`
}

// Columns names the flag and probability columns the model produced.
type Columns struct {
	Flags         []string `json:"flags"`
	Probabilities []string `json:"probabilities"`
}

// RiskScore returns the risk of the first input, or false when the service
// sent none.
func (r *Result) RiskScore() (float64, bool) {
	if r == nil || len(r.Risk) == 0 {
		return 0, false
	}
	return r.Risk[0], true
}

// Health is the body returned by GET /health.
type Health struct {
	Status         string  `json:"status"`
	ModelLoadError *string `json:"model_load_error"`
}

// OK reports whether the service is up with its model loaded.
func (h *Health) OK() bool {
	return h != nil && h.Status == "ok" && (h.ModelLoadError == nil || *h.ModelLoadError == "")
}
