package model

import (
    "strings"
    "time"
)

// PostDeliveryRecord is a follow-up form filled after birth (`post_delivery`).
type PostDeliveryRecord struct {
    ID            uint64    `json:"id"`
    MotherName    *string   `json:"mother_name"`
    DeliveryDate  time.Time `json:"-"`
    Complications *string   `json:"complications"`
    ChildWeightKg float64   `json:"child_weight_kg"`
    ChildDiseases *string   `json:"child_diseases"` // comma separated
    Notes         *string   `json:"notes"`
    SubmittedAt   time.Time `json:"submitted_at"`
    ExternalID    *string   `json:"external_id"`
    SubmittedBy   *uint64   `json:"submitted_by,omitempty"`
    CreatedAt     time.Time `json:"created_at"`
}

// DeliveryDay renders DeliveryDate as YYYY-MM-DD.
func (r *PostDeliveryRecord) DeliveryDay() string {
    return r.DeliveryDate.Format("2006-01-02")
}

// DiseaseList splits ChildDiseases on commas, trimming blanks.
func (r *PostDeliveryRecord) DiseaseList() []string {
    out := []string{}
    if r.ChildDiseases == nil {
        return out
    }
    for _, s := range strings.Split(*r.ChildDiseases, ",") {
        if s = strings.TrimSpace(s); s != "" {
            out = append(out, s)
        }
    }
    return out
}
