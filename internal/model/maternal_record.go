package model

import "time"

// MaternalRecord is one pre-delivery questionnaire as stored in
// `maternal_health_diff`.  Every questionnaire column is nullable because
// field workers may only know part of the history; a record needs at least
// a Name or an ExternalID.  The JSON form is what the mobile client and the
// prediction service both consume.
type MaternalRecord struct {
    ID                      uint64    `json:"id"`
    Name                    *string   `json:"name"`
    Age                     *int64    `json:"age"`
    PastPregnancyCount      *int64    `json:"past_pregnancy_count"`
    BloodGroupMother        *string   `json:"blood_group_mother"`
    BloodGroupFather        *string   `json:"blood_group_father"`
    MedicalBgMother         *string   `json:"medical_bg_mother"`  // comma separated conditions
    MedicalBgFather         *string   `json:"medical_bg_father"`  // comma separated conditions
    YearsSinceLastPregnancy *int64    `json:"years_since_last_pregnancy"`
    DeliveryType            *string   `json:"delivery_type"`
    Haemoglobin             *float64  `json:"haemoglobin"` // g/dL, one decimal
    ExternalID              *string   `json:"external_id"`
    SubmittedBy             *uint64   `json:"submitted_by,omitempty"`
    Surveyed                bool      `json:"surveyed"`
    CreatedAt               time.Time `json:"created_at"`
}

// Label returns the best human identifier of the record: the name when
// present, otherwise the external id.
func (r *MaternalRecord) Label() string {
    if r.Name != nil && *r.Name != "" {
        return *r.Name
    }
    if r.ExternalID != nil {
        return *r.ExternalID
    }
    return ""
}
