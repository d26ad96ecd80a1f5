package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func strp(s string) *string { return &s }

func TestLabelPrefersName(t *testing.T) {
    r := &MaternalRecord{Name: strp("Alice"), ExternalID: strp("ext-1")}
    assert.Equal(t, "Alice", r.Label())

    r.Name = nil
    assert.Equal(t, "ext-1", r.Label())

    assert.Equal(t, "", (&MaternalRecord{}).Label())
}

func TestDiseaseList(t *testing.T) {
    r := &PostDeliveryRecord{ChildDiseases: strp("jaundice, ,sepsis ")}
    assert.Equal(t, []string{"jaundice", "sepsis"}, r.DiseaseList())

    assert.Equal(t, []string{}, (&PostDeliveryRecord{}).DiseaseList())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "asha@example.org", NormalizeEmail("  Asha@Example.ORG "))
}
