// model.go defines the persisted data model for users and detection history.
package datastore

import (
	"encoding/json"
	"time"
)

// User represents an account that can log in and own detection history.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Fullname     string
	Email        string

	// Deleting a user cascades to their detection history.
	Detections []Detection `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Detection represents one finalized upload-mode detection. Records are
// immutable after creation and only removed by the owning user's cascade
// delete.
type Detection struct {
	ID              uint      `gorm:"primaryKey"`
	UserID          uint      `gorm:"index;not null"`
	DetectionDate   time.Time `gorm:"index;autoCreateTime"`
	ImagePath       string
	Diseases        string `gorm:"type:text"` // JSON-encoded list of findings
	Confidence      float64
	Recommendations string `gorm:"type:text"`
}

// SetDiseases stores the findings list as its JSON serialization.
func (d *Detection) SetDiseases(diseases []string) error {
	data, err := json.Marshal(diseases)
	if err != nil {
		return err
	}
	d.Diseases = string(data)
	return nil
}

// DiseaseList parses the stored findings back into a list. An empty or
// unparseable column yields an empty list rather than an error so history
// rendering always works.
func (d *Detection) DiseaseList() []string {
	if d.Diseases == "" {
		return []string{}
	}
	var diseases []string
	if err := json.Unmarshal([]byte(d.Diseases), &diseases); err != nil {
		return []string{}
	}
	return diseases
}
