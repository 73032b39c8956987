package entity

import (
	"time"

	"github.com/google/uuid"
)

// Patient represents a registered patient record
type Patient struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name             string    `gorm:"type:varchar(255);not null;index" json:"name"`
	Age              int       `gorm:"not null" json:"age"`
	Gender           string    `gorm:"type:varchar(10);not null" json:"gender"`
	Phone            string    `gorm:"type:varchar(20);not null;index" json:"phone"`
	Email            string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	Address          string    `gorm:"type:text" json:"address,omitempty"`
	Disease          string    `gorm:"type:varchar(255)" json:"disease,omitempty"`
	BloodGroup       string    `gorm:"type:varchar(3)" json:"blood_group,omitempty"`
	EmergencyContact string    `gorm:"type:varchar(20)" json:"emergency_contact,omitempty"`
	AdmissionDate    time.Time `gorm:"type:date;not null" json:"admission_date"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Appointments []Appointment `gorm:"foreignKey:PatientID" json:"appointments,omitempty"`
}

func (Patient) TableName() string {
	return "patients"
}

// BloodGroups is the canonical set of accepted blood group values
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// IsValidBloodGroup reports whether bg is one of the canonical blood groups
func IsValidBloodGroup(bg string) bool {
	for _, v := range BloodGroups {
		if v == bg {
			return true
		}
	}
	return false
}
