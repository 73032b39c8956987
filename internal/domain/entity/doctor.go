package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Doctor represents a doctor record including declared availability metadata.
// AvailableDays holds comma-separated weekday codes ("Mon,Wed,Fri") and
// AvailableTime a daily window ("09:00-17:00"); both are display metadata,
// not enforced by the scheduler.
type Doctor struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name            string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Specialization  string          `gorm:"type:varchar(100);not null;index" json:"specialization"`
	Phone           string          `gorm:"type:varchar(20);not null" json:"phone"`
	Email           string          `gorm:"type:varchar(255)" json:"email,omitempty"`
	ExperienceYears int             `gorm:"not null;default:0" json:"experience_years"`
	Qualification   string          `gorm:"type:varchar(255)" json:"qualification,omitempty"`
	ConsultationFee decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"consultation_fee"`
	AvailableDays   string          `gorm:"type:varchar(50)" json:"available_days,omitempty"`
	AvailableTime   string          `gorm:"type:varchar(20)" json:"available_time,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Appointments []Appointment `gorm:"foreignKey:DoctorID" json:"appointments,omitempty"`
}

func (Doctor) TableName() string {
	return "doctors"
}
