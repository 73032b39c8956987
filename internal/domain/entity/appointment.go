package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "Scheduled"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "NoShow"
)

// IsValidAppointmentStatus reports whether s is one of the known statuses
func IsValidAppointmentStatus(s string) bool {
	switch AppointmentStatus(s) {
	case AppointmentStatusScheduled, AppointmentStatusCompleted,
		AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// Appointment represents a booked slot for a doctor.
//
// The slot (doctor_id, appointment_date, appointment_time) is guarded by a
// partial unique index over non-cancelled rows, so at most one non-cancelled
// appointment can hold a slot at any time, including under concurrent inserts.
type Appointment struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	AppointmentDate time.Time         `gorm:"type:date;not null;index" json:"appointment_date"`
	AppointmentTime string            `gorm:"type:time;not null" json:"appointment_time"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;default:'Scheduled';index" json:"status"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  Doctor  `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsScheduled checks if the appointment is still scheduled
func (a *Appointment) IsScheduled() bool {
	return a.Status == AppointmentStatusScheduled
}

// IsCancelled checks if the appointment is cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// Cancel sets the status to cancelled
func (a *Appointment) Cancel() {
	a.Status = AppointmentStatusCancelled
}

// SameSlot reports whether the appointment occupies the given slot
func (a *Appointment) SameSlot(doctorID uuid.UUID, date time.Time, timeOfDay string) bool {
	return a.DoctorID == doctorID &&
		a.AppointmentDate.Equal(date) &&
		NormalizeClockTime(a.AppointmentTime) == NormalizeClockTime(timeOfDay)
}

// NormalizeClockTime trims a trailing seconds component: the database returns
// "10:00:00" for a TIME column while requests carry "10:00".
func NormalizeClockTime(s string) string {
	if len(s) == 8 {
		return s[:5]
	}
	return s
}
