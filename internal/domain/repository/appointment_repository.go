package repository

import (
	"time"

	"hospital-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindAll(db *gorm.DB) ([]entity.Appointment, error)
	FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error)
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error)
	FindByDate(db *gorm.DB, date time.Time) ([]entity.Appointment, error)
	Update(db *gorm.DB, appointment *entity.Appointment) error
	UpdateStatus(db *gorm.DB, id uuid.UUID, status entity.AppointmentStatus) (int64, error)
	Delete(db *gorm.DB, id uuid.UUID) (int64, error)
	CountSlot(db *gorm.DB, doctorID uuid.UUID, date time.Time, timeOfDay string, excludeID uuid.UUID) (int64, error)
	CountByDate(db *gorm.DB, date time.Time) (int64, error)
}
