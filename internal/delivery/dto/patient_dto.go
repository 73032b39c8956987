package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreatePatientRequest struct {
	Name             string `json:"name" validate:"required,min=2"`
	Age              *int   `json:"age" validate:"required,gte=0,lte=150"`
	Gender           string `json:"gender" validate:"required,oneof=Male Female Other"`
	Phone            string `json:"phone" validate:"required,min=7,max=20"`
	Email            string `json:"email" validate:"omitempty,email"`
	Address          string `json:"address" validate:"omitempty"`
	Disease          string `json:"disease" validate:"omitempty"`
	BloodGroup       string `json:"blood_group" validate:"omitempty"`
	EmergencyContact string `json:"emergency_contact" validate:"omitempty,max=20"`
	AdmissionDate    string `json:"admission_date" validate:"omitempty"` // Format: YYYY-MM-DD, defaults to today
}

type UpdatePatientRequest struct {
	Name             string `json:"name" validate:"omitempty,min=2"`
	Age              *int   `json:"age" validate:"omitempty,gte=0,lte=150"`
	Gender           string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Phone            string `json:"phone" validate:"omitempty,min=7,max=20"`
	Email            string `json:"email" validate:"omitempty,email"`
	Address          string `json:"address" validate:"omitempty"`
	Disease          string `json:"disease" validate:"omitempty"`
	BloodGroup       string `json:"blood_group" validate:"omitempty"`
	EmergencyContact string `json:"emergency_contact" validate:"omitempty,max=20"`
	AdmissionDate    string `json:"admission_date" validate:"omitempty"`
}

// Response DTOs

type PatientResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Age              int       `json:"age"`
	Gender           string    `json:"gender"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email,omitempty"`
	Address          string    `json:"address,omitempty"`
	Disease          string    `json:"disease,omitempty"`
	BloodGroup       string    `json:"blood_group,omitempty"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
	AdmissionDate    string    `json:"admission_date"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type PatientListResponse struct {
	Patients []PatientResponse `json:"patients"`
	Total    int               `json:"total"`
}
