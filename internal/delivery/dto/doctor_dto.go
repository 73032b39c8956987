package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateDoctorRequest struct {
	Name            string          `json:"name" validate:"required,min=2"`
	Specialization  string          `json:"specialization" validate:"required"`
	Phone           string          `json:"phone" validate:"required,min=7,max=20"`
	Email           string          `json:"email" validate:"omitempty,email"`
	ExperienceYears int             `json:"experience_years" validate:"gte=0,lte=50"`
	Qualification   string          `json:"qualification" validate:"omitempty"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"` // defaults to zero, negative rejected
	AvailableDays   string          `json:"available_days" validate:"omitempty,max=50"`
	AvailableTime   string          `json:"available_time" validate:"omitempty,max=20"`
}

type UpdateDoctorRequest struct {
	Name            string           `json:"name" validate:"omitempty,min=2"`
	Specialization  string           `json:"specialization" validate:"omitempty"`
	Phone           string           `json:"phone" validate:"omitempty,min=7,max=20"`
	Email           string           `json:"email" validate:"omitempty,email"`
	ExperienceYears *int             `json:"experience_years" validate:"omitempty,gte=0,lte=50"`
	Qualification   string           `json:"qualification" validate:"omitempty"`
	ConsultationFee *decimal.Decimal `json:"consultation_fee"`
	AvailableDays   string           `json:"available_days" validate:"omitempty,max=50"`
	AvailableTime   string           `json:"available_time" validate:"omitempty,max=20"`
}

// Response DTOs

type DoctorResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Specialization  string          `json:"specialization"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email,omitempty"`
	ExperienceYears int             `json:"experience_years"`
	Qualification   string          `json:"qualification,omitempty"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
	AvailableDays   string          `json:"available_days,omitempty"`
	AvailableTime   string          `json:"available_time,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}
