package converter

import (
	"hospital-management-api/internal/delivery/dto"
	"hospital-management-api/internal/domain/entity"
)

// PatientToResponse converts a Patient entity to PatientResponse DTO
func PatientToResponse(patient *entity.Patient) *dto.PatientResponse {
	if patient == nil {
		return nil
	}

	return &dto.PatientResponse{
		ID:               patient.ID,
		Name:             patient.Name,
		Age:              patient.Age,
		Gender:           patient.Gender,
		Phone:            patient.Phone,
		Email:            patient.Email,
		Address:          patient.Address,
		Disease:          patient.Disease,
		BloodGroup:       patient.BloodGroup,
		EmergencyContact: patient.EmergencyContact,
		AdmissionDate:    patient.AdmissionDate.Format("2006-01-02"),
		CreatedAt:        patient.CreatedAt,
		UpdatedAt:        patient.UpdatedAt,
	}
}

// PatientsToResponses converts a slice of Patient entities to response DTOs
func PatientsToResponses(patients []entity.Patient) []dto.PatientResponse {
	responses := make([]dto.PatientResponse, len(patients))
	for i := range patients {
		responses[i] = *PatientToResponse(&patients[i])
	}
	return responses
}
