package dto

// DashboardStatsResponse carries the headline counters for the dashboard
type DashboardStatsResponse struct {
	TotalPatients     int64 `json:"total_patients"`
	TotalDoctors      int64 `json:"total_doctors"`
	TodayAppointments int64 `json:"today_appointments"`
}
