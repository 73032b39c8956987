package dto

import (
	"time"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID           int64                  `json:"id"`
	UserID       *uuid.UUID             `json:"user_id,omitempty"`
	UserFullName string                 `json:"user_full_name,omitempty"`
	Action       string                 `json:"action"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int64              `json:"total"`
}
