package dto

import "github.com/noah-isme/reporting-engine/internal/models"

// LiveStatsQuery captures the live quiz report window.
type LiveStatsQuery struct {
	StartDate *string `form:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `form:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Format    string  `form:"format" validate:"omitempty,oneof=json csv xlsx"`
}

// ExportRequest captures POST /exports payload.
type ExportRequest struct {
	SessionID string              `json:"session_id" validate:"required"`
	Format    models.ExportFormat `json:"format" validate:"required,export_format"`
	Stream    string              `json:"stream,omitempty" validate:"omitempty,oneof=JEE NEET jee neet"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	SessionID string              `json:"session_id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
