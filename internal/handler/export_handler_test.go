package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reporting-engine/internal/dto"
	"github.com/noah-isme/reporting-engine/internal/middleware"
	"github.com/noah-isme/reporting-engine/internal/models"
	"github.com/noah-isme/reporting-engine/internal/service"
	appErrors "github.com/noah-isme/reporting-engine/pkg/errors"
)

type exportJobServiceMock struct {
	createResp  *dto.ExportJobResponse
	createErr   error
	statusResp  *dto.ExportStatusResponse
	statusErr   error
	download    *service.ExportDownload
	downloadErr error
	lastActor   string
	lastRequest dto.ExportRequest
}

func (m *exportJobServiceMock) CreateJob(_ context.Context, req dto.ExportRequest, actorID string) (*dto.ExportJobResponse, error) {
	m.lastRequest = req
	m.lastActor = actorID
	return m.createResp, m.createErr
}

func (m *exportJobServiceMock) GetStatus(context.Context, string) (*dto.ExportStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *exportJobServiceMock) ResolveDownload(context.Context, string) (*service.ExportDownload, error) {
	return m.download, m.downloadErr
}

func TestExportHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &exportJobServiceMock{
		createResp: &dto.ExportJobResponse{ID: "job-1", Status: models.ExportStatusQueued},
	}
	handler := NewExportHandler(mockSvc)

	payload, _ := json.Marshal(dto.ExportRequest{SessionID: "s-1", Format: models.ExportFormatCSV})
	c, w := newGinContext(http.MethodPost, "/exports", payload)
	c.Set(middleware.ContextUserKey, &models.Principal{ID: "staff-1"})

	handler.Create(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "staff-1", mockSvc.lastActor)
	assert.Equal(t, "s-1", mockSvc.lastRequest.SessionID)
	assert.Equal(t, "job-1", decodeEnvelope(t, w).Data["id"])
}

func TestExportHandlerCreateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&exportJobServiceMock{})

	c, w := newGinContext(http.MethodPost, "/exports", []byte("{"))
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&exportJobServiceMock{
		statusResp: &dto.ExportStatusResponse{ID: "job-1", Status: models.ExportStatusFinished, Progress: 100},
	})

	c, w := newGinContext(http.MethodGet, "/exports/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	handler.Status(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FINISHED", decodeEnvelope(t, w).Data["status"])
}

func TestExportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte("Student ID\nu-1\n"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	handler := NewExportHandler(&exportJobServiceMock{download: &service.ExportDownload{
		File:      file,
		Filename:  "session_s-1.csv",
		Format:    models.ExportFormatCSV,
		ExpiresAt: time.Now().Add(time.Hour),
	}})

	c, w := newGinContext(http.MethodGet, "/export/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}
	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Student ID\nu-1\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "session_s-1.csv")
}

func TestExportHandlerDownloadForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&exportJobServiceMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "download link expired")})

	c, w := newGinContext(http.MethodGet, "/export/bad", nil)
	handler.Download(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
