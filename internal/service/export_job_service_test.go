package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/gradepro-api/internal/models"
	"github.com/noah-isme/gradepro-api/internal/repository"
	appErrors "github.com/noah-isme/gradepro-api/pkg/errors"
	"github.com/noah-isme/gradepro-api/pkg/jobs"
	"github.com/noah-isme/gradepro-api/pkg/storage"
)

type exportJobRepoStub struct {
	jobs map[string]*models.ExportJob
}

func newExportJobRepoStub() *exportJobRepoStub {
	return &exportJobRepoStub{jobs: map[string]*models.ExportJob{}}
}

func (r *exportJobRepoStub) Create(_ context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *exportJobRepoStub) GetByID(_ context.Context, id string) (*models.ExportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (r *exportJobRepoStub) Update(_ context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *exportJobRepoStub) ListQueued(context.Context, int) ([]models.ExportJob, error) {
	var queued []models.ExportJob
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (r *exportJobRepoStub) ListFinishedBefore(_ context.Context, cutoff time.Time, _ int) ([]models.ExportJob, error) {
	var finished []models.ExportJob
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusFinished && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			finished = append(finished, *job)
		}
	}
	return finished, nil
}

func (r *exportJobRepoStub) DeleteFinishedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, job := range r.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
			n++
		}
	}
	return n, nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type exportFixture struct {
	jobs     *ExportJobService
	exporter *ExportService
	repo     *exportJobRepoStub
	queue    *queueStub
	files    *storage.LocalStorage
}

func newExportFixture(t *testing.T) exportFixture {
	t.Helper()
	sessions, _ := newTestSessionService()
	_, err := sessions.Save(context.Background(), "student-1", []byte(sampleSession))
	require.NoError(t, err)

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exporter := NewExportService(sessions, files, storage.NewSignedURLSigner("secret", time.Hour), ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop())
	repo := newExportJobRepoStub()
	queue := &queueStub{}
	svc := NewExportJobService(repo, sessions, queue, exporter, zap.NewNop(), ExportJobServiceConfig{ResultTTL: time.Hour})
	return exportFixture{jobs: svc, exporter: exporter, repo: repo, queue: queue, files: files}
}

func TestExportJobServiceCreateJob(t *testing.T) {
	f := newExportFixture(t)

	status, err := f.jobs.CreateJob(context.Background(), "student-1", "")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, status.Status)
	assert.Equal(t, "csv", status.Format)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, status.ID, f.queue.jobs[0].ID)
	assert.Equal(t, "student-1", f.repo.jobs[status.ID].SessionKey)
}

func TestExportJobServiceCreateJobRejectsBadInput(t *testing.T) {
	f := newExportFixture(t)

	_, err := f.jobs.CreateJob(context.Background(), "student-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsupportedFormat.Code, appErrors.FromError(err).Code)

	_, err = f.jobs.CreateJob(context.Background(), "nobody", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.queue.jobs)
}

func TestExportJobServiceEnqueueFailureMarksJobFailed(t *testing.T) {
	f := newExportFixture(t)
	f.queue.err = errors.New("queue stopped")

	_, err := f.jobs.CreateJob(context.Background(), "student-1", "pdf")
	require.Error(t, err)
	require.Len(t, f.repo.jobs, 1)
	for _, job := range f.repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestExportJobServiceGetStatusHidesOtherSessions(t *testing.T) {
	f := newExportFixture(t)
	f.repo.jobs["job-1"] = &models.ExportJob{ID: "job-1", SessionKey: "student-1", Format: "csv", Status: models.ExportStatusProcessing, Progress: 10}

	status, err := f.jobs.GetStatus(context.Background(), "job-1", "student-1")
	require.NoError(t, err)
	assert.Equal(t, 10, status.Progress)

	_, err = f.jobs.GetStatus(context.Background(), "job-1", "student-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportWorkerGeneratesDownload(t *testing.T) {
	f := newExportFixture(t)
	status, err := f.jobs.CreateJob(context.Background(), "student-1", "csv")
	require.NoError(t, err)

	worker := NewExportWorker(f.repo, f.exporter, 3, zap.NewNop())
	require.NoError(t, worker.Handle(context.Background(), f.queue.jobs[0]))

	job := f.repo.jobs[status.ID]
	assert.Equal(t, models.ExportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.True(t, strings.HasPrefix(*job.ResultURL, "/api/v1/exports/download/"))

	download, err := f.jobs.ResolveDownload(context.Background(), extractToken(*job.ResultURL))
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv", download.ContentType)
	assert.True(t, strings.HasPrefix(download.Filename, "grade-plan_"))

	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Computer Networks,4,A,80.0,40,24,yes,historical-basis")
}

func TestExportJobServiceResolveDownloadRejectsBadTokens(t *testing.T) {
	f := newExportFixture(t)

	_, err := f.jobs.ResolveDownload(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	f.repo.jobs["job-1"] = &models.ExportJob{ID: "job-1", SessionKey: "student-1", Format: "csv", Status: models.ExportStatusProcessing}
	token, _, err := storage.NewSignedURLSigner("secret", time.Hour).Sign("job-1", "job-1/plan.csv")
	require.NoError(t, err)
	_, err = f.jobs.ResolveDownload(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

type exportStub struct {
	result *ExportResult
	err    error
}

func (e exportStub) Generate(context.Context, *models.ExportJob) (*ExportResult, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func TestExportWorkerRequeuesTransientFailure(t *testing.T) {
	repo := newExportJobRepoStub()
	repo.jobs["job-1"] = &models.ExportJob{ID: "job-1", SessionKey: "student-1", Format: "csv", Status: models.ExportStatusQueued}
	worker := NewExportWorker(repo, exportStub{err: errors.New("disk full")}, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusQueued, repo.jobs["job-1"].Status)

	err = worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 3})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusFailed, repo.jobs["job-1"].Status)
}

func TestExportWorkerFailsInvalidSessionWithoutRetry(t *testing.T) {
	repo := newExportJobRepoStub()
	repo.jobs["job-1"] = &models.ExportJob{ID: "job-1", SessionKey: "student-1", Format: "csv", Status: models.ExportStatusQueued}
	worker := NewExportWorker(repo, exportStub{err: appErrors.Clone(appErrors.ErrNotFound, "planning session not found")}, 3, zap.NewNop())

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1"}))
	job := repo.jobs["job-1"]
	assert.Equal(t, models.ExportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "planning session not found")
}

func TestExportJobServiceCleanupRemovesExpiredFiles(t *testing.T) {
	f := newExportFixture(t)
	status, err := f.jobs.CreateJob(context.Background(), "student-1", "csv")
	require.NoError(t, err)
	worker := NewExportWorker(f.repo, f.exporter, 3, zap.NewNop())
	require.NoError(t, worker.Handle(context.Background(), f.queue.jobs[0]))

	job := f.repo.jobs[status.ID]
	parsed, err := f.exporter.ParseToken(extractToken(*job.ResultURL), false)
	require.NoError(t, err)
	old := time.Now().Add(-2 * time.Hour)
	job.FinishedAt = &old

	f.jobs.cleanupExpired(context.Background())

	_, statErr := os.Stat(f.files.Path(parsed.Path))
	assert.True(t, os.IsNotExist(statErr))
	assert.NotContains(t, f.repo.jobs, status.ID)
}
