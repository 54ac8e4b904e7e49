package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protein-design-studio/internal/domain"
	"github.com/protein-design-studio/internal/service"
	"github.com/protein-design-studio/internal/storage"
	"github.com/protein-design-studio/pkg/pipeline"
)

type payload = map[string]any

const validDocument = `template_config:
  protocol: protein-anything
  num_designs: 4
`

type apiBackend struct {
	report *domain.CheckReport
}

func (b *apiBackend) CheckSpec(ctx context.Context, yamlFilename string) (*domain.CheckReport, error) {
	if b.report != nil {
		return b.report, nil
	}
	return &domain.CheckReport{CheckPassed: true}, nil
}

func (b *apiBackend) Submit(ctx context.Context, job *domain.DesignJob) error { return nil }

func (b *apiBackend) Status(ctx context.Context, jobID uuid.UUID) (domain.JobStatus, error) {
	return domain.JobPending, nil
}

type apiRepo struct {
	jobs map[uuid.UUID]*domain.DesignJob
}

func (r *apiRepo) Create(ctx context.Context, job *domain.DesignJob) error {
	r.jobs[job.ID] = job
	return nil
}

func (r *apiRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.DesignJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (r *apiRepo) List(ctx context.Context) ([]*domain.DesignJob, error) {
	var out []*domain.DesignJob
	for _, job := range r.jobs {
		out = append(out, job)
	}
	return out, nil
}

func (r *apiRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error {
	return nil
}

func (r *apiRepo) SetRunTime(ctx context.Context, id uuid.UUID, seconds int64) error {
	return nil
}

type apiEvents struct {
	events []*domain.JobEvent
}

func (e *apiEvents) Append(ctx context.Context, event *domain.JobEvent) error {
	e.events = append(e.events, event)
	return nil
}

func (e *apiEvents) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*domain.JobEvent, error) {
	var out []*domain.JobEvent
	for _, event := range e.events {
		if event.JobID == jobID {
			out = append(out, event)
		}
	}
	return out, nil
}

func (e *apiEvents) Recent(ctx context.Context, limit, offset int) ([]*domain.JobEvent, error) {
	return nil, nil
}

func (e *apiEvents) Count(ctx context.Context) (int64, error) { return 0, nil }

func (e *apiEvents) ExportJSON(ctx context.Context, w io.Writer) error { return nil }

func (e *apiEvents) ImportJSON(ctx context.Context, r io.Reader) (int, int, error) {
	return 0, 0, nil
}

func (e *apiEvents) Close() error { return nil }

type apiConfig struct {
	cfg domain.Config
}

func (m *apiConfig) GetConfig() *domain.Config                   { return &m.cfg }
func (m *apiConfig) GetServerConfig() *domain.ServerConfig       { return &m.cfg.Server }
func (m *apiConfig) GetDatabaseConfig() *domain.DatabaseConfig   { return &m.cfg.Database }
func (m *apiConfig) GetStorageConfig() *domain.StorageConfig     { return &m.cfg.Storage }
func (m *apiConfig) GetPipelineConfig() *domain.PipelineConfig   { return &m.cfg.Pipeline }
func (m *apiConfig) Validate() error                             { return nil }
func (m *apiConfig) GetDatabaseConnectionString() string         { return "" }
func (m *apiConfig) IsProduction() bool                          { return false }
func (m *apiConfig) IsDevelopment() bool                         { return true }

type testServer struct {
	server  *Server
	repo    *apiRepo
	events  *apiEvents
	backend *apiBackend
	store   *storage.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	store, err := storage.NewStore(t.TempDir(), log)
	require.NoError(t, err)

	repo := &apiRepo{jobs: make(map[uuid.UUID]*domain.DesignJob)}
	eventStore := &apiEvents{}
	backend := &apiBackend{}
	hub := pipeline.NewHub(log)
	t.Cleanup(hub.Close)

	design := service.NewDesignService(log, repo, backend, store, eventStore, nil)

	cfg := &apiConfig{cfg: domain.Config{
		Server:  domain.ServerConfig{Host: "127.0.0.1", Port: 0},
		Storage: domain.StorageConfig{MaxUploadSize: 8 << 20},
		Logging: domain.LoggingConfig{Level: "info"},
	}}

	return &testServer{
		server:  NewServer(cfg, design, store, hub, log),
		repo:    repo,
		events:  eventStore,
		backend: backend,
		store:   store,
	}
}

func (ts *testServer) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) postJSON(t *testing.T, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return ts.do(t, http.MethodPost, target, bytes.NewReader(body), "application/json")
}

func (ts *testServer) upload(t *testing.T, filename, content string) string {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := ts.do(t, http.MethodPost, "/api/v1/upload", &buf, writer.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Files []uploadedFile `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 1)
	return resp.Files[0].StoredName
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestValidateSpecEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postJSON(t, "/api/v1/spec/validate", payload{"content": validDocument})
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		IsValid bool     `json:"isValid"`
		Errors  []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateSpecEndpoint_InvalidDocument(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postJSON(t, "/api/v1/spec/validate", payload{"content": "template_config:\n  num_designs: 0\n"})
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		IsValid bool     `json:"isValid"`
		Errors  []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.IsValid)
	assert.NotEmpty(t, result.Errors)
}

func TestValidateSpecEndpoint_BadBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/spec/validate", strings.NewReader("not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCleanSpecEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postJSON(t, "/api/v1/spec/clean", payload{"content": validDocument})
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Content string `json:"content"`
		IsValid bool   `json:"isValid"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.IsValid)
	assert.Equal(t, validDocument, result.Content)
}

func TestUploadAndServeFile(t *testing.T) {
	ts := newTestServer(t)

	stored := ts.upload(t, "binder.yaml", validDocument)
	assert.True(t, strings.HasSuffix(stored, "_binder.yaml"))

	rec := ts.do(t, http.MethodGet, "/api/v1/files/uploads/"+stored, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-yaml", rec.Header().Get("Content-Type"))
	assert.Equal(t, validDocument, rec.Body.String())
}

func TestServeFile_OutsideAllowedFolders(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/files/private/secret.txt", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpload_EmptyForm(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.Close())

	rec := ts.do(t, http.MethodPost, "/api/v1/upload", &buf, writer.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckDesignEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.backend.report = &domain.CheckReport{
		CheckPassed: true,
		CIFFilename: "vis.cif",
		CIFURL:      "/api/v1/files/checks/vis.cif",
	}
	stored := ts.upload(t, "binder.yaml", validDocument)

	rec := ts.postJSON(t, "/api/v1/design/check", payload{
		"inputYamlFilename": stored,
		"protocolName":      "protein-anything",
		"numDesigns":        4,
		"budget":            2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report domain.CheckReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.CheckPassed)
	assert.Equal(t, "vis.cif", report.CIFFilename)
}

func TestCreateAndListDesign(t *testing.T) {
	ts := newTestServer(t)
	stored := ts.upload(t, "binder.yaml", validDocument)

	rec := ts.postJSON(t, "/api/v1/design/create", payload{
		"inputYamlFilename": stored,
		"protocolName":      "protein-anything",
		"numDesigns":        4,
		"budget":            2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var job domain.DesignJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, domain.JobPending, job.Status)
	assert.Equal(t, stored, job.InputYAMLFilename)

	list := ts.do(t, http.MethodGet, "/api/v1/design/list", nil, "")
	require.Equal(t, http.StatusOK, list.Code)

	var listing struct {
		Jobs []*domain.DesignJob `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &listing))
	require.Len(t, listing.Jobs, 1)
	assert.Equal(t, job.ID, listing.Jobs[0].ID)
}

func TestCreateDesign_MissingFields(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postJSON(t, "/api/v1/design/create", payload{"protocolName": "protein-anything"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDesignResults_UnknownJob(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/design/results/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDesignResults_BadJobID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/design/results/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDesignEventsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	stored := ts.upload(t, "binder.yaml", validDocument)

	rec := ts.postJSON(t, "/api/v1/design/create", payload{
		"inputYamlFilename": stored,
		"protocolName":      "protein-anything",
		"numDesigns":        4,
		"budget":            2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var job domain.DesignJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))

	events := ts.do(t, http.MethodGet, "/api/v1/design/events/"+job.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, events.Code)

	var history struct {
		Events []*domain.JobEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(events.Body.Bytes(), &history))
	require.Len(t, history.Events, 1)
	assert.Equal(t, domain.JobPending, history.Events[0].Status)
}
