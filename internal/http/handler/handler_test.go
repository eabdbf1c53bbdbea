package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"printconnect/internal/changefeed"
	"printconnect/internal/dashboard"
	"printconnect/internal/http/middleware"
	"printconnect/internal/model"
	"printconnect/internal/service"
	serviceMocks "printconnect/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	student  = &model.Identity{ID: "u1", Email: "a@jiit.ac.in", Name: "Asha", Role: model.RoleStudent}
	operator = &model.Identity{ID: "op1", Email: "shop@jiit.ac.in", Name: "Shop", Role: model.RoleOperator}
)

// newApp builds an app with the global error handler and, when identity is
// non-nil, a signed-in caller.
func newApp(identity *model.Identity) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	app.Use(func(c *fiber.Ctx) error {
		if identity != nil {
			c.Locals(middleware.IdentityLocalKey, identity)
		}
		return c.Next()
	})
	return app
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignUp(t *testing.T) {
	mockAuth := new(serviceMocks.MockAuthService)
	app := newApp(nil)
	app.Post("/auth/signup", SignUp(mockAuth))

	t.Run("success", func(t *testing.T) {
		in := service.SignUpInput{Email: "a@jiit.ac.in", Password: "secret1", Name: "Asha", CollegeID: "9920103001"}
		mockAuth.On("SignUp", mock.Anything, in).
			Return(&service.AuthResult{Token: "tok", Identity: student}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/signup",
			`{"email":"a@jiit.ac.in","password":"secret1","name":"Asha","college_id":"9920103001"}`))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var res map[string]any
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "tok", res["token"])
		user := res["user"].(map[string]any)
		assert.Equal(t, "student", user["role"])
		assert.NotContains(t, user, "PasswordHash")
		mockAuth.AssertExpectations(t)
	})

	t.Run("validation error names the field", func(t *testing.T) {
		mockAuth.On("SignUp", mock.Anything, mock.Anything).
			Return(nil, &service.ValidationError{Field: "password", Message: "password must be at least 6 characters"}).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/signup", `{"email":"a@jiit.ac.in","password":"1"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		assert.Equal(t, "password", body.Error.Field)
		assert.NotEmpty(t, body.RequestID)
	})

	t.Run("email taken", func(t *testing.T) {
		mockAuth.On("SignUp", mock.Anything, mock.Anything).Return(nil, service.ErrEmailTaken).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/signup", `{"email":"a@jiit.ac.in"}`))

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "EMAIL_TAKEN", decodeError(t, resp).Error.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/signup", `{"email":`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "BAD_REQUEST", decodeError(t, resp).Error.Code)
	})
}

func TestSignInAndOut(t *testing.T) {
	mockAuth := new(serviceMocks.MockAuthService)
	app := newApp(nil)
	app.Post("/auth/signin", SignIn(mockAuth))
	app.Post("/auth/signout", SignOut(mockAuth))

	t.Run("signin success", func(t *testing.T) {
		mockAuth.On("SignIn", mock.Anything, "a@jiit.ac.in", "secret1").
			Return(&service.AuthResult{Token: "tok", Identity: student}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/signin", `{"email":"a@jiit.ac.in","password":"secret1"}`))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("bad credentials", func(t *testing.T) {
		mockAuth.On("SignIn", mock.Anything, "a@jiit.ac.in", "wrong").
			Return(nil, service.ErrInvalidCredentials).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/signin", `{"email":"a@jiit.ac.in","password":"wrong"}`))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, resp).Error.Code)
	})

	t.Run("signout", func(t *testing.T) {
		mockAuth.On("SignOut", mock.Anything, "tok").Return(nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
		req.Header.Set("Authorization", "Bearer tok")
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	mockAuth.AssertExpectations(t)
}

func TestCurrentSession(t *testing.T) {
	for _, tt := range []struct {
		name     string
		identity *model.Identity
		want     string
	}{
		{"signed out", nil, `{"user":null}`},
		{"signed in", student, `"id":"u1"`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(tt.identity)
			app.Get("/auth/session", CurrentSession())

			resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/auth/session", nil))
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			buf := new(bytes.Buffer)
			buf.ReadFrom(resp.Body)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func multipartUpload(t *testing.T, fields map[string]string, fileName, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if fileName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
		h.Set("Content-Type", "application/pdf")
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		part.Write([]byte(content))
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/jobs", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestSubmitJob(t *testing.T) {
	mockSvc := new(serviceMocks.MockPrintJobService)
	app := newApp(student)
	app.Post("/jobs", SubmitJob(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &model.PrintJob{ID: uuid.New().String(), FileName: "report.pdf", Status: model.StatusPending, Cost: 9}
		mockSvc.On("Submit", mock.Anything, student, mock.MatchedBy(func(in service.SubmitInput) bool {
			return in.FileName == "report.pdf" && in.Size == 11 && in.ContentType == "application/pdf" &&
				in.Color && in.Copies == "3" && in.PaperSize == "A3" && in.Reader != nil
		})).Return(expected, nil).Once()

		req := multipartUpload(t, map[string]string{"color": "on", "copies": "3", "paper_size": "A3"}, "report.pdf", "hello world")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result model.PrintJob
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expected.ID, result.ID)
		assert.Equal(t, 9.0, result.Cost)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/jobs", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		assert.Equal(t, "file", body.Error.Field)
	})

	errCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"too large", service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{"operator", service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"storage failure", errors.New("upload to storage: boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc.On("Submit", mock.Anything, student, mock.Anything).Return(nil, tt.err).Once()

			resp, _ := app.Test(multipartUpload(t, nil, "a.pdf", "x"))

			assert.Equal(t, tt.status, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotContains(t, body.Error.Message, "boom")
		})
	}
}

func TestFormBool(t *testing.T) {
	for _, v := range []string{"true", "1", "on", "ON", "yes"} {
		assert.True(t, formBool(v), v)
	}
	for _, v := range []string{"", "false", "0", "off", "maybe"} {
		assert.False(t, formBool(v), v)
	}
}

func TestListJobs(t *testing.T) {
	mockSvc := new(serviceMocks.MockPrintJobService)
	app := newApp(operator)
	app.Get("/jobs", ListJobs(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &service.JobListResult{
			Items:  []model.PrintJob{{ID: uuid.New().String(), FileName: "notes.pdf", Owner: &model.Owner{Name: "Asha"}}},
			Total:  4,
			Counts: service.StatusCounts{Pending: 1, Processing: 2},
		}
		mockSvc.On("List", mock.Anything, operator, service.JobFilter{Status: "pending", Search: "asha"}).
			Return(expected, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/jobs?status=pending&q=asha", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result service.JobListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 4, result.Total)
		assert.Equal(t, 2, result.Counts.Processing)
		assert.Equal(t, "Asha", result.Items[0].Owner.Name)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid status filter", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, operator, service.JobFilter{Status: "lost"}).
			Return(nil, &service.ValidationError{Field: "status", Message: "unknown status filter"}).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/jobs?status=lost", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, operator, service.JobFilter{}).Return(nil, errors.New("service error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/jobs", nil))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetJobAndFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockPrintJobService)
	app := newApp(student)
	app.Get("/jobs/:id", GetJob(mockSvc))
	app.Get("/jobs/:id/file", JobFile(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, student, id).Return(&model.PrintJob{ID: id}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/jobs/"+id, nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.PrintJob
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, student, id).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/jobs/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/jobs/invalid-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})

	t.Run("file redirect", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("FileURL", mock.Anything, student, id).Return("http://minio:9000/print-files/u1/1.pdf?X-Amz-Signature=abc", nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/jobs/"+id+"/file", nil))

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "http://minio:9000/print-files/u1/1.pdf?X-Amz-Signature=abc", resp.Header.Get("Location"))
	})

	mockSvc.AssertExpectations(t)
}

func TestAdvanceJob(t *testing.T) {
	mockSvc := new(serviceMocks.MockPrintJobService)
	app := newApp(operator)
	app.Patch("/jobs/:id/status", AdvanceJob(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		done := time.Now().UTC()
		mockSvc.On("Advance", mock.Anything, operator, id, model.StatusCompleted).
			Return(&model.PrintJob{ID: id, Status: model.StatusCompleted, CompletedAt: &done}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPatch, "/jobs/"+id+"/status", `{"status":"Completed"}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.PrintJob
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, model.StatusCompleted, result.Status)
		assert.NotNil(t, result.CompletedAt)
	})

	t.Run("illegal transition", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Advance", mock.Anything, operator, id, model.StatusReady).Return(nil, service.ErrIllegalTransition).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPatch, "/jobs/"+id+"/status", `{"status":"ready"}`))

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "ILLEGAL_TRANSITION", body.Error.Code)
		assert.Equal(t, "state changed, please refresh", body.Error.Message)
	})

	t.Run("unknown status", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPatch, "/jobs/"+uuid.New().String()+"/status", `{"status":"shipped"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "status", decodeError(t, resp).Error.Field)
	})

	mockSvc.AssertExpectations(t)
}

// readEvent returns the data line of the next server-sent event, skipping keepalive comments.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && event != "":
			return event, data
		}
	}
}

func TestStreamJobs(t *testing.T) {
	feed := changefeed.NewLocal()
	defer feed.Close()

	mockSvc := new(serviceMocks.MockPrintJobService)
	filter := service.JobFilter{Status: "pending"}
	mockSvc.On("List", mock.Anything, operator, filter).
		Return(&service.JobListResult{Items: []model.PrintJob{{ID: "j1"}}, Total: 1}, nil).Once()
	mockSvc.On("List", mock.Anything, operator, filter).
		Return(&service.JobListResult{Items: []model.PrintJob{{ID: "j2"}, {ID: "j1"}}, Total: 2}, nil)

	app := newApp(operator)
	app.Get("/jobs/stream", StreamJobs(mockSvc, feed, 50*time.Millisecond))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go app.Listener(ln)
	defer app.ShutdownWithTimeout(time.Second)

	resp, err := http.Get("http://" + ln.Addr().String() + "/jobs/stream?status=pending")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	event, data := readEvent(t, r)
	assert.Equal(t, "snapshot", event)
	var snap dashboard.Snapshot
	require.NoError(t, json.Unmarshal([]byte(data), &snap))
	assert.Equal(t, uint64(1), snap.Seq)
	assert.Equal(t, "j1", snap.Result.Items[0].ID)
	assert.Equal(t, 1, feed.Subscribers(changefeed.TablePrintJobs))

	require.NoError(t, feed.Publish(context.Background(), changefeed.Event{Table: changefeed.TablePrintJobs, Type: changefeed.EventInsert, RowID: "j2"}))
	_, data = readEvent(t, r)
	require.NoError(t, json.Unmarshal([]byte(data), &snap))
	assert.Equal(t, 2, snap.Result.Total)

	resp.Body.Close()
	assert.Eventually(t, func() bool {
		return feed.Subscribers(changefeed.TablePrintJobs) == 0
	}, 3*time.Second, 20*time.Millisecond, "view not closed after client left")
}

func TestStreamJobs_Rejected(t *testing.T) {
	feed := changefeed.NewLocal()
	defer feed.Close()
	mockSvc := new(serviceMocks.MockPrintJobService)

	app := newApp(nil)
	app.Get("/jobs/stream", StreamJobs(mockSvc, feed, time.Second))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/jobs/stream", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, feed.Subscribers(changefeed.TablePrintJobs))
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockAuth := new(serviceMocks.MockAuthService)
	mockAuth.On("CurrentIdentity", mock.Anything, "student-token").Return(student, nil)
	mockSvc := new(serviceMocks.MockPrintJobService)
	RegisterRoutes(app, Dependencies{Auth: mockAuth, Jobs: mockSvc, Feed: changefeed.NewLocal()})

	t.Run("not found route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/health", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("jobs require a session", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/jobs", nil))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHENTICATED", decodeError(t, resp).Error.Code)
	})

	t.Run("students cannot advance", func(t *testing.T) {
		req := jsonRequest(http.MethodPatch, "/jobs/"+uuid.New().String()+"/status", `{"status":"processing"}`)
		req.Header.Set("Authorization", "Bearer student-token")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Error.Code)
		mockSvc.AssertNotCalled(t, "Advance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("session restore", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
		req.Header.Set("Authorization", "Bearer student-token")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			User *model.Identity `json:"user"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		require.NotNil(t, body.User)
		assert.Equal(t, "u1", body.User.ID)
	})
}
