package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/shenikar/civic_incident_tracker/internal/config"
	"github.com/shenikar/civic_incident_tracker/internal/models"
	"github.com/shenikar/civic_incident_tracker/internal/query"
	"github.com/shenikar/civic_incident_tracker/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testJWTSecret = "test-secret"

// newTestHandler создает новый экземпляр Handler с мокированным сервисом
func newTestHandler(t *testing.T) (*Handler, *mocks.MockIncidentService, *gin.Engine) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockIncidentService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		JWTSecret:       testJWTSecret,
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}

	handler := NewHandler(mockService, logger, cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return handler, mockService, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// bearer подписывает токен так же, как провайдер идентификации
func bearer(t *testing.T, claims identityClaims) map[string]string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func adminHeaders(t *testing.T) map[string]string {
	return bearer(t, identityClaims{UserID: 1, Role: "admin"})
}

func citizenHeaders(t *testing.T) map[string]string {
	return bearer(t, identityClaims{UserID: 10, Role: "citizen"})
}

func testIncident(id uuid.UUID, status models.Status) *models.Incident {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return &models.Incident{
		ID:          id,
		Title:       "Pothole",
		Description: "Deep pothole near the market",
		Category:    models.CategoryRoad,
		City:        "Lagos",
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCreateIncident_Anonymous(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()
	reqBody := CreateIncidentRequest{
		Title:       "Pothole",
		Description: "Deep pothole near the market",
		Category:    "road",
		City:        "Lagos",
	}

	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Nil(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *models.Principal, input models.NewIncident) (*models.Incident, error) {
			assert.Equal(t, "Pothole", input.Title)
			assert.Equal(t, models.CategoryRoad, input.Category)
			assert.Nil(t, input.Image)
			return testIncident(incidentID, models.StatusPending), nil
		}).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, incidentID, resp.ID)
	assert.Equal(t, "pending", resp.Status)
	assert.Nil(t, resp.Reporter)
}

func TestCreateIncident_WithToken(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incident := testIncident(uuid.New(), models.StatusPending)
	reporter := int64(10)
	incident.ReporterID = &reporter

	expectedPrincipal := &models.Principal{ID: 10, Role: models.RoleCitizen}
	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Eq(expectedPrincipal), gomock.Any()).
		Return(incident, nil).
		Times(1)

	body := `{"title":"Pothole","description":"Deep pothole near the market"}`
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBufferString(body), citizenHeaders(t))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"reporter":10`)
}

func TestCreateIncident_InvalidJSON(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBufferString(`{"title": "test"`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestCreateIncident_ValidationError(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	body := `{"description":"no title here","category":"volcano","latitude":120}`
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBufferString(body))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp.Error)
	assert.Contains(t, resp.Fields, "title")
	assert.Contains(t, resp.Fields, "category")
	assert.Contains(t, resp.Fields, "latitude")
}

func TestCreateIncident_ServiceValidationError(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, models.NewValidationError("longitude", "latitude and longitude must be provided together")).
		Times(1)

	body := `{"title":"Pothole","description":"Deep","latitude":6.5}`
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBufferString(body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "longitude")
}

func newMultipartBody(t *testing.T, fields map[string]string, fileContentType string, file []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if file != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="image"; filename="pothole.PNG"`)
		header.Set("Content-Type", fileContentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestCreateIncident_MultipartWithImage(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incident := testIncident(uuid.New(), models.StatusPending)
	incident.ImageURL = "https://cdn.example.org/incidents/x.png"

	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Nil(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *models.Principal, input models.NewIncident) (*models.Incident, error) {
			require.NotNil(t, input.Image)
			assert.Equal(t, "pothole.PNG", input.Image.Filename)
			assert.Equal(t, "image/png", input.Image.ContentType)
			assert.Equal(t, int64(9), input.Image.Size)
			data, err := io.ReadAll(input.Image.Body)
			require.NoError(t, err)
			assert.Equal(t, "png-bytes", string(data))
			require.NotNil(t, input.Latitude)
			assert.InDelta(t, 6.5244, *input.Latitude, 1e-9)
			return incident, nil
		}).Times(1)

	body, contentType := newMultipartBody(t, map[string]string{
		"title":       "Pothole",
		"description": "Deep pothole near the market",
		"latitude":    "6.5244",
		"longitude":   "3.3792",
	}, "image/png", []byte("png-bytes"))
	w := makeRequest(router, "POST", "/api/v1/incidents", body, map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), incident.ImageURL)
}

func TestCreateIncident_MultipartBlankCoordinates(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incident := testIncident(uuid.New(), models.StatusPending)

	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Nil(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *models.Principal, input models.NewIncident) (*models.Incident, error) {
			assert.Nil(t, input.Latitude)
			assert.Nil(t, input.Longitude)
			return incident, nil
		}).Times(1)

	body, contentType := newMultipartBody(t, map[string]string{
		"title":       "Pothole",
		"description": "Deep pothole near the market",
		"latitude":    "",
		"longitude":   "  ",
	}, "", nil)
	w := makeRequest(router, "POST", "/api/v1/incidents", body, map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateIncident_MultipartHalfCoordinatePair(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	// Пустая долгота не должна превращаться в 0: сервис видит неполную пару
	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Nil(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *models.Principal, input models.NewIncident) (*models.Incident, error) {
			require.NotNil(t, input.Latitude)
			assert.InDelta(t, 6.5, *input.Latitude, 1e-9)
			assert.Nil(t, input.Longitude)
			return nil, models.NewValidationError("coordinates", "latitude and longitude must be provided together")
		}).Times(1)

	body, contentType := newMultipartBody(t, map[string]string{
		"title":       "Pothole",
		"description": "Deep pothole near the market",
		"latitude":    "6.5",
		"longitude":   "",
	}, "", nil)
	w := makeRequest(router, "POST", "/api/v1/incidents", body, map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "coordinates")
}

func TestCreateIncident_MultipartMalformedCoordinate(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	body, contentType := newMultipartBody(t, map[string]string{
		"title":       "Pothole",
		"description": "Deep pothole near the market",
		"latitude":    "north",
		"longitude":   "3.3792",
	}, "", nil)
	w := makeRequest(router, "POST", "/api/v1/incidents", body, map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "latitude")
	assert.NotContains(t, resp.Fields, "longitude")
}

func TestCreateIncident_UploadFailed(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: bucket unavailable", models.ErrUploadFailed)).
		Times(1)

	body, contentType := newMultipartBody(t, map[string]string{
		"title":       "Pothole",
		"description": "Deep pothole near the market",
	}, "image/jpeg", []byte("jpeg-bytes"))
	w := makeRequest(router, "POST", "/api/v1/incidents", body, map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "image upload failed")
}

func TestCreateIncident_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("service: could not create incident: connection refused")).
		Times(1)

	body := `{"title":"Pothole","description":"Deep pothole near the market"}`
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBufferString(body))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestListIncidents_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	items := []*models.Incident{
		testIncident(uuid.New(), models.StatusResolved),
		testIncident(uuid.New(), models.StatusResolved),
	}
	expectedFilter := query.Filter{
		Status:   models.StatusResolved,
		City:     "LAGOS",
		Ordering: query.OrderCreatedDesc,
	}

	mockService.EXPECT().
		ListIncidents(gomock.Any(), gomock.Nil(), expectedFilter, 2, 5).
		Return(&models.IncidentPage{Items: items, Total: 7, Page: 2, PageSize: 5}, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents?status=resolved&city=LAGOS&ordering=-created_at&page=2&pageSize=5", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp IncidentListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Count)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 5, resp.PageSize)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, items[0].ID, resp.Results[0].ID)
}

func TestListIncidents_DefaultPagination(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		ListIncidents(gomock.Any(), gomock.Nil(), query.Filter{Ordering: query.OrderCreatedDesc}, 1, 0).
		Return(&models.IncidentPage{Items: []*models.Incident{}, Page: 1, PageSize: 20}, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0,"page":1,"page_size":20,"results":[]}`, w.Body.String())
}

func TestListIncidents_MalformedDate(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().ListIncidents(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/incidents?from=01-05-2024", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "from")
}

func TestGetIncident_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().
		GetIncident(gomock.Any(), gomock.Nil(), incidentID).
		Return(testIncident(incidentID, models.StatusInReview), nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/"+incidentID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, incidentID, resp.ID)
	assert.Equal(t, "in_review", resp.Status)
}

func TestGetIncident_PassesPrincipal(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().
		GetIncident(gomock.Any(), gomock.Any(), incidentID).
		DoAndReturn(func(_ context.Context, p *models.Principal, id uuid.UUID) (*models.Incident, error) {
			require.NotNil(t, p)
			assert.Equal(t, int64(10), p.ID)
			return testIncident(id, models.StatusPending), nil
		}).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/"+incidentID.String(), nil, citizenHeaders(t))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetIncident_InvalidID(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().GetIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/incidents/invalid-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestGetIncident_NotFound(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().
		GetIncident(gomock.Any(), gomock.Nil(), incidentID).
		Return(nil, fmt.Errorf("service: could not get incident: %w", models.ErrNotFound)).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/"+incidentID.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "incident not found")
}

func TestUpdateStatus_Admin(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()
	expectedPrincipal := &models.Principal{ID: 1, Role: models.RoleAdmin}

	mockService.EXPECT().
		UpdateStatus(gomock.Any(), gomock.Eq(expectedPrincipal), incidentID, models.StatusInReview, "checking").
		Return(testIncident(incidentID, models.StatusInReview), nil).
		Times(1)

	body := `{"status":"in_review","comment":"checking"}`
	w := makeRequest(router, "PUT", "/api/v1/incidents/"+incidentID.String()+"/status", bytes.NewBufferString(body), adminHeaders(t))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"in_review"`)
}

func TestUpdateStatus_StaffClaimsReachService(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()
	expectedPrincipal := &models.Principal{ID: 7, Role: models.RoleCitizen, IsStaff: true}

	mockService.EXPECT().
		UpdateStatus(gomock.Any(), gomock.Eq(expectedPrincipal), incidentID, models.StatusResolved, "").
		Return(testIncident(incidentID, models.StatusResolved), nil).
		Times(1)

	headers := bearer(t, identityClaims{UserID: 7, Role: "citizen", IsStaff: true})
	w := makeRequest(router, "PUT", "/api/v1/incidents/"+incidentID.String()+"/status", bytes.NewBufferString(`{"status":"resolved"}`), headers)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateStatus_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		headers    func(t *testing.T) map[string]string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "anonymous",
			headers:    func(*testing.T) map[string]string { return nil },
			err:        models.ErrUnauthenticated,
			wantStatus: http.StatusUnauthorized,
			wantBody:   "authentication required",
		},
		{
			name:       "citizen",
			headers:    citizenHeaders,
			err:        models.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantBody:   "forbidden",
		},
		{
			name:       "unknown incident",
			headers:    adminHeaders,
			err:        fmt.Errorf("incident with id: %w", models.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantBody:   "incident not found",
		},
		{
			name:       "unknown status",
			headers:    adminHeaders,
			err:        models.NewValidationError("status", `"archived" is not a valid status`),
			wantStatus: http.StatusBadRequest,
			wantBody:   "archived",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, mockService, router := newTestHandler(t)
			incidentID := uuid.New()

			mockService.EXPECT().
				UpdateStatus(gomock.Any(), gomock.Any(), incidentID, gomock.Any(), gomock.Any()).
				Return(nil, tc.err).
				Times(1)

			var headers []map[string]string
			if h := tc.headers(t); h != nil {
				headers = append(headers, h)
			}
			w := makeRequest(router, "PUT", "/api/v1/incidents/"+incidentID.String()+"/status", bytes.NewBufferString(`{"status":"archived"}`), headers...)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantBody)
		})
	}
}

func TestUpdateStatus_MissingStatus(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "PUT", "/api/v1/incidents/"+incidentID.String()+"/status", bytes.NewBufferString(`{"comment":"no status"}`), adminHeaders(t))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "status")
}

func TestIdentityMiddleware_InvalidToken(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, identityClaims{UserID: 1, Role: "admin"}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, identityClaims{UserID: 1, Role: "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"wrong signature": "Bearer " + forged,
		"alg none":        "Bearer " + unsigned,
		"garbage":         "Bearer not-a-jwt",
		"wrong scheme":    "Basic dXNlcjpwYXNz",
	} {
		t.Run(name, func(t *testing.T) {
			w := makeRequest(router, "PUT", "/api/v1/incidents/"+incidentID.String()+"/status",
				bytes.NewBufferString(`{"status":"resolved"}`), map[string]string{"Authorization": header})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestIdentityMiddleware_AudienceList(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().
		GetIncident(gomock.Any(), gomock.Any(), incidentID).
		DoAndReturn(func(_ context.Context, p *models.Principal, id uuid.UUID) (*models.Incident, error) {
			require.NotNil(t, p)
			assert.Equal(t, int64(3), p.ID)
			assert.True(t, p.IsStaff)
			return testIncident(id, models.StatusPending), nil
		}).Times(1)

	// aud в виде массива должен разбираться, а не ломать проверку claims
	headers := bearer(t, identityClaims{
		UserID:           3,
		Role:             "citizen",
		IsStaff:          true,
		RegisteredClaims: jwt.RegisteredClaims{Audience: jwt.ClaimStrings{"civic", "ops"}},
	})
	w := makeRequest(router, "GET", "/api/v1/incidents/"+incidentID.String(), nil, headers)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIdentityMiddleware_ExpiredToken(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().GetDashboard(gomock.Any(), gomock.Any()).Times(0)

	headers := bearer(t, identityClaims{
		UserID:         1,
		Role:           "admin",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	})
	w := makeRequest(router, "GET", "/api/v1/analytics/dashboard", nil, headers)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetHistory_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()
	adminID := int64(1)
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	history := []*models.StatusHistory{
		{ID: 2, IncidentID: incidentID, OldStatus: models.StatusInReview, NewStatus: models.StatusResolved, ChangedBy: &adminID, ChangedAt: now.Add(time.Hour)},
		{ID: 1, IncidentID: incidentID, OldStatus: models.StatusPending, NewStatus: models.StatusInReview, Comment: "checking", ChangedBy: &adminID, ChangedAt: now},
	}

	mockService.EXPECT().
		ListHistory(gomock.Any(), gomock.Not(gomock.Nil()), incidentID).
		Return(history, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/"+incidentID.String()+"/history", nil, adminHeaders(t))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []StatusHistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "in_review", resp[0].OldStatus)
	assert.Equal(t, "resolved", resp[0].NewStatus)
	assert.Equal(t, "pending", resp[1].OldStatus)
	assert.Equal(t, "checking", resp[1].Comment)
	assert.Equal(t, incidentID, resp[1].Incident)
}

func TestGetHistory_Anonymous(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().
		ListHistory(gomock.Any(), gomock.Nil(), incidentID).
		Return(nil, models.ErrUnauthenticated).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/"+incidentID.String()+"/history", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetDashboard_Golden(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		GetDashboard(gomock.Any(), gomock.Not(gomock.Nil())).
		Return(&models.Dashboard{
			Total: 6,
			ByStatus: map[models.Status]int{
				models.StatusPending:  3,
				models.StatusInReview: 1,
				models.StatusResolved: 2,
			},
			ByCategory: map[models.Category]int{
				models.CategoryRoad:  4,
				models.CategoryWater: 2,
			},
			ByCity: models.CityCounts{
				{City: "Lagos", Count: 3},
				{City: "Abuja", Count: 2},
				{City: "Kano", Count: 1},
			},
		}, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/analytics/dashboard", nil, adminHeaders(t))

	require.Equal(t, http.StatusOK, w.Code)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "dashboard_stats", w.Body.Bytes())
}

func TestGetDashboard_Forbidden(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		GetDashboard(gomock.Any(), gomock.Any()).
		Return(nil, models.ErrForbidden).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/analytics/dashboard", nil, citizenHeaders(t))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthCheck(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
