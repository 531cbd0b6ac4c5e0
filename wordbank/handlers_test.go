package wordbank

import (
	"bytes"
	"charades/domain"
	"charades/entitlement"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) Categories(ctx context.Context, deviceId string) ([]domain.Category, error) {
	args := m.Called(ctx, deviceId)
	categories, _ := args.Get(0).([]domain.Category)
	return categories, args.Error(1)
}

func (m *MockCategoryService) CreateCustom(ctx context.Context, c domain.CustomCategory) (domain.CustomCategory, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(domain.CustomCategory), args.Error(1)
}

func (m *MockCategoryService) UpdateCustom(ctx context.Context, owner string, id int64, patch domain.CustomCategoryPatch) (domain.CustomCategory, error) {
	args := m.Called(ctx, owner, id, patch)
	return args.Get(0).(domain.CustomCategory), args.Error(1)
}

func (m *MockCategoryService) DeleteCustom(ctx context.Context, owner string, id int64) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

type staticVerifier struct {
	ent entitlement.Entitlement
}

func (sv staticVerifier) Verify(string) (entitlement.Entitlement, error) {
	return sv.ent, nil
}

func newTestRouter(service CategoryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewCategoryHandler(service, zerolog.Nop())
	router := gin.New()
	router.Use(entitlement.Middleware(staticVerifier{entitlement.Entitlement{DeviceId: "token-device"}}, zerolog.Nop()))
	router.GET("/categories", handler.ListHandler)
	router.POST("/categories/custom", handler.CreateCustomHandler)
	router.PATCH("/categories/custom/:id", handler.UpdateCustomHandler)
	router.DELETE("/categories/custom/:id", handler.DeleteCustomHandler)
	return router
}

func TestCategoryHandlers(t *testing.T) {
	t.Parallel()
	name := "Work"

	testCases := []struct {
		name         string
		method       string
		path         string
		body         string
		token        bool
		setupMocks   func(m *MockCategoryService)
		expectedCode int
		expectedBody string
	}{
		{
			name:   "list for query device",
			method: http.MethodGet,
			path:   "/categories?deviceId=dev-1",
			setupMocks: func(m *MockCategoryService) {
				m.On("Categories", mock.Anything, "dev-1").Return(builtins, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `"premium":true`,
		},
		{
			name:   "list prefers token device",
			method: http.MethodGet,
			path:   "/categories?deviceId=dev-1",
			token:  true,
			setupMocks: func(m *MockCategoryService) {
				m.On("Categories", mock.Anything, "token-device").Return(builtins, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `"id":"animals"`,
		},
		{
			name:   "list fails",
			method: http.MethodGet,
			path:   "/categories",
			setupMocks: func(m *MockCategoryService) {
				m.On("Categories", mock.Anything, "").Return(nil, domain.UnexpectedDatabaseError)
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: ErrUnknownStr,
		},
		{
			name:   "create",
			method: http.MethodPost,
			path:   "/categories/custom",
			body:   `{"name":"Office","words":["stapler"],"deviceId":"dev-1"}`,
			setupMocks: func(m *MockCategoryService) {
				m.On("CreateCustom", mock.Anything, domain.CustomCategory{Name: "Office", Words: []string{"stapler"}, DeviceId: "dev-1"}).Return(mine, nil)
			},
			expectedCode: http.StatusCreated,
			expectedBody: `"id":4`,
		},
		{
			name:         "create without device",
			method:       http.MethodPost,
			path:         "/categories/custom",
			body:         `{"name":"Office","words":["stapler"]}`,
			setupMocks:   func(m *MockCategoryService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: ErrMissingDeviceIdStr,
		},
		{
			name:         "create bad json",
			method:       http.MethodPost,
			path:         "/categories/custom",
			body:         `{"name":`,
			setupMocks:   func(m *MockCategoryService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: ErrInvalidRequestFormatStr,
		},
		{
			name:   "create invalid",
			method: http.MethodPost,
			path:   "/categories/custom",
			body:   `{"name":"","words":[],"deviceId":"dev-1"}`,
			setupMocks: func(m *MockCategoryService) {
				m.On("CreateCustom", mock.Anything, mock.Anything).Return(domain.CustomCategory{}, domain.ErrInvalidCategory)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: domain.ErrInvalidCategory.Error(),
		},
		{
			name:   "update by prefixed id",
			method: http.MethodPatch,
			path:   "/categories/custom/custom-4",
			body:   `{"name":"Work"}`,
			setupMocks: func(m *MockCategoryService) {
				m.On("UpdateCustom", mock.Anything, "", int64(4), domain.CustomCategoryPatch{Name: &name}).Return(mine, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `"name":"Office"`,
		},
		{
			name:         "update bad id",
			method:       http.MethodPatch,
			path:         "/categories/custom/abc",
			body:         `{"name":"Work"}`,
			setupMocks:   func(m *MockCategoryService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: ErrInvalidRequestFormatStr,
		},
		{
			name:   "update missing",
			method: http.MethodPatch,
			path:   "/categories/custom/9",
			body:   `{"name":"Work"}`,
			setupMocks: func(m *MockCategoryService) {
				m.On("UpdateCustom", mock.Anything, "", int64(9), mock.Anything).Return(domain.CustomCategory{}, domain.ErrCategoryNotFound)
			},
			expectedCode: http.StatusNotFound,
			expectedBody: domain.ErrCategoryNotFound.Error(),
		},
		{
			name:   "delete",
			method: http.MethodDelete,
			path:   "/categories/custom/4",
			setupMocks: func(m *MockCategoryService) {
				m.On("DeleteCustom", mock.Anything, "", int64(4)).Return(nil)
			},
			expectedCode: http.StatusNoContent,
		},
		{
			name:   "delete with token passes the owner",
			method: http.MethodDelete,
			path:   "/categories/custom/4",
			token:  true,
			setupMocks: func(m *MockCategoryService) {
				m.On("DeleteCustom", mock.Anything, "token-device", int64(4)).Return(domain.ErrCategoryNotFound)
			},
			expectedCode: http.StatusNotFound,
			expectedBody: domain.ErrCategoryNotFound.Error(),
		},
		{
			name:   "update with token passes the owner",
			method: http.MethodPatch,
			path:   "/categories/custom/4",
			body:   `{"name":"Work"}`,
			token:  true,
			setupMocks: func(m *MockCategoryService) {
				m.On("UpdateCustom", mock.Anything, "token-device", int64(4), domain.CustomCategoryPatch{Name: &name}).Return(mine, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `"name":"Office"`,
		},
		{
			name:   "delete timeout",
			method: http.MethodDelete,
			path:   "/categories/custom/4",
			setupMocks: func(m *MockCategoryService) {
				m.On("DeleteCustom", mock.Anything, "", int64(4)).Return(context.DeadlineExceeded)
			},
			expectedCode: http.StatusGatewayTimeout,
			expectedBody: ErrServerTimeoutStr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			service := &MockCategoryService{}
			tc.setupMocks(service)
			router := newTestRouter(service)

			req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			if tc.token {
				req.Header.Set("Authorization", "Bearer token")
			}
			res := httptest.NewRecorder()

			router.ServeHTTP(res, req)

			assert.Equal(t, tc.expectedCode, res.Code)
			assert.Contains(t, res.Body.String(), tc.expectedBody)
			service.AssertExpectations(t)
		})
	}
}
