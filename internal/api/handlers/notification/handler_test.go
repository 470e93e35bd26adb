package notification

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/retry"

	"notification-service/internal/api/dto"
	"notification-service/internal/config"
	mocks "notification-service/internal/mocks/api/handlers/notification"
	"notification-service/internal/model"
)

func setupHandler(t *testing.T) (*Handler, *mocks.MocknotificationService, *config.Config) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMocknotificationService(ctrl)
	cfg := &config.Config{Retry: retry.Strategy{}}
	validate := validator.New()
	handler := NewHandler(mockService, validate, cfg)
	return handler, mockService, cfg
}

func TestHandler_Create_Success(t *testing.T) {
	handler, mockService, cfg := setupHandler(t)

	reqBody := dto.CreateRequest{
		UserID:      "user-1",
		Channel:     "email",
		Message:     "Hello",
		Destination: "test@example.com",
	}

	bodyBytes, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPost, "/api/notifications", bytes.NewReader(bodyBytes))
	w := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(w)
	c.Request = req

	notif := model.Notification{
		UserID:      reqBody.UserID,
		Channel:     reqBody.Channel,
		Message:     reqBody.Message,
		Destination: reqBody.Destination,
		Status:      model.StatusPending,
	}

	mockService.EXPECT().
		CreateNotification(gomock.Any(), cfg.Retry, notif).
		Return(uuid.New(), nil)

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, w.Result().StatusCode)
}

func TestHandler_Create_InAppWithoutDestination(t *testing.T) {
	handler, mockService, cfg := setupHandler(t)

	reqBody := dto.CreateRequest{
		UserID:  "user-1",
		Channel: "in_app",
		Message: "Hello",
	}

	bodyBytes, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPost, "/api/notifications", bytes.NewReader(bodyBytes))
	w := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(w)
	c.Request = req

	mockService.EXPECT().
		CreateNotification(gomock.Any(), cfg.Retry, gomock.Any()).
		Return(uuid.New(), nil)

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, w.Result().StatusCode)
}

func TestHandler_Create_UnknownChannel(t *testing.T) {
	handler, _, _ := setupHandler(t)

	reqBody := dto.CreateRequest{
		UserID:      "user-1",
		Channel:     "pigeon",
		Message:     "Hello",
		Destination: "loft 7",
	}

	bodyBytes, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPost, "/api/notifications", bytes.NewReader(bodyBytes))
	w := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestHandler_Create_BadSMSDestination(t *testing.T) {
	handler, _, _ := setupHandler(t)

	reqBody := dto.CreateRequest{
		UserID:      "user-1",
		Channel:     "sms",
		Message:     "Hello",
		Destination: "not-a-number",
	}

	bodyBytes, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPost, "/api/notifications", bytes.NewReader(bodyBytes))
	w := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestHandler_GetStatus_Success(t *testing.T) {
	handler, mockService, cfg := setupHandler(t)
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/notifications/"+id.String(), nil)
	w := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	mockService.EXPECT().
		GetNotificationStatusByID(gomock.Any(), cfg.Retry, id).
		Return(model.StatusRetryScheduled, nil)

	handler.GetStatus(c)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
}

func TestHandler_GetStatus_NotFound(t *testing.T) {
	handler, mockService, cfg := setupHandler(t)
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/notifications/"+id.String(), nil)
	w := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	mockService.EXPECT().
		GetNotificationStatusByID(gomock.Any(), cfg.Retry, id).
		Return("", model.ErrNotificationNotFound)

	handler.GetStatus(c)

	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
}

func TestHandler_Retry_Success(t *testing.T) {
	handler, mockService, cfg := setupHandler(t)
	id := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/"+id.String()+"/retry", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	mockService.EXPECT().
		ManualRetry(gomock.Any(), cfg.Retry, id).
		Return(nil)

	handler.Retry(c)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
}

func TestHandler_Retry_NotRetryable(t *testing.T) {
	handler, mockService, cfg := setupHandler(t)
	id := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/"+id.String()+"/retry", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	mockService.EXPECT().
		ManualRetry(gomock.Any(), cfg.Retry, id).
		Return(model.ErrInvalidRetryState)

	handler.Retry(c)

	assert.Equal(t, http.StatusConflict, w.Result().StatusCode)
}

func TestHandler_ListByUser_Success(t *testing.T) {
	handler, mockService, _ := setupHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/user-1/notifications?channel=email", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "user_id", Value: "user-1"}}

	mockService.EXPECT().
		GetUserNotifications(gomock.Any(), "user-1", "email").
		Return([]model.Notification{{UserID: "user-1", Message: "msg"}}, nil)

	handler.ListByUser(c)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
}

func TestHandler_ListByUser_UnknownChannel(t *testing.T) {
	handler, mockService, _ := setupHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/user-1/notifications?channel=pigeon", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "user_id", Value: "user-1"}}

	mockService.EXPECT().
		GetUserNotifications(gomock.Any(), "user-1", "pigeon").
		Return(nil, model.ErrUnknownChannel)

	handler.ListByUser(c)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestHandler_Stats_Success(t *testing.T) {
	handler, mockService, _ := setupHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/stats", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	mockService.EXPECT().
		GetStats(gomock.Any()).
		Return(map[string]int{model.StatusSent: 3}, nil)

	handler.Stats(c)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
}
