package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/veltacap/custodian/internal/config"
	"github.com/veltacap/custodian/internal/errHandler"
	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/repository"
)

// MockAdminRepo implements AdminRepository but only mocks the needed methods.
type MockAdminRepo struct {
	mock.Mock
}

func (m *MockAdminRepo) Insert(admin *models.Admin, tx *sql.Tx) (string, error) {
	return "", nil
}

func (m *MockAdminRepo) GetOne(id string) (*models.Admin, bool, error) {
	return nil, false, nil
}

func (m *MockAdminRepo) GetByEmail(email string) (*models.Admin, bool, error) {
	args := m.Called(email)
	return args.Get(0).(*models.Admin), args.Bool(1), args.Error(2)
}

func testConfig() *config.Config {
	cfg := &config.Config{
		BaseURL:  "http://localhost",
		HttpPort: 8080,
	}
	cfg.Jwt.SecretKey = "test_secret"
	return cfg
}

func testErrorHandler() *errHandler.ErrorRepository {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return errHandler.New("", nil, logger, nil)
}

func loginRequest(t *testing.T, email, password string) *http.Request {
	t.Helper()

	requestBody, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/auth/login", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleAuthLogin_ValidCredentials(t *testing.T) {
	mockAdminRepo := new(MockAdminRepo)

	testAdmin := &models.Admin{
		ID:             "123",
		Email:          "governor@example.com",
		Role:           models.RoleGovernor,
		HashedPassword: "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG",
		Status:         repository.AdminAccountActiveStatus,
	}
	mockAdminRepo.On("GetByEmail", "governor@example.com").Return(testAdmin, true, nil)

	h := NewAuthHandler(mockAdminRepo, testErrorHandler(), testConfig())

	rr := httptest.NewRecorder()
	h.HandleAuthLogin(rr, loginRequest(t, "governor@example.com", "correctpassword"))

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	require.Contains(t, response, "data")

	data, ok := response["data"].(map[string]any)
	require.True(t, ok, "Expected response['data'] to be a map")

	require.NotEmpty(t, data["auth_token"])
	require.NotEmpty(t, data["token_expiry"])
	require.Equal(t, models.RoleGovernor, data["role"])

	mockAdminRepo.AssertExpectations(t)
}

func TestHandleAuthLogin_WrongPassword(t *testing.T) {
	mockAdminRepo := new(MockAdminRepo)

	testAdmin := &models.Admin{
		ID:             "123",
		Email:          "governor@example.com",
		Role:           models.RoleGovernor,
		HashedPassword: "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG",
		Status:         repository.AdminAccountActiveStatus,
	}
	mockAdminRepo.On("GetByEmail", "governor@example.com").Return(testAdmin, true, nil)

	h := NewAuthHandler(mockAdminRepo, testErrorHandler(), testConfig())

	rr := httptest.NewRecorder()
	h.HandleAuthLogin(rr, loginRequest(t, "governor@example.com", "wrongpassword"))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandleAuthLogin_UnknownEmail(t *testing.T) {
	mockAdminRepo := new(MockAdminRepo)
	mockAdminRepo.On("GetByEmail", "nobody@example.com").Return((*models.Admin)(nil), false, nil)

	h := NewAuthHandler(mockAdminRepo, testErrorHandler(), testConfig())

	rr := httptest.NewRecorder()
	h.HandleAuthLogin(rr, loginRequest(t, "nobody@example.com", "correctpassword"))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandleAuthLogin_LockedAccount(t *testing.T) {
	mockAdminRepo := new(MockAdminRepo)

	testAdmin := &models.Admin{
		ID:             "123",
		Email:          "governor@example.com",
		Role:           models.RoleGovernor,
		HashedPassword: "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG",
		Status:         repository.AdminAccountLockedStatus,
	}
	mockAdminRepo.On("GetByEmail", "governor@example.com").Return(testAdmin, true, nil)

	h := NewAuthHandler(mockAdminRepo, testErrorHandler(), testConfig())

	rr := httptest.NewRecorder()
	h.HandleAuthLogin(rr, loginRequest(t, "governor@example.com", "correctpassword"))

	require.Equal(t, http.StatusForbidden, rr.Code)
}
