package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/qs3c/resume_go_server/internal/model/dto"
	"github.com/qs3c/resume_go_server/internal/pkg/response"
	"github.com/qs3c/resume_go_server/internal/repository"
	"github.com/qs3c/resume_go_server/internal/service"
	"github.com/qs3c/resume_go_server/internal/testutil"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)

	credits := service.NewCreditService(newTestCatalog(),
		repository.NewSubscriptionRepository(db),
		repository.NewAddOnCreditRepository(db))
	authService := service.NewAuthService(
		repository.NewUserRepository(db), credits, nil, testConfig())
	h := NewAuthHandler(authService, nil)

	router := gin.New()
	router.POST("/register", h.Register)
	router.POST("/login", h.Login)
	router.POST("/verify-email", h.VerifyEmail)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}
	return router, cleanup
}

func TestAuthHandler_Register_Success(t *testing.T) {
	router, cleanup := setupAuthRouter(t)
	defer cleanup()

	req := dto.RegisterRequest{
		Email:    "test@example.com",
		Username: "testuser",
		Password: "password123",
	}

	w := performRequest(router, "POST", "/register", req, "")
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	router, cleanup := setupAuthRouter(t)
	defer cleanup()

	req := dto.RegisterRequest{
		Email:    "dup@example.com",
		Username: "user_one",
		Password: "password123",
	}
	performRequest(router, "POST", "/register", req, "")

	req.Username = "user_two"
	w := performRequest(router, "POST", "/register", req, "")
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeParamError, resp.Code)
	assert.Equal(t, "邮箱已被注册", resp.Message)
}

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	router, cleanup := setupAuthRouter(t)
	defer cleanup()

	// 密码太短
	req := dto.RegisterRequest{
		Email:    "test@example.com",
		Username: "testuser",
		Password: "short",
	}
	w := performRequest(router, "POST", "/register", req, "")
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestAuthHandler_LoginAfterRegister(t *testing.T) {
	router, cleanup := setupAuthRouter(t)
	defer cleanup()

	performRequest(router, "POST", "/register", dto.RegisterRequest{
		Email:    "login@example.com",
		Username: "loginuser",
		Password: "password123",
	}, "")

	// debug 模式注册即已验证
	w := performRequest(router, "POST", "/login", dto.LoginRequest{
		Email:    "login@example.com",
		Password: "password123",
	}, "")
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeSuccess, resp.Code)

	var login dto.LoginResponse
	parseData(t, resp, &login)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "loginuser", login.User.Username)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	router, cleanup := setupAuthRouter(t)
	defer cleanup()

	performRequest(router, "POST", "/register", dto.RegisterRequest{
		Email:    "login2@example.com",
		Username: "loginuser2",
		Password: "password123",
	}, "")

	w := performRequest(router, "POST", "/login", dto.LoginRequest{
		Email:    "login2@example.com",
		Password: "wrongpassword",
	}, "")
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeAuthFailed, resp.Code)
}

func TestAuthHandler_Register_GrantsFreePlan(t *testing.T) {
	router, cleanup := setupAuthRouter(t)
	defer cleanup()

	// 测试目录未配置 free_plan，注册不应报错也不发批次
	w := performRequest(router, "POST", "/register", dto.RegisterRequest{
		Email:    "nofree@example.com",
		Username: "nofreeuser",
		Password: "password123",
	}, "")
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)
}
