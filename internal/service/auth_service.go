package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/config"
	"github.com/qs3c/resume_go_server/internal/model"
	"github.com/qs3c/resume_go_server/internal/model/dto"
	"github.com/qs3c/resume_go_server/internal/pkg/email"
	"github.com/qs3c/resume_go_server/internal/pkg/jwt"
	"github.com/qs3c/resume_go_server/internal/pkg/oauth"
	"github.com/qs3c/resume_go_server/internal/repository"
)

var (
	ErrEmailExists        = errors.New("邮箱已被注册")
	ErrUsernameExists     = errors.New("用户名已被使用")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrEmailNotVerified   = errors.New("邮箱尚未验证")
	ErrInvalidVerifyCode  = errors.New("验证码无效或已过期")
	ErrUserNotFound       = errors.New("用户不存在")
)

type AuthService struct {
	userRepo      *repository.UserRepository
	credits       *CreditService
	cfg           *config.Config
	linkedinOAuth *oauth.LinkedinOAuth
	mailer        *email.Service
}

func NewAuthService(userRepo *repository.UserRepository, credits *CreditService, mailer *email.Service, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		credits:  credits,
		cfg:      cfg,
		mailer:   mailer,
		linkedinOAuth: oauth.NewLinkedinOAuth(
			cfg.OAuth.Linkedin.ClientID,
			cfg.OAuth.Linkedin.ClientSecret,
			cfg.OAuth.Linkedin.RedirectURI,
		),
	}
}

// Register 用户注册
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	exists, err := s.userRepo.ExistsByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	exists, err = s.userRepo.ExistsByUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	verifyCode, err := generateRandomCode(32)
	if err != nil {
		return nil, err
	}

	passwordStr := string(hashedPassword)
	expiresAt := time.Now().Add(24 * time.Hour)

	user := &model.User{
		Username:              req.Username,
		Email:                 &req.Email,
		PasswordHash:          &passwordStr,
		VerificationCode:      &verifyCode,
		VerificationExpiresAt: &expiresAt,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	s.grantFreePlan(user.ID)

	if s.mailer != nil {
		go func() {
			if err := s.mailer.SendVerificationCode(req.Email, verifyCode); err != nil {
				log.Printf("Failed to send verification email to %s: %v", req.Email, err)
			}
		}()
	}

	// 开发环境临时方案：自动验证邮箱
	if s.cfg.Server.Mode == "debug" {
		user.EmailVerified = true
		if err := s.userRepo.Update(user); err != nil {
			return nil, err
		}
	}

	return &dto.RegisterResponse{
		UserID: user.ID,
	}, nil
}

// Login 用户登录
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 生产环境强制验证邮箱，开发环境跳过
	if !user.EmailVerified && s.cfg.Server.Mode != "debug" {
		return nil, ErrEmailNotVerified
	}

	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  s.buildUserInfo(user),
	}, nil
}

// VerifyEmail 验证邮箱
func (s *AuthService) VerifyEmail(code string) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByVerificationCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidVerifyCode
		}
		return nil, err
	}

	if user.VerificationExpiresAt == nil || time.Now().After(*user.VerificationExpiresAt) {
		return nil, ErrInvalidVerifyCode
	}

	user.EmailVerified = true
	user.VerificationCode = nil
	user.VerificationExpiresAt = nil
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  s.buildUserInfo(user),
	}, nil
}

// GetLinkedinAuthURL 获取 LinkedIn 授权 URL
func (s *AuthService) GetLinkedinAuthURL(state string) string {
	return s.linkedinOAuth.GetAuthURL(state)
}

// LinkedinCallback 处理 LinkedIn OAuth 回调
func (s *AuthService) LinkedinCallback(ctx context.Context, code string) (*dto.LoginResponse, error) {
	token, err := s.linkedinOAuth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	linkedinUser, err := s.linkedinOAuth.GetUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get linkedin user: %w", err)
	}

	user, err := s.userRepo.GetByLinkedinID(linkedinUser.Sub)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if user == nil {
		user = &model.User{
			Username:      usernameFromLinkedin(linkedinUser),
			LinkedinID:    &linkedinUser.Sub,
			AvatarURL:     linkedinUser.Picture,
			EmailVerified: true, // OAuth 用户默认已验证
		}

		if linkedinUser.Email != "" {
			user.Email = &linkedinUser.Email
		}

		exists, _ := s.userRepo.ExistsByUsername(user.Username)
		if exists {
			user.Username = fmt.Sprintf("%s_%s", user.Username, linkedinUser.Sub[:6])
		}

		if err := s.userRepo.Create(user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		s.grantFreePlan(user.ID)
	}

	jwtToken, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: jwtToken,
		User:  s.buildUserInfo(user),
	}, nil
}

// GetUserByID 根据 ID 获取用户
func (s *AuthService) GetUserByID(id int64) (*model.User, error) {
	return s.userRepo.GetByID(id)
}

// GetProfile 获取用户详情
func (s *AuthService) GetProfile(userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.buildUserInfo(user), nil
}

// grantFreePlan 注册即送免费套餐批次，发放失败不阻断注册
func (s *AuthService) grantFreePlan(userID int64) {
	freePlan := s.credits.catalog.FreePlanID()
	if freePlan == "" {
		return
	}
	if _, err := s.credits.GrantPlan(nil, userID, freePlan, 0); err != nil {
		log.Printf("Failed to grant free plan to user %d: %v", userID, err)
	}
}

func (s *AuthService) buildUserInfo(user *model.User) *dto.UserInfo {
	info := &dto.UserInfo{
		ID:            user.ID,
		Username:      user.Username,
		AvatarURL:     user.AvatarURL,
		WalletBalance: user.WalletBalance,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
	}

	if user.Email != nil {
		info.Email = *user.Email
	}

	return info
}

func usernameFromLinkedin(u *oauth.LinkedinUser) string {
	name := strings.TrimSpace(u.Name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		name = "li_user"
	}
	return strings.ToLower(name)
}

func generateRandomCode(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
