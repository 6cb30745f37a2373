package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"agrimarket/internal/domain"
	"agrimarket/internal/email"
	"agrimarket/internal/repository"
	"agrimarket/internal/security"
)

// UserService coordina registro, credenciales y verificacion de correo.
type UserService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	profiles    repository.ProfileRepository
	emailSender email.Sender
	otpLimiter  security.RateLimiter
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, profiles repository.ProfileRepository, emailSender email.Sender, otpLimiter security.RateLimiter) *UserService {
	if otpLimiter == nil {
		otpLimiter = security.NewMemoryRateLimiter(otpTTL, 3)
	}
	return &UserService{
		logger:      logger,
		users:       users,
		profiles:    profiles,
		emailSender: emailSender,
		otpLimiter:  otpLimiter,
	}
}

type SignUpInput struct {
	Email       string
	Password    string
	FullName    string
	PhoneNumber string
	Location    string
	UserType    string
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrOTPNotRequested    = errors.New("otp not requested")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPInvalid         = errors.New("otp invalid")
	ErrEmailSendFailure   = errors.New("email send failed")
	ErrRateLimited        = errors.New("rate limited")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidPassword    = errors.New("password does not meet requirements")
	ErrInvalidName        = errors.New("invalid full name")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrInvalidUserType    = errors.New("invalid user type")
)

const otpTTL = 10 * time.Minute

// SignUp crea el usuario con su perfil y envia el OTP de verificacion.
func (s *UserService) SignUp(ctx context.Context, input SignUpInput) (domain.User, domain.Profile, error) {
	if s.users == nil || s.profiles == nil {
		return domain.User{}, domain.Profile{}, errors.New("user service not configured")
	}

	emailAddr := normalizeEmail(input.Email)
	password := strings.TrimSpace(input.Password)
	fullName := strings.TrimSpace(security.SanitizeText(input.FullName))
	phone := strings.TrimSpace(input.PhoneNumber)
	location := strings.TrimSpace(security.SanitizeText(input.Location))
	userType := strings.ToLower(strings.TrimSpace(input.UserType))

	if !security.ValidateEmail(emailAddr) {
		return domain.User{}, domain.Profile{}, ErrInvalidEmail
	}
	if !security.ValidatePassword(password) {
		return domain.User{}, domain.Profile{}, ErrInvalidPassword
	}
	if !security.ValidateName(fullName) {
		return domain.User{}, domain.Profile{}, ErrInvalidName
	}
	if phone != "" && !security.ValidatePhone(phone) {
		return domain.User{}, domain.Profile{}, ErrInvalidPhone
	}
	if userType == "" {
		userType = domain.UserTypeFarmer
	}
	if !domain.ValidUserType(userType) || userType == domain.UserTypeAdmin {
		return domain.User{}, domain.Profile{}, ErrInvalidUserType
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.User{}, domain.Profile{}, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.Profile{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, domain.Profile{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		PasswordHash: string(hashBytes),
		CreatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, domain.Profile{}, err
	}

	profile := domain.Profile{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		FullName:    fullName,
		UserType:    userType,
		PhoneNumber: phone,
		Location:    location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return domain.User{}, domain.Profile{}, err
	}

	if err := s.sendOTP(ctx, &user); err != nil {
		if s.logger != nil {
			s.logger.Warn("signup otp delivery failed", zap.Error(err), zap.String("email", emailAddr))
		}
	}

	return user, profile, nil
}

// Authenticate valida credenciales y devuelve usuario con su perfil.
func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, domain.Profile, error) {
	if s.users == nil || s.profiles == nil {
		return domain.User{}, domain.Profile{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.User{}, domain.Profile{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.Profile{}, ErrInvalidCredentials
		}
		return domain.User{}, domain.Profile{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, domain.Profile{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.Profile{}, ErrInvalidCredentials
	}

	profile, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.Profile{}, err
	}
	return user, profile, nil
}

// RequestOTP reenvia un codigo de verificacion al correo indicado.
func (s *UserService) RequestOTP(ctx context.Context, emailAddr string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if s.otpLimiter != nil && !s.otpLimiter.Allow("otp:"+emailAddr) {
		return domain.User{}, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	if err := s.sendOTP(ctx, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// VerifyOTP confirma el codigo y marca el correo como verificado.
func (s *UserService) VerifyOTP(ctx context.Context, emailAddr, code string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if !isValidOTPCode(code) {
		return domain.User{}, ErrOTPInvalid
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	if user.OtpCodeHash == "" || user.OtpExpiresAt == nil {
		return domain.User{}, ErrOTPNotRequested
	}
	if time.Now().UTC().After(*user.OtpExpiresAt) {
		return domain.User{}, ErrOTPExpired
	}
	if !verifyOTP(code, user.OtpCodeHash) {
		return domain.User{}, ErrOTPInvalid
	}

	verifiedAt := time.Now().UTC()
	if err := s.users.MarkEmailVerified(ctx, user.ID, verifiedAt); err != nil {
		return domain.User{}, err
	}

	user.EmailVerifiedAt = &verifiedAt
	user.OtpCodeHash = ""
	user.OtpExpiresAt = nil
	return user, nil
}

func (s *UserService) sendOTP(ctx context.Context, user *domain.User) error {
	code, hash, expiresAt, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.users.SetOTP(ctx, user.ID, hash, expiresAt); err != nil {
		return err
	}
	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	if err := s.emailSender.SendVerificationOTP(ctx, user.Email, code, expiresAt); err != nil {
		if s.logger != nil {
			s.logger.Warn("send verification otp failed", zap.Error(err), zap.String("email", user.Email))
		}
		return ErrEmailSendFailure
	}
	user.OtpExpiresAt = &expiresAt
	return nil
}

func generateOTP() (string, string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", time.Time{}, err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", "", time.Time{}, err
	}
	saltStr := base64.StdEncoding.EncodeToString(salt)
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])

	expiresAt := time.Now().UTC().Add(otpTTL)
	return code, saltStr + ":" + hash, expiresAt, nil
}

func verifyOTP(code, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 2 {
		return false
	}
	saltStr := parts[0]
	expectedHash := parts[1]
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])
	return subtle.ConstantTimeCompare([]byte(hash), []byte(expectedHash)) == 1
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
