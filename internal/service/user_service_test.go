package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"agrimarket/internal/domain"
)

type mockUserRepo struct {
	byEmail  map[string]domain.User
	otpUser  string
	otpHash  string
	verified map[string]time.Time
	err      error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byEmail:  make(map[string]domain.User),
		verified: make(map[string]time.Time),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	if m.err != nil {
		return m.err
	}
	m.byEmail[user.Email] = user
	return nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	for _, user := range m.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockUserRepo) SetOTP(_ context.Context, id, codeHash string, expiresAt time.Time) error {
	m.otpUser = id
	m.otpHash = codeHash
	for email, user := range m.byEmail {
		if user.ID == id {
			user.OtpCodeHash = codeHash
			user.OtpExpiresAt = &expiresAt
			m.byEmail[email] = user
		}
	}
	return nil
}

func (m *mockUserRepo) MarkEmailVerified(_ context.Context, id string, at time.Time) error {
	m.verified[id] = at
	return nil
}

type mockProfileRepoStore struct {
	byUserID  map[string]domain.Profile
	createErr error
	created   []domain.Profile
}

func newMockProfileRepoStore() *mockProfileRepoStore {
	return &mockProfileRepoStore{byUserID: make(map[string]domain.Profile)}
}

func (m *mockProfileRepoStore) Create(_ context.Context, profile domain.Profile) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.byUserID[profile.UserID] = profile
	m.created = append(m.created, profile)
	return nil
}

func (m *mockProfileRepoStore) GetByUserID(_ context.Context, userID string) (domain.Profile, error) {
	profile, ok := m.byUserID[userID]
	if !ok {
		return domain.Profile{}, pgx.ErrNoRows
	}
	return profile, nil
}

func (m *mockProfileRepoStore) GetByID(_ context.Context, id string) (domain.Profile, error) {
	for _, profile := range m.byUserID {
		if profile.ID == id {
			return profile, nil
		}
	}
	return domain.Profile{}, pgx.ErrNoRows
}

type capturingSender struct {
	lastEmail string
	lastCode  string
	err       error
}

func (c *capturingSender) SendVerificationOTP(_ context.Context, to, code string, _ time.Time) error {
	if c.err != nil {
		return c.err
	}
	c.lastEmail = to
	c.lastCode = code
	return nil
}

type allowAllLimiter struct{ denied bool }

func (l *allowAllLimiter) Allow(string) bool { return !l.denied }

func validSignUp() SignUpInput {
	return SignUpInput{
		Email:    "amina@example.com",
		Password: "Str0ngPass!",
		FullName: "Amina Bello",
		Location: "Kano",
		UserType: domain.UserTypeFarmer,
	}
}

func TestUserServiceSignUpCreatesUserAndProfile(t *testing.T) {
	users := newMockUserRepo()
	profiles := newMockProfileRepoStore()
	sender := &capturingSender{}
	svc := NewUserService(zap.NewNop(), users, profiles, sender, &allowAllLimiter{})

	user, profile, err := svc.SignUp(context.Background(), validSignUp())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.Email != "amina@example.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "Str0ngPass!" {
		t.Fatalf("expected hashed password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Str0ngPass!")) != nil {
		t.Fatalf("hash does not match password")
	}
	if profile.UserType != domain.UserTypeFarmer || profile.FullName != "Amina Bello" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if sender.lastEmail != "amina@example.com" || len(sender.lastCode) != 6 {
		t.Fatalf("expected otp email with 6-digit code, got %q %q", sender.lastEmail, sender.lastCode)
	}
}

func TestUserServiceSignUpDefaultsToFarmer(t *testing.T) {
	svc := NewUserService(zap.NewNop(), newMockUserRepo(), newMockProfileRepoStore(), &capturingSender{}, &allowAllLimiter{})

	input := validSignUp()
	input.UserType = ""
	_, profile, err := svc.SignUp(context.Background(), input)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if profile.UserType != domain.UserTypeFarmer {
		t.Fatalf("expected farmer default, got %q", profile.UserType)
	}
}

func TestUserServiceSignUpValidation(t *testing.T) {
	svc := NewUserService(zap.NewNop(), newMockUserRepo(), newMockProfileRepoStore(), &capturingSender{}, &allowAllLimiter{})

	cases := []struct {
		mutate func(*SignUpInput)
		want   error
	}{
		{func(in *SignUpInput) { in.Email = "not-an-email" }, ErrInvalidEmail},
		{func(in *SignUpInput) { in.Password = "short" }, ErrInvalidPassword},
		{func(in *SignUpInput) { in.FullName = "x" }, ErrInvalidName},
		{func(in *SignUpInput) { in.PhoneNumber = "abc" }, ErrInvalidPhone},
		{func(in *SignUpInput) { in.UserType = "admin" }, ErrInvalidUserType},
		{func(in *SignUpInput) { in.UserType = "wizard" }, ErrInvalidUserType},
	}
	for i, c := range cases {
		input := validSignUp()
		c.mutate(&input)
		if _, _, err := svc.SignUp(context.Background(), input); !errors.Is(err, c.want) {
			t.Fatalf("case %d: expected %v, got %v", i, c.want, err)
		}
	}
}

func TestUserServiceSignUpDuplicateEmail(t *testing.T) {
	users := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), users, newMockProfileRepoStore(), &capturingSender{}, &allowAllLimiter{})

	if _, _, err := svc.SignUp(context.Background(), validSignUp()); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, _, err := svc.SignUp(context.Background(), validSignUp()); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserServiceAuthenticate(t *testing.T) {
	users := newMockUserRepo()
	profiles := newMockProfileRepoStore()
	svc := NewUserService(zap.NewNop(), users, profiles, &capturingSender{}, &allowAllLimiter{})

	if _, _, err := svc.SignUp(context.Background(), validSignUp()); err != nil {
		t.Fatalf("signup: %v", err)
	}

	user, profile, err := svc.Authenticate(context.Background(), "AMINA@example.com ", "Str0ngPass!")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Email != "amina@example.com" || profile.FullName != "Amina Bello" {
		t.Fatalf("unexpected identity %q %q", user.Email, profile.FullName)
	}

	if _, _, err := svc.Authenticate(context.Background(), "amina@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Authenticate(context.Background(), "nobody@example.com", "whatever1!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestUserServiceVerifyOTPFlow(t *testing.T) {
	users := newMockUserRepo()
	sender := &capturingSender{}
	svc := NewUserService(zap.NewNop(), users, newMockProfileRepoStore(), sender, &allowAllLimiter{})

	user, _, err := svc.SignUp(context.Background(), validSignUp())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	verified, err := svc.VerifyOTP(context.Background(), user.Email, sender.lastCode)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.EmailVerifiedAt == nil {
		t.Fatalf("expected verified timestamp")
	}
	if _, ok := users.verified[user.ID]; !ok {
		t.Fatalf("expected MarkEmailVerified call")
	}
}

func TestUserServiceVerifyOTPRejectsBadCode(t *testing.T) {
	users := newMockUserRepo()
	sender := &capturingSender{}
	svc := NewUserService(zap.NewNop(), users, newMockProfileRepoStore(), sender, &allowAllLimiter{})

	user, _, err := svc.SignUp(context.Background(), validSignUp())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, err := svc.VerifyOTP(context.Background(), user.Email, "abc"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid for malformed code, got %v", err)
	}
	if _, err := svc.VerifyOTP(context.Background(), user.Email, "000000"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid for wrong code, got %v", err)
	}
}

func TestUserServiceRequestOTPRateLimited(t *testing.T) {
	users := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), users, newMockProfileRepoStore(), &capturingSender{}, &allowAllLimiter{denied: true})

	if _, err := svc.RequestOTP(context.Background(), "amina@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}
