package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/orderledger-backend/internal/auth"
	"github.com/angelmondragon/orderledger-backend/internal/users"
	"github.com/angelmondragon/orderledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderledger-backend/pkg/errors"
)

type stubLoginService struct {
	req    auth.LoginRequest
	result *auth.LoginResponse
	err    error
}

func (s *stubLoginService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.req = req
	return s.result, s.err
}

type stubRegisterService struct {
	req auth.RegisterRequest
	err error
}

func (s *stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: 1, Username: req.Username, Role: enums.UserRoleCustomer}, nil
}

func TestAuthLoginSetsTokenHeader(t *testing.T) {
	svc := &stubLoginService{result: &auth.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}}
	rec := httptest.NewRecorder()

	AuthLogin(svc, testLogger())(rec, jsonRequest(http.MethodPost, "/login", `{"username":"alice","password":"secret1"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get(tokenHeader) != "access" {
		t.Fatalf("expected token header to be set")
	}
	if svc.req.Username != "alice" {
		t.Fatalf("unexpected login request %+v", svc.req)
	}
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	svc := &stubLoginService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	rec := httptest.NewRecorder()

	AuthLogin(svc, testLogger())(rec, jsonRequest(http.MethodPost, "/login", `{"username":"alice","password":"wrong"}`))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Message != "invalid credentials" {
		t.Fatalf("unexpected message %q", env.Error.Message)
	}
}

func TestAuthLoginMissingFields(t *testing.T) {
	svc := &stubLoginService{}
	rec := httptest.NewRecorder()

	AuthLogin(svc, testLogger())(rec, jsonRequest(http.MethodPost, "/login", `{"username":"alice"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAuthRegisterCreated(t *testing.T) {
	svc := &stubRegisterService{}
	rec := httptest.NewRecorder()

	AuthRegister(svc, testLogger())(rec, jsonRequest(http.MethodPost, "/register", `{"username":"alice","password":"secret1"}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	var body struct {
		Message string        `json:"message"`
		User    users.UserDTO `json:"user"`
	}
	decodeData(t, rec, &body)
	if body.Message != "user registered" || body.User.Username != "alice" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestAuthRegisterDuplicate(t *testing.T) {
	svc := &stubRegisterService{err: pkgerrors.New(pkgerrors.CodeConflict, "username already exists")}
	rec := httptest.NewRecorder()

	AuthRegister(svc, testLogger())(rec, jsonRequest(http.MethodPost, "/register", `{"username":"alice","password":"secret1"}`))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}
