package handler

import (
	"net/http"
	"time"

	"github.com/veltacap/custodian/internal/config"
	"github.com/veltacap/custodian/internal/errHandler"
	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/repository"
	"github.com/veltacap/custodian/internal/request"
	"github.com/veltacap/custodian/internal/response"
	"github.com/veltacap/custodian/internal/validator"

	"github.com/cradoe/gopass"
	"github.com/pascaldekloe/jwt"
)

type authHandler struct {
	adminRepo  repository.AdminRepository
	errHandler *errHandler.ErrorRepository
	config     *config.Config
}

func NewAuthHandler(adminRepo repository.AdminRepository, errHandler *errHandler.ErrorRepository, config *config.Config) *authHandler {
	return &authHandler{
		adminRepo:  adminRepo,
		errHandler: errHandler,
		config:     config,
	}
}

func (h *authHandler) HandleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	admin, found, err := h.adminRepo.GetByEmail(input.Email)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(validator.NotBlank(input.Password), "Password is required")
	input.Validator.Check(found, "Incorrect email/password")

	if found {
		passwordMatches, err := gopass.ComparePasswordAndHash(input.Password, admin.HashedPassword)
		if err != nil {
			h.errHandler.ServerError(w, r, err)
			return
		}

		input.Validator.Check(passwordMatches, "Incorrect email/password")
	}

	if input.Validator.HasErrors() {
		h.errHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	if admin.Status != repository.AdminAccountActiveStatus {
		message := "Account has been locked. Please contact support"
		response.JSONErrorResponse(w, nil, message, http.StatusForbidden, nil)
		return
	}

	var claims jwt.Claims
	claims.Subject = admin.ID
	claims.Set = map[string]any{"role": admin.Role}

	expiry := time.Now().Add(24 * time.Hour)
	claims.Issued = jwt.NewNumericTime(time.Now())
	claims.NotBefore = jwt.NewNumericTime(time.Now())
	claims.Expires = jwt.NewNumericTime(expiry)

	claims.Issuer = h.config.BaseURL
	claims.Audiences = []string{h.config.BaseURL}

	jwtBytes, err := claims.HMACSign(jwt.HS256, []byte(h.config.Jwt.SecretKey))
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}

	data := map[string]string{
		"auth_token":   string(jwtBytes),
		"token_expiry": expiry.Format(time.RFC3339),
		"role":         admin.Role,
	}
	message := "Login successful"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

// HandleAdminCreate registers a new admin. The route sits behind
// RequireGovernor; only governors mint operator accounts.
func (h *authHandler) HandleAdminCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FirstName string              `json:"first_name"`
		LastName  string              `json:"last_name"`
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		Role      string              `json:"role"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	_, errs := gopass.Validate(input.Password)
	if errs != nil {
		h.errHandler.FailedValidation(w, r, errs)
		return
	}

	_, found, err := h.adminRepo.GetByEmail(input.Email)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.FirstName), "First name is required")
	input.Validator.Check(validator.NotBlank(input.LastName), "Last name is required")
	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(!found, "Email is already in use")
	input.Validator.Check(validator.In(input.Role, models.RoleAdmin, models.RoleGovernor), "Role must be admin or governor")

	if input.Validator.HasErrors() {
		h.errHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	hashedPassword, err := gopass.Hash(input.Password)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}

	id, err := h.adminRepo.Insert(&models.Admin{
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		Role:           input.Role,
		HashedPassword: hashedPassword,
	}, nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}

	data := map[string]string{"id": id}
	err = response.JSONCreatedResponse(w, data, "Admin created successfully")
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}
