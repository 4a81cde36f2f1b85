package suppliers

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterIdentityRoutes mounts the registration and login endpoints
func RegisterIdentityRoutes(app RouteRegistrar, opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post("/registro", controller.Register).SetName("identity.register")
	app.Post("/login", controller.Login).SetName("identity.login")
}

// AuthController handles the identity HTTP routes
type AuthController struct {
	Debug    bool
	Logger   Logger
	Provider IdentityProvider
	Tokens   *TokenService
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Provider == nil {
		panic("Missing IdentityProvider in auth controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in auth controller...")
	}

	return c
}

// RegisterPayload is the registration request body
type RegisterPayload struct {
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload, reporting every failing field
func (r RegisterPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
			validation.Field(&r.Password,
				validation.Required,
				validation.Length(10, 100),
				validation.By(ValidatePasswordStrength),
			),
			validation.Field(&r.ConfirmPassword,
				validation.Required,
				validation.By(ValidateStringEquals(r.Password)),
			),
		)
	}, "Invalid registration payload")
}

// LoginPayload is the login request body
type LoginPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Email, validation.Required, is.Email),
			validation.Field(&r.Password, validation.Required),
		)
	}, "Invalid login payload")
}

// UserSummary is the identity snapshot echoed with a token
type UserSummary struct {
	ID     string            `json:"id"`
	Email  string            `json:"email"`
	Claims map[string]string `json:"claims,omitempty"`
	Roles  []string          `json:"roles,omitempty"`
}

// TokenResponse is the body returned by both /registro and /login
type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	User        UserSummary `json:"user"`
}

// Register creates an account and signs it in immediately
func (a *AuthController) Register(ctx router.Context) error {
	payload := new(RegisterPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register validate payload", "error", err)
		return RespondError(ctx, err)
	}

	account, err := a.Provider.Register(ctx.Context(), RegisterInput{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		a.Logger.Error("register account", "email", payload.Email, "error", err)
		return RespondError(ctx, err)
	}

	return a.respondWithToken(ctx, TokenInput{
		Subject: account.ID.String(),
		Email:   account.Email,
		Claims:  account.Claims,
		Roles:   account.Roles,
	})
}

// Login verifies credentials and returns a fresh token
func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("login validate payload", "error", err)
		return RespondError(ctx, err)
	}

	result, err := a.Provider.Authenticate(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("login authenticate", "email", payload.Email, "error", err)
		return RespondError(ctx, err)
	}

	return a.respondWithToken(ctx, TokenInput{
		Subject: result.ID.String(),
		Email:   result.Email,
		Claims:  result.Claims,
		Roles:   result.Roles,
	})
}

func (a *AuthController) respondWithToken(ctx router.Context, input TokenInput) error {
	token, err := a.Tokens.Issue(input)
	if err != nil {
		a.Logger.Error("token issue", "subject", input.Subject, "error", err)
		return RespondError(ctx, err)
	}

	response := TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(a.Tokens.Lifetime().Seconds()),
		User: UserSummary{
			ID:     input.Subject,
			Email:  input.Email,
			Claims: input.Claims,
			Roles:  input.Roles,
		},
	}

	if a.Debug {
		fmt.Println("======= IDENTITY TOKEN ======")
		fmt.Println(print.MaybePrettyJSON(response.User))
		fmt.Println("=============================")
	}

	return ctx.JSON(router.StatusOK, response)
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return fmt.Errorf("values must match")
		}
		return nil
	}
}

// ValidatePasswordStrength requires at least one letter and one digit
func ValidatePasswordStrength(value any) error {
	s, _ := value.(string)

	var hasLetter, hasDigit bool
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}

	if !hasLetter || !hasDigit {
		return fmt.Errorf("must contain at least one letter and one digit")
	}
	return nil
}
