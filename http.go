package suppliers

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-suppliers/middleware/jwtware"
)

// RouteRegistrar captures the router methods used by the controllers.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPGate wires token validation and the policy gate into route middleware.
// Authentication always runs before any policy is evaluated; a denied
// request never reaches the handler.
type HTTPGate struct {
	config Config
	tokens *TokenService
	gate   *Gate
	logger Logger
}

// NewHTTPGate creates the middleware factory for protected routes
func NewHTTPGate(cfg Config, tokens *TokenService, gate *Gate) (*HTTPGate, error) {
	if cfg == nil {
		return nil, goerrors.New("http gate requires a config", goerrors.CategoryInternal)
	}
	if tokens == nil {
		return nil, goerrors.New("http gate requires a token service", goerrors.CategoryInternal)
	}
	if gate == nil {
		gate = NewGate()
	}

	return &HTTPGate{
		config: cfg,
		tokens: tokens,
		gate:   gate,
		logger: defLogger{},
	}, nil
}

func (h *HTTPGate) WithLogger(l Logger) *HTTPGate {
	if l != nil {
		h.logger = l
	}
	return h
}

// Protected returns middleware that authenticates the bearer token and then
// evaluates the given policies against the validated claims.
func (h *HTTPGate) Protected(policies ...string) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		authorized := h.authorize(policies, next)

		// the authorize chain rides on SuccessHandler so it always runs
		// after validation, regardless of how the adapter advances
		authenticate := jwtware.New(jwtware.Config{
			TokenValidator: tokenValidatorAdapter{tokens: h.tokens},
			SigningKey: jwtware.SigningKey{
				JWTAlg: h.config.GetSigningMethod(),
				Key:    []byte(h.config.GetSigningKey()),
			},
			ContextKey:     h.config.GetContextKey(),
			TokenLookup:    h.config.GetTokenLookup(),
			AuthScheme:     h.config.GetAuthScheme(),
			SuccessHandler: authorized,
			ErrorHandler:   h.handleAuthError,
		})

		return authenticate(authorized)
	}
}

func (h *HTTPGate) authorize(policies []string, next router.HandlerFunc) router.HandlerFunc {
	return func(ctx router.Context) error {
		claims, ok := ClaimsFromRouterContext(ctx, h.config.GetContextKey())
		if !ok {
			return RespondError(ctx, ErrMissingClaims)
		}

		for _, policy := range policies {
			if err := h.gate.Authorize(policy, claims); err != nil {
				h.logger.Info("policy denied request",
					"policy", policy,
					"subject", claims.Subject(),
				)
				return RespondError(ctx, err)
			}
		}

		return next(ctx)
	}
}

func (h *HTTPGate) handleAuthError(ctx router.Context, err error) error {
	if IsTokenExpiredError(err) {
		return RespondError(ctx, ErrTokenExpired)
	}

	if IsMalformedError(err) {
		return RespondError(ctx, ErrTokenMalformed)
	}

	return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryAuth, "authentication failed").
		WithCode(goerrors.CodeUnauthorized))
}

type tokenValidatorAdapter struct {
	tokens *TokenService
}

func (a tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := a.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ClaimsFromRouterContext retrieves the validated claims the middleware
// stored in locals
func ClaimsFromRouterContext(ctx router.Context, key string) (AuthClaims, bool) {
	value := ctx.Locals(key)
	if value == nil {
		return nil, false
	}

	claims, ok := value.(AuthClaims)
	return claims, ok
}

// ErrorBody is the wire shape of a failed request
type ErrorBody struct {
	Message    string            `json:"message"`
	TextCode   string            `json:"text_code,omitempty"`
	Validation map[string]string `json:"validation,omitempty"`
}

// ErrorResponse wraps the error body in the response envelope
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// RespondError maps an error to the JSON error envelope. Rich errors drive
// the HTTP status from their Code, falling back to the category.
func RespondError(ctx router.Context, err error) error {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		rich = goerrors.Wrap(err, goerrors.CategoryInternal, "internal server error")
	}

	status := rich.Code
	if status == 0 {
		status = statusForCategory(rich.Category)
	}

	body := ErrorBody{
		Message:  rich.Message,
		TextCode: rich.TextCode,
	}

	if vm := rich.ValidationMap(); len(vm) > 0 {
		body.Validation = vm
	}

	return ctx.JSON(status, ErrorResponse{Error: body})
}

func statusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryNotFound:
		return router.StatusNotFound
	case goerrors.CategoryAuth:
		return router.StatusUnauthorized
	case goerrors.CategoryValidation,
		goerrors.CategoryBadInput,
		goerrors.CategoryConflict,
		goerrors.CategoryRateLimit,
		goerrors.CategoryOperation:
		return router.StatusBadRequest
	default:
		return router.StatusInternalServerError
	}
}
