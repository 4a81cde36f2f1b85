package suppliers

// Policy and claim names used by the supplier routes. The claim name is the
// value stored on account records; clients that carry it in their token may
// delete suppliers.
const (
	PolicyDeleteSupplier = "delete-supplier"
	ClaimDeleteSupplier  = "ExcluirFornecedor"
)

// ClaimPredicate decides a policy against a validated claim set. Predicates
// must be pure: same claims in, same answer out.
type ClaimPredicate func(claims AuthClaims) bool

// RequireClaim builds a predicate satisfied when the named claim is present,
// whatever its value.
func RequireClaim(name string) ClaimPredicate {
	return func(claims AuthClaims) bool {
		if claims == nil {
			return false
		}
		return claims.HasClaim(name)
	}
}

// RequireRole builds a predicate satisfied when the claim set carries the role
func RequireRole(role string) ClaimPredicate {
	return func(claims AuthClaims) bool {
		if claims == nil {
			return false
		}
		return claims.HasRole(role)
	}
}

// Gate maps policy names to claim predicates
type Gate struct {
	policies map[string]ClaimPredicate
	logger   Logger
}

type GateOption func(*Gate)

func WithGateLogger(l Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithPolicy registers a named policy on construction
func WithPolicy(name string, predicate ClaimPredicate) GateOption {
	return func(g *Gate) {
		g.Register(name, predicate)
	}
}

// NewGate creates a gate preloaded with the supplier policies
func NewGate(opts ...GateOption) *Gate {
	g := &Gate{
		policies: map[string]ClaimPredicate{
			PolicyDeleteSupplier: RequireClaim(ClaimDeleteSupplier),
		},
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Register adds or replaces a policy
func (g *Gate) Register(name string, predicate ClaimPredicate) *Gate {
	if name == "" || predicate == nil {
		return g
	}
	g.policies[name] = predicate
	return g
}

// Authorize evaluates the named policy against the claims. Nil claims mean
// the request was never authenticated; an unregistered policy fails closed.
func (g *Gate) Authorize(policy string, claims AuthClaims) error {
	if claims == nil {
		return ErrMissingClaims
	}

	predicate, ok := g.policies[policy]
	if !ok {
		g.logger.Error("authorization gate evaluated unregistered policy", "policy", policy)
		return ErrUnknownPolicy
	}

	if !predicate(claims) {
		return ErrPolicyDenied
	}

	return nil
}
