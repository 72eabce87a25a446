package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"Solaire/internal/httpx"
	"Solaire/internal/repo"
	"Solaire/internal/validate"
)

type contextKey string

const userIDKey contextKey = "userID"

const (
	cookieName  = "session_token"
	sessionTTL  = 30 * 24 * time.Hour
	minPassword = 6
)

type Authenv struct {
	JWTkey       []byte
	Repo         repo.UserRepository
	SecureCookie bool
}

type IPRateLimiter struct {
	ips map[string]*rate.Limiter
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

type Loginrequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registerrequest struct {
	Email       string    `json:"email"`
	Password    string    `json:"password"`
	FullName    string    `json:"full_name"`
	CompanyName string    `json:"company_name"`
	Role        repo.Role `json:"role"`
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*rate.Limiter),
		r:   r,
		b:   b,
	}
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}
	return limiter
}

// LimitMiddleware rate limits per client address, port stripped.
func (i *IPRateLimiter) LimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if idx := strings.LastIndex(ip, ":"); idx > 0 {
			ip = ip[:idx]
		}
		if !i.getLimiter(ip).Allow() {
			http.Error(w, "Too Many Requests. Try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// UserID returns the authenticated owner id, or "" outside AuthMiddleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

type claims struct {
	Email string    `json:"email"`
	Role  repo.Role `json:"role"`
	jwt.RegisteredClaims
}

func (env *Authenv) parse(tokenString string) (*claims, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(token *jwt.Token) (interface{}, error) {
		return env.JWTkey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid || c.Subject == "" {
		return nil, errors.New("invalid session token")
	}
	return c, nil
}

// NewToken signs a session token for the user.
func (env *Authenv) NewToken(u repo.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	})
	return token.SignedString(env.JWTkey)
}

func (env *Authenv) RedirectIfLoggedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(cookieName)
		if err == nil {
			if _, err := env.parse(cookie.Value); err == nil {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware puts the session owner in the request context. API routes
// get a 401, pages are redirected to the login screen.
func (env *Authenv) AuthMiddleware(next http.Handler) http.Handler {
	return env.session(next, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

func (env *Authenv) PageMiddleware(next http.Handler) http.Handler {
	return env.session(next, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/auth/", http.StatusSeeOther)
	})
}

func (env *Authenv) session(next http.Handler, deny http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(cookieName)
		if err != nil {
			deny(w, r)
			return
		}
		c, err := env.parse(cookie.Value)
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().Err(err).Msg("rejected session token")
			deny(w, r)
			return
		}

		ctx := WithUserID(r.Context(), c.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (env *Authenv) addCookie(w http.ResponseWriter, u repo.User) error {
	tokenString, err := env.NewToken(u)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    tokenString,
		Expires:  time.Now().Add(sessionTTL),
		Path:     "/",
		HttpOnly: true,
		Secure:   env.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// InitDB opens the Postgres pool. sslmode=require is added when the DSN
// does not pick one.
func InitDB(ctx context.Context, connStr string) (*sql.DB, error) {
	if connStr == "" {
		connStr = "user=postgres dbname=postgres password=password sslmode=disable"
	}
	if !strings.Contains(connStr, "sslmode=") {
		if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
			sep := "?"
			if strings.Contains(connStr, "?") {
				sep = "&"
			}
			connStr = connStr + sep + "sslmode=require"
		} else {
			connStr = connStr + " sslmode=require"
		}
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (env *Authenv) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req Registerrequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Role == "" {
		req.Role = repo.RoleCommercial
	}

	errs := validate.FieldErrors{}
	if !validate.Email(req.Email) {
		errs["email"] = "Format d'email invalide"
	}
	if len(req.Password) < minPassword {
		errs["password"] = "Le mot de passe doit contenir au moins 6 caractères"
	}
	if req.FullName == "" {
		errs["full_name"] = "Le nom complet est requis"
	}
	if !req.Role.Valid() {
		errs["role"] = "Rôle inconnu"
	}
	if len(errs) > 0 {
		httpx.ValidationFailed(w, errs)
		return
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}
	u, err := env.Repo.CreateUser(r.Context(), repo.User{
		Email:       req.Email,
		FullName:    req.FullName,
		CompanyName: strings.TrimSpace(req.CompanyName),
		Role:        req.Role,
	}, hashedPassword)
	if err != nil {
		httpx.Fail(w, r, err, "create user")
		return
	}

	if err := env.addCookie(w, u); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("sign session token")
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

func (env *Authenv) AuthHandler(w http.ResponseWriter, r *http.Request) {
	var req Loginrequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password required", http.StatusBadRequest)
		return
	}

	u, storedHash, err := env.Repo.GetByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		httpx.Fail(w, r, err, "get user by email")
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.Password)) != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err := env.addCookie(w, u); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("sign session token")
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (env *Authenv) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   env.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
