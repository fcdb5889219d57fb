package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"userhub/internal/cache"
	"userhub/internal/config"
	"userhub/internal/domain/job"
	"userhub/internal/domain/user"
	"userhub/internal/jobs"
	"userhub/internal/security"

	"github.com/gin-gonic/gin"
)

// UserStore is the credential store contract. It is deliberately narrow: no
// query builder, just the operations the handlers need.
type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByName(ctx context.Context, name string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	UpdateByID(ctx context.Context, u user.User) error
	DeleteByID(ctx context.Context, id int64) error
	ListPage(ctx context.Context, pageNum, pageSize int) ([]user.User, int64, error)
}

type TokenIssuer interface {
	GenerateToken(name string) (string, error)
}

type JobEnqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

type UsersHandler struct {
	store  UserStore
	tokens TokenIssuer
	queue  JobEnqueuer // optional
	cache  cache.Store // optional
	log    *slog.Logger
	cfg    config.Config
}

func NewUsersHandler(store UserStore, tokens TokenIssuer, queue JobEnqueuer, respCache cache.Store, log *slog.Logger, cfg config.Config) *UsersHandler {
	return &UsersHandler{
		store:  store,
		tokens: tokens,
		queue:  queue,
		cache:  respCache,
		log:    log,
		cfg:    cfg,
	}
}

type RegisterRequest struct {
	Name       string     `json:"name" binding:"required"`
	Password   string     `json:"password" binding:"required"`
	Sex        string     `json:"sex"`
	BirthDate  *time.Time `json:"birthDate"`
	Department string     `json:"department"`
	Telephone  string     `json:"telephone"`
	Email      string     `json:"email" binding:"omitempty,email"`
	Role       string     `json:"role"`
}

type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name" binding:"required"`
	Password   string     `json:"password"` // empty keeps the stored credential
	Sex        string     `json:"sex"`
	BirthDate  *time.Time `json:"birthDate"`
	Department string     `json:"department"`
	Telephone  string     `json:"telephone"`
	Email      string     `json:"email" binding:"omitempty,email"`
	Role       string     `json:"role"`
}

// Register creates a user. The GetByName pre-check only buys a friendlier
// error; the unique constraint caught at Create is what actually guarantees
// uniqueness under concurrent registrations.
func (h *UsersHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	_, err := h.store.GetByName(cctx, req.Name)

	if err == nil {
		RespondBadRequest(ctx, "username already exists", nil)
		return
	}

	if !errors.Is(err, user.ErrNotFound) {
		RespondInternal(ctx, "register failed")
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "register failed")
		return
	}

	role := req.Role

	if role == "" {
		role = user.RoleUser
	}

	u := user.User{
		Name:         req.Name,
		PasswordHash: hash,
		Sex:          req.Sex,
		BirthDate:    req.BirthDate,
		Department:   req.Department,
		Telephone:    req.Telephone,
		Email:        req.Email,
		Role:         role,
		CreateTime:   time.Now().UTC(),
	}

	created, err := h.store.Create(cctx, u)

	if err != nil {
		if errors.Is(err, user.ErrDuplicateName) {
			// lost the race against a concurrent registration
			RespondBadRequest(ctx, "username already exists", nil)
			return
		}

		RespondInternal(ctx, "register failed")
		return
	}

	h.invalidateCache(cctx)
	h.enqueueWelcome(cctx, created)

	RespondOK(ctx, "register success", created)
}

// Login matches credentials and issues the session cookie. Unknown usernames
// and wrong passwords produce the same response, so the endpoint cannot be
// used to enumerate accounts.
func (h *UsersHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.store.GetByName(cctx, req.Name)
	if err != nil {
		RespondUnauthorized(ctx, "invalid username or password")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnauthorized(ctx, "invalid username or password")
		return
	}

	token, err := h.tokens.GenerateToken(foundUser.Name)

	if err != nil {
		RespondInternal(ctx, "could not create session")
		return
	}

	h.setSessionCookie(ctx, token)

	RespondOK(ctx, "login success", foundUser)
}

// Logout clears the session cookie. There is no state to check, so it always
// succeeds.
func (h *UsersHandler) Logout(ctx *gin.Context) {
	h.clearSessionCookie(ctx)

	RespondOK(ctx, "logout success", nil)
}

func (h *UsersHandler) GetUserByID(ctx *gin.Context) {
	id, ok := parseID(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	key := "user:" + strconv.FormatInt(id, 10)

	if h.cache != nil {
		if raw, hit := h.cache.Get(cctx, key); hit {
			var u user.User

			if json.Unmarshal(raw, &u) == nil {
				RespondOK(ctx, "query success", u)
				return
			}
		}
	}

	u, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "user not found")
			return
		}

		RespondInternal(ctx, "query failed")
		return
	}

	if h.cache != nil {
		if raw, marshalErr := json.Marshal(u); marshalErr == nil {
			h.cache.Set(cctx, key, raw)
		}
	}

	RespondOK(ctx, "query success", u)
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id, ok := parseID(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.store.DeleteByID(cctx, id)

	if err != nil {
		// deleting a missing user reports 500, kept for client compatibility
		if errors.Is(err, user.ErrNotFound) {
			RespondInternal(ctx, "delete failed: user not found")
			return
		}

		RespondInternal(ctx, "delete failed")
		return
	}

	h.invalidateCache(cctx)

	RespondOK(ctx, "delete success", nil)
}

func (h *UsersHandler) GetUserPage(ctx *gin.Context) {
	pageNum := queryInt(ctx, "pageNum", 1)
	pageSize := queryInt(ctx, "pageSize", 10)

	if pageNum <= 0 {
		pageNum = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	key := "users:page:" + strconv.Itoa(pageNum) + ":" + strconv.Itoa(pageSize)

	if h.cache != nil {
		if raw, hit := h.cache.Get(cctx, key); hit {
			var page user.Page

			if json.Unmarshal(raw, &page) == nil {
				RespondPage(ctx, "query success", page)
				return
			}
		}
	}

	items, total, err := h.store.ListPage(cctx, pageNum, pageSize)

	if err != nil {
		RespondInternal(ctx, "page query failed")
		return
	}

	page := user.NewPage(items, total, pageNum, pageSize)

	if h.cache != nil {
		if raw, marshalErr := json.Marshal(page); marshalErr == nil {
			h.cache.Set(cctx, key, raw)
		}
	}

	RespondPage(ctx, "query success", page)
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	var req UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// reject before touching the store
	if req.ID <= 0 {
		RespondBadRequest(ctx, "missing id", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	existing, err := h.store.GetByID(cctx, req.ID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondInternal(ctx, "update failed")
			return
		}

		RespondInternal(ctx, "update failed")
		return
	}

	hash := existing.PasswordHash

	if req.Password != "" {
		hash, err = security.HashPassword(req.Password)

		if err != nil {
			RespondInternal(ctx, "update failed")
			return
		}
	}

	role := req.Role

	if role == "" {
		role = existing.Role
	}

	u := user.User{
		ID:           req.ID,
		Name:         req.Name,
		PasswordHash: hash,
		Sex:          req.Sex,
		BirthDate:    req.BirthDate,
		Department:   req.Department,
		Telephone:    req.Telephone,
		Email:        req.Email,
		Role:         role,
		CreateTime:   existing.CreateTime,
	}

	err = h.store.UpdateByID(cctx, u)

	if err != nil {
		if errors.Is(err, user.ErrDuplicateName) {
			RespondBadRequest(ctx, "update failed: username already exists", nil)
			return
		}

		RespondInternal(ctx, "update failed")
		return
	}

	h.invalidateCache(cctx)

	RespondOK(ctx, "update success", nil)
}

// helper functions

func parseID(ctx *gin.Context) (int64, bool) {
	raw := ctx.Param("id")

	id, err := strconv.ParseInt(raw, 10, 64)

	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "invalid id", nil)
		return 0, false
	}

	return id, true
}

func queryInt(ctx *gin.Context, key string, fallback int) int {
	raw := ctx.Query(key)

	if raw == "" {
		return fallback
	}

	n, err := strconv.Atoi(raw)

	if err != nil {
		return fallback
	}

	return n
}

func (h *UsersHandler) sessionCookieName() string {
	if h.cfg.CookieName != "" {
		return h.cfg.CookieName
	}
	return "token"
}

func (h *UsersHandler) sessionTTLSeconds() int {
	if h.cfg.TokenTTLSeconds > 0 {
		return h.cfg.TokenTTLSeconds
	}
	return 7200
}

func (h *UsersHandler) setSessionCookie(ctx *gin.Context, token string) {
	secure := h.cfg.Env == "prod"

	ctx.SetSameSite(http.SameSiteLaxMode)

	ctx.SetCookie(
		h.sessionCookieName(),
		token,
		h.sessionTTLSeconds(),
		"/",
		"",
		secure,
		true, // HttpOnly.
	)
}

func (h *UsersHandler) clearSessionCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(
		h.sessionCookieName(),
		"",
		-1, // serialized as Max-Age=0
		"/",
		"",
		secure,
		true,
	)
}

func (h *UsersHandler) invalidateCache(ctx context.Context) {
	if h.cache != nil {
		h.cache.Clear(ctx)
	}
}

func (h *UsersHandler) enqueueWelcome(ctx context.Context, u user.User) {
	if h.queue == nil {
		return
	}

	payload := jobs.UserWelcomePayload{
		UserID:      u.ID,
		Name:        u.Name,
		Email:       u.Email,
		RequestedAt: time.Now().UTC(),
	}

	raw, err := jobs.EncodePayload(jobs.JobUserWelcome, payload)

	if err != nil {
		h.log.Error("encode welcome payload", "err", err)
		return
	}

	// best-effort: a failed enqueue never fails the registration
	_, err = h.queue.Create(ctx, job.CreateRequest{
		Type:    string(jobs.JobUserWelcome),
		Payload: raw,
	})

	if err != nil {
		h.log.Error("enqueue welcome job", "user_id", u.ID, "err", err)
	}
}
