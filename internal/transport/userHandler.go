package transport

import (
	"net/http"

	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/ds124wfegd/eventhive/internal/sandbox"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	state  *sandbox.State
	tokens *sandbox.TokenIssuer
}

func NewUserHandler(state *sandbox.State, tokens *sandbox.TokenIssuer) *UserHandler {
	return &UserHandler{state: state, tokens: tokens}
}

type authResponse struct {
	Token string      `json:"token"`
	User  entity.User `json:"user"`
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// Register ignores any isAdmin flag in the payload: admins are seeded.
func (h *UserHandler) Register(c *gin.Context) {
	var req entity.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid registration payload"})
		return
	}

	user, err := h.state.Register(req, false)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issue(c, http.StatusCreated, user)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req entity.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid login payload"})
		return
	}

	user, err := h.state.Authenticate(req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issue(c, http.StatusOK, user)
}

func (h *UserHandler) issue(c *gin.Context, status int, user entity.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, authResponse{Token: token, User: user})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid profile payload"})
		return
	}

	user, err := h.state.Rename(currentUserID(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// RequireAdmin reads the admin flag from the account, not from the token.
func (h *UserHandler) RequireAdmin(c *gin.Context) {
	user, err := h.state.User(currentUserID(c))
	if err != nil {
		respondError(c, err)
		c.Abort()
		return
	}
	if !user.IsAdmin {
		respondError(c, sandbox.ErrAdminOnly)
		c.Abort()
		return
	}
	c.Next()
}
