package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/readscout/readscout/internal/auth"
)

type credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthController struct {
	auth *auth.Service
}

func NewAuthController(authService *auth.Service) *AuthController {
	return &AuthController{auth: authService}
}

// Register creates a new account.
// POST /api/auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var body credentials
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "username and password are required")
		return
	}

	account, err := ac.auth.Register(body.Username, body.Password)
	if errors.Is(err, auth.ErrUsernameTaken) {
		respondConflict(c, "username already taken")
		return
	}
	if errors.Is(err, auth.ErrPasswordTooShort) || errors.Is(err, auth.ErrPasswordTooLong) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "register")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "account created",
		"user_id":  account.UserID,
		"username": account.Username,
	})
}

// SignIn verifies credentials and records the session. A successful sign-in
// also kicks off ledger reconciliation through the service's hook.
// POST /api/auth/signin
func (ac *AuthController) SignIn(c *gin.Context) {
	var body credentials
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "username and password are required")
		return
	}

	account, err := ac.auth.SignIn(body.Username, body.Password)
	if errors.Is(err, auth.ErrUnknownAccount) || errors.Is(err, auth.ErrInvalidCredentials) {
		respondUnauthorized(c, "invalid username or password")
		return
	}
	if err != nil {
		respondInternalError(c, err, "sign in")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "signed in",
		"user_id":  account.UserID,
		"username": account.Username,
	})
}

// SignOut clears the session. Signing out while signed out is a no-op.
// POST /api/auth/signout
func (ac *AuthController) SignOut(c *gin.Context) {
	if err := ac.auth.SignOut(); err != nil {
		respondInternalError(c, err, "sign out")
		return
	}
	respondSuccess(c, "signed out")
}

// Session reports whether a user is currently signed in.
// GET /api/auth/session
func (ac *AuthController) Session(c *gin.Context) {
	userID := ac.auth.CurrentUserID()
	c.JSON(http.StatusOK, gin.H{
		"signed_in": userID != "",
		"user_id":   userID,
	})
}
