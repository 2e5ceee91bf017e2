package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/auth"
)

// ProfileController handles user profile operations.
type ProfileController struct {
	authService *auth.Service
	loans       LoanStore
}

func NewProfileController(authService *auth.Service, loanStore LoanStore) *ProfileController {
	return &ProfileController{
		authService: authService,
		loans:       loanStore,
	}
}

// ProfilePage renders the user profile page.
// GET /profile
func (pc *ProfileController) ProfilePage(c *gin.Context) {
	pc.renderProfile(c, http.StatusOK, gin.H{})
}

// ChangePassword handles password change requests.
// POST /profile/password
func (pc *ProfileController) ChangePassword(c *gin.Context) {
	newPassword := c.PostForm("new_password")
	if newPassword != c.PostForm("confirm_password") {
		pc.renderProfile(c, http.StatusOK, gin.H{"PasswordError": "New passwords do not match"})
		return
	}

	err := pc.authService.ChangePassword(auth.GetUserID(c), c.PostForm("current_password"), newPassword)
	switch {
	case errors.Is(err, auth.ErrInvalidPassword):
		pc.renderProfile(c, http.StatusOK, gin.H{"PasswordError": "Current password is incorrect"})
	case errors.Is(err, auth.ErrPasswordTooShort):
		pc.renderProfile(c, http.StatusOK, gin.H{"PasswordError": "Password must be at least 12 characters"})
	case errors.Is(err, auth.ErrPasswordTooLong):
		pc.renderProfile(c, http.StatusOK, gin.H{"PasswordError": "Password must be at most 72 characters"})
	case errors.Is(err, auth.ErrPasswordIsUsername):
		pc.renderProfile(c, http.StatusOK, gin.H{"PasswordError": "Password must differ from the username"})
	case err != nil:
		renderInternalError(c, err, "change password")
	default:
		pc.renderProfile(c, http.StatusOK, gin.H{"PasswordChanged": true})
	}
}

// GenerateToken creates a new API token, replacing any existing one. The
// token is only ever shown once.
// POST /profile/token
func (pc *ProfileController) GenerateToken(c *gin.Context) {
	token, err := pc.authService.GenerateToken(auth.GetUserID(c))
	if err != nil {
		renderInternalError(c, err, "generate token")
		return
	}
	pc.renderProfile(c, http.StatusOK, gin.H{"Token": token})
}

// RevokeToken removes the user's API token.
// POST /profile/token/revoke
func (pc *ProfileController) RevokeToken(c *gin.Context) {
	if err := pc.authService.RevokeToken(auth.GetUserID(c)); err != nil {
		renderInternalError(c, err, "revoke token")
		return
	}
	pc.renderProfile(c, http.StatusOK, gin.H{"TokenRevoked": true})
}

func (pc *ProfileController) renderProfile(c *gin.Context, status int, data gin.H) {
	user, err := pc.authService.GetUserByID(auth.GetUserID(c))
	if errors.Is(err, auth.ErrUserNotFound) {
		renderNotFound(c)
		return
	}
	if err != nil {
		renderInternalError(c, err, "load profile")
		return
	}

	var onLoan int64
	if pc.loans != nil {
		if _, onLoan, err = pc.loans.ListOnLoanByBorrower(user.ID, 1, 0); err != nil {
			log.Printf("Failed to count loans for user %d: %v", user.ID, err)
		}
	}

	data["Title"] = "Profile"
	data["User"] = user
	data["HasToken"] = user.TokenHash != ""
	data["OnLoan"] = onLoan
	render(c, status, "profile", data)
}
