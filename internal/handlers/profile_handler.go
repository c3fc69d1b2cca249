package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
)

// ProfileHandler handles the profile screen.
type ProfileHandler struct{}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

// UpdateProfileRequest represents the profile form. Version, when set, must
// match the stored profile or the save is rejected with a conflict.
type UpdateProfileRequest struct {
	Name     string          `json:"name" binding:"required,max=100"`
	Budget   decimal.Decimal `json:"budget" binding:"required,gt=0"`
	Currency string          `json:"currency" binding:"omitempty,currency"`
	Version  int64           `json:"version" binding:"omitempty,min=1"`
}

// SetCurrencyRequest represents the currency picker.
type SetCurrencyRequest struct {
	Currency string `json:"currency" binding:"required,currency"`
}

// ProfileResponse is the profile screen.
type ProfileResponse struct {
	Profile  models.Profile `json:"profile"`
	Email    string         `json:"email"`
	Complete bool           `json:"complete"`
	Theme    models.Theme   `json:"theme"`
}

// CurrenciesResponse lists the selectable currencies.
type CurrenciesResponse struct {
	Currencies []models.Currency `json:"currencies"`
}

func profileResponse(c *gin.Context) (ProfileResponse, error) {
	w, err := getWorkspace(c)
	if err != nil {
		return ProfileResponse{}, err
	}
	st := w.Store.State()
	resp := ProfileResponse{
		Profile:  st.Profile,
		Complete: st.IsProfileComplete(),
		Theme:    w.Theme(),
	}
	if st.Identity != nil {
		resp.Email = st.Identity.Email
	}
	return resp, nil
}

func (h *ProfileHandler) respondWithProfile(c *gin.Context) {
	resp, err := profileResponse(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles the profile screen
// @Summary     Get profile
// @Tags        profile
// @Produce     json
// @Success     200 {object} ProfileResponse "Profile"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Router      /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	h.respondWithProfile(c)
}

// Update handles the profile form
// @Summary     Update profile
// @Description Save name, monthly budget and currency
// @Tags        profile
// @Accept      json
// @Produce     json
// @Param       request body UpdateProfileRequest true "Profile"
// @Success     200 {object} ProfileResponse "Profile saved"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     409 {object} ErrorResponse "Profile changed elsewhere"
// @Failure     502 {object} ErrorResponse "Gateway error"
// @Router      /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	w, err := getWorkspace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondWithError(c, apperrors.WithFields(apperrors.ErrInvalidInput, map[string]string{"name": "Name is required"}))
		return
	}

	profile := w.Store.State().Profile
	profile.Name = req.Name
	profile.Budget = req.Budget
	if req.Currency != "" {
		profile.Currency = req.Currency
	}
	if req.Version != 0 {
		profile.Version = req.Version
	}

	if err := w.Store.SaveProfile(c.Request.Context(), profile); err != nil {
		respondWithError(c, err)
		return
	}
	h.respondWithProfile(c)
}

// ToggleTheme handles the theme switch
// @Summary     Toggle theme
// @Description Switch between the light and dark theme
// @Tags        profile
// @Produce     json
// @Success     200 {object} ProfileResponse "Theme switched"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     502 {object} ErrorResponse "Gateway error"
// @Router      /profile/theme [post]
func (h *ProfileHandler) ToggleTheme(c *gin.Context) {
	w, err := getWorkspace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := w.Store.ToggleTheme(c.Request.Context()); err != nil {
		respondWithError(c, err)
		return
	}
	h.respondWithProfile(c)
}

// SetCurrency handles the currency picker
// @Summary     Set currency
// @Tags        profile
// @Accept      json
// @Produce     json
// @Param       request body SetCurrencyRequest true "Currency"
// @Success     200 {object} ProfileResponse "Currency saved"
// @Failure     400 {object} ErrorResponse "Unsupported currency"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     502 {object} ErrorResponse "Gateway error"
// @Router      /profile/currency [put]
func (h *ProfileHandler) SetCurrency(c *gin.Context) {
	w, err := getWorkspace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	if err := w.Store.SetCurrency(c.Request.Context(), req.Currency); err != nil {
		respondWithError(c, err)
		return
	}
	h.respondWithProfile(c)
}

// Currencies lists the supported currencies
// @Summary     Supported currencies
// @Tags        profile
// @Produce     json
// @Success     200 {object} CurrenciesResponse "Currencies"
// @Router      /currencies [get]
func (h *ProfileHandler) Currencies(c *gin.Context) {
	c.JSON(http.StatusOK, CurrenciesResponse{Currencies: models.SupportedCurrencies()})
}
