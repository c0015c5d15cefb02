package handlers

import (
	"net/http"

	"amora/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UpdateProfileRequest uses pointer fields so the handler can tell an omitted
// field from an explicit empty value. The read-only fields are present only
// to reject attempts to change them.
type UpdateProfileRequest struct {
	// Read-only after registration.
	FirstName   *string `json:"firstName"`
	DateOfBirth *string `json:"dateOfBirth"`
	Type        *string `json:"type"`

	LastName   *string          `json:"lastName"`
	Gender     *string          `json:"gender"`
	Location   *string          `json:"location"`
	Hometown   *string          `json:"hometown"`
	Bio        *string          `json:"bio"`
	Height     *string          `json:"height"`
	Languages  *[]string        `json:"languages"`
	Children   *string          `json:"children"`
	Smoking    *string          `json:"smoking"`
	Drinking   *string          `json:"drinking"`
	Religion   *string          `json:"religion"`
	Occupation *string          `json:"occupation"`
	LookingFor *string          `json:"lookingFor"`
	ImageURLs  *[]string        `json:"imageUrls"`
	Prompts    *[]models.Prompt `json:"prompts"`
	Visibility *string          `json:"visibility"`
}

type VisibilityRequest struct {
	GenderVisible     *bool `json:"genderVisible"`
	TypeVisible       *bool `json:"typeVisible"`
	LookingForVisible *bool `json:"lookingForVisible"`
}

type PasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// requireSelf ensures the authenticated user is operating on their own
// record. A false return means the response has been written.
func requireSelf(c *gin.Context, id primitive.ObjectID) bool {
	me, ok := currentUserID(c)
	if !ok {
		return false
	}
	if me != id {
		respondError(c, http.StatusForbidden, codeForbidden, "cannot modify another user's account")
		return false
	}
	return true
}

func (api *API) GetUser(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, codeNotFound, "user not found")
		return
	}

	user, gerr := api.Store.GetUser(c.Request.Context(), id)
	if gerr != nil {
		storeError(c, gerr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile merges editable fields into the caller's document. First
// name, date of birth, and orientation type are fixed at registration and
// rejected here.
func (api *API) UpdateProfile(c *gin.Context) {
	id, ok := parseID(c, c.Param("id"), "user id")
	if !ok {
		return
	}
	if !requireSelf(c, id) {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}

	if req.FirstName != nil || req.DateOfBirth != nil || req.Type != nil {
		respondError(c, http.StatusBadRequest, codeReadonlyField,
			"firstName, dateOfBirth and type cannot be changed")
		return
	}

	set := map[string]interface{}{}
	setString := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	setString("lastName", req.LastName)
	setString("gender", req.Gender)
	setString("location", req.Location)
	setString("hometown", req.Hometown)
	setString("bio", req.Bio)
	setString("height", req.Height)
	setString("children", req.Children)
	setString("smoking", req.Smoking)
	setString("drinking", req.Drinking)
	setString("religion", req.Religion)
	setString("occupation", req.Occupation)
	setString("lookingFor", req.LookingFor)
	if req.Visibility != nil {
		if *req.Visibility != models.VisibilityPublic && *req.Visibility != models.VisibilityHidden {
			respondError(c, http.StatusBadRequest, codeValidation, "visibility must be public or hidden")
			return
		}
		set["visibility"] = *req.Visibility
	}
	if req.Languages != nil {
		set["languages"] = *req.Languages
	}
	if req.ImageURLs != nil {
		set["imageUrls"] = *req.ImageURLs
	}
	if req.Prompts != nil {
		set["prompts"] = *req.Prompts
	}

	if len(set) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "no changes to update"})
		return
	}

	if err := api.Store.UpdateProfile(c.Request.Context(), id, set); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated"})
}

// UpdateVisibility toggles one or more per-field visibility flags.
func (api *API) UpdateVisibility(c *gin.Context) {
	id, ok := parseID(c, c.Param("id"), "user id")
	if !ok {
		return
	}
	if !requireSelf(c, id) {
		return
	}

	var req VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}

	flags := map[string]bool{}
	if req.GenderVisible != nil {
		flags["genderVisible"] = *req.GenderVisible
	}
	if req.TypeVisible != nil {
		flags["typeVisible"] = *req.TypeVisible
	}
	if req.LookingForVisible != nil {
		flags["lookingForVisible"] = *req.LookingForVisible
	}
	if len(flags) == 0 {
		respondError(c, http.StatusBadRequest, codeValidation, "no visibility flags provided")
		return
	}

	if err := api.Store.UpdateVisibility(c.Request.Context(), id, flags); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "visibility updated"})
}

func (api *API) GetAccountStatus(c *gin.Context) {
	id, ok := parseID(c, c.Param("id"), "user id")
	if !ok {
		return
	}

	user, err := api.Store.GetUser(c.Request.Context(), id)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"isActive":      user.IsActive,
		"isDeleted":     user.IsDeleted,
		"deactivatedAt": user.DeactivatedAt,
		"deletedAt":     user.DeletedAt,
	})
}

// verifyPassword re-checks the caller's password for destructive account
// operations. A false return means the response has been written.
func (api *API) verifyPassword(c *gin.Context) (primitive.ObjectID, bool) {
	me, ok := currentUserID(c)
	if !ok {
		return primitive.NilObjectID, false
	}

	var req PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "password is required")
		return primitive.NilObjectID, false
	}

	user, err := api.Store.GetUser(c.Request.Context(), me)
	if err != nil {
		storeError(c, err)
		return primitive.NilObjectID, false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, codeInvalidCredentials, "incorrect password")
		return primitive.NilObjectID, false
	}
	return me, true
}

func (api *API) DeactivateAccount(c *gin.Context) {
	me, ok := api.verifyPassword(c)
	if !ok {
		return
	}
	if err := api.Store.SetAccountActive(c.Request.Context(), me, false); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deactivated"})
}

func (api *API) ReactivateAccount(c *gin.Context) {
	me, ok := api.verifyPassword(c)
	if !ok {
		return
	}
	if err := api.Store.SetAccountActive(c.Request.Context(), me, true); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account reactivated"})
}

// DeleteAccount soft-deletes: the document survives for audit but all
// subsequent logins are rejected.
func (api *API) DeleteAccount(c *gin.Context) {
	me, ok := api.verifyPassword(c)
	if !ok {
		return
	}
	if err := api.Store.MarkDeleted(c.Request.Context(), me); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}
