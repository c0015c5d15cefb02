package handlers

import (
	"net/http"
	"time"

	"amora/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LikeRequest struct {
	UserID      string `json:"userId"`
	LikedUserID string `json:"likedUserId" binding:"required"`
	Image       string `json:"image" binding:"required"`
	Comment     string `json:"comment"`
}

type MatchRequest struct {
	CurrentUserID  string `json:"currentUserId"`
	SelectedUserID string `json:"selectedUserId" binding:"required"`
}

type BlockRequest struct {
	UserID        string `json:"userId"`
	BlockedUserID string `json:"blockedUserId" binding:"required"`
}

type RejectRequest struct {
	UserID         string `json:"userId"`
	RejectedUserID string `json:"rejectedUserId" binding:"required"`
}

type ReportRequest struct {
	ReportedUserID string `json:"reportedUserId" binding:"required"`
	Reason         string `json:"reason" binding:"required"`
	Description    string `json:"description"`
}

// actor resolves the acting user: the token identity, cross-checked against
// the optional userId the older clients still send in the body.
func actor(c *gin.Context, bodyUserID string) (primitive.ObjectID, bool) {
	me, ok := currentUserID(c)
	if !ok {
		return primitive.NilObjectID, false
	}
	if bodyUserID != "" && bodyUserID != me.Hex() {
		respondError(c, http.StatusForbidden, codeForbidden, "cannot act on behalf of another user")
		return primitive.NilObjectID, false
	}
	return me, true
}

// LikeProfile records a one-directional like with the sender's image and an
// optional comment. Likes are not deduplicated; the receiver's list is
// append-only until a match or reject consumes it.
func (api *API) LikeProfile(c *gin.Context) {
	var req LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	me, ok := actor(c, req.UserID)
	if !ok {
		return
	}
	liked, ok := parseID(c, req.LikedUserID, "likedUserId")
	if !ok {
		return
	}
	if liked == me {
		respondError(c, http.StatusBadRequest, codeValidation, "cannot like yourself")
		return
	}

	like := models.ReceivedLike{
		FromUserID: me,
		Image:      req.Image,
		Comment:    req.Comment,
		CreatedAt:  time.Now().Unix(),
	}
	if err := api.Store.AddLike(c.Request.Context(), me, liked, like); err != nil {
		storeError(c, err)
		return
	}

	if api.WS != nil {
		api.WS.NotifyLike(liked.Hex(), like)
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile liked"})
}

// CreateMatch makes the mutual match between the caller and the selected
// user. Repeating the call is a no-op: membership updates are set-based and
// the pair document is keyed by the unordered pair.
func (api *API) CreateMatch(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	me, ok := actor(c, req.CurrentUserID)
	if !ok {
		return
	}
	selected, ok := parseID(c, req.SelectedUserID, "selectedUserId")
	if !ok {
		return
	}
	if selected == me {
		respondError(c, http.StatusBadRequest, codeValidation, "cannot match with yourself")
		return
	}

	if err := api.Store.CreateMatch(c.Request.Context(), me, selected); err != nil {
		storeError(c, err)
		return
	}

	if api.WS != nil {
		api.WS.NotifyMatch(me.Hex(), selected.Hex())
	}
	log.Info().Str("userId", me.Hex()).Str("matchedWith", selected.Hex()).Msg("match created")
	c.JSON(http.StatusOK, gin.H{"message": "match created"})
}

func (api *API) GetMatches(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}
	target := me
	if q := c.Query("userId"); q != "" {
		if target, ok = parseID(c, q, "userId"); !ok {
			return
		}
	}

	ctx := c.Request.Context()
	user, err := api.Store.GetUser(ctx, target)
	if err != nil {
		storeError(c, err)
		return
	}

	matched, err := api.Store.GetUsersByIDs(ctx, user.Matches)
	if err != nil {
		storeError(c, err)
		return
	}

	matches := make([]models.Summary, len(matched))
	for i := range matched {
		matches[i] = matched[i].Summarize()
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// GetReceivedLikes returns the pending incoming likes with the liker's
// profile summary attached.
func (api *API) GetReceivedLikes(c *gin.Context) {
	target, ok := parseID(c, c.Param("userId"), "userId")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user, err := api.Store.GetUser(ctx, target)
	if err != nil {
		storeError(c, err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(user.ReceivedLikes))
	for _, l := range user.ReceivedLikes {
		ids = append(ids, l.FromUserID)
	}
	likers, err := api.Store.GetUsersByIDs(ctx, ids)
	if err != nil {
		storeError(c, err)
		return
	}
	byID := make(map[primitive.ObjectID]models.Summary, len(likers))
	for i := range likers {
		byID[likers[i].ID] = likers[i].Summarize()
	}

	out := make([]gin.H, len(user.ReceivedLikes))
	for i, l := range user.ReceivedLikes {
		entry := gin.H{
			"fromUserId": l.FromUserID.Hex(),
			"image":      l.Image,
			"createdAt":  l.CreatedAt,
		}
		if l.Comment != "" {
			entry["comment"] = l.Comment
		}
		if summary, exists := byID[l.FromUserID]; exists {
			entry["from"] = summary
		}
		out[i] = entry
	}
	c.JSON(http.StatusOK, gin.H{"receivedLikes": out})
}

func (api *API) BlockUser(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	me, ok := actor(c, req.UserID)
	if !ok {
		return
	}
	blocked, ok := parseID(c, req.BlockedUserID, "blockedUserId")
	if !ok {
		return
	}
	if blocked == me {
		respondError(c, http.StatusBadRequest, codeValidation, "cannot block yourself")
		return
	}

	if err := api.Store.BlockUser(c.Request.Context(), me, blocked); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user blocked"})
}

func (api *API) UnblockUser(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	me, ok := actor(c, req.UserID)
	if !ok {
		return
	}
	blocked, ok := parseID(c, req.BlockedUserID, "blockedUserId")
	if !ok {
		return
	}

	if err := api.Store.UnblockUser(c.Request.Context(), me, blocked); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user unblocked"})
}

func (api *API) GetBlockedUsers(c *gin.Context) {
	target, ok := parseID(c, c.Param("userId"), "userId")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user, err := api.Store.GetUser(ctx, target)
	if err != nil {
		storeError(c, err)
		return
	}
	blocked, err := api.Store.GetUsersByIDs(ctx, user.BlockedUsers)
	if err != nil {
		storeError(c, err)
		return
	}

	out := make([]models.Summary, len(blocked))
	for i := range blocked {
		out[i] = blocked[i].Summarize()
	}
	c.JSON(http.StatusOK, gin.H{"blockedUsers": out})
}

func (api *API) RejectProfile(c *gin.Context) {
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	me, ok := actor(c, req.UserID)
	if !ok {
		return
	}
	rejected, ok := parseID(c, req.RejectedUserID, "rejectedUserId")
	if !ok {
		return
	}
	if rejected == me {
		respondError(c, http.StatusBadRequest, codeValidation, "cannot reject yourself")
		return
	}

	if err := api.Store.RejectProfile(c.Request.Context(), me, rejected); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile rejected"})
}

func (api *API) UnrejectProfile(c *gin.Context) {
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	me, ok := actor(c, req.UserID)
	if !ok {
		return
	}
	rejected, ok := parseID(c, req.RejectedUserID, "rejectedUserId")
	if !ok {
		return
	}

	if err := api.Store.UnrejectProfile(c.Request.Context(), me, rejected); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile unrejected"})
}

func (api *API) GetRejectedProfiles(c *gin.Context) {
	target, ok := parseID(c, c.Param("userId"), "userId")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user, err := api.Store.GetUser(ctx, target)
	if err != nil {
		storeError(c, err)
		return
	}
	rejected, err := api.Store.GetUsersByIDs(ctx, user.RejectedProfiles)
	if err != nil {
		storeError(c, err)
		return
	}

	out := make([]models.Summary, len(rejected))
	for i := range rejected {
		out[i] = rejected[i].Summarize()
	}
	c.JSON(http.StatusOK, gin.H{"rejectedProfiles": out})
}

// ReportUser persists an abuse report against another user.
func (api *API) ReportUser(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	me, ok := currentUserID(c)
	if !ok {
		return
	}
	reported, ok := parseID(c, req.ReportedUserID, "reportedUserId")
	if !ok {
		return
	}
	if reported == me {
		respondError(c, http.StatusBadRequest, codeValidation, "cannot report yourself")
		return
	}
	if !models.ValidReportReason(req.Reason) {
		respondError(c, http.StatusBadRequest, codeValidation, "invalid report reason")
		return
	}

	ctx := c.Request.Context()
	if _, err := api.Store.GetUser(ctx, reported); err != nil {
		storeError(c, err)
		return
	}

	report := &models.Report{
		ID:             primitive.NewObjectID(),
		ReporterID:     me,
		ReportedUserID: reported,
		Reason:         req.Reason,
		Description:    req.Description,
		CreatedAt:      time.Now().Unix(),
	}
	if err := api.Store.CreateReport(ctx, report); err != nil {
		storeError(c, err)
		return
	}

	log.Info().
		Str("reporterId", me.Hex()).
		Str("reportedUserId", reported.Hex()).
		Str("reason", req.Reason).
		Msg("user reported")
	c.JSON(http.StatusOK, gin.H{"message": "report submitted"})
}
