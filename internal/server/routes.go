package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/palabra-app/palabra/internal/fsrs"
	"github.com/palabra-app/palabra/internal/leech"
	"github.com/palabra-app/palabra/internal/lifecycle"
	"github.com/palabra-app/palabra/internal/models"
	"github.com/palabra-app/palabra/internal/review"
	"github.com/palabra-app/palabra/internal/suspend"
	"github.com/palabra-app/palabra/internal/undo"
	"gorm.io/gorm"
)

type handlers struct {
	db             *gorm.DB
	undo           *undo.Stack
	leechThreshold int
	leechAction    leech.Action
}

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, h *handlers) {
	api := router.Group("/api")

	api.POST("/cards/:id/review", h.handleReview)
	api.GET("/undo", h.handleUndoStatus)
	api.POST("/undo", h.handleUndo)

	api.POST("/cards/:id/pause", h.handlePauseCard)
	api.POST("/cards/:id/resume", h.handleResumeCard)
	api.POST("/cards/:id/bury", h.handleBuryCard)
	api.POST("/cards/:id/pause-until", h.handlePauseUntil)
	api.GET("/cards/paused", h.handlePausedCards)

	api.POST("/cards/:id/due-date", h.handleSetDueDate)
	api.POST("/cards/due-date", h.handleBatchSetDueDate)
	api.POST("/cards/:id/reset", h.handleResetCard)
	api.POST("/cards/reset", h.handleBatchReset)
	api.POST("/cards/reposition", h.handleReposition)
	api.GET("/cards/:id", h.handleCardInfo)
	api.GET("/cards/:id/last-review", h.handleLastReview)

	api.POST("/notes/:id/copy", h.handleCopyNote)
	api.POST("/notes/:id/marked", h.handleToggleMarked)
	api.PATCH("/notes/:id/fields", h.handleEditFields)

	api.POST("/tags/:id/pause", h.handlePauseByTag)
	api.POST("/tags/:id/resume", h.handleResumeByTag)
	api.POST("/decks/:id/pause", h.handlePauseByDeck)
	api.POST("/decks/:id/resume", h.handleResumeByDeck)

	api.POST("/jobs/resume-expired", h.handleResumeExpired)
	api.POST("/jobs/unbury", h.handleUnbury)
}

// respondError maps the shared error kinds onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidState):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// fixedResult adapts a scheduling result computed by the client's FSRS
// scheduler; interval math never happens server-side.
type fixedResult fsrs.Result

func (f fixedResult) NextState(prev fsrs.MemoryState, elapsed time.Duration, rating fsrs.Rating) fsrs.Result {
	return fsrs.Result(f)
}

type reviewRequest struct {
	Rating      int       `json:"rating" binding:"required"`
	TimeTakenMs int       `json:"time_taken_ms"`
	Stability   float64   `json:"stability"`
	Difficulty  float64   `json:"difficulty"`
	IntervalDay int       `json:"interval_days"`
	Due         time.Time `json:"due" binding:"required"`
}

func (h *handlers) handleReview(c *gin.Context) {
	cardID, ok := idParam(c)
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sched := fixedResult{
		State:        fsrs.MemoryState{Stability: req.Stability, Difficulty: req.Difficulty},
		IntervalDays: req.IntervalDay,
		Due:          req.Due,
	}
	out, err := review.Apply(h.db, sched, h.undo, cardID, review.Params{
		Rating:         fsrs.Rating(req.Rating),
		TimeTakenMs:    req.TimeTakenMs,
		LeechThreshold: h.leechThreshold,
		LeechAction:    h.leechAction,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"card_id":    out.Card.ID,
		"card_type":  out.Card.CardType,
		"due":        out.Card.Due,
		"reps":       out.Card.Reps,
		"lapses":     out.Card.Lapses,
		"is_leech":   out.Leech.IsLeech,
		"was_tagged": out.Leech.WasTagged,
		"was_paused": out.Leech.WasPaused,
	})
}

func (h *handlers) handleUndoStatus(c *gin.Context) {
	entry, ok := h.undo.Peek()
	resp := gin.H{"can_undo": ok}
	if ok {
		resp["card_id"] = entry.CardID
		resp["front"] = entry.FrontPreview
		resp["recorded_at"] = entry.RecordedAt
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) handleUndo(c *gin.Context) {
	entry, err := h.undo.Undo(h.db)
	if errors.Is(err, undo.ErrNothingToUndo) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card_id": entry.CardID})
}

type pauseRequest struct {
	Reason string `json:"reason"`
}

func (h *handlers) handlePauseCard(c *gin.Context) {
	cardID, ok := idParam(c)
	if !ok {
		return
	}
	var req pauseRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := suspend.Pause(h.db, cardID, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card_id": cardID, "suspended": true})
}

func (h *handlers) handleResumeCard(c *gin.Context) {
	cardID, ok := idParam(c)
	if !ok {
		return
	}
	if err := suspend.Resume(h.db, cardID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card_id": cardID, "suspended": false})
}

func (h *handlers) handleBuryCard(c *gin.Context) {
	cardID, ok := idParam(c)
	if !ok {
		return
	}
	if err := suspend.SkipUntilTomorrow(h.db, cardID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card_id": cardID, "suspended": true})
}

type pauseUntilRequest struct {
	ResumeDate time.Time `json:"resume_date" binding:"required"`
	Reason     string    `json:"reason"`
}

func (h *handlers) handlePauseUntil(c *gin.Context) {
	cardID, ok := idParam(c)
	if !ok {
		return
	}
	var req pauseUntilRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := suspend.PauseUntil(h.db, cardID, req.ResumeDate, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card_id": cardID, "resume_date": req.ResumeDate})
}

func (h *handlers) handlePausedCards(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}
	groups, err := suspend.GetPausedCards(h.db, uint(userID), c.Query("group_by"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

type dueDateRequest struct {
	Date time.Time `json:"date" binding:"required"`
}

func (h *handlers) handleSetDueDate(c *gin.Context) {
	cardID, ok := idParam(c)
	if !ok {
		return
	}
	var req dueDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := lifecycle.SetDueDate(h.db, cardID, req.Date); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card_id": cardID, "due": req.Date})
}

type batchDueDateRequest struct {
	CardIDs []uint    `json:"card_ids" binding:"required"`
	Date    time.Time `json:"date" binding:"required"`
}

func (h *handlers) handleBatchSetDueDate(c *gin.Context) {
	var req batchDueDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := lifecycle.BatchSetDueDate(h.db, req.CardIDs, req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": n})
}

func (h *handlers) handleResetCard(c *gin.Context) {
	cardID, ok := idParam(c)
	if !ok {
		return
	}
	if err := lifecycle.ResetToNew(h.db, cardID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card_id": cardID, "card_type": models.CardTypeNew})
}

type batchResetRequest struct {
	CardIDs []uint `json:"card_ids" binding:"required"`
}

func (h *handlers) handleBatchReset(c *gin.Context) {
	var req batchResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := lifecycle.BatchResetToNew(h.db, req.CardIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": n})
}

type repositionRequest struct {
	CardIDs   []uint `json:"card_ids" binding:"required"`
	Start     int    `json:"start"`
	Step      int    `json:"step"`
	Randomize bool   `json:"randomize"`
}

func (h *handlers) handleReposition(c *gin.Context) {
	var req repositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Step == 0 {
		req.Step = 1
	}
	if err := lifecycle.RepositionNewCards(h.db, req.CardIDs, req.Start, req.Step, req.Randomize); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": len(req.CardIDs)})
}

func (h *handlers) handleCardInfo(c *gin.Context) {
	cardID, ok := idParam(c)
	if !ok {
		return
	}
	info, err := lifecycle.GetCardInfo(h.db, cardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *handlers) handleLastReview(c *gin.Context) {
	cardID, ok := idParam(c)
	if !ok {
		return
	}
	log, err := lifecycle.GetPreviousCardInfo(h.db, cardID)
	if err != nil {
		respondError(c, err)
		return
	}
	if log == nil {
		c.JSON(http.StatusOK, gin.H{"reviewed": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviewed": true, "log": log})
}

type copyNoteRequest struct {
	DeckID *uint `json:"deck_id"`
}

func (h *handlers) handleCopyNote(c *gin.Context) {
	noteID, ok := idParam(c)
	if !ok {
		return
	}
	var req copyNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	note, cards, err := lifecycle.CopyNote(h.db, noteID, req.DeckID)
	if err != nil {
		respondError(c, err)
		return
	}
	cardIDs := make([]uint, len(cards))
	for i, card := range cards {
		cardIDs[i] = card.ID
	}
	c.JSON(http.StatusOK, gin.H{"note_id": note.ID, "card_ids": cardIDs})
}

func (h *handlers) handleToggleMarked(c *gin.Context) {
	noteID, ok := idParam(c)
	if !ok {
		return
	}
	marked, err := lifecycle.ToggleMarked(h.db, noteID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"note_id": noteID, "marked": marked})
}

type editFieldsRequest struct {
	Fields map[string]string `json:"fields" binding:"required"`
}

func (h *handlers) handleEditFields(c *gin.Context) {
	noteID, ok := idParam(c)
	if !ok {
		return
	}
	var req editFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := lifecycle.EditDuringReview(h.db, noteID, req.Fields); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"note_id": noteID})
}

type batchPauseRequest struct {
	IncludeChildren bool   `json:"include_children"`
	Reason          string `json:"reason"`
}

func (h *handlers) bindBatchPause(c *gin.Context) (batchPauseRequest, bool) {
	var req batchPauseRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	return req, true
}

func (h *handlers) handlePauseByTag(c *gin.Context) {
	tagID, ok := idParam(c)
	if !ok {
		return
	}
	req, ok := h.bindBatchPause(c)
	if !ok {
		return
	}
	res, err := suspend.PauseByTag(h.db, tagID, req.IncludeChildren, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": res.AffectedCount, "card_ids": res.CardIDs})
}

func (h *handlers) handleResumeByTag(c *gin.Context) {
	tagID, ok := idParam(c)
	if !ok {
		return
	}
	req, ok := h.bindBatchPause(c)
	if !ok {
		return
	}
	res, err := suspend.ResumeByTag(h.db, tagID, req.IncludeChildren)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": res.AffectedCount, "card_ids": res.CardIDs})
}

func (h *handlers) handlePauseByDeck(c *gin.Context) {
	deckID, ok := idParam(c)
	if !ok {
		return
	}
	req, ok := h.bindBatchPause(c)
	if !ok {
		return
	}
	res, err := suspend.PauseByDeck(h.db, deckID, req.IncludeChildren, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": res.AffectedCount, "card_ids": res.CardIDs})
}

func (h *handlers) handleResumeByDeck(c *gin.Context) {
	deckID, ok := idParam(c)
	if !ok {
		return
	}
	req, ok := h.bindBatchPause(c)
	if !ok {
		return
	}
	res, err := suspend.ResumeByDeck(h.db, deckID, req.IncludeChildren)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": res.AffectedCount, "card_ids": res.CardIDs})
}

func (h *handlers) handleResumeExpired(c *gin.Context) {
	n, err := suspend.ResumeExpiredTimedPauses(h.db)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": n})
}

func (h *handlers) handleUnbury(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}
	n, err := suspend.UnburyDueToday(h.db, uint(userID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": n})
}
