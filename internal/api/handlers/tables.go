package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/playmatatu/slamdunk/internal/auth"
	"github.com/playmatatu/slamdunk/internal/config"
	"github.com/playmatatu/slamdunk/internal/game"
)

// tableError maps engine and manager errors to HTTP responses.
func tableError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrTableNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrTableClosed), errors.Is(err, game.ErrCueBallMissing):
		status = http.StatusConflict
	case errors.Is(err, game.ErrUnknownBody), errors.Is(err, game.ErrDegenerateVector),
		errors.Is(err, game.ErrUnknownProfile), errors.Is(err, game.ErrInvalidPocketGeometry):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		log.Error("[API] request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func loadTable(c *gin.Context) (*game.TableSession, bool) {
	s, err := game.Manager.GetTableByToken(c.Param("token"))
	if err != nil {
		tableError(c, err)
		return nil, false
	}
	return s, true
}

// CreateTable racks a new table and returns its host and viewer tokens
func CreateTable(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req game.TableRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table request"})
				return
			}
		}

		s, err := game.Manager.CreateTable(req)
		if err != nil {
			tableError(c, err)
			return
		}

		ttl := time.Duration(cfg.TokenExpiryMinutes) * time.Minute
		hostToken, err := auth.IssueTableToken(cfg.JWTSecret, s.Token, auth.RoleHost, ttl)
		if err != nil {
			tableError(c, err)
			return
		}
		viewerToken, err := auth.IssueTableToken(cfg.JWTSecret, s.Token, auth.RoleViewer, ttl)
		if err != nil {
			tableError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token":        s.Token,
			"table_id":     s.ID,
			"host_token":   hostToken,
			"viewer_token": viewerToken,
			"viewer_link":  cfg.FrontendURL + "/t/" + s.Token + "?t=" + viewerToken,
			"state":        s.Engine.Snapshot(),
		})
	}
}

// GetTableState returns the current snapshot of a table
func GetTableState(c *gin.Context) {
	s, ok := loadTable(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":  s.Token,
		"status": s.Status,
		"tuning": s.Engine.Tuning(),
		"state":  s.Engine.Snapshot(),
	})
}

// GetTableEvents returns the persisted collision history of a table
func GetTableEvents(c *gin.Context) {
	events, err := game.Manager.ListEvents(c.Param("token"))
	if err != nil {
		tableError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// TakeShot strikes the cue ball
func TakeShot(c *gin.Context) {
	s, ok := loadTable(c)
	if !ok {
		return
	}
	var shot game.Shot
	if err := c.ShouldBindJSON(&shot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shot"})
		return
	}
	res, err := game.Manager.Shoot(s, shot)
	if err != nil {
		tableError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shot": res, "state": s.Engine.Snapshot()})
}

// ResetTable re-racks a table
func ResetTable(c *gin.Context) {
	s, ok := loadTable(c)
	if !ok {
		return
	}
	if err := game.Manager.Reset(s); err != nil {
		tableError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": s.Engine.Snapshot()})
}

// BeginContact forwards a begin-contact notification
func BeginContact(c *gin.Context) {
	s, ok := loadTable(c)
	if !ok {
		return
	}
	var contact game.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contact"})
		return
	}
	res, err := game.Manager.ContactBegin(s, contact)
	if err != nil {
		tableError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolution": res})
}

// EndContact forwards an end-contact notification
func EndContact(c *gin.Context) {
	s, ok := loadTable(c)
	if !ok {
		return
	}
	var req struct {
		A game.BodyID `json:"a" binding:"required"`
		B game.BodyID `json:"b" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a and b required"})
		return
	}
	if err := game.Manager.ContactEnd(s, req.A, req.B); err != nil {
		tableError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CloseTable closes a table on the host's request
func CloseTable(c *gin.Context) {
	if err := game.Manager.CloseTable(c.Param("token"), game.CloseReasonHost); err != nil {
		tableError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(game.StatusClosed)})
}
