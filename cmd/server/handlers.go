package main

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/zerodha/logf"

	"github.com/bxrne/sledline/pkg/engine"
	"github.com/bxrne/sledline/pkg/line"
	"github.com/bxrne/sledline/pkg/types"
)

// PointResponse is one contact point's state
type PointResponse struct {
	PositionX float64 `json:"positionX"`
	PositionY float64 `json:"positionY"`
	VelocityX float64 `json:"velocityX"`
	VelocityY float64 `json:"velocityY"`
}

// EntityResponse is one rider's state in a frame
type EntityResponse struct {
	MountPhase string          `json:"mountPhase"`
	SledIntact bool            `json:"sledIntact"`
	Points     []PointResponse `json:"points"`
}

// FrameResponse is the state after one physics frame
type FrameResponse struct {
	Frame    int64            `json:"frame"`
	Entities []EntityResponse `json:"entities"`
}

// LineRequest mirrors a track-file line entry for edits over the API
type LineRequest struct {
	X1            float64  `json:"x1"`
	Y1            float64  `json:"y1"`
	X2            float64  `json:"x2"`
	Y2            float64  `json:"y2"`
	Type          int      `json:"type"`
	Flipped       bool     `json:"flipped"`
	LeftExtended  bool     `json:"leftExtended"`
	RightExtended bool     `json:"rightExtended"`
	Multiplier    *float64 `json:"multiplier"`
}

// Handler serializes access to the engine; the engine itself is not
// re-entrant.
type Handler struct {
	mu  sync.Mutex
	eng *engine.Engine
	log *logf.Logger
}

// NewHandler wraps an engine for HTTP access
func NewHandler(eng *engine.Engine, log *logf.Logger) *Handler {
	return &Handler{eng: eng, log: log}
}

// Register attaches the API routes
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.health)
	api := r.Group("/api")
	api.GET("/frames/:n", h.getFrame)
	api.GET("/lines", h.getLines)
	api.POST("/lines", h.addLine)
	api.DELETE("/lines/:id", h.removeLine)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getFrame(c *gin.Context) {
	n, err := strconv.ParseInt(c.Param("n"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "frame index must be an integer"})
		return
	}

	h.mu.Lock()
	frame := h.eng.GetFrame(n)
	h.mu.Unlock()

	if frame == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "frame index out of range"})
		return
	}

	response := FrameResponse{Frame: n}
	for _, entity := range frame.Entities {
		er := EntityResponse{
			MountPhase: string(entity.State.Phase()),
			SledIntact: entity.State.SledIntact,
		}
		for i := 0; i < entity.NumContact; i++ {
			p := entity.Points[i]
			er.Points = append(er.Points, PointResponse{
				PositionX: p.Pos.X,
				PositionY: p.Pos.Y,
				VelocityX: p.Vel.X,
				VelocityY: p.Vel.Y,
			})
		}
		response.Entities = append(response.Entities, er)
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) getLines(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	lines := make([]gin.H, 0, len(h.eng.Lines()))
	for _, l := range h.eng.Lines() {
		lines = append(lines, gin.H{
			"id": l.ID,
			"x1": l.P1.X, "y1": l.P1.Y,
			"x2": l.P2.X, "y2": l.P2.Y,
			"acceleration": l.Acceleration,
		})
	}
	c.JSON(http.StatusOK, lines)
}

func (h *Handler) addLine(c *gin.Context) {
	var req LineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.X1 == req.X2 && req.Y1 == req.Y2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "line endpoints must differ"})
		return
	}

	acceleration := 0.0
	if req.Type == 1 {
		acceleration = 1.0
		if req.Multiplier != nil {
			acceleration = *req.Multiplier
		}
	}

	newLine := line.New(0,
		types.Vector2{X: req.X1, Y: req.Y1},
		types.Vector2{X: req.X2, Y: req.Y2},
		req.Flipped, req.LeftExtended, req.RightExtended, acceleration)

	h.mu.Lock()
	h.eng.AddLine(newLine)
	h.mu.Unlock()

	h.log.Info("Line added", "id", newLine.ID)
	c.JSON(http.StatusCreated, gin.H{"id": newLine.ID})
}

func (h *Handler) removeLine(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "line id must be an integer"})
		return
	}

	h.mu.Lock()
	h.eng.RemoveLine(id)
	h.mu.Unlock()

	h.log.Info("Line removed", "id", id)
	c.Status(http.StatusNoContent)
}
