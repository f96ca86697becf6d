package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examportal/backend/internal/config"
	"github.com/examportal/backend/internal/model"
	"github.com/examportal/backend/internal/service"
	ws "github.com/examportal/backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live submission results per exam.
type WSHandler struct {
	rdb         *redis.Client
	examService *service.ExamService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, examService *service.ExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:         rdb,
		examService: examService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// ResultsStream godoc
// WS /ws/v1/exams/:exam_id/results
// Upgrades to WebSocket and pushes every newly scored submission for the
// exam, as relayed from the results pub/sub channel.
func (h *WSHandler) ResultsStream(c *gin.Context) {
	examID, err := strconv.ParseInt(c.Param("exam_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam id"})
		return
	}

	if _, err := h.examService.GetByID(c.Request.Context(), examID); err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "exam not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	streamLog := h.log.With().Int64("exam_id", examID).Logger()
	streamLog.Info().Msg("Results stream connected")

	sub := h.rdb.Subscribe(c.Request.Context(), config.CacheKey.ExamResultsChannel(examID))
	defer sub.Close()

	if err := ws.WriteTyped(conn, ws.SubscribedResponse{Event: ws.EventSubscribed, ExamID: examID}); err != nil {
		return
	}

	// Reader goroutine: the stream is one-way, but we must drain control
	// frames and detect the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-done:
			streamLog.Debug().Msg("Results stream closed by client")
			return
		case msg, ok := <-ch:
			if !ok {
				streamLog.Debug().Msg("Results channel closed")
				return
			}
			var ev model.SubmissionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				streamLog.Warn().Err(err).Msg("Malformed submission event, skipping")
				continue
			}
			if err := ws.WriteTyped(conn, ws.SubmissionResponse{Event: ws.EventSubmission, Submission: ev}); err != nil {
				streamLog.Debug().Err(err).Msg("Write failed, closing stream")
				return
			}
		}
	}
}
