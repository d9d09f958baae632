package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/masdikaaa/wedding-invitation/internal/rsvp"
)

const requestIDContextKey = "wedding_request_id"

const (
	messageMissingFields     = "Nama dan konfirmasi kehadiran wajib diisi"
	messageInvalidAttendance = "Status kehadiran tidak valid"
	messageSubmitAccepted    = "Konfirmasi kehadiran berhasil dikirim"
	messageSubmitFailed      = "Terjadi kesalahan saat memproses konfirmasi"
	messageListFailed        = "Terjadi kesalahan saat mengambil data"
	messageUnauthorized      = "Unauthorized access"
)

var (
	errMissingRSVPService   = errors.New("rsvp service dependency required")
	errMissingStoragePinger = errors.New("storage pinger dependency required")
	errMissingAdminToken    = errors.New("admin token required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// StoragePinger reports whether the storage backend is reachable.
type StoragePinger interface {
	Ping(ctx context.Context) error
}

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	RSVPService   *rsvp.Service
	StoragePinger StoragePinger
	AdminToken    string
	Production    bool
	Logger        *zap.Logger
}

// NewHTTPHandler assembles the gin router for the RSVP API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.RSVPService == nil {
		return nil, errMissingRSVPService
	}
	if deps.StoragePinger == nil {
		return nil, errMissingStoragePinger
	}
	if strings.TrimSpace(deps.AdminToken) == "" {
		return nil, errMissingAdminToken
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		rsvpService: deps.RSVPService,
		pinger:      deps.StoragePinger,
		adminToken:  deps.AdminToken,
		production:  deps.Production,
		logger:      logger,
	}

	router.POST("/api/rsvp", handler.handleSubmitRSVP)
	router.GET("/api/rsvp", handler.authorizeAdmin, handler.handleListRSVP)
	router.GET("/api/health", handler.handleHealth)

	return router, nil
}

type httpHandler struct {
	rsvpService *rsvp.Service
	pinger      StoragePinger
	adminToken  string
	production  bool
	logger      *zap.Logger
}

type rsvpRequestPayload struct {
	Name       string `json:"name"`
	Attendance string `json:"attendance"`
	// GuestCount arrives as a string from the invitation form but tolerates
	// numeric JSON from other clients.
	GuestCount any    `json:"guestCount"`
	Message    string `json:"message"`
}

type rsvpDataPayload struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Attendance string `json:"attendance"`
	GuestCount int    `json:"guestCount"`
	Timestamp  string `json:"timestamp"`
}

func (h *httpHandler) handleSubmitRSVP(c *gin.Context) {
	var request rsvpRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": messageMissingFields})
		return
	}

	submission, err := h.rsvpService.Submit(c.Request.Context(), rsvp.SubmitRequest{
		Name:       request.Name,
		Attendance: request.Attendance,
		GuestCount: guestCountString(request.GuestCount),
		Message:    request.Message,
		SourceIP:   clientIP(c),
		UserAgent:  c.Request.UserAgent(),
	})
	if err != nil {
		switch {
		case errors.Is(err, rsvp.ErrMissingRequiredFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": messageMissingFields})
		case errors.Is(err, rsvp.ErrInvalidAttendanceStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": messageInvalidAttendance})
		default:
			h.requestLogger(c).Error("rsvp submission failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, h.internalError(messageSubmitFailed, err))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": messageSubmitAccepted,
		"data": rsvpDataPayload{
			ID:         submission.ID,
			Name:       submission.Name,
			Attendance: string(submission.Attendance),
			GuestCount: submission.GuestCount,
			Timestamp:  submission.CreatedAt.UTC().Format(time.RFC3339),
		},
	})
}

func (h *httpHandler) handleListRSVP(c *gin.Context) {
	submissions, statistics, err := h.rsvpService.List(c.Request.Context())
	if err != nil {
		h.requestLogger(c).Error("rsvp listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, h.internalError(messageListFailed, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       submissions,
		"statistics": statistics,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	if err := h.pinger.Ping(c.Request.Context()); err != nil {
		h.requestLogger(c).Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"timestamp": timestamp,
			"error":     err.Error(),
			"services": gin.H{
				"database":    "disconnected",
				"application": "running",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": timestamp,
		"services": gin.H{
			"database":    "connected",
			"application": "running",
		},
	})
}

// authorizeAdmin guards the listing endpoint with the configured shared
// secret. The comparison is constant-time so the token cannot be probed a
// byte at a time.
func (h *httpHandler) authorizeAdmin(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": messageUnauthorized})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		h.requestLogger(c).Warn("admin token mismatch", zap.Error(errInvalidAuthorization))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": messageUnauthorized})
		return
	}
	c.Next()
}

// requestLogger stamps log lines with the correlation id assigned by the
// request-id middleware so a response's X-Request-ID can be matched to its
// server-side trail.
func (h *httpHandler) requestLogger(c *gin.Context) *zap.Logger {
	requestID := c.GetString(requestIDContextKey)
	if requestID == "" {
		return h.logger
	}
	return h.logger.With(zap.String("request_id", requestID))
}

func (h *httpHandler) internalError(message string, err error) gin.H {
	payload := gin.H{"error": message}
	if !h.production && err != nil {
		payload["details"] = err.Error()
	}
	return payload
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDContextKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// clientIP mirrors the capture order the invitation frontend relies on:
// proxy headers first, then the socket address.
func clientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
		return realIP
	}
	if c.Request.RemoteAddr != "" {
		return c.Request.RemoteAddr
	}
	return "unknown"
}

func guestCountString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case json.Number:
		return typed.String()
	default:
		return ""
	}
}
