package collab

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vectorforge/canvas/internal/auth"
	"github.com/vectorforge/canvas/internal/httpx"
)

type Authenticator interface {
	ValidateToken(token string) (string, error)
	GetUser(ctx context.Context, userID string) (*auth.User, error)
}

type AccessChecker interface {
	CanEdit(ctx context.Context, documentID, userID string) error
}

// Handler upgrades GET /ws/document/{documentId}?token=… to a collaboration
// session. The playground document accepts anonymous users.
type Handler struct {
	hub            *Hub
	auth           Authenticator
	access         AccessChecker
	originPatterns []string
	logger         *zap.Logger
}

func NewHandler(hub *Hub, auth Authenticator, access AccessChecker, originPatterns []string, logger *zap.Logger) *Handler {
	return &Handler{
		hub:            hub,
		auth:           auth,
		access:         access,
		originPatterns: originPatterns,
		logger:         logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]

	var userID, displayName string
	if documentID == PlaygroundDocumentID {
		userID = "anon-" + uuid.NewString()[:8]
		displayName = "Anonymous"
	} else {
		token := r.URL.Query().Get("token")
		if token == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "missing token")
			return
		}

		var err error
		userID, err = h.auth.ValidateToken(token)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if err := h.access.CanEdit(r.Context(), documentID, userID); err != nil {
			h.logger.Debug("document access denied", zap.Error(err), zap.String("user", userID), zap.String("document", documentID))
			httpx.WriteError(w, http.StatusForbidden, "forbidden")
			return
		}

		user, err := h.auth.GetUser(r.Context(), userID)
		if err != nil {
			h.logger.Error("get user", zap.Error(err), zap.String("user", userID))
			httpx.WriteError(w, http.StatusInternalServerError, "user not found")
			return
		}
		displayName = user.DisplayName
	}

	doc, err := h.hub.Open(r.Context(), documentID)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "document not found")
			return
		}
		h.logger.Error("open document", zap.Error(err), zap.String("document", documentID))
		httpx.WriteError(w, http.StatusInternalServerError, "document unavailable")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("websocket accept", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, userID, displayName, documentID, uuid.NewString())

	ctx := r.Context()
	if err := h.hub.Join(ctx, client, doc); err != nil {
		conn.Close(websocket.StatusTryAgainLater, "server shutting down")
		return
	}

	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
