package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/uuid"
	"expensetracker/internal/workspace"
)

const (
	// ClientIDHeader identifies a client that does not keep cookies.
	ClientIDHeader = "X-Client-ID"
	// ClientIDCookie identifies a browser client.
	ClientIDCookie = "client_id"

	clientIDKey  = "clientID"
	workspaceKey = "workspace"

	clientCookieMaxAge = 365 * 24 * 60 * 60
)

// Workspaces resolves the workspace of a client.
type Workspaces interface {
	Resume(ctx context.Context, clientID, token string) *workspace.Workspace
}

// Workspace attaches the caller's workspace to the request. The client is
// identified by the X-Client-ID header or the client_id cookie; a client
// presenting neither gets a fresh ID in both. A bearer token restores its
// session when the workspace has to be created.
func Workspace(workspaces Workspaces) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := clientIDFrom(c)
		if clientID == "" {
			clientID = uuid.NewClientID()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(ClientIDCookie, clientID, clientCookieMaxAge, "/", "", false, true)
		}
		c.Writer.Header().Set(ClientIDHeader, clientID)
		c.Set(clientIDKey, clientID)

		w := workspaces.Resume(c.Request.Context(), clientID, bearerToken(c))
		c.Set(workspaceKey, w)
		c.Next()
	}
}

func clientIDFrom(c *gin.Context) string {
	if id := c.GetHeader(ClientIDHeader); uuid.IsValid(id) {
		return id
	}
	if id, err := c.Cookie(ClientIDCookie); err == nil && uuid.IsValid(id) {
		return id
	}
	return ""
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) string {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// CurrentWorkspace returns the workspace attached by Workspace.
func CurrentWorkspace(c *gin.Context) (*workspace.Workspace, error) {
	v, ok := c.Get(workspaceKey)
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}
	w, ok := v.(*workspace.Workspace)
	if !ok || w == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return w, nil
}

// RequireIdentity rejects requests from clients that are not signed in.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := CurrentWorkspace(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if w.Session.Identity() == nil {
			_ = c.Error(apperrors.ErrNotSignedIn)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireCompleteProfile rejects requests until the profile has a name and
// a positive budget. It is meant to run after RequireIdentity.
func RequireCompleteProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := CurrentWorkspace(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if !w.Store.IsProfileComplete() {
			_ = c.Error(apperrors.ErrProfileIncomplete)
			c.Abort()
			return
		}
		c.Next()
	}
}
