// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated caller. It abstracts identity
// extraction from the web framework, so handlers do not depend on Gin
// context keys directly.
type Identity interface {
	// UserID returns the authenticated user's ID.
	UserID() uuid.UUID
	// TenantID returns the tenant the caller operates in.
	TenantID() uuid.UUID
	// IsAuthenticated returns true if the caller is authenticated.
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	tenantID      uuid.UUID
	authenticated bool
}

func (i *identity) UserID() uuid.UUID   { return i.userID }
func (i *identity) TenantID() uuid.UUID { return i.tenantID }
func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	userID, userOK := c.Get(ContextUserIDKey)
	tenantID, tenantOK := c.Get(ContextTenantIDKey)

	if !userOK || !tenantOK {
		return &identity{authenticated: false}
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	tid, ok := tenantID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	return &identity{
		userID:        uid,
		tenantID:      tid,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the caller is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
