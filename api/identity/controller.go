package identity

import (
	"net/http"

	"github.com/beka-birhanu/vinom-arena/service/i"
	"github.com/gin-gonic/gin"
)

// IdentityServer handles HTTP requests related to operator authentication.
type IdentityServer struct {
	authService i.OperatorAuthenticator
}

// NewIdentityServer creates a new IdentityServer.
func NewIdentityServer(a i.OperatorAuthenticator) *IdentityServer {
	return &IdentityServer{
		authService: a,
	}
}

// RegisterPublic registers public routes.
func (c *IdentityServer) RegisterPublic(route *gin.RouterGroup) {
	auth := route.Group("/auth")
	{
		auth.POST("/login", c.login)
	}
}

// RegisterProtected registers privileged routes.
func (c *IdentityServer) RegisterProtected(route *gin.RouterGroup) {
}

// login exchanges the operator password for a token.
func (c *IdentityServer) login(ctx *gin.Context) {
	var request LoginRequest

	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := c.authService.SignIn(request.Password)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, &LoginResponse{Token: token})
}
