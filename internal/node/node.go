// Package node defines the identity surface shared by every HTTP node in a
// loomctl deployment.
package node

import "github.com/gin-gonic/gin"

// Node is one addressable HTTP node: the coordinator or a capability host.
type Node interface {
	NodeID() string
	Kind() string
	HTTPRouter() *gin.Engine
}
