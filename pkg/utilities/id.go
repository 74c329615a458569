package utilities

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewActivationToken generates an opaque, globally unique token string.
// KSUIDs are URL-safe so the token can be embedded in an activation link.
func NewActivationToken() string {
	return ksuid.New().String()
}

// NewRequestID generates a snowflake ID string for request tracing, using a
// node ID from the environment variable SNOWFLAKE_NODE (default 1).
func NewRequestID() string {
	nodeEnv := os.Getenv("SNOWFLAKE_NODE")
	if nodeEnv == "" {
		return newRequestIDWithNode(1)
	}
	nodeID, err := strconv.ParseInt(nodeEnv, 10, 64)
	if err != nil {
		return newRequestIDWithNode(1)
	}
	return newRequestIDWithNode(nodeID)
}

// newRequestIDWithNode generates a snowflake ID with the provided node ID.
// If the node cannot be initialized, it falls back to a KSUID string.
func newRequestIDWithNode(nodeID int64) string {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return ksuid.New().String()
	}
	return node.Generate().String()
}
