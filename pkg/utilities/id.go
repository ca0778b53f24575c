package utilities

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

var (
	nodeMu sync.Mutex
	node   *snowflake.Node
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// SetSnowflakeNode configures the node used by NewSnowflakeID. It is called
// once at startup; without it node 1 is used.
func SetSnowflakeNode(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	nodeMu.Lock()
	node = n
	nodeMu.Unlock()
	return nil
}

// NewSnowflakeID generates a snowflake ID string from the configured node.
// If no node can be initialized it falls back to a KSUID string so a unique
// ID is always returned.
func NewSnowflakeID() string {
	nodeMu.Lock()
	defer nodeMu.Unlock()
	if node == nil {
		n, err := snowflake.NewNode(1)
		if err != nil {
			return NewKSUID()
		}
		node = n
	}
	return node.Generate().String()
}
