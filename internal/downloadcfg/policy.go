package downloadcfg

// CollisionPolicy defines how to handle existing destination files.
// Values: "overwrite" | "rename" | "error".
type CollisionPolicy string

const (
	CollisionOverwrite CollisionPolicy = "overwrite"
	CollisionRename    CollisionPolicy = "rename"
	CollisionError     CollisionPolicy = "error"
)

// DefaultChunkSize is the transfer read size when none is configured.
const DefaultChunkSize = 32768

// DefaultWorkerLimit bounds concurrent transfers when none is configured.
const DefaultWorkerLimit = 5

// DefaultMaxDepth bounds folder recursion when none is configured.
const DefaultMaxDepth = 5

// TransferOptions carries engine-agnostic streaming options.
type TransferOptions struct {
	Policy    CollisionPolicy
	ChunkSize int
}

// ParseCollisionPolicy converts a string to a CollisionPolicy with default.
func ParseCollisionPolicy(s string) CollisionPolicy {
	switch CollisionPolicy(s) {
	case CollisionRename:
		return CollisionRename
	case CollisionError:
		return CollisionError
	case CollisionOverwrite:
		fallthrough
	default:
		return CollisionOverwrite
	}
}
