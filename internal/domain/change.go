package domain

// ChangeKind names a library mutation.
type ChangeKind string

const (
	ChangeAssetAdded   ChangeKind = "asset.added"
	ChangeAssetUpdated ChangeKind = "asset.updated"
	ChangeAssetDeleted ChangeKind = "asset.deleted"
	ChangeTagAdded     ChangeKind = "tag.added"
	ChangeTagRemoved   ChangeKind = "tag.removed"
	ChangeTagDeleted   ChangeKind = "tag.deleted"
)

// Change describes one committed mutation. Asset holds the post-mutation
// state (the last known state for deletions). For ChangeTagDeleted,
// AssetIDs lists every asset that lost the tag.
type Change struct {
	Kind     ChangeKind
	Version  uint64
	Asset    Asset
	Tag      string
	AssetIDs []string
}

// Observer receives changes after they are committed. Observers run on the
// library coordinator and must not call back into mutating operations.
type Observer func(Change)
