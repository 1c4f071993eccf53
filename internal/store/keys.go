package store

// Key layout:
//
//	asset:{assetID}                    → assetRecord JSON
//	tag:{assetID}:{foldKey}            → tagRecord JSON
//	idx:tags:key:{foldKey}:{assetID}   → empty
//	book:{bookID}                      → PhotoBook JSON
//	seq:tags                           → Badger sequence
//
// Fold keys hold only letters, digits and whitespace, so ':' never
// appears inside a segment.
const (
	assetPrefix    = "asset:"
	tagPrefix      = "tag:"
	tagByKeyPrefix = "idx:tags:key:"
	bookPrefix     = "book:"
	tagSeqKey      = "seq:tags"
)

func assetKey(id string) []byte {
	return []byte(assetPrefix + id)
}

func tagKey(assetID, foldKey string) []byte {
	return []byte(tagPrefix + assetID + ":" + foldKey)
}

func assetTagsPrefix(assetID string) []byte {
	return []byte(tagPrefix + assetID + ":")
}

func tagIndexKey(foldKey, assetID string) []byte {
	return []byte(tagByKeyPrefix + foldKey + ":" + assetID)
}

func tagIndexPrefix(foldKey string) []byte {
	return []byte(tagByKeyPrefix + foldKey + ":")
}

func bookKey(id string) []byte {
	return []byte(bookPrefix + id)
}
