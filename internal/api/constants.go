package api

// Defaults applied when Options leaves a limit unset.
const (
	defaultMaxUploadMB = 256
	defaultUploadRPS   = 2
	defaultUploadBurst = 10
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20
