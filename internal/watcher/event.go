package watcher

import "time"

// Op is what happened to a file in the watched tree.
type Op uint8

const (
	// OpSettled: a new or rewritten file stopped changing for SettleDelay.
	OpSettled Op = iota + 1
	// OpRemoved: a file was deleted or moved away.
	OpRemoved
)

var opNames = [...]string{OpSettled: "settled", OpRemoved: "removed"}

func (o Op) String() string {
	if int(o) < len(opNames) && opNames[o] != "" {
		return opNames[o]
	}
	return "unknown"
}

// Event reports one file. Size and ModTime are zero for removals.
type Event struct {
	Op      Op
	Path    string
	Size    int64
	ModTime time.Time
}
