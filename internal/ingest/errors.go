package ingest

import (
	"errors"
	"fmt"
)

// Kind classifies why a file was not imported.
type Kind int

const (
	KindUnsupportedExtension Kind = iota + 1
	KindCopyFailed
	KindEmptyFile
	KindFileLocked
	KindDecodeFailed
	KindInvalidDimensions
	KindCommitFailed
)

var kindNames = map[Kind]string{
	KindUnsupportedExtension: "unsupported_extension",
	KindCopyFailed:           "copy_failed",
	KindEmptyFile:            "empty_file",
	KindFileLocked:           "file_locked",
	KindDecodeFailed:         "decode_failed",
	KindInvalidDimensions:    "invalid_dimensions",
	KindCommitFailed:         "commit_failed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText renders the kind name in JSON reports.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown import failure kind %q", b)
}

// ImportError is the per-item failure of an ingestion. The managed file has
// always been removed by the time an ImportError is returned.
type ImportError struct {
	Kind     Kind
	FileName string
	Err      error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import %q: %s: %v", e.FileName, e.Kind, e.Err)
	}
	return fmt.Sprintf("import %q: %s", e.FileName, e.Kind)
}

func (e *ImportError) Unwrap() error { return e.Err }

// IsKind reports whether err is an ImportError of kind.
func IsKind(err error, kind Kind) bool {
	var ie *ImportError
	return errors.As(err, &ie) && ie.Kind == kind
}
