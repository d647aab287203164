package logfields

import "log/slog"

// Canonical log field names shared across packages.
const (
	KeyWorkspace  = "workspace"
	KeyCollection = "collection"
	KeyRecordID   = "record_id"
	KeyField      = "field"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyListen     = "listen"
	KeyError      = "error"
)

func Workspace(name string) slog.Attr  { return slog.String(KeyWorkspace, name) }
func Collection(name string) slog.Attr { return slog.String(KeyCollection, name) }
func RecordID(id string) slog.Attr     { return slog.String(KeyRecordID, id) }
func Field(name string) slog.Attr      { return slog.String(KeyField, name) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Listen(addr string) slog.Attr     { return slog.String(KeyListen, addr) }

// Error returns the error attribute, empty for a nil error.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
