package domain

import (
	"path"
	"strings"
	"time"
	"unicode"
)

// Item is one independently synchronisable unit.
// Items are keyed by Name; the catalog decides where an item lives remotely,
// local storage decides whether a copy exists here.
type Item struct {
	// Name is the unique, stable identifier for the item.
	Name string

	// SourceURL is where the payload is downloaded from.
	// The catalog may relocate it between refreshes.
	SourceURL string

	// MetaURL is used for lightweight update checks.
	MetaURL string

	// LastDownload is when the payload was last written locally.
	// The zero value means never.
	LastDownload time.Time

	// LastUpdateCheck is when the item was last checked against the remote.
	LastUpdateCheck time.Time

	// UpdateAvailable is set once a check has seen a newer remote version
	// that has not been downloaded yet.
	UpdateAvailable bool

	// LocallyPresent is true when the payload exists in local storage.
	LocallyPresent bool
}

// IsOrphan reports whether the item has neither a local payload nor a
// remote source. Orphans are purged from the store.
func (i *Item) IsOrphan() bool {
	return !i.LocallyPresent && i.SourceURL == ""
}

// TargetURL returns the URL an operation of the given kind fetches.
func (i *Item) TargetURL(kind OperationKind) string {
	if kind == OperationUpdateCheck {
		return i.MetaURL
	}
	return i.SourceURL
}

// CheckDue reports whether a locally present item is due an update check.
func (i *Item) CheckDue(now time.Time, interval time.Duration) bool {
	if !i.LocallyPresent || i.MetaURL == "" {
		return false
	}
	return now.Sub(i.LastUpdateCheck) >= interval
}

// NameFromURL derives an item name from a payload URL.
// It returns false when the URL does not end in ext (compared case-insensitively).
//
//	NameFromURL("https://host/dir/Foo.cs", ".cs") -> "Foo", true
func NameFromURL(rawURL, ext string) (string, bool) {
	if rawURL == "" || ext == "" {
		return "", false
	}
	// Drop any query or fragment before looking at the file name.
	if idx := strings.IndexAny(rawURL, "?#"); idx != -1 {
		rawURL = rawURL[:idx]
	}
	base := path.Base(rawURL)
	fileExt := path.Ext(base)
	if !strings.EqualFold(fileExt, ext) {
		return "", false
	}
	name := strings.TrimSuffix(base, fileExt)
	if name == "" {
		return "", false
	}
	return name, true
}

// NicifyName turns an identifier into space separated words.
//
//	NicifyName("ReplaceSelectedObjects") -> "Replace Selected Objects"
//	NicifyName("report_instance_id")     -> "Report Instance Id"
func NicifyName(name string) string {
	runes := []rune(strings.TrimLeft(name, "_"))
	var b strings.Builder
	for i, r := range runes {
		if r == '_' || r == '-' {
			b.WriteRune(' ')
			continue
		}
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune(' ')
			}
		}
		if i == 0 || (i > 0 && (runes[i-1] == '_' || runes[i-1] == '-')) {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
