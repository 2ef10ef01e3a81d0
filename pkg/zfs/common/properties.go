package common

// Native dataset properties as per OpenZFS documentation. Only settable
// ones are accepted at dataset creation.
var settableDatasetProps = map[string]struct{}{
	"acltype":              {},
	"aclmode":              {},
	"atime":                {},
	"canmount":             {},
	"checksum":             {},
	"compression":          {},
	"dedup":                {},
	"devices":              {},
	"dnodesize":            {},
	"exec":                 {},
	"filesystem_limit":     {},
	"logbias":              {},
	"mountpoint":           {},
	"primarycache":         {},
	"quota":                {},
	"readonly":             {},
	"recordsize":           {},
	"redundant_metadata":   {},
	"refquota":             {},
	"refreservation":       {},
	"reservation":          {},
	"secondarycache":       {},
	"setuid":               {},
	"sharenfs":             {},
	"sharesmb":             {},
	"snapdev":              {},
	"snapdir":              {},
	"snapshot_limit":       {},
	"sync":                 {},
	"special_small_blocks": {},
	"utf8only":             {},
	"volblocksize":         {},
	"volsize":              {},
	"xattr":                {},
}

func zpropValidChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == ':'
}

// isUserProperty reports whether name is a module:property user property.
func isUserProperty(name string) bool {
	foundSep := false
	for _, c := range name {
		if !zpropValidChar(c) {
			return false
		}
		if c == ':' {
			foundSep = true
		}
	}
	return foundSep
}

// IsSettableDatasetProperty reports whether name may be passed with -o when
// creating a dataset.
func IsSettableDatasetProperty(name string) bool {
	if _, ok := settableDatasetProps[name]; ok {
		return true
	}
	return isUserProperty(name)
}
