package cas

import (
	"errors"
	"fmt"
)

// Version is the CAS protocol version spoken with the server. It selects
// the validation endpoint, the response parser and the name of the
// logout return-URL parameter.
type Version int

const (
	V1 Version = iota + 1
	V2
	V3
)

// ErrUnsupportedVersion reports a protocol version outside 1-3. It is a
// configuration error and is never recovered into an invalid result.
var ErrUnsupportedVersion = errors.New("unsupported CAS protocol version")

// ParseVersion maps the configured version string onto a Version.
func ParseVersion(s string) (Version, error) {
	switch s {
	case "1":
		return V1, nil
	case "2":
		return V2, nil
	case "3":
		return V3, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedVersion, s)
	}
}

func (v Version) String() string {
	switch v {
	case V1:
		return "1"
	case V2:
		return "2"
	case V3:
		return "3"
	default:
		return fmt.Sprintf("Version(%d)", int(v))
	}
}

// LogoutParam is the query parameter carrying the post-logout return URL:
// "url" in CAS 1.0, "service" from 2.0 on.
func (v Version) LogoutParam() string {
	if v == V1 {
		return "url"
	}
	return "service"
}
