package verify

import (
	"encoding/base64"
	"net/netip"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Format names accepted by CheckFormat.
const (
	FormatEmail     = "email"
	FormatEmoji     = "emoji"
	FormatUUID      = "uuid"
	FormatNanoID    = "nanoid"
	FormatCUID      = "cuid"
	FormatCUID2     = "cuid2"
	FormatULID      = "ulid"
	FormatDate      = "date"
	FormatDuration  = "duration"
	FormatBase64    = "base64"
	FormatBase64URL = "base64url"
)

// DateSource matches a calendar date (YYYY-MM-DD) including leap days.
const DateSource = `((\d\d[2468][048]|\d\d[13579][26]|\d\d0[48]|[02468][048]00|[13579][26]00)-02-29|\d{4}-((0[13578]|1[02])-(0[1-9]|[12]\d|3[01])|(0[469]|11)-(0[1-9]|[12]\d|30)|(02)-(0[1-9]|1\d|2[0-8])))`

var (
	emailRe     = regexp.MustCompile(`(?i)^([A-Z0-9_'+\-.]*)[A-Z0-9_+-]@([A-Z0-9][A-Z0-9\-]*\.)+[A-Z]{2,}$`)
	nanoidRe    = regexp.MustCompile(`(?i)^[a-z0-9_-]{21}$`)
	cuidRe      = regexp.MustCompile(`(?i)^c[^\s-]{8,}$`)
	cuid2Re     = regexp.MustCompile(`^[0-9a-z]+$`)
	ulidRe      = regexp.MustCompile(`(?i)^[0-9A-HJKMNP-TV-Z]{26}$`)
	dateRe      = regexp.MustCompile(`^` + DateSource + `$`)
	durationRe  = regexp.MustCompile(`^[-+]?P(?:(?:[-+]?\d+Y)|(?:[-+]?\d+[.,]\d+Y$))?(?:(?:[-+]?\d+M)|(?:[-+]?\d+[.,]\d+M$))?(?:(?:[-+]?\d+W)|(?:[-+]?\d+[.,]\d+W$))?(?:(?:[-+]?\d+D)|(?:[-+]?\d+[.,]\d+D$))?(?:T(?:(?:[-+]?\d+H)|(?:[-+]?\d+[.,]\d+H$))?(?:(?:[-+]?\d+M)|(?:[-+]?\d+[.,]\d+M$))?(?:[-+]?\d+(?:[.,]\d+)?S)?)??$`)
	base64Re    = regexp.MustCompile(`^([0-9a-zA-Z+/]{4})*(([0-9a-zA-Z+/]{2}==)|([0-9a-zA-Z+/]{3}=))?$`)
	base64URLRe = regexp.MustCompile(`^([0-9a-zA-Z-_]{4})*(([0-9a-zA-Z-_]{2}(==)?)|([0-9a-zA-Z-_]{3}(=)?))?$`)
	ipv4Re      = regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9][0-9]|[0-9])\.){3}(?:25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9][0-9]|[0-9])$`)
	jwtRe       = regexp.MustCompile(`^[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*$`)
)

// CheckFormat reports whether v is a string in the named format. Unknown
// format names never match.
func CheckFormat(name string, v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	switch name {
	case FormatEmail:
		return emailRe.MatchString(s) && !strings.HasPrefix(s, ".") && !strings.Contains(s, "..")
	case FormatEmoji:
		return isEmoji(s)
	case FormatUUID:
		if len(s) != 36 {
			return false
		}
		_, err := uuid.Parse(s)
		return err == nil
	case FormatNanoID:
		return nanoidRe.MatchString(s)
	case FormatCUID:
		return cuidRe.MatchString(s)
	case FormatCUID2:
		return cuid2Re.MatchString(s)
	case FormatULID:
		return ulidRe.MatchString(s)
	case FormatDate:
		return dateRe.MatchString(s)
	case FormatDuration:
		return isDuration(s)
	case FormatBase64:
		return base64Re.MatchString(s)
	case FormatBase64URL:
		return base64URLRe.MatchString(s)
	}
	return false
}

func isDuration(s string) bool {
	if !durationRe.MatchString(s) {
		return false
	}
	body := strings.TrimLeft(s, "+-")[1:]
	if body == "" {
		return false
	}
	// a time designator must be followed by a component
	if i := strings.IndexByte(body, 'T'); i >= 0 {
		rest := body[i+1:]
		if rest == "" || !(rest[0] == '+' || rest[0] == '-' || (rest[0] >= '0' && rest[0] <= '9')) {
			return false
		}
	}
	return true
}

func isEmoji(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r == 0x200D, r == 0x20E3, r == 0xFE0F, r == 0xFE0E:
		case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators
		case r >= 0x1F3FB && r <= 0x1F3FF: // skin tones
		case r >= 0xE0020 && r <= 0xE007F: // tags
		case r == '#', r == '*', r >= '0' && r <= '9':
		case r >= 0x1F000 && r <= 0x1FAFF:
		case r >= 0x2600 && r <= 0x27BF:
		case r >= 0x2B00 && r <= 0x2BFF:
		case r == 0x00A9, r == 0x00AE, r == 0x203C, r == 0x2049, r == 0x2122, r == 0x2139:
		case r >= 0x2194 && r <= 0x21AA, r >= 0x231A && r <= 0x23FF, r >= 0x25AA && r <= 0x25FE:
		case r == 0x3030, r == 0x303D, r == 0x3297, r == 0x3299:
		case unicode.Is(unicode.So, r) && r > 0x2000:
		default:
			return false
		}
	}
	return true
}

// TimeSource builds the pattern of a time of day. precision < 0 accepts any
// number of fractional digits, 0 accepts none.
func TimeSource(precision int) string {
	src := `([01]\d|2[0-3]):[0-5]\d:[0-5]\d`
	switch {
	case precision > 0:
		src += `\.\d{` + strconv.Itoa(precision) + `}`
	case precision < 0:
		src += `(\.\d+)?`
	}
	return src
}

// TimePattern anchors TimeSource.
func TimePattern(precision int) string { return "^" + TimeSource(precision) + "$" }

// DatetimePattern builds the ISO 8601 datetime pattern. local allows the
// trailing Z to be omitted, offset additionally accepts numeric offsets.
func DatetimePattern(precision int, offset, local bool) string {
	src := DateSource + "T" + TimeSource(precision)
	opts := []string{"Z"}
	if local {
		opts[0] = "Z?"
	}
	if offset {
		opts = append(opts, `([+-]\d{2}:?\d{2})`)
	}
	return "^" + src + "(" + strings.Join(opts, "|") + ")$"
}

// IsIP reports whether v is an IP address of the given version ("v4",
// "v6", or "" for either).
func IsIP(v any, version string) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	switch version {
	case "v4":
		return ipv4Re.MatchString(s)
	case "v6":
		return isIPv6(s)
	}
	return ipv4Re.MatchString(s) || isIPv6(s)
}

func isIPv6(s string) bool {
	if !strings.Contains(s, ":") {
		return false
	}
	a, err := netip.ParseAddr(s)
	return err == nil && a.Is6() && a.Zone() == ""
}

// IsCIDR reports whether v is a CIDR block of the given version.
func IsCIDR(v any, version string) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	addr, bits, found := strings.Cut(s, "/")
	if !found {
		return false
	}
	n, err := strconv.Atoi(bits)
	if err != nil || strconv.Itoa(n) != bits {
		return false
	}
	v4 := ipv4Re.MatchString(addr) && n >= 0 && n <= 32
	v6 := isIPv6(addr) && n >= 0 && n <= 128
	switch version {
	case "v4":
		return v4
	case "v6":
		return v6
	}
	return v4 || v6
}

// IsURL reports whether v parses as an absolute URL.
func IsURL(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != "" || u.Path != ""
}

// IsValidJWT checks the JWT shape and that the header carries typ and alg,
// matching alg when one is given.
func IsValidJWT(v any, alg string) bool {
	s, ok := v.(string)
	if !ok || !jwtRe.MatchString(s) {
		return false
	}
	header, _, _ := strings.Cut(s, ".")
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(header, "="))
	if err != nil {
		return false
	}
	var decoded map[string]any
	if err := gojson.Unmarshal(raw, &decoded); err != nil || decoded == nil {
		return false
	}
	typ, _ := decoded["typ"].(string)
	got, _ := decoded["alg"].(string)
	if typ == "" || got == "" {
		return false
	}
	return alg == "" || got == alg
}
