package bot

import (
	"fmt"
	"strings"
)

// Postback is a decoded "module$action$param..." payload.
type Postback struct {
	Module string
	Action string
	Params []string
}

// EncodePostback builds a postback payload in the shared format.
// Params must not contain the split character; the values modules
// encode (emails, course codes, scores) never do.
func EncodePostback(module, action string, params ...string) string {
	parts := append([]string{module, action}, params...)
	return strings.Join(parts, PostbackSplitChar)
}

// ParsePostback decodes a payload. At least module and action must be
// present.
func ParsePostback(data string) (*Postback, error) {
	parts := strings.Split(strings.TrimSpace(data), PostbackSplitChar)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("bot: invalid postback payload %q", data)
	}
	return &Postback{
		Module: parts[0],
		Action: parts[1],
		Params: parts[2:],
	}, nil
}

// Param returns the i-th parameter or "" when absent.
func (p *Postback) Param(i int) string {
	if i < 0 || i >= len(p.Params) {
		return ""
	}
	return p.Params[i]
}

// OwnsPostback reports whether data belongs to the named module. Used
// by every module's CanHandlePostback.
func OwnsPostback(module, data string) bool {
	return strings.HasPrefix(data, module+PostbackSplitChar)
}
