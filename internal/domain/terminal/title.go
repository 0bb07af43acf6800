package terminal

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	maxTitleLength = 100
	maxOSCPayload  = 4096
)

var titlePolicy = bluemonday.StrictPolicy()

// sanitizeTitle strips markup and control characters from a title
func sanitizeTitle(title string) string {
	title = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, title)

	safe := titlePolicy.Sanitize(title)
	if r := []rune(safe); len(r) > maxTitleLength {
		safe = string(r[:maxTitleLength])
	}
	return strings.TrimSpace(safe)
}

type scanState int

const (
	scanGround scanState = iota
	scanEscape
	scanOSC
	scanOSCEscape
)

// oscScanner picks window-title sequences (OSC 0 and OSC 2) and BEL out of
// the output stream. State carries across reads so a sequence split between
// two chunks is still recognised. Everything else is ignored.
type oscScanner struct {
	state   scanState
	payload []byte
}

// scan returns the titles set in p and how many bells rang outside OSC
func (s *oscScanner) scan(p []byte) (titles []string, bells int) {
	for _, c := range p {
		switch s.state {
		case scanGround:
			switch c {
			case 0x07:
				bells++
			case 0x1b:
				s.state = scanEscape
			}
		case scanEscape:
			switch c {
			case ']':
				s.state = scanOSC
				s.payload = s.payload[:0]
			case 0x1b:
			default:
				s.state = scanGround
			}
		case scanOSC:
			switch c {
			case 0x07:
				titles = s.finish(titles)
			case 0x1b:
				s.state = scanOSCEscape
			default:
				if len(s.payload) < maxOSCPayload {
					s.payload = append(s.payload, c)
				}
			}
		case scanOSCEscape:
			if c == '\\' {
				titles = s.finish(titles)
			} else {
				s.state = scanGround
			}
		}
	}
	return titles, bells
}

func (s *oscScanner) finish(titles []string) []string {
	s.state = scanGround
	code, text, ok := strings.Cut(string(s.payload), ";")
	if ok && (code == "0" || code == "2") {
		titles = append(titles, text)
	}
	return titles
}
