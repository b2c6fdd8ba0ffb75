package pgn

import (
	"fmt"
	"strconv"
	"strings"
)

// Derived header names added by Annotate.
const (
	HeaderGameID    = "GameID"
	HeaderPlace     = "Place"
	HeaderTimeClass = "TimeClass"
)

// Time control classes.
const (
	TimeClassBullet    = "bullet"
	TimeClassBlitz     = "blitz"
	TimeClassRapid     = "rapid"
	TimeClassClassical = "classical"
	TimeClassDaily     = "daily"
)

// onlineSites are Site header keywords that mark a game as played online.
var onlineSites = []string{"chess.com", "chess24", "lichess.org"}

// onlineEvents are Event header keywords that mark a game as played online.
var onlineEvents = []string{"titled tuesday", "early", "late", "main event", "play-in", "match play"}

// eventTimeClasses maps known Event keywords to a time control class for
// games whose TimeControl header is absent or unparseable. Matched in
// order, first hit wins.
var eventTimeClasses = []struct {
	keyword string
	class   string
}{
	{"titled tue", TimeClassBlitz},
	{"titled arena", TimeClassBlitz},
	{"speed chess", TimeClassBlitz},
	{"bullet chess", TimeClassBullet},
	{"world blitz", TimeClassBlitz},
	{"world rapid", TimeClassRapid},
	{"candidates", TimeClassClassical},
	{"olympiad", TimeClassClassical},
	{"sinquefield", TimeClassClassical},
	{"tata steel", TimeClassClassical},
	{"norway chess", TimeClassClassical},
	{"grand swiss", TimeClassClassical},
	{"chessable", TimeClassRapid},
	{"aimchess", TimeClassRapid},
	{"crypto cup", TimeClassRapid},
	{"banter", TimeClassBlitz},
	{"masters final", TimeClassClassical},
	{"classic", TimeClassClassical},
	{"wch", TimeClassClassical},
	{"champions", TimeClassRapid},
	{"rapid", TimeClassRapid},
	{"blitz", TimeClassBlitz},
}

// Place classifies a game as "Online" or "Offline" from its Site, Event
// and Link headers.
func Place(site, event, link string) string {
	site = strings.ToLower(site)
	event = strings.ToLower(event)
	link = strings.ToLower(link)

	// Daily correspondence games only exist online.
	if strings.Contains(link, "daily") {
		return "Online"
	}
	for _, s := range onlineSites {
		if strings.Contains(site, s) {
			return "Online"
		}
	}
	for _, e := range onlineEvents {
		if strings.Contains(event, e) {
			return "Online"
		}
	}
	return "Offline"
}

// TimeClass derives the time control class from the Event and
// TimeControl headers. It returns "" when neither yields a class.
func TimeClass(event, timeControl string) string {
	eventLower := strings.ToLower(event)
	for _, ec := range eventTimeClasses {
		if strings.Contains(eventLower, ec.keyword) {
			return ec.class
		}
	}

	// Correspondence time controls look like "1/86400".
	if strings.HasPrefix(timeControl, "1/") {
		return TimeClassDaily
	}

	if timeControl != "" {
		base := timeControl
		if idx := strings.IndexByte(base, '+'); idx >= 0 {
			base = base[:idx]
		}
		if secs, err := strconv.Atoi(base); err == nil {
			switch {
			case secs >= 1 && secs < 180:
				return TimeClassBullet
			case secs < 600:
				return TimeClassBlitz
			case secs < 1800:
				return TimeClassRapid
			case secs >= 1800:
				return TimeClassClassical
			}
		}
	}

	return ""
}

// Annotate adds the derived GameID, Place and TimeClass headers to each
// game, in order. GameID is the 1-based position in the slice, so the
// slice must already be in final chronological order.
func Annotate(games []RawGame) []RawGame {
	annotated := make([]RawGame, len(games))
	for i, g := range games {
		headers := map[string]string{
			HeaderGameID: strconv.Itoa(i + 1),
			HeaderPlace: Place(
				Header(g.Text, "Site"),
				Header(g.Text, "Event"),
				Header(g.Text, "Link"),
			),
		}
		if tc := TimeClass(Header(g.Text, "Event"), Header(g.Text, "TimeControl")); tc != "" {
			headers[HeaderTimeClass] = tc
		}
		g.Text = insertHeaders(g.Text, headers)
		annotated[i] = g
	}
	return annotated
}

// insertHeaders appends tag pairs at the end of a game's header section.
// Existing tags with the same name are replaced.
func insertHeaders(text string, headers map[string]string) string {
	lines := strings.Split(text, "\n")

	// Find the end of the header section.
	headerEnd := 0
	for i, line := range lines {
		if strings.HasPrefix(line, "[") {
			headerEnd = i + 1
		} else if strings.TrimSpace(line) != "" {
			break
		}
	}

	// Drop existing occurrences of the headers being set.
	var out []string
	for i, line := range lines[:headerEnd] {
		name := tagName(line)
		if _, replace := headers[name]; replace {
			continue
		}
		out = append(out, lines[i])
	}

	for _, name := range []string{HeaderGameID, HeaderPlace, HeaderTimeClass} {
		if value, ok := headers[name]; ok {
			out = append(out, fmt.Sprintf("[%s %q]", name, value))
		}
	}

	out = append(out, lines[headerEnd:]...)
	return strings.Join(out, "\n")
}

func tagName(line string) string {
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}
