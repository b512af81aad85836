// Package lyrics parses LRC lyrics and finds them for a track.
package lyrics

import (
	"bufio"
	"cmp"
	"io"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Line is one lyric line starting at Time. Unsynced lines all start at 0.
type Line struct {
	Time time.Duration
	Text string
}

// Lyrics are lines in time order with the LRC header tags.
type Lyrics struct {
	Lines  []Line
	Title  string
	Artist string
	Album  string
}

var (
	// [mm:ss], [mm:ss.xx], [mm:ss.xxx] or [mm:ss:xx]
	timestampRe = regexp.MustCompile(`\[(\d+):(\d+)(?:[.:](\d+))?\]`)
	// [ar:Artist Name]
	metadataRe = regexp.MustCompile(`^\[([a-zA-Z]+):(.+)\]$`)
)

// ParseLRC reads LRC text. A line may carry several timestamps for
// repeated text; header tags ar, ti and al fill the metadata.
func ParseLRC(r io.Reader) (*Lyrics, error) {
	l := &Lyrics{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if meta := metadataRe.FindStringSubmatch(line); meta != nil && !timestampRe.MatchString(line) {
			value := strings.TrimSpace(meta[2])
			switch strings.ToLower(meta[1]) {
			case "ar":
				l.Artist = value
			case "ti":
				l.Title = value
			case "al":
				l.Album = value
			}
			continue
		}

		stamps := timestampRe.FindAllStringSubmatchIndex(line, -1)
		if len(stamps) == 0 {
			continue
		}
		text := strings.TrimSpace(line[stamps[len(stamps)-1][1]:])
		for _, m := range stamps {
			if ts, ok := parseTimestamp(line, m); ok {
				l.Lines = append(l.Lines, Line{Time: ts, Text: text})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(l.Lines, func(a, b Line) int { return cmp.Compare(a.Time, b.Time) })
	return l, nil
}

// Plain builds unsynced lyrics from text, one line each, blank lines
// dropped.
func Plain(text string) *Lyrics {
	l := &Lyrics{}
	for line := range strings.SplitSeq(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			l.Lines = append(l.Lines, Line{Text: line})
		}
	}
	return l
}

// parseTimestamp reads the submatch indexes m of timestampRe in line.
func parseTimestamp(line string, m []int) (time.Duration, bool) {
	minutes, err := strconv.Atoi(line[m[2]:m[3]])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(line[m[4]:m[5]])
	if err != nil {
		return 0, false
	}
	var millis int
	if m[6] >= 0 {
		frac := line[m[6]:m[7]]
		if millis, err = strconv.Atoi(frac); err != nil {
			return 0, false
		}
		switch len(frac) {
		case 1:
			millis *= 100
		case 2:
			millis *= 10
		}
	}
	return time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, true
}

// IsSynced reports whether any line carries a timestamp.
func (l *Lyrics) IsSynced() bool {
	return slices.ContainsFunc(l.Lines, func(line Line) bool { return line.Time > 0 })
}

// LineAt returns the index of the line playing at pos, or -1 before the
// first line and for unsynced lyrics.
func (l *Lyrics) LineAt(pos time.Duration) int {
	if !l.IsSynced() {
		return -1
	}
	return sort.Search(len(l.Lines), func(i int) bool { return l.Lines[i].Time > pos }) - 1
}
