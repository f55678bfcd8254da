// Package transcript extracts move records and player names from the
// line-oriented game logs written by the match runner.
//
// A record line looks like
//
//	Round 3 - Player 2 (claude) move: Nf6
//
// and a name header like
//
//	Player 1 (gpt-4o): white
package transcript

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrEmptyTranscript is returned when the input holds no move record.
var ErrEmptyTranscript = errors.New("transcript contains no move records")

const moveMarker = "move: "

var (
	recordPattern     = regexp.MustCompile(`Round (\d+) - Player ([12])\b`)
	headerPattern     = regexp.MustCompile(`Player ([12]) \(([^)]+)\):`)
	recordNamePattern = regexp.MustCompile(`Player ([12]) \(([^)]+)\) move:`)
)

// Entry is one move record in transcript order.
type Entry struct {
	Round  int    `json:"round"`
	Player int    `json:"player"`
	Raw    string `json:"raw"`
}

// Transcript is the parsed form of a game log.
type Transcript struct {
	Player1 string  `json:"player1"`
	Player2 string  `json:"player2"`
	Entries []Entry `json:"entries"`
}

// Name returns the display name of player 1 or 2.
func (t *Transcript) Name(player int) string {
	if player == 2 {
		return t.Player2
	}
	return t.Player1
}

// DefaultName is the name used when the log never names a player.
func DefaultName(player int) string {
	return "Player " + strconv.Itoa(player)
}

// Parser consumes a log one line at a time. The zero value is ready to use.
type Parser struct {
	headers  [3]string
	fallback [3]string
	entries  []Entry
}

// NewParser returns an empty Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Feed consumes one line and returns the record it holds, if any. Name
// headers are remembered and never produce a record.
func (p *Parser) Feed(line string) (Entry, bool) {
	line = strings.TrimRight(line, "\r\n")

	loc := recordPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		if m := headerPattern.FindStringSubmatch(line); m != nil {
			n := int(m[1][0] - '0')
			if p.headers[n] == "" {
				p.headers[n] = strings.TrimSpace(m[2])
			}
		}
		return Entry{}, false
	}

	idx := strings.LastIndex(line, moveMarker)
	if idx < loc[1] {
		return Entry{}, false
	}
	raw := line[idx+len(moveMarker):]
	if raw == "" {
		return Entry{}, false
	}

	round, err := strconv.Atoi(line[loc[2]:loc[3]])
	if err != nil {
		return Entry{}, false
	}
	player := int(line[loc[4]] - '0')

	if m := recordNamePattern.FindStringSubmatch(line); m != nil {
		n := int(m[1][0] - '0')
		if p.fallback[n] == "" {
			p.fallback[n] = strings.TrimSpace(m[2])
		}
	}

	e := Entry{Round: round, Player: player, Raw: raw}
	p.entries = append(p.entries, e)
	return e, true
}

// Names returns the resolved display names seen so far.
func (p *Parser) Names() (string, string) {
	return p.name(1), p.name(2)
}

func (p *Parser) name(n int) string {
	switch {
	case p.headers[n] != "":
		return p.headers[n]
	case p.fallback[n] != "":
		return p.fallback[n]
	default:
		return DefaultName(n)
	}
}

// Transcript returns everything fed so far.
func (p *Parser) Transcript() *Transcript {
	p1, p2 := p.Names()
	entries := make([]Entry, len(p.entries))
	copy(entries, p.entries)
	return &Transcript{Player1: p1, Player2: p2, Entries: entries}
}

// Parse extracts the records and names from a complete log.
func Parse(text string) (*Transcript, error) {
	return Read(strings.NewReader(text))
}

// Read is Parse over a reader. Lines of any length are accepted.
func Read(r io.Reader) (*Transcript, error) {
	p := NewParser()
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			p.Feed(line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	t := p.Transcript()
	if len(t.Entries) == 0 {
		return nil, ErrEmptyTranscript
	}
	return t, nil
}
