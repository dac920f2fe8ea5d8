package sim

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

// tapHold is how long tap leaves a card on the reader, and then off it
const tapHold = 200

type command struct {
	usage string
	help  string
	run   func(s *Simulator, args []string) (string, error)
}

var commands = map[string]command{
	"place": {"place <uid-hex> [value]", "put a card on the reader", cmdPlace},
	"remove": {"remove", "lift the card off the reader", func(s *Simulator, _ []string) (string, error) {
		s.Remove()
		return "", nil
	}},
	"tap":   {"tap <uid-hex> [value]", "place a card, wait, and lift it", cmdTap},
	"press": {"press <ms>", "hold the button for ms", cmdPress},
	"wait":  {"wait <ms>", "let time pass", cmdWait},
	"fail":  {"fail read|write|save [n]", "make the next n operations fail", cmdFail},
	"state": {"state", "show mode and progress", func(s *Simulator, _ []string) (string, error) {
		st := s.State()
		return fmt.Sprintf("%s entered=%d/%d selection=%d present=%t",
			st.Mode, st.Entered, st.Length, st.Selection, st.Present), nil
	}},
	"combo": {"combo", "show the active combination", func(s *Simulator, _ []string) (string, error) {
		return fmt.Sprint(s.Combination()), nil
	}},
	"cards": {"cards", "list cards seen so far", func(s *Simulator, _ []string) (string, error) {
		cards := s.Cards()
		parts := make([]string, len(cards))
		for i := range cards {
			parts[i] = cards[i].String()
		}
		return strings.Join(parts, " "), nil
	}},
}

// Exec runs one command line and returns its output, if any
func (s *Simulator) Exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	if fields[0] == "help" {
		return Help(), nil
	}

	cmd, ok := commands[fields[0]]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
	}
	out, err := cmd.run(s, fields[1:])
	if errors.Is(err, ErrUsage) {
		return "", fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
	}
	return out, err
}

// Help lists the commands
func Help() string {
	names := []string{"place", "remove", "tap", "press", "wait", "fail", "state", "combo", "cards"}
	var b strings.Builder
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(&b, "  %-26s %s\n", c.usage, c.help)
	}
	return b.String()
}

func parseCard(args []string) ([]byte, *byte, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, nil, ErrUsage
	}
	uid, err := hex.DecodeString(args[0])
	if err != nil || len(uid) == 0 || len(uid) > 10 {
		return nil, nil, ErrUsage
	}
	if len(args) == 1 {
		return uid, nil, nil
	}
	v, err := strconv.ParseUint(args[1], 10, 8)
	if err != nil {
		return nil, nil, ErrUsage
	}
	value := byte(v)
	return uid, &value, nil
}

func parseMillis(args []string) (uint32, error) {
	if len(args) != 1 {
		return 0, ErrUsage
	}
	ms, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, ErrUsage
	}
	return uint32(ms), nil
}

func cmdPlace(s *Simulator, args []string) (string, error) {
	uid, value, err := parseCard(args)
	if err != nil {
		return "", err
	}
	card := s.Place(uid, value)
	return "placed " + card.String(), nil
}

func cmdTap(s *Simulator, args []string) (string, error) {
	uid, value, err := parseCard(args)
	if err != nil {
		return "", err
	}
	s.Place(uid, value)
	s.Wait(tapHold)
	s.Remove()
	s.Wait(tapHold)
	return "", nil
}

func cmdPress(s *Simulator, args []string) (string, error) {
	ms, err := parseMillis(args)
	if err != nil {
		return "", err
	}
	s.Press(ms)
	return "", nil
}

func cmdWait(s *Simulator, args []string) (string, error) {
	ms, err := parseMillis(args)
	if err != nil {
		return "", err
	}
	s.Wait(ms)
	return "", nil
}

func cmdFail(s *Simulator, args []string) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", ErrUsage
	}
	n := 1
	if len(args) == 2 {
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 0 {
			return "", ErrUsage
		}
		n = v
	}

	switch args[0] {
	case "read":
		s.FailReads(n)
	case "write":
		s.FailWrites(n)
	case "save":
		s.FailCommits(n)
	default:
		return "", ErrUsage
	}
	return "", nil
}
