package main

import (
	"bytes"
	"encoding/hex"
	"flag"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/sirf/frame"
	"github.com/temoto/sirf/helpers/cli"
	"github.com/temoto/sirf/log2"
	"github.com/temoto/sirf/message"
	"github.com/temoto/sirf/receiver"
	"github.com/temoto/sirf/uart"
)

const usage = `syntax: commands separated by whitespace
(main)
- sN       pause N milliseconds
- @XX...   send payload from hex XX... (first byte is message id) as framed message
- =XX...   decode hex offline: frame stream if starts with a0a2, otherwise one payload

(meta)
- log=yes  enable debug logging
- log=no   disable debug logging
- loop=N   repeat N times all commands on this line
`

var log = log2.NewStderr(log2.LInfo)

type action func() error

type app struct {
	recv *receiver.Receiver
}

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	devicePath := cmdline.String("device", "/dev/ttyUSB0", "serial device, empty for offline decode only")
	baud := cmdline.Int("baud", uart.DefaultBaud, "")
	_ = cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)

	a := &app{}
	if *devicePath != "" {
		port, err := uart.Open(*devicePath, *baud)
		if err != nil {
			log.Fatal(errors.ErrorStack(err))
		}
		a.recv, err = receiver.New(port, receiver.Options{
			Log:       log,
			OnMessage: func(m message.Message) { log.Infof("< %s", m) },
		})
		if err != nil {
			log.Fatal(errors.ErrorStack(err))
		}
		defer a.recv.Close()
	}

	err := cli.MainLoop("sirf-cli", a.newExecutor(), newCompleter(), func() {
		if a.recv != nil {
			_ = a.recv.Close()
		}
	})
	if err != nil {
		log.Error(errors.ErrorStack(err))
	}
}

func newCompleter() func(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "help", Description: "show usage"},
		{Text: "sN", Description: "pause for N ms"},
		{Text: "loop=N", Description: "repeat line N times"},
		{Text: "@XX", Description: "send payload"},
		{Text: "=XX", Description: "decode hex offline"},
		{Text: "log=yes", Description: "debug logging"},
		{Text: "log=no", Description: "quiet logging"},
	}

	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterFuzzy(suggests, d.GetWordBeforeCursor(), true)
	}
}

func (a *app) newExecutor() func(string) {
	return func(line string) {
		actions, err := a.parseLine(line)
		if err != nil {
			log.Error(errors.ErrorStack(err))
			return
		}
		for _, act := range actions {
			if err = act(); err != nil {
				log.Error(errors.ErrorStack(err))
				return
			}
		}
	}
}

func (a *app) parseLine(line string) ([]action, error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return nil, nil
	}

	// pre-parse special commands
	loopn := uint64(0)
	wordsRest := make([]string, 0, len(words))
	for _, word := range words {
		switch {
		case word == "help":
			return []action{doUsage}, nil
		case strings.HasPrefix(word, "loop="):
			if loopn != 0 {
				return nil, errors.Errorf("multiple loop commands, expected at most one")
			}
			i, err := strconv.ParseUint(word[5:], 10, 32)
			if err != nil {
				return nil, errors.Annotatef(err, "word=%s", word)
			}
			loopn = i
		default:
			wordsRest = append(wordsRest, word)
		}
	}

	seq := make([]action, 0, len(wordsRest))
	for _, word := range wordsRest {
		act, err := a.parseCommand(word)
		if err != nil {
			return nil, err
		}
		seq = append(seq, act)
	}
	if loopn == 0 {
		return seq, nil
	}
	result := make([]action, 0, len(seq)*int(loopn))
	for i := uint64(0); i < loopn; i++ {
		result = append(result, seq...)
	}
	return result, nil
}

func (a *app) parseCommand(word string) (action, error) {
	switch {
	case word == "log=yes":
		return func() error { log.SetLevel(log2.LDebug); return nil }, nil
	case word == "log=no":
		return func() error { log.SetLevel(log2.LInfo); return nil }, nil
	case word[0] == 's':
		i, err := strconv.ParseUint(word[1:], 10, 32)
		if err != nil {
			return nil, errors.Annotatef(err, "word=%s", word)
		}
		return func() error { time.Sleep(time.Duration(i) * time.Millisecond); return nil }, nil
	case word[0] == '@':
		b, err := parseHex(word[1:])
		if err != nil {
			return nil, err
		}
		if len(b) == 0 {
			return nil, errors.NotValidf("word=%s empty payload", word)
		}
		m := &message.Unknown{MessageID: message.ID(b[0]), Body: b[1:]}
		return func() error {
			if a.recv == nil {
				return errors.Errorf("no device, send not possible")
			}
			log.Infof("> %s", m)
			return a.recv.Send(m)
		}, nil
	case word[0] == '=':
		b, err := parseHex(word[1:])
		if err != nil {
			return nil, err
		}
		return func() error { decodeOffline(b); return nil }, nil
	default:
		return nil, errors.Errorf("error: invalid command: '%s'", word)
	}
}

func doUsage() error {
	log.Infof(usage)
	return nil
}

func parseHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	return b, errors.Annotatef(err, "hex=%s", s)
}

func decodeOffline(b []byte) {
	if !bytes.HasPrefix(b, []byte{0xa0, 0xa2}) {
		printPayload(b)
		return
	}
	dec := frame.NewDecoder(bytes.NewReader(b), 0)
	for {
		f, err := dec.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Errorf("frame: %v", err)
			if frame.IsFrameError(err) {
				continue
			}
			break
		}
		printPayload(f.Payload)
	}
	log.Infof("stat %s", dec.Stat.String())
}

func printPayload(payload []byte) {
	m, err := message.Decode(payload)
	if err != nil {
		log.Errorf("payload=%x err=%v", payload, err)
		return
	}
	log.Infof("%s", m)
}
