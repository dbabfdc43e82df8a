// Package runone runs a single directive-driven test file.
//
// A test file is line oriented. Lines starting with ';' are comments and
// lines that are not directives are treated as IR body and ignored:
//
//	test compile      run the named pass pipeline
//	sleep 5ms         stall for a duration (exercises the heartbeat)
//	fail <message>    report a test failure
//	panic <message>   abort the runner (exercises fault isolation)
//
// Every pipeline is timed through the accumulator carried by the context.
package runone

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"filetest/internal/pass"
	"filetest/internal/timing"
)

// Extension is the file extension of test files.
const Extension = ".clif"

type opKind uint8

const (
	opTest opKind = iota + 1
	opSleep
	opFail
	opPanic
)

type command struct {
	line  int
	kind  opKind
	arg   string
	stage []stage
	delay time.Duration
}

// Run executes the test file at path.
func Run(ctx context.Context, path string) error {
	acc := timing.FromContext(ctx)
	defer acc.ProcessFile().End()

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cmds, err := parse(acc, string(data))
	if err != nil {
		return fmt.Errorf("%s:%w", path, err)
	}
	if len(cmds) == 0 {
		return fmt.Errorf("%s: no test commands", path)
	}

	for _, c := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch c.kind {
		case opTest:
			runStages(acc, c.stage)
		case opSleep:
			time.Sleep(c.delay)
		case opFail:
			return fmt.Errorf("%s:%d: %s", path, c.line, c.arg)
		case opPanic:
			panic(c.arg)
		}
	}
	return nil
}

var errNoArgument = errors.New("missing argument")

func parse(acc *timing.Accumulator, src string) ([]command, error) {
	defer acc.ParseText().End()

	var cmds []command
	sc := bufio.NewScanner(strings.NewReader(src))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		word, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		c := command{line: n, arg: rest}
		switch word {
		case "test":
			if rest == "" {
				return nil, fmt.Errorf("%d: test: %w", n, errNoArgument)
			}
			st, ok := pipelines[rest]
			if !ok {
				return nil, fmt.Errorf("%d: unknown test command %q", n, rest)
			}
			c.kind, c.stage = opTest, st
		case "sleep":
			d, err := time.ParseDuration(rest)
			if err != nil {
				return nil, fmt.Errorf("%d: sleep: %w", n, err)
			}
			c.kind, c.delay = opSleep, d
		case "fail":
			c.kind = opFail
		case "panic":
			c.kind = opPanic
		default:
			continue
		}
		cmds = append(cmds, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("0: %w", err)
	}
	return cmds, nil
}

// Commands lists the supported test commands in sorted order.
func Commands() []string {
	out := make([]string, 0, len(pipelines))
	for name := range pipelines {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Passes returns the passes a test command runs, in execution order.
func Passes(name string) ([]pass.Pass, bool) {
	st, ok := pipelines[name]
	if !ok {
		return nil, false
	}
	var out []pass.Pass
	var walk func([]stage)
	walk = func(ss []stage) {
		for _, s := range ss {
			out = append(out, s.pass)
			walk(s.children)
		}
	}
	walk(st)
	return out, true
}
