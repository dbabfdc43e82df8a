package trace

import (
	"encoding/json"
	"strconv"
	"time"
)

// Format is the stream encoding of events.
type Format uint8

const (
	FormatAuto   Format = iota
	FormatText          // one readable line per event
	FormatNDJSON        // one JSON object per line
	FormatChrome        // chrome://tracing and Perfetto
)

// AppendEvent appends the encoding of ev to dst.
func AppendEvent(dst []byte, ev *Event, format Format) []byte {
	switch format {
	case FormatNDJSON:
		return appendNDJSON(dst, ev)
	case FormatChrome:
		return appendChrome(dst, ev)
	}
	return appendText(dst, ev)
}

type jsonEvent struct {
	Seq    uint64            `json:"seq"`
	At     string            `json:"at"`
	Kind   string            `json:"kind"`
	Scope  string            `json:"scope"`
	Span   uint64            `json:"span,omitempty"`
	Parent uint64            `json:"parent,omitempty"`
	Worker int               `json:"worker"`
	Job    int               `json:"job"`
	Name   string            `json:"name"`
	Detail string            `json:"detail,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

func appendNDJSON(dst []byte, ev *Event) []byte {
	data, err := json.Marshal(jsonEvent{
		Seq:    ev.Seq,
		At:     ev.At.Format(time.RFC3339Nano),
		Kind:   ev.Kind.String(),
		Scope:  ev.Scope.String(),
		Span:   ev.Span,
		Parent: ev.Parent,
		Worker: ev.Worker,
		Job:    ev.Job,
		Name:   ev.Name,
		Detail: ev.Detail,
		Attrs:  attrMap(ev.Attrs, ""),
	})
	if err != nil {
		return dst
	}
	dst = append(dst, data...)
	return append(dst, '\n')
}

type chromeEvent struct {
	Name string            `json:"name"`
	Cat  string            `json:"cat"`
	Ph   string            `json:"ph"`
	Ts   int64             `json:"ts"`
	Pid  int               `json:"pid"`
	Tid  int               `json:"tid"`
	S    string            `json:"s,omitempty"`
	Args map[string]string `json:"args,omitempty"`
}

// appendChrome encodes one trace-event object. Workers map to threads; the
// driver goroutine is thread 0.
func appendChrome(dst []byte, ev *Event) []byte {
	ce := chromeEvent{
		Name: ev.Name,
		Cat:  ev.Scope.String(),
		Ts:   ev.At.UnixMicro(),
		Pid:  1,
		Tid:  ev.Worker + 1,
		Args: attrMap(ev.Attrs, ev.Detail),
	}
	switch ev.Kind {
	case KindBegin:
		ce.Ph = "B"
	case KindEnd:
		ce.Ph = "E"
	default:
		ce.Ph, ce.S = "i", "t"
	}
	if ev.Job >= 0 {
		if ce.Args == nil {
			ce.Args = make(map[string]string, 1)
		}
		ce.Args["job"] = strconv.Itoa(ev.Job)
	}
	data, err := json.Marshal(ce)
	if err != nil {
		return dst
	}
	return append(dst, data...)
}

func attrMap(attrs []Attr, detail string) map[string]string {
	if len(attrs) == 0 && detail == "" {
		return nil
	}
	m := make(map[string]string, len(attrs)+1)
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	if detail != "" {
		m["detail"] = detail
	}
	return m
}

var kindMarks = [...]string{KindBegin: "> ", KindEnd: "< ", KindInstant: ". ", KindTick: "* "}

// appendText renders "[seq] w#N mark name j#M (detail) k=v ...".
func appendText(dst []byte, ev *Event) []byte {
	dst = append(dst, '[')
	dst = appendPadded(dst, strconv.FormatUint(ev.Seq, 10), 6)
	dst = append(dst, "] "...)
	if ev.Worker >= 0 {
		w := strconv.Itoa(ev.Worker)
		dst = append(dst, "w#"...)
		dst = append(dst, w...)
		for i := len(w); i < 3; i++ {
			dst = append(dst, ' ')
		}
	} else {
		dst = append(dst, "     "...)
	}
	if int(ev.Kind) < len(kindMarks) && kindMarks[ev.Kind] != "" {
		dst = append(dst, kindMarks[ev.Kind]...)
	}
	dst = append(dst, ev.Name...)
	if ev.Job >= 0 && ev.Scope != ScopeJob {
		dst = append(dst, " j#"...)
		dst = strconv.AppendInt(dst, int64(ev.Job), 10)
	}
	if ev.Detail != "" {
		dst = append(dst, " ("...)
		dst = append(dst, ev.Detail...)
		dst = append(dst, ')')
	}
	for _, a := range ev.Attrs {
		dst = append(dst, ' ')
		dst = append(dst, a.Key...)
		dst = append(dst, '=')
		dst = append(dst, a.Value...)
	}
	return append(dst, '\n')
}

func appendPadded(dst []byte, s string, width int) []byte {
	for i := len(s); i < width; i++ {
		dst = append(dst, ' ')
	}
	return append(dst, s...)
}
