package kfmt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestPrefixWriter(t *testing.T) {
	specs := []struct {
		chunks []string
		exp    string
	}{
		{nil, ""},
		{[]string{""}, ""},
		{[]string{"\n"}, "[dmesg] \n"},
		{[]string{"boot"}, "[dmesg] boot"},
		{[]string{"INFO\tbooting kernel\n"}, "[dmesg] INFO\tbooting kernel\n"},
		{
			[]string{"INFO\tframe pool ready\nINFO\tsecurity context ready\n"},
			"[dmesg] INFO\tframe pool ready\n[dmesg] INFO\tsecurity context ready\n",
		},
		// A line split across writes only gets one prefix.
		{
			[]string{"WARN\tsecurity ", "violations detected\nINFO", "\tidle\n"},
			"[dmesg] WARN\tsecurity violations detected\n[dmesg] INFO\tidle\n",
		},
	}

	for specIndex, spec := range specs {
		var buf bytes.Buffer
		w := PrefixWriter{Sink: &buf, Prefix: []byte("[dmesg] ")}

		for _, chunk := range spec.chunks {
			wrote, err := w.Write([]byte(chunk))
			if err != nil {
				t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
			}
			if wrote != len(chunk) {
				t.Errorf("[spec %d] expected writer to report %d bytes; got %d", specIndex, len(chunk), wrote)
			}
		}

		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected output:\n%q\ngot:\n%q", specIndex, spec.exp, got)
		}
	}
}

func TestPrefixWriterErrors(t *testing.T) {
	errSink := errors.New("sink write failed")

	specs := []struct {
		input string
		// failAt is the 1-based sink write that fails.
		failAt     int
		expWritten int
	}{
		// leading prefix
		{"pid 1 created\npid 2 created", 1, 0},
		// first line body
		{"pid 1 created\npid 2 created", 2, 0},
		// prefix injected after the first line feed
		{"pid 1 created\npid 2 created", 3, len("pid 1 created\n")},
		// trailing partial line
		{"pid 1 created\npid 2 created", 4, len("pid 1 created\n")},
	}

	for specIndex, spec := range specs {
		sink := &failingSink{failAt: spec.failAt, err: errSink}
		w := PrefixWriter{Sink: sink, Prefix: []byte("[dmesg] ")}

		wrote, err := w.Write([]byte(spec.input))
		if err != errSink {
			t.Errorf("[spec %d] expected error %v; got %v", specIndex, errSink, err)
		}

		if wrote != spec.expWritten {
			t.Errorf("[spec %d] expected %d written bytes; got %d", specIndex, spec.expWritten, wrote)
		}

		if sink.writes != spec.failAt {
			t.Errorf("[spec %d] expected writer to stop after sink write %d; made %d", specIndex, spec.failAt, sink.writes)
		}
	}
}

func TestPrefixWriterReplaysDmesg(t *testing.T) {
	var dmesg RingBuffer

	logger := NewLogger(zapcore.InfoLevel, &dmesg, nil)
	for i := 1; i <= 3; i++ {
		logger.Info(fmt.Sprintf("bootstrap process %d created", i))
	}

	var out bytes.Buffer
	if _, err := io.Copy(&PrefixWriter{Sink: &out, Prefix: []byte("[dmesg] ")}, &dmesg); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 replayed lines; got %d:\n%s", len(lines), out.String())
	}

	for i, line := range lines {
		exp := fmt.Sprintf("[dmesg] INFO\tbootstrap process %d created", i+1)
		if line != exp {
			t.Errorf("[line %d] expected %q; got %q", i, exp, line)
		}
	}
}

// failingSink accepts writes until the failAt-th one, which fails.
type failingSink struct {
	failAt int
	writes int
	err    error
}

func (s *failingSink) Write(p []byte) (int, error) {
	s.writes++
	if s.writes == s.failAt {
		return 0, s.err
	}
	return len(p), nil
}
