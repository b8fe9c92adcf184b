package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeEmptyInput, "no edges in %s", "edges.tsv")

	if err.Code != ErrCodeEmptyInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeEmptyInput)
	}
	if want := "EMPTY_INPUT: no edges in edges.tsv"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeNetwork, cause, "search %s", "syslog-ng_2017-06-03")

	if want := "NETWORK_ERROR: search syslog-ng_2017-06-03: connection refused"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	timeout := Wrap(ErrCodeNetwork, New(ErrCodeTimeout, "deadline exceeded"), "search")

	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeMalformedEdge, "edge 3"), ErrCodeMalformedEdge, true},
		{"other code", New(ErrCodeMalformedEdge, "edge 3"), ErrCodeNetwork, false},
		{"outer code of chain", timeout, ErrCodeNetwork, true},
		{"inner code of chain", timeout, ErrCodeTimeout, true},
		{"behind fmt wrapping", fmt.Errorf("aggregate: %w", New(ErrCodeEmptyInput, "no entries")), ErrCodeEmptyInput, true},
		{"plain error", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"direct", New(ErrCodeUnsupported, "smtp"), ErrCodeUnsupported},
		{"outermost wins", Wrap(ErrCodeNetwork, New(ErrCodeTimeout, "deadline"), "search"), ErrCodeNetwork},
		{"behind fmt wrapping", fmt.Errorf("invalid options: %w", New(ErrCodeInvalidFormat, "pdf")), ErrCodeInvalidFormat},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", New(ErrCodeInvalidInput, "weight floor must be within [0, 1]"), "weight floor must be within [0, 1]"},
		{"plain", errors.New("plain error"), "plain error"},
		{"wrapped chain", Wrap(ErrCodeNetwork, New(ErrCodeTimeout, "deadline"), "search syslog-ng_2017-06-03"), "search syslog-ng_2017-06-03: deadline"},
		{"plain cause", Wrap(ErrCodeFileNotFound, errors.New("no such file"), "open capture.pcap"), "open capture.pcap: no such file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
