package thing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestRegistry_RegisterFormatsTopic(t *testing.T) {
	r := NewRegistry(testDeviceID, RegistryOptions{})

	reg, err := r.Register(nopHandler, "lights/%d", 3)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if reg.Topic != "/a1b2c3d4e5f6/lights/3" {
		t.Errorf("Topic = %q, want %q", reg.Topic, "/a1b2c3d4e5f6/lights/3")
	}
	if reg.Suffix != "lights/3" {
		t.Errorf("Suffix = %q, want %q", reg.Suffix, "lights/3")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistry_DispatchExactMatch(t *testing.T) {
	r := NewRegistry(testDeviceID, RegistryOptions{})

	var gotSuffix, gotPayload string
	calls := 0
	handler := func(suffix string, payload []byte) error {
		calls++
		gotSuffix = suffix
		gotPayload = string(payload)
		return nil
	}
	if _, err := r.Register(handler, "lights/%d", 3); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if !r.Dispatch("/a1b2c3d4e5f6/lights/3", []byte("on")) {
		t.Fatal("Dispatch() = false, want true")
	}
	if calls != 1 || gotSuffix != "lights/3" || gotPayload != "on" {
		t.Errorf("handler calls=%d suffix=%q payload=%q", calls, gotSuffix, gotPayload)
	}

	// Neither prefixes, wildcards nor other devices match.
	for _, topic := range []string{
		"/a1b2c3d4e5f6/lights",
		"/a1b2c3d4e5f6/lights/3/x",
		"/a1b2c3d4e5f6/lights/+",
		"/ffffffffffff/lights/3",
		"a1b2c3d4e5f6/lights/3",
	} {
		if r.Dispatch(topic, []byte("on")) {
			t.Errorf("Dispatch(%q) = true, want false", topic)
		}
	}
	if calls != 1 {
		t.Errorf("handler calls = %d after non-matching topics, want 1", calls)
	}
}

func TestRegistry_DispatchSelectsMatchingEntry(t *testing.T) {
	r := NewRegistry(testDeviceID, RegistryOptions{})

	var hits []string
	for i := 0; i < 4; i++ {
		if _, err := r.Register(func(suffix string, _ []byte) error {
			hits = append(hits, suffix)
			return nil
		}, "lights/%d", i); err != nil {
			t.Fatalf("Register(%d) error = %v", i, err)
		}
	}

	// The last entry must be reachable, not just the first.
	r.Dispatch("/a1b2c3d4e5f6/lights/3", nil)
	r.Dispatch("/a1b2c3d4e5f6/lights/0", nil)
	r.Dispatch("/a1b2c3d4e5f6/lights/2", nil)

	want := []string{"lights/3", "lights/0", "lights/2"}
	if !reflect.DeepEqual(hits, want) {
		t.Errorf("dispatched to %v, want %v", hits, want)
	}
}

func TestRegistry_Full(t *testing.T) {
	r := NewRegistry(testDeviceID, RegistryOptions{})

	var hits []string
	record := func(suffix string, _ []byte) error {
		hits = append(hits, suffix)
		return nil
	}
	for i := 0; i < DefaultCapacity; i++ {
		if _, err := r.Register(record, "t/%d", i); err != nil {
			t.Fatalf("Register(%d) error = %v", i, err)
		}
	}

	_, err := r.Register(nopHandler, "t/%d", DefaultCapacity)
	if !errors.Is(err, ErrRegistryFull) {
		t.Fatalf("Register() error = %v, want ErrRegistryFull", err)
	}
	if r.Len() != DefaultCapacity {
		t.Errorf("Len() = %d, want %d", r.Len(), DefaultCapacity)
	}
	if r.Dispatch(fmt.Sprintf("/a1b2c3d4e5f6/t/%d", DefaultCapacity), nil) {
		t.Error("Dispatch() matched a rejected registration")
	}

	// Earlier entries keep their handlers.
	last := fmt.Sprintf("t/%d", DefaultCapacity-1)
	if !r.Dispatch("/a1b2c3d4e5f6/t/0", nil) {
		t.Error("Dispatch() did not match the first entry")
	}
	if !r.Dispatch("/a1b2c3d4e5f6/"+last, nil) {
		t.Error("Dispatch() did not match the last entry")
	}
	if want := []string{"t/0", last}; !reflect.DeepEqual(hits, want) {
		t.Errorf("dispatched to %v, want %v", hits, want)
	}
}

func TestRegistry_Duplicate(t *testing.T) {
	r := NewRegistry(testDeviceID, RegistryOptions{})

	first := 0
	if _, err := r.Register(func(string, []byte) error { first++; return nil }, "status"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := r.Register(nopHandler, "status")
	if !errors.Is(err, ErrDuplicateTopic) {
		t.Fatalf("Register() error = %v, want ErrDuplicateTopic", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	r.Dispatch("/a1b2c3d4e5f6/status", nil)
	if first != 1 {
		t.Errorf("first handler calls = %d, want 1", first)
	}
}

func TestRegistry_NilHandler(t *testing.T) {
	r := NewRegistry(testDeviceID, RegistryOptions{})

	if _, err := r.Register(nil, "status"); !errors.Is(err, ErrNilHandler) {
		t.Errorf("Register(nil) error = %v, want ErrNilHandler", err)
	}
}

func TestRegistry_TopicTruncated(t *testing.T) {
	r := NewRegistry(testDeviceID, RegistryOptions{})

	reg, err := r.Register(nopHandler, "%s", strings.Repeat("s", 40))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if len(reg.Topic) != DefaultTopicBufferSize-1 {
		t.Errorf("len(Topic) = %d, want %d", len(reg.Topic), DefaultTopicBufferSize-1)
	}
	if !strings.HasPrefix(reg.Topic, "/a1b2c3d4e5f6/") {
		t.Errorf("Topic = %q lost its device prefix", reg.Topic)
	}

	// Two suffixes that agree up to the cut collide.
	_, err = r.Register(nopHandler, "%s", strings.Repeat("s", 50))
	if !errors.Is(err, ErrDuplicateTopic) {
		t.Errorf("Register() error = %v, want ErrDuplicateTopic", err)
	}
}

func TestRegistry_InvalidUTF8Suffix(t *testing.T) {
	tests := []struct {
		name   string
		suffix string
		want   string
	}{
		{
			name:   "continuation bytes only",
			suffix: strings.Repeat("\x80", 20),
			want:   "/a1b2c3d4e5f6/\uFFFD",
		},
		{
			name:   "replacement rune straddles the cut",
			suffix: strings.Repeat("s", 16) + "\xbf\xbf",
			want:   "/a1b2c3d4e5f6/" + strings.Repeat("s", 16),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(testDeviceID, RegistryOptions{})

			reg, err := r.Register(nopHandler, "%s", tt.suffix)
			if err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			if !strings.HasPrefix(reg.Topic, "/a1b2c3d4e5f6/") {
				t.Errorf("Topic = %q lost its device prefix", reg.Topic)
			}
			if len(reg.Topic) > DefaultTopicBufferSize-1 {
				t.Errorf("len(Topic) = %d, want at most %d", len(reg.Topic), DefaultTopicBufferSize-1)
			}
			if !utf8.ValidString(reg.Topic) {
				t.Errorf("Topic = %q, not valid UTF-8", reg.Topic)
			}
			if reg.Topic != tt.want {
				t.Errorf("Topic = %q, want %q", reg.Topic, tt.want)
			}
			if reg.Suffix != strings.TrimPrefix(tt.want, "/a1b2c3d4e5f6/") {
				t.Errorf("Suffix = %q, want %q", reg.Suffix, strings.TrimPrefix(tt.want, "/a1b2c3d4e5f6/"))
			}
		})
	}
}

func TestRegistry_HandlerErrorAndPanic(t *testing.T) {
	r := NewRegistry(testDeviceID, RegistryOptions{})
	logger := &recordingLogger{}
	r.SetLogger(logger)

	if _, err := r.Register(func(string, []byte) error { return errors.New("bad payload") }, "a"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := r.Register(func(string, []byte) error { panic("boom") }, "b"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if !r.Dispatch("/a1b2c3d4e5f6/a", nil) {
		t.Error("Dispatch(a) = false, want true")
	}
	if !r.Dispatch("/a1b2c3d4e5f6/b", nil) {
		t.Error("Dispatch(b) = false, want true")
	}

	if len(logger.warns) != 1 {
		t.Errorf("warns = %v, want one handler error", logger.warns)
	}
	if len(logger.errors) != 1 {
		t.Errorf("errors = %v, want one recovered panic", logger.errors)
	}
}

func TestRegistry_TopicsInOrder(t *testing.T) {
	r := NewRegistry(testDeviceID, RegistryOptions{Capacity: 3})

	for _, s := range []string{"c", "a", "b"} {
		if _, err := r.Register(nopHandler, "%s", s); err != nil {
			t.Fatalf("Register(%q) error = %v", s, err)
		}
	}

	want := []string{"/a1b2c3d4e5f6/c", "/a1b2c3d4e5f6/a", "/a1b2c3d4e5f6/b"}
	if got := r.Topics(); !reflect.DeepEqual(got, want) {
		t.Errorf("Topics() = %v, want %v", got, want)
	}
	if r.Cap() != 3 {
		t.Errorf("Cap() = %d, want 3", r.Cap())
	}
}

func TestNewRegistry_ClampsTinyTopicBuffer(t *testing.T) {
	r := NewRegistry(testDeviceID, RegistryOptions{TopicBufferSize: 4})

	if got := r.TopicName("status"); got != "/a1b2c3d4e5f6/status" {
		t.Errorf("TopicName() = %q, want %q", got, "/a1b2c3d4e5f6/status")
	}
}
