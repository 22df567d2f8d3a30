package security

import "testing"

func TestContextInit(t *testing.T) {
	var ctx Context

	if ctx.Initialized() {
		t.Fatal("expected zero-value context to be uninitialized")
	}

	if err := ctx.Init(); err != nil {
		t.Fatal(err)
	}

	if ctx.AccessLevel != Kernel {
		t.Errorf("expected access level to be %v; got %v", Kernel, ctx.AccessLevel)
	}

	if !ctx.EncryptionEnabled {
		t.Error("expected encryption flag to be set")
	}

	if ctx.Flags != 0 {
		t.Errorf("expected security flags to be 0; got %d", ctx.Flags)
	}

	for i, b := range ctx.Key {
		if exp := byte(i) ^ KeySalt; b != exp {
			t.Errorf("expected key byte %d to be %#x; got %#x", i, exp, b)
		}
	}

	if err := ctx.Init(); err != ErrAlreadyInitialized {
		t.Fatalf("expected second Init to fail with ErrAlreadyInitialized; got %v", err)
	}
}

func TestIssueToken(t *testing.T) {
	var (
		ctx    Context
		seen   = make(map[uint32]bool)
		tokens = 4096
	)

	for i := 1; i <= tokens; i++ {
		token := ctx.IssueToken()
		if exp := uint32(i) ^ TokenSalt; token != exp {
			t.Fatalf("[token %d] expected %#x; got %#x", i, exp, token)
		}

		if seen[token] {
			t.Fatalf("[token %d] token %#x issued twice", i, token)
		}
		seen[token] = true
	}

	if got := ctx.IssuedTokens(); got != uint32(tokens) {
		t.Fatalf("expected issued token count to be %d; got %d", tokens, got)
	}
}

func TestLevels(t *testing.T) {
	specs := []struct {
		level      Level
		valid      bool
		privileged bool
		name       string
	}{
		{Kernel, true, true, "kernel"},
		{System, true, true, "system"},
		{User, true, false, "user"},
		{Level(3), false, false, "invalid"},
		{Level(255), false, false, "invalid"},
	}

	for specIndex, spec := range specs {
		if got := spec.level.Valid(); got != spec.valid {
			t.Errorf("[spec %d] expected Valid() to return %t; got %t", specIndex, spec.valid, got)
		}
		if got := spec.level.Privileged(); got != spec.privileged {
			t.Errorf("[spec %d] expected Privileged() to return %t; got %t", specIndex, spec.privileged, got)
		}
		if got := spec.level.String(); got != spec.name {
			t.Errorf("[spec %d] expected String() to return %q; got %q", specIndex, spec.name, got)
		}
	}
}

func TestParseLevel(t *testing.T) {
	specs := []struct {
		input  string
		exp    Level
		expErr error
	}{
		{"kernel", Kernel, nil},
		{"SYSTEM", System, nil},
		{" user ", User, nil},
		{"root", 0, ErrUnknownLevel},
		{"", 0, ErrUnknownLevel},
	}

	for specIndex, spec := range specs {
		got, err := ParseLevel(spec.input)
		if spec.expErr != nil {
			if err != spec.expErr {
				t.Errorf("[spec %d] expected error %v; got %v", specIndex, spec.expErr, err)
			}
			continue
		}

		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
			continue
		}

		if got != spec.exp {
			t.Errorf("[spec %d] expected level %v; got %v", specIndex, spec.exp, got)
		}
	}
}
