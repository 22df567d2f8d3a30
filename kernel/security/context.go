// Package security holds the process privilege levels and the kernel-wide
// security context that mints process tokens.
package security

import "github.com/gopheros/kcore/kernel"

const (
	// TokenSalt is mixed into every issued token. Tokens identify the
	// kernel instance that minted a process; they are trivially invertible
	// and must not be used as capabilities.
	TokenSalt = uint32(0xdeadbeef)

	// KeySalt seeds the placeholder key buffer.
	KeySalt = byte(0xaa)

	// KeySize is the size of the placeholder key buffer in bytes.
	KeySize = 32
)

var (
	// ErrAlreadyInitialized is returned when Init is invoked more than once.
	ErrAlreadyInitialized = &kernel.Error{Module: "security", Message: "security context already initialized"}
)

// Context is the kernel-wide security state.
//
// EncryptionEnabled and Key preserve the shape of an encryption facility
// that does not exist yet; nothing reads them.
type Context struct {
	tokenCounter uint32
	initialized  bool

	// AccessLevel is the process-wide access level.
	AccessLevel Level

	EncryptionEnabled bool
	Key               [KeySize]byte

	// Flags is reserved for future use.
	Flags uint32
}

// Init sets up the security context. It must be called exactly once.
func (c *Context) Init() *kernel.Error {
	if c.initialized {
		return ErrAlreadyInitialized
	}

	c.AccessLevel = Kernel
	c.EncryptionEnabled = true
	for i := range c.Key {
		c.Key[i] = byte(i) ^ KeySalt
	}
	c.Flags = 0
	c.initialized = true

	return nil
}

// Initialized returns true once Init has succeeded.
func (c *Context) Initialized() bool {
	return c.initialized
}

// IssueToken advances the token counter and returns a token that is unique
// for every call until the counter wraps.
func (c *Context) IssueToken() uint32 {
	c.tokenCounter++
	return c.tokenCounter ^ TokenSalt
}

// IssuedTokens returns the number of tokens issued so far.
func (c *Context) IssuedTokens() uint32 {
	return c.tokenCounter
}
