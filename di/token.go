package di

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Token identifies a requestable dependency. Identity is Go equality on the
// token value: pointer tokens (*Key, *Class) compare by reference and never
// collide, value tokens such as Name compare by value.
type Token interface {
	String() string
}

// Name is a symbol-like value token. Two Names with the same text are the
// same token.
type Name string

func (n Name) String() string { return string(n) }

// Key is an identity token. Every NewKey call yields a distinct token, even
// for equal names.
type Key struct {
	name string
	id   uuid.UUID
}

// NewKey creates a new identity token.
//
//	var Plugins = di.NewKey("plugins")
func NewKey(name string) *Key {
	return &Key{name: name, id: uuid.New()}
}

func (k *Key) String() string { return k.name }

// ID returns the key's unique identifier, stable for the life of the process.
func (k *Key) ID() string { return k.id.String() }

// tokenID returns an identifier that distinguishes tokens sharing a name.
func tokenID(t Token) string {
	switch v := t.(type) {
	case *Key:
		return v.ID()
	case *Class:
		return v.ID()
	case Name:
		return "name:" + string(v)
	default:
		return fmt.Sprintf("%T:%s", t, t.String())
	}
}

func mustBeUsableToken(t Token) {
	if t == nil {
		panic("di: nil token")
	}
	if !reflect.TypeOf(t).Comparable() {
		panic(fmt.Sprintf("di: token type %T is not comparable", t))
	}
}

func tokenNames(tokens []Token) []string {
	names := make([]string, len(tokens))
	for i, t := range tokens {
		names[i] = t.String()
	}
	return names
}
