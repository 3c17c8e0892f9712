package di

import "fmt"

// Kind tags the variant of an Injectable.
type Kind int

const (
	KindValue Kind = iota
	KindClass
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindClass:
		return "class"
	case KindAlias:
		return "alias"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Injectable describes how to satisfy a token. Build one with ValueOf,
// ClassOf or AliasOf.
type Injectable struct {
	kind   Kind
	value  any
	class  *Class
	scope  Scope
	target Token
}

// ValueOf resolves to payload itself, every time.
func ValueOf(payload any) Injectable {
	return Injectable{kind: KindValue, value: payload}
}

// ClassOf resolves by invoking class's constructor with its declared
// dependencies, cached per scope.
func ClassOf(class *Class, scope Scope) Injectable {
	if class == nil {
		panic("di: ClassOf called with nil class")
	}
	if !scope.valid() {
		panic(fmt.Sprintf("di: invalid scope %d for %s", int(scope), class))
	}
	return Injectable{kind: KindClass, class: class, scope: scope}
}

// AliasOf resolves to whatever target resolves to with requirement One.
func AliasOf(target Token) Injectable {
	mustBeUsableToken(target)
	return Injectable{kind: KindAlias, target: target}
}

func (i Injectable) Kind() Kind    { return i.kind }
func (i Injectable) Value() any    { return i.value }
func (i Injectable) Class() *Class { return i.class }
func (i Injectable) Scope() Scope  { return i.scope }
func (i Injectable) Target() Token { return i.target }

// Binding pairs a token with the injectable registered for it.
type Binding struct {
	Token      Token
	Injectable Injectable
}

// Bind is shorthand for a Binding literal.
func Bind(token Token, injectable Injectable) Binding {
	return Binding{Token: token, Injectable: injectable}
}
