package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/skreaver/skreaver/internal/identifier"
)

// MaxNamespaceLength bounds a namespace name.
const MaxNamespaceLength = 64

// Namespace validates and holds a namespace name (alphanumeric/_-, <=64
// chars), prepended as "{ns}:" to every key at the store boundary.
type Namespace struct {
	name string
}

// NewNamespace validates name as a namespace.
func NewNamespace(name string) (Namespace, error) {
	if name == "" {
		return Namespace{}, &identifier.ValidationError{Kind: identifier.ErrEmpty}
	}
	if len(name) > MaxNamespaceLength {
		return Namespace{}, &identifier.ValidationError{Kind: identifier.ErrTooLong, Length: len(name), Max: MaxNamespaceLength}
	}
	for _, c := range name {
		ok := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-'
		if !ok {
			return Namespace{}, &identifier.ValidationError{Kind: identifier.ErrInvalidCharacters, Input: name}
		}
	}
	return Namespace{name: name}, nil
}

func (n Namespace) prefixed(key Key) string {
	return fmt.Sprintf("%s:%s", n.name, key.String())
}

// View scopes a ReadWriter to a single namespace, rewriting every key at
// the boundary. The underlying store sees only flat, prefixed keys.
type View struct {
	ns      Namespace
	backend ReadWriter
}

// NewView returns a namespaced view over backend.
func NewView(ns Namespace, backend ReadWriter) *View {
	return &View{ns: ns, backend: backend}
}

func (v *View) rawKey(key Key) (Key, error) {
	return NewKey(v.ns.prefixed(key))
}

func (v *View) Load(ctx context.Context, key Key) (string, bool, error) {
	rk, err := v.rawKey(key)
	if err != nil {
		return "", false, err
	}
	return v.backend.Load(ctx, rk)
}

func (v *View) LoadMany(ctx context.Context, keys []Key) ([]*string, error) {
	raw := make([]Key, len(keys))
	for i, k := range keys {
		rk, err := v.rawKey(k)
		if err != nil {
			return nil, err
		}
		raw[i] = rk
	}
	return v.backend.LoadMany(ctx, raw)
}

func (v *View) Store(ctx context.Context, update Update) error {
	rk, err := v.rawKey(update.Key)
	if err != nil {
		return err
	}
	return v.backend.Store(ctx, Update{Key: rk, Value: update.Value})
}

func (v *View) StoreMany(ctx context.Context, updates []Update) error {
	raw := make([]Update, len(updates))
	for i, u := range updates {
		rk, err := v.rawKey(u.Key)
		if err != nil {
			return err
		}
		raw[i] = Update{Key: rk, Value: u.Value}
	}
	return v.backend.StoreMany(ctx, raw)
}

func (v *View) Delete(ctx context.Context, key Key) error {
	rk, err := v.rawKey(key)
	if err != nil {
		return err
	}
	return v.backend.Delete(ctx, rk)
}

// StripNamespace removes this view's "{ns}:" prefix from a raw backend key,
// for callers enumerating keys from the underlying store.
func (v *View) StripNamespace(rawKey string) (string, bool) {
	prefix := v.ns.name + ":"
	if !strings.HasPrefix(rawKey, prefix) {
		return "", false
	}
	return strings.TrimPrefix(rawKey, prefix), true
}
