package osc

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Method is an interface for OSC Methods.
type Method interface {
	HandleMessage(msg *Message)
}

// MethodFunc implements the Method interface. Type definition for an OSC Method function.
type MethodFunc func(msg *Message)

// HandleMessage calls itself with the given OSC Message. Implements the Method interface.
func (f MethodFunc) HandleMessage(msg *Message) {
	f(msg)
}

// Dispatcher handles the dispatching of received OSC Packets to Methods for
// their given Address. The zero value is ready to use.
type Dispatcher struct {
	// Logger receives panics raised by methods run for delayed bundles.
	Logger *zap.Logger

	mu      sync.RWMutex
	methods map[string]Method
}

// AddMethod adds a new OSC Method for the given OSC Address.
func (d *Dispatcher) AddMethod(addr string, method Method) error {
	if strings.ContainsAny(addr, "*?,[]{}# ") {
		return errors.Errorf("AddMethod: OSC Method %q may not contain any characters in \"*?,[]{}# \"", addr)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.methods == nil {
		d.methods = make(map[string]Method)
	}

	if _, ok := d.methods[addr]; ok {
		return errors.Errorf("AddMethod: OSC Method %q exists already", addr)
	}

	d.methods[addr] = method
	return nil
}

// AddMethodFunc allows you to just pass a MethodFunc.
func (d *Dispatcher) AddMethodFunc(addr string, method MethodFunc) error {
	return d.AddMethod(addr, method)
}

// RemoveMethod removes the OSC Method for addr, if any.
func (d *Dispatcher) RemoveMethod(addr string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.methods, addr)
}

// Dispatch dispatches OSC Packets. Messages are handled before Dispatch
// returns; bundle elements are handled when the bundle's timetag expires.
func (d *Dispatcher) Dispatch(packet Packet) error {
	switch p := packet.(type) {
	default:
		return errors.Errorf("dispatch: invalid Packet: %T", p)

	case *Message:
		for _, method := range d.match(p.Address) {
			method.HandleMessage(p)
		}
		return nil

	case *Bundle:
		run := func() {
			defer d.recoverer()
			for _, elem := range p.Elements {
				if err := d.Dispatch(elem); err != nil {
					d.logger().Error("dispatch bundle element", zap.Error(err))
				}
			}
		}
		if wait := p.Timetag.ExpiresIn(); wait > 0 {
			time.AfterFunc(wait, run)
		} else {
			run()
		}
		return nil
	}
}

// match returns the methods whose address matches the address pattern.
func (d *Dispatcher) match(pattern string) []Method {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !strings.ContainsAny(pattern, "*?[]{}") {
		if m, ok := d.methods[pattern]; ok {
			return []Method{m}
		}
		return nil
	}

	r, err := getRegEx(pattern)
	if err != nil {
		d.logger().Warn("dispatch: invalid address pattern", zap.String("pattern", pattern), zap.Error(err))
		return nil
	}
	r.Longest()

	aParts := strings.Count(pattern, "/")
	var methods []Method
	for addr, method := range d.methods {
		if aParts == strings.Count(addr, "/") && r.FindString(addr) == addr {
			methods = append(methods, method)
		}
	}
	return methods
}

func (d *Dispatcher) recoverer() {
	if err := recover(); err != nil {
		d.logger().Error("osc: panic handling bundle",
			zap.Any("panic", err),
			zap.Stack("stack"))
	}
}

func (d *Dispatcher) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// getRegEx returns a regexp.Regexp for the given address.
func getRegEx(pattern string) (*regexp.Regexp, error) {
	r := strings.NewReplacer(
		".", `\.`,
		"(", `\(`,
		")", `\)`,
		"*", "[^/]*",
		"{", "(",
		",", "|",
		"}", ")",
		"?", "[^/]",
		"!", "^",
	)
	pattern = r.Replace(pattern)

	return regexp.Compile(pattern)
}
