package wstest

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/renatosilva/wsconn/pkg/wsconn"
)

// Assert bundles the small set of generic assertion helpers this
// package's own tests (and callers of MockTransport/ChaosTransport)
// tend to repeat, trimmed down from a much larger testify-shaped
// helper that also carried HTML-document assertions unrelated to this
// domain.
type Assert struct {
	t *testing.T
}

// NewAssert creates a new Assert bound to t.
func NewAssert(t *testing.T) *Assert {
	return &Assert{t: t}
}

func (a *Assert) True(condition bool, msgAndArgs ...any) {
	a.t.Helper()
	if !condition {
		a.fail("expected true but got false", msgAndArgs...)
	}
}

func (a *Assert) False(condition bool, msgAndArgs ...any) {
	a.t.Helper()
	if condition {
		a.fail("expected false but got true", msgAndArgs...)
	}
}

func (a *Assert) Equal(expected, actual any, msgAndArgs ...any) {
	a.t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		a.fail(fmt.Sprintf("expected %v (%T) but got %v (%T)", expected, expected, actual, actual), msgAndArgs...)
	}
}

func (a *Assert) NoError(err error, msgAndArgs ...any) {
	a.t.Helper()
	if err != nil {
		a.fail(fmt.Sprintf("expected no error but got: %v", err), msgAndArgs...)
	}
}

func (a *Assert) Error(err error, msgAndArgs ...any) {
	a.t.Helper()
	if err == nil {
		a.fail("expected an error but got nil", msgAndArgs...)
	}
}

// Eventually polls condition every interval until it returns true or
// timeout elapses, failing the test if it never does. It is meant for
// asserting on asynchronous Session behavior (event publication,
// reconnect completion) without a fixed sleep.
func (a *Assert) Eventually(condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	a.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if condition() {
			return
		}
		if time.Now().After(deadline) {
			a.fail("condition never became true", msgAndArgs...)
			return
		}
		time.Sleep(interval)
	}
}

func (a *Assert) fail(message string, msgAndArgs ...any) {
	a.t.Helper()
	if len(msgAndArgs) > 0 {
		message = fmt.Sprintf("%s: %s", message, fmt.Sprint(msgAndArgs...))
	}
	a.t.Error(message)
}

// AssertSent fails the test unless one of transport's recorded sent
// frames has the given kind and payload, mirroring golivekit's
// MockSocket.AssertSentWithPayload but against the renamed
// MockTransport.SentFrames.
func AssertSent(t *testing.T, transport *MockTransport, kind wsconn.MessageKind, payload []byte) {
	t.Helper()
	frames := transport.SentFrames()
	for _, f := range frames {
		if f.Kind == kind && string(f.Payload) == string(payload) {
			return
		}
	}
	t.Errorf("expected a sent frame of kind %s with payload %q, none found in %d sent frames", kind, payload, len(frames))
}
