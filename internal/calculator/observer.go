package calculator

import (
	"context"
	"reflect"
)

// Observer is notified synchronously after every successful calculation,
// in registration order. Returning an error stops the remaining observers
// and fails the PerformOperation call that triggered the notification.
//
// Observers are identified by ==, so register pointers.
type Observer interface {
	Update(ctx context.Context, calc Calculation) error
}

func sameObserver(a, b Observer) bool {
	if a == nil || b == nil {
		return false
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !reflect.TypeOf(a).Comparable() {
		return false
	}
	return a == b
}
