// Package event provides the synchronous topic bus that carries document and
// toolbar notifications between the session, the toolbar controller and the
// presentation shell.
//
// Delivery happens on the publisher's goroutine, in priority order, before
// Publish returns. This matches the single event-loop model of the toolbar:
// when a command finishes executing, every subscriber has already observed
// the post-mutation state.
//
// # Usage
//
//	bus := event.NewBus()
//	sub, _ := bus.Subscribe("document.**", func(ctx context.Context, e any) error {
//	    change := e.(event.Event[document.Change])
//	    ...
//	    return nil
//	})
//	defer bus.Unsubscribe(sub)
//
//	_ = bus.Publish(ctx, event.NewEvent(topic.DocumentContentChanged, change, "session"))
package event
