// Package types defines the host record contracts, lifecycle events,
// configuration and standard error types shared by the recordkit services.
//
// A host entity is anything that implements Record. Services such as the
// identifier binding, the tag cache and the status field never embed
// themselves into the host; they receive the record as an explicit argument
// and subscribe to its lifecycle through a LifecycleNotifier when the host
// provides one.
package types
