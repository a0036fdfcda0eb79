// Package session models the authentication state published by the auth
// provider and the observable sources the access gate reads it from.
//
// A Session is owned by whoever publishes it. Readers only ever receive
// copies through Source.Current or a subscription channel.
package session
