// Package profile turns statement cash flows into suitability features and proposes
// bounded trading-policy overrides from them.
//
// Every function in this package is pure: no I/O, no shared state, safe to call from
// any number of goroutines. Inputs are expected to have passed domain validation.
package profile
