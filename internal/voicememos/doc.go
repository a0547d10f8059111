// Package voicememos reads the Apple Voice Memos catalogue.
//
// The CloudRecordings.db file is opened read-only and immutable so the Voice
// Memos app never sees a lock or a journal written by this process. Rows map
// to assets.Candidate values that the scan command reconciles into the store.
package voicememos
