// Package enrich asks a language model for a summary, topics, people and
// sentiment of each finished transcript and stores the answer on the asset.
//
// Replies are parsed leniently: only the outermost JSON object is read, and
// list fields may come back as strings or arrays. Each failure is stored as a
// short reason on the asset so the next batch retries it.
package enrich
