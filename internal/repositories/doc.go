// Package repositories implements SQLite persistence for the fetch
// pipeline.
//
// The track metadata database itself is a hand-editable JSON file owned by
// the store package; SQLite only backs the [FetchCache], where raw page
// payloads land so interrupted or repeated sync runs do not re-hit the
// remote service.
package repositories
