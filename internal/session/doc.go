// Package session tracks live device connections and fans trigger
// messages out to them.
//
// Sessions are in-memory, process-lifetime state keyed by device id. A
// device may hold any number of concurrent sessions; a broadcast reaches
// every session live at that moment and reports how many it reached.
// Nothing is queued for devices with no live session.
package session
