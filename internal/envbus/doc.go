// Package envbus carries viewport environment changes between processes over
// Redis. Publishers (the CLI's resize, media and print commands) write
// events; watchers subscribe and replay them into a mediaquery.Viewport.
//
// All Redis keys and channels are namespaced by instance name so that several
// independent viewports can share one Redis server:
//
//	mediawatch:{instance}:environment         hash with the latest media/width/height
//	mediawatch:{instance}:environment_events  Pub/Sub channel carrying Event JSON
//
// Delivery is at-most-once, as with any Redis Pub/Sub consumer. A watcher that
// starts late catches up by reading the stored environment first.
package envbus
