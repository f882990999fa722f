// Package stream serves a live WebSocket feed of poll snapshots.
//
// Every connected client receives each snapshot as one JSON text message in
// the same shape the MQTT bridge and `isoft get --format json` use:
//
//	{
//	  "device": "192.168.1.40",
//	  "at": "2025-02-04T13:37:00Z",
//	  "readings": [
//	    {"measurement": "water_hardness", "value": 15, "unit": "°dH", ...}
//	  ],
//	  "errors": {"salt_level": "Request to device timed out"}
//	}
//
// The feed is one-way. Messages sent by clients are read and discarded so
// that control frames (ping, close) are processed. A client whose send
// buffer is full is disconnected rather than slowing the broadcast.
package stream
