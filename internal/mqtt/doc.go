// Package mqtt bridges the softener to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect and subscription restore
//   - An availability topic backed by a Last Will and Testament
//   - Retained JSON state per measurement
//   - Command topics that drive device mutations
//
// # Topics
//
//	{prefix}/{device}/status                    online | offline (retained)
//	{prefix}/{device}/info                      device type, firmware, serial (retained)
//	{prefix}/{device}/state/{measurement}       {"value":..,"unit":..,"at":..} (retained)
//	{prefix}/{device}/command/{command}         payload is the argument
//	{prefix}/{device}/command/{command}/result  {"ok":..,"error":..}
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, topics)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	bridge := mqtt.NewBridge(client, deviceClient, topics, byte(cfg.MQTT.QoS))
//	if err := bridge.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package mqtt
