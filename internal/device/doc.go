// Package device talks to the local REST interface of a Judo i-soft water
// softener.
//
// The device exposes every value as a hex-encoded register behind
// {scheme}://{host}/api/rest/{register}. A GET returns {"data": "<hex>"}; a
// POST with {"data": "<hex>"} writes a register. Requests use HTTP Basic
// authentication.
//
// # Basic Usage
//
//	client, err := device.NewClient("192.168.1.40", "admin", "Connectivity")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if dH, ok := client.WaterHardness(ctx); ok {
//	    fmt.Printf("Hardness: %d °dH\n", dH)
//	}
//
//	if err := client.SetVacationMode(ctx, true); err != nil {
//	    fmt.Println(device.GetShortErrorMessage(err))
//	}
//
// # Accessors
//
// Measurement accessors return (value, ok). A failed request or an
// undecodable payload is logged and reported as ok == false; the client stays
// usable for the next call. Callers that need the failure use Measure,
// Statistics or FetchInfo, which return errors.
//
// Measurements and commands are also addressable by Kind and Command so that
// pollers and bridges can drive the client from configuration.
//
// # Caching
//
// Every call issues a fresh request. WithReadCache enables a short-lived read
// cache that any successful write invalidates.
//
// # Error Handling
//
// Request failures are *DeviceError values. IsTransportError matches network,
// timeout, DNS and refused connections; IsApplicationError matches HTTP
// status, authentication and envelope errors. Decode failures wrap
// register.ErrMalformedPayload.
//
// The client never retries. Callers poll again on their next cycle.
package device
