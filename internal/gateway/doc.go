// Package gateway forwards public /api requests to the backend services.
//
// A Registry maps path prefixes to targets. It is built once from config and
// never changes afterwards. A Proxy forwards one inbound request to one
// target, bounding the wait with a fixed timeout and translating transport
// failures into fixed JSON envelopes:
//
//	connect failure        500 {"error":"Service unavailable","message":"Failed to connect to service"}
//	no response in time    504 {"error":"Service timeout"}
//	response is not JSON   500 {"error":"Invalid response from service"}
//
// Every inbound request gets exactly one response. The timeout path and the
// completion path both write through a responder that records whether a
// response went out; the second writer is dropped.
package gateway
