// Package api serves the measurement pipeline over HTTP.
//
// Routes:
//
//	POST /api/v1/scan/detect-card  card presence check
//	POST /api/v1/scan/process      full measurement
//	POST /api/v1/scan/overlay      outline drawn on the photograph (PNG)
//	POST /api/v1/scan/dxf          outline as a millimetre DXF drawing
//	GET  /health                   liveness
//	GET  /metrics                  worker pool counters
//
// Photographs are accepted as a multipart "file" field, a JSON body {"image": "<base64>"}
// or the raw request body. Pipeline calls run on a bounded WorkerPool so a burst of
// uploads queues instead of saturating the CPU; a request that cannot get a worker
// within the acquire timeout is answered with 503.
package api
