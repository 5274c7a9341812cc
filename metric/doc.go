// Package metric provides Prometheus-based metrics collection and an HTTP
// server for pipeline observability.
//
// The package offers a centralized registry managing both core pipeline
// metrics (conversion counts, durations, output volume, failures by error
// class) and component-specific metrics registered at runtime. A small HTTP
// server exposes the registry in Prometheus format for the duration of a
// batch run.
//
// # Basic Usage
//
//	registry := metric.NewRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("metrics server error: %v", err)
//	    }
//	}()
//
//	core := registry.CoreMetrics()
//	core.RecordConversion("cirrus", "heightmap", "converted", elapsed)
//
// Components register their own collectors through the Registrar interface;
// duplicate registration is rejected so a retried component cannot shadow an
// earlier one.
package metric
