// Package internaldefs exposes the stable metric name definitions shared by
// exporter implementations.
//
// Counter definitions live here so the Prometheus and OTel exporters emit
// identical names and help strings. Changing a definition here changes every
// export surface at once.
package internaldefs
