// Package applets manages applet manifests: .deck YAML files naming each
// applet's UI entry point and the backend services it may invoke. The
// registry backs the /applets API and the per-connection permission scope
// of the invoke transport.
package applets
