// Package startup handles configuration loading (defaults, optional
// YAML file, environment overrides), directory setup, build
// information, and the sectioned startup/shutdown logging.
package startup
