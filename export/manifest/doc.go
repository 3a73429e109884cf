// Package manifest writes the JSON metadata that accompanies a fixture
// campaign: per-fixture encoder expectations, the configuration matrix the
// encoder is tested against, and an inventory of the files actually written.
package manifest
