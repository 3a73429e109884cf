// Package campaign renders the codec fixture catalogue to disk.
//
// A campaign is a set of suites rendered at one or more sample rates:
//
//	compliance  broadcast-standard tones at fixed dBFS-RMS levels
//	quality     frequency response tones, a log sweep, harmonics and noise
//	stereo      channel placement and phase tests
//	stress      content switching, a 10 Hz impulse train and a two minute sine
//
// Files land in <out>/<rate>hz/<suite>/<name>.wav. Rate-independent
// metadata is written to <out>/reference_outputs, and an inventory of every
// file with its measured levels to <out>/inventory.json.
package campaign
