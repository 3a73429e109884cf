// Package pcm packages finished waveforms into quantized, channel-interleaved
// buffers ready for an export sink.
//
// Quantization multiplies by the depth's full-scale value (32767 for 16-bit,
// 8388607 for 24-bit) and truncates toward zero. Results are clamped to
// [-max, +max] so an over-range waveform packaged without normalization
// saturates instead of wrapping. Float32 output is a plain cast. Mono and
// stereo packaging share the same rule.
package pcm
