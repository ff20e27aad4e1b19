// Package stacksampler drives the platform-specific external stack
// sampler used for flamegraph capture: Apple `sample` on macOS, `perf
// record`/`perf script` on Linux. Both variants return raw text in the
// format internal/flamegraph.Collapse expects for their platform.
package stacksampler

// stackDuration is the capture window when the compiler does not exit
// first.
const stackDuration = 10
