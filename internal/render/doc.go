// Package render holds the HAL-level GPU plumbing for the frame
// transformation stage: device/queue acquisition, the textured-quad
// render pipeline, and texture/render-target management.
//
// The package deliberately knows nothing about codecs, formats, or
// pipeline orchestration. It consumes wgpu/hal handles and raw uniform
// bytes, and is driven entirely by the transcode package.
//
// All GPU objects created here are single-owner: the caller that
// created a Context, QuadPipeline, Target, or InputTexture destroys it
// exactly once, from the goroutine that drives rendering. Nothing in
// this package locks around GPU calls.
package render
