// Package transcode coordinates a three-stage video transcoding
// pipeline: hardware decode, GPU frame transformation, hardware encode.
//
// A VideoPipeline owns one decoder, an optional FrameTransformer, and
// one encoder. Decoded frames are handed between stages through
// bounded Surface queues, so a slow stage applies backpressure instead
// of dropping frames. The transformer applies an affine transform
// (scale, rotate, crop) per frame with a textured-quad shader pass on a
// wgpu device.
//
// The pipeline is driven by a single goroutine repeatedly calling
// DequeueInputBuffer, QueueInputBuffer, ProcessData, and the output
// accessors. The only concurrent activity is the asynchronous frame
// delivery notification from a producer's Publish, which touches
// nothing but the transformer's atomic frame counters.
//
// Logging is silent by default; see SetLogger.
package transcode
