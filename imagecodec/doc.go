// Package imagecodec inspects uploaded image bytes and derives thumbnails.
//
// Thumbnails are always exactly the configured box size (400x400 by
// default) and always JPEG: the source is flattened onto white, scaled
// down with Lanczos resampling to fit the box, and centered on a white
// canvas.
package imagecodec
