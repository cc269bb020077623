package imageio

import "errors"

// ErrInvalidPayload is returned when input bytes cannot be turned into a raster.
var ErrInvalidPayload = errors.New("invalid image payload")

// ErrUnsupportedFormat is returned by Encode for unknown output formats.
var ErrUnsupportedFormat = errors.New("unsupported output format")
